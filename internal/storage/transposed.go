// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"

	"github.com/apflib/nttcore/internal/transpose"
)

// TransposedArray is the disk-I/O primitive of §3/§4.C: it gathers a
// columns-wide strip of every row of a (size/rows) x rows on-disk matrix,
// transposes it into memory as a columns x (size/rows) buffer so that what
// was a column on disk can be row-transformed in memory, and on a WRITE
// close transposes back and scatters it to the file in the same pattern.
type TransposedArray struct {
	owner       *DataStorage
	ops         diskOps
	mode        Mode
	startColumn uint64
	columns     uint64
	rows        uint64
	data        []uint64
	released    bool
}

// GetTransposedArray opens a TransposedArray over s, which must be
// disk-backed: memory-backed storages reject this call since memory is
// already random-access (§4.C).
func (s *DataStorage) GetTransposedArray(mode Mode, startColumn, columns, rows uint64) (*TransposedArray, error) {
	if s.offset != 0 || s.isSubsequence {
		return nil, fmt.Errorf("storage: get_transposed_array requires a root storage, not a subsequence view")
	}
	ops, ok := s.b.diskOps()
	if !ok {
		return nil, fmt.Errorf("storage: get_transposed_array is only implemented by disk-backed storages")
	}
	if s.length%rows != 0 {
		return nil, fmt.Errorf("storage: length %d is not a multiple of rows %d", s.length, rows)
	}
	if mode.canRead() {
		data, err := ops.readTransposed(startColumn, columns, rows)
		if err != nil {
			return nil, err
		}
		return &TransposedArray{owner: s, ops: ops, mode: mode, startColumn: startColumn, columns: columns, rows: rows, data: data}, nil
	}
	bigRows := s.length / rows
	return &TransposedArray{owner: s, ops: ops, mode: mode, startColumn: startColumn, columns: columns, rows: rows, data: make([]uint64, columns*bigRows)}, nil
}

// Data returns the columns x (size/rows) in-memory buffer.
func (t *TransposedArray) Data() []uint64 { return t.data }

// Close commits a WRITE-mode TransposedArray back to the file (transposing
// back and scattering it in the original column pattern) and releases the
// handle; for a READ-mode handle it just releases.
func (t *TransposedArray) Close() error {
	if t.released {
		return nil
	}
	t.released = true
	if t.mode.canWrite() {
		return t.ops.writeTransposed(t.data, t.startColumn, t.columns, t.rows)
	}
	return nil
}

// Abandon releases the handle without committing any write.
func (t *TransposedArray) Abandon() {
	t.released = true
}

func (d *diskBacking) readTransposed(startColumn, columns, rows uint64) ([]uint64, error) {
	if d.n%rows != 0 {
		return nil, fmt.Errorf("storage: size %d is not a multiple of rows %d", d.n, rows)
	}
	bigRows := d.n / rows
	slab := make([]uint64, bigRows*columns)
	for r := uint64(0); r < bigRows; r++ {
		if err := d.readAt(slab[r*columns:(r+1)*columns], r*rows+startColumn); err != nil {
			return nil, err
		}
	}
	return transposeMatrix(slab, int(bigRows), int(columns)), nil
}

func (d *diskBacking) writeTransposed(data []uint64, startColumn, columns, rows uint64) error {
	if d.n%rows != 0 {
		return fmt.Errorf("storage: size %d is not a multiple of rows %d", d.n, rows)
	}
	bigRows := d.n / rows
	slab := transposeMatrix(data, int(columns), int(bigRows))
	for r := uint64(0); r < bigRows; r++ {
		if err := d.writeAt(slab[r*columns:(r+1)*columns], r*rows+startColumn); err != nil {
			return err
		}
	}
	return nil
}

// transposeMatrix returns the cols x rows transpose of the rows x cols
// row-major matrix in. It prefers the cache-blocked power-of-two transpose
// of internal/transpose when the shape qualifies, falling back to a
// direct element-by-element transpose for the general case (two-pass
// slabs one column wide, or of a width that is not a power of two, take
// the fallback).
func transposeMatrix(in []uint64, rows, cols int) []uint64 {
	if qualifiesForBlockedTranspose(rows, cols) {
		work := append([]uint64(nil), in...)
		if err := transpose.Transpose(work, rows, cols, transpose.CacheConfig{ElementSize: 8, L1Size: 1 << 15, L2Size: 1 << 20, CacheBurst: 64}); err == nil {
			return work
		}
	}
	out := make([]uint64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = in[i*cols+j]
		}
	}
	return out
}

func qualifiesForBlockedTranspose(rows, cols int) bool {
	pow2 := func(n int) bool { return n > 0 && n&(n-1) == 0 }
	if !pow2(rows) || !pow2(cols) {
		return false
	}
	return rows == cols || rows == 2*cols || cols == 2*rows
}
