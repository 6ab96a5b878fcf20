// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage implements §4.C's DataStorage abstraction: a uniform
// random-access, iterator, and transposed-view interface over sequences
// that may be backed by a plain in-memory array or by a memory-mapped
// scratch file on disk, chosen transparently from configured size
// thresholds.
package storage

import (
	"fmt"
)

// Mode is the access mode an ArrayAccess, Iterator or TransposedArray is
// opened with.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeReadWrite
)

func (m Mode) canRead() bool  { return m == ModeRead || m == ModeReadWrite }
func (m Mode) canWrite() bool { return m == ModeWrite || m == ModeReadWrite }

// Thresholds carries the host-configured size thresholds that decide
// whether a new storage is memory- or disk-backed (§4.C, §6).
type Thresholds struct {
	// MemoryThresholdBytes: storages no larger than this are memory-backed.
	MemoryThresholdBytes uint64
	// MaxMemoryBlockBytes: a cached storage may still be memory-backed
	// above MemoryThresholdBytes if it fits this larger bound.
	MaxMemoryBlockBytes uint64
	// BlockSizeBytes sizes the buffered copy loop of CopyFrom and of
	// cached-storage migration, and the default page size of Iterators.
	BlockSizeBytes int
	// ElementSize is the size in bytes of one element (8 for the
	// uint64-based element representations this module supports).
	ElementSize int
}

func (t Thresholds) elemSize() int {
	if t.ElementSize <= 0 {
		return 8
	}
	return t.ElementSize
}

// FilenameGenerator yields unique scratch-file names. Its only contract is
// uniqueness; the host supplies the concrete generator (§6).
type FilenameGenerator interface {
	Next() string
}

// ErrInvariantViolation reports a logic error: a caller asked a
// DataStorage to do something its own invariants forbid (resizing a
// subsequence view or a read-only storage). §4.C classifies this as a
// logic error, not a capacity or I/O failure; the root package surfaces it
// as the taxonomy's Internal kind.
var ErrInvariantViolation = fmt.Errorf("storage: invariant violation")

// ErrSizeTooLarge reports a size that would exceed the in-memory
// implementation's native index range (§4.C, §6 SizeTooLarge).
var ErrSizeTooLarge = fmt.Errorf("storage: requested size exceeds in-memory index range")

// backing is the shared implementation a DataStorage and all of its
// subsequence views point at. Subsequence views never own a backing; only
// the storage that created it (via CreateDataStorage/CreateCachedDataStorage)
// does, and closes it exactly once.
type backing interface {
	size() uint64
	setSize(n uint64) error
	readAt(dst []uint64, offset uint64) error
	writeAt(src []uint64, offset uint64) error
	copyFrom(src backing, srcOffset, dstOffset, n uint64, blockSize int) error
	close() error
	isDisk() bool
	diskOps() (diskOps, bool)
	// rawSlice returns a zero-copy view of [offset, offset+length) when the
	// backing can offer one (memory only) so ArrayAccess can hand callers
	// the live array instead of a read/write-back buffer.
	rawSlice(offset, length uint64) ([]uint64, bool)
}

// diskOps is the extra capability only disk-backed storages expose:
// transposed-view access (§4.C: "only implemented by disk-backed
// storages; memory-backed storages reject it").
type diskOps interface {
	readTransposed(startColumn, columns, rows uint64) ([]uint64, error)
	writeTransposed(data []uint64, startColumn, columns, rows uint64) error
}

// DataStorage owns a sequence of elements, transparently backed by memory
// or by a scratch file, and may be a subsequence view sharing a parent's
// backing (§3).
type DataStorage struct {
	b             backing
	offset        uint64
	length        uint64
	readOnly      bool
	isSubsequence bool
	closed        bool

	// Set on every root made by CreateDataStorage/CreateCachedDataStorage
	// (zero on views and on WrapExisting roots): SetSize consults these to
	// promote a memory-backed cached storage to disk once it outgrows its
	// allowance, and CopyFrom and Iterator take their block sizes from th.
	cached bool
	th     Thresholds
	gen    FilenameGenerator
	reg    *Registry
}

func newRoot(b backing, readOnly bool) *DataStorage {
	return &DataStorage{b: b, offset: 0, length: b.size(), readOnly: readOnly}
}

// Size returns the number of elements visible through this storage or view.
func (s *DataStorage) Size() uint64 { return s.length }

// IsReadOnly reports whether writes through this storage are rejected.
func (s *DataStorage) IsReadOnly() bool { return s.readOnly }

// IsSubsequence reports whether this storage is a view over a parent.
func (s *DataStorage) IsSubsequence() bool { return s.isSubsequence }

// SetSize resizes a non-subsequence, non-read-only storage: growing
// zero-pads, shrinking truncates.
func (s *DataStorage) SetSize(n uint64) error {
	if s.isSubsequence || s.readOnly {
		return ErrInvariantViolation
	}
	if s.cached && !s.b.isDisk() && n*uint64(s.th.elemSize()) > s.th.MaxMemoryBlockBytes {
		if err := s.migrateToDisk(n); err != nil {
			return err
		}
		s.length = n
		return nil
	}
	if err := s.b.setSize(n); err != nil {
		return err
	}
	s.length = n
	return nil
}

// migrateToDisk replaces a memory backing that has outgrown its cached
// allowance with a disk backing holding the same elements (§4.C storage
// migration), preserving the old backing's contents up to min(old, new)
// elements and zero-padding the rest.
func (s *DataStorage) migrateToDisk(newSize uint64) error {
	disk, err := newDiskBacking(newSize, s.gen, s.reg)
	if err != nil {
		return err
	}
	n := s.length
	if newSize < n {
		n = newSize
	}
	if n > 0 {
		if err := disk.copyFrom(s.b, 0, 0, n, s.th.BlockSizeBytes/s.th.elemSize()); err != nil {
			disk.close()
			return err
		}
	}
	s.b.close()
	s.b = disk
	return nil
}

// Subsequence returns a view sharing this storage's backing, read-only iff
// the parent is, carrying cumulative (offset, length).
func (s *DataStorage) Subsequence(offset, length uint64) (*DataStorage, error) {
	if offset+length > s.length {
		return nil, fmt.Errorf("storage: subsequence [%d,%d) out of range of length %d", offset, offset+length, s.length)
	}
	return &DataStorage{
		b:             s.b,
		offset:        s.offset + offset,
		length:        length,
		readOnly:      s.readOnly,
		isSubsequence: true,
	}, nil
}

// CopyFrom bulk-copies size elements from other into s, starting at
// element 0 of each. Disk-to-disk copies use a direct transfer; other
// backing combinations use a block_size-buffered loop.
func (s *DataStorage) CopyFrom(other *DataStorage, size uint64) error {
	if s.readOnly {
		return ErrInvariantViolation
	}
	return s.b.copyFrom(other.b, other.offset, s.offset, size, s.th.BlockSizeBytes/s.th.elemSize())
}

// Close releases this storage. It is a no-op on subsequence views, which
// never own the backing; on a root storage it is idempotent and, for a
// disk-backed root, deletes the scratch file.
func (s *DataStorage) Close() error {
	if s.isSubsequence || s.closed {
		return nil
	}
	s.closed = true
	return s.b.close()
}

func (s *DataStorage) checkRange(offset, length uint64) error {
	if offset+length > s.length {
		return fmt.Errorf("storage: range [%d,%d) out of bounds of length %d", offset, offset+length, s.length)
	}
	return nil
}
