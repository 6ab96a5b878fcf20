// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import "math"

const maxMemoryElements = math.MaxInt32 // native index range of the memory implementation

// memoryBacking backs a DataStorage with a contiguous Go slice. Reads and
// writes through overlapping subsequence views are visible to each other
// for free, since every view shares the same underlying slice.
type memoryBacking struct {
	data []uint64
}

func newMemoryBacking(n uint64) (*memoryBacking, error) {
	if n > maxMemoryElements {
		return nil, ErrSizeTooLarge
	}
	return &memoryBacking{data: make([]uint64, n)}, nil
}

func (m *memoryBacking) size() uint64 { return uint64(len(m.data)) }

func (m *memoryBacking) setSize(n uint64) error {
	if n > maxMemoryElements {
		return ErrSizeTooLarge
	}
	switch {
	case n == uint64(len(m.data)):
		return nil
	case n < uint64(len(m.data)):
		m.data = m.data[:n]
	default:
		grown := make([]uint64, n)
		copy(grown, m.data)
		m.data = grown
	}
	return nil
}

func (m *memoryBacking) readAt(dst []uint64, offset uint64) error {
	copy(dst, m.data[offset:offset+uint64(len(dst))])
	return nil
}

func (m *memoryBacking) writeAt(src []uint64, offset uint64) error {
	copy(m.data[offset:offset+uint64(len(src))], src)
	return nil
}

func (m *memoryBacking) copyFrom(src backing, srcOffset, dstOffset, n uint64, blockSize int) error {
	if sm, ok := src.(*memoryBacking); ok {
		copy(m.data[dstOffset:dstOffset+n], sm.data[srcOffset:srcOffset+n])
		return nil
	}
	return bufferedCopy(m, src, srcOffset, dstOffset, n, blockSize)
}

func (m *memoryBacking) close() error { return nil }

func (m *memoryBacking) isDisk() bool { return false }

func (m *memoryBacking) diskOps() (diskOps, bool) { return nil, false }

func (m *memoryBacking) rawSlice(offset, length uint64) ([]uint64, bool) {
	return m.data[offset : offset+length : offset+length], true
}

// bufferedCopy moves n elements from src to dst through a block_size
// buffer, used whenever at least one side of a CopyFrom is disk-backed.
func bufferedCopy(dst backing, src backing, srcOffset, dstOffset, n uint64, blockSize int) error {
	if blockSize <= 0 {
		blockSize = 1 << 16
	}
	buf := make([]uint64, blockSize)
	for n > 0 {
		chunk := uint64(len(buf))
		if chunk > n {
			chunk = n
		}
		if err := src.readAt(buf[:chunk], srcOffset); err != nil {
			return err
		}
		if err := dst.writeAt(buf[:chunk], dstOffset); err != nil {
			return err
		}
		srcOffset += chunk
		dstOffset += chunk
		n -= chunk
	}
	return nil
}
