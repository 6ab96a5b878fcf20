// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import "fmt"

// Iterator walks a DataStorage element by element, forward or in reverse.
// It is paged: the iterator loads pageSizeElements elements at a time
// (when that is 0, the storage's BlockSizeBytes/ElementSize, or 4096 if
// BlockSizeBytes is unset) and only touches the backing again when the
// cursor crosses a page boundary or on Close, instead of one read/write
// syscall per element (§4.C).
type Iterator struct {
	owner    *DataStorage
	mode     Mode
	reverse  bool
	pos      uint64 // next element to serve, measured in [0, length)
	length   uint64
	pageSize uint64

	page      []uint64
	pageStart uint64 // absolute offset within owner of page[0]
	pageLen   uint64
	pageDirty bool
	loaded    bool
	closed    bool
}

// Iterator returns a forward (reverse=false) or reverse cursor over the
// whole of s.
func (s *DataStorage) Iterator(mode Mode, reverse bool, pageSizeElements uint64) (*Iterator, error) {
	if mode.canWrite() && s.readOnly {
		return nil, ErrInvariantViolation
	}
	if pageSizeElements == 0 && s.th.BlockSizeBytes > 0 {
		pageSizeElements = uint64(s.th.BlockSizeBytes / s.th.elemSize())
	}
	if pageSizeElements == 0 {
		pageSizeElements = 4096
	}
	it := &Iterator{owner: s, mode: mode, reverse: reverse, length: s.length, pageSize: pageSizeElements}
	if reverse {
		it.pos = s.length
	}
	return it, nil
}

// HasNext reports whether another element remains in the iteration
// direction.
func (it *Iterator) HasNext() bool {
	if it.reverse {
		return it.pos > 0
	}
	return it.pos < it.length
}

// Next returns the next element in iteration order and advances the
// cursor.
func (it *Iterator) Next() (uint64, error) {
	if !it.HasNext() {
		return 0, fmt.Errorf("storage: iterator exhausted")
	}
	var idx uint64
	if it.reverse {
		it.pos--
		idx = it.pos
	} else {
		idx = it.pos
		it.pos++
	}
	if err := it.ensurePage(idx); err != nil {
		return 0, err
	}
	return it.page[idx-it.pageStart], nil
}

// SetLast overwrites the element most recently returned by Next. The
// iterator must have been opened in a write-capable mode.
func (it *Iterator) SetLast(v uint64) error {
	if !it.mode.canWrite() {
		return ErrInvariantViolation
	}
	var idx uint64
	if it.reverse {
		idx = it.pos
	} else {
		idx = it.pos - 1
	}
	if idx < it.pageStart || idx >= it.pageStart+it.pageLen {
		return fmt.Errorf("storage: set_last called without a matching Next")
	}
	it.page[idx-it.pageStart] = v
	it.pageDirty = true
	return nil
}

func (it *Iterator) ensurePage(idx uint64) error {
	if it.loaded && idx >= it.pageStart && idx < it.pageStart+it.pageLen {
		return nil
	}
	if err := it.flush(); err != nil {
		return err
	}

	start := (idx / it.pageSize) * it.pageSize
	end := start + it.pageSize
	if end > it.length {
		end = it.length
	}
	n := end - start

	buf := make([]uint64, n)
	if it.mode.canRead() {
		if err := it.owner.b.readAt(buf, it.owner.offset+start); err != nil {
			return err
		}
	}
	it.page = buf
	it.pageStart = start
	it.pageLen = n
	it.loaded = true
	return nil
}

func (it *Iterator) flush() error {
	if !it.loaded || !it.pageDirty {
		it.pageDirty = false
		return nil
	}
	it.pageDirty = false
	return it.owner.b.writeAt(it.page, it.owner.offset+it.pageStart)
}

// Close flushes any pending page write. Idempotent.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.flush()
}
