// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

// ArrayAccess is a bounds-checked, mode-tagged handle onto a contiguous
// range of a DataStorage (§3). Exactly one of Release or Close must be
// called per handle; calling it twice is a no-op, never an error, since
// callers that release on every control-flow path (including error
// returns) should not have to track whether they already did.
type ArrayAccess struct {
	owner    *DataStorage
	mode     Mode
	offset   uint64
	length   uint64
	data     []uint64
	zeroCopy bool
	released bool
}

// GetArray returns a handle onto [offset, offset+length) of s. When the
// backing can offer a zero-copy view (memory-backed storages), Data
// aliases the live storage directly and Close is a cheap no-op; otherwise
// Data is a private buffer that Close writes back if the mode allows
// writes.
func (s *DataStorage) GetArray(mode Mode, offset, length uint64) (*ArrayAccess, error) {
	if err := s.checkRange(offset, length); err != nil {
		return nil, err
	}
	if mode.canWrite() && s.readOnly {
		return nil, ErrInvariantViolation
	}
	abs := s.offset + offset
	if raw, ok := s.b.rawSlice(abs, length); ok {
		return &ArrayAccess{owner: s, mode: mode, offset: abs, length: length, data: raw, zeroCopy: true}, nil
	}

	buf := make([]uint64, length)
	if mode.canRead() {
		if err := s.b.readAt(buf, abs); err != nil {
			return nil, err
		}
	}
	return &ArrayAccess{owner: s, mode: mode, offset: abs, length: length, data: buf}, nil
}

// Data returns the handle's in-memory view. Writes through it are only
// guaranteed visible to the owning storage after Close.
func (a *ArrayAccess) Data() []uint64 { return a.data }

// Len returns the number of elements this handle covers.
func (a *ArrayAccess) Len() int { return len(a.data) }

// Release is an alias for Close, matching the two names used
// interchangeably across the handle types of this package.
func (a *ArrayAccess) Release() error { return a.Close() }

// Close commits any pending write (buffered handles only; zero-copy
// handles already mutated the storage in place) and marks the handle
// released. It is idempotent.
func (a *ArrayAccess) Close() error {
	if a.released {
		return nil
	}
	a.released = true
	if a.zeroCopy || !a.mode.canWrite() {
		return nil
	}
	return a.owner.b.writeAt(a.data, a.offset)
}
