// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

// CreateDataStorage returns a new zero-filled root storage of size
// elements, memory-backed when size*ElementSize fits th.MemoryThresholdBytes
// and disk-backed otherwise (§4.C, §6 create_data_storage). gen and reg are
// only consulted on the disk-backed path.
func CreateDataStorage(size uint64, th Thresholds, gen FilenameGenerator, reg *Registry) (*DataStorage, error) {
	return createStorage(size, th, th.MemoryThresholdBytes, false, gen, reg)
}

// CreateCachedDataStorage is like CreateDataStorage but applies the larger
// MaxMemoryBlockBytes allowance: short-lived scratch storages that fit
// comfortably in memory stay memory-backed even above the ordinary
// threshold (§6 create_cached_data_storage). A storage created this way
// migrates itself to disk automatically if a later SetSize grows it past
// that allowance.
func CreateCachedDataStorage(size uint64, th Thresholds, gen FilenameGenerator, reg *Registry) (*DataStorage, error) {
	s, err := createStorage(size, th, th.MaxMemoryBlockBytes, true, gen, reg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func createStorage(size uint64, th Thresholds, memoryAllowance uint64, cached bool, gen FilenameGenerator, reg *Registry) (*DataStorage, error) {
	bytes := size * uint64(th.elemSize())
	var b backing
	var err error
	if bytes <= memoryAllowance {
		b, err = newMemoryBacking(size)
	} else {
		b, err = newDiskBacking(size, gen, reg)
	}
	if err != nil {
		return nil, err
	}
	s := newRoot(b, false)
	s.cached = cached
	s.th = th
	s.gen = gen
	s.reg = reg
	return s, nil
}

// WrapExisting adapts an already-populated in-memory slice as a read-write
// root DataStorage without copying it (§6's create_data_storage(existing)
// overload). The returned storage owns data exclusively from the caller's
// point of view: further direct mutation of data outside the returned
// handle is the caller's responsibility to avoid.
func WrapExisting(data []uint64) *DataStorage {
	return newRoot(&memoryBacking{data: data}, false)
}

// WrapExistingReadOnly is WrapExisting for a caller that promises not to
// mutate data through any other path.
func WrapExistingReadOnly(data []uint64) *DataStorage {
	return newRoot(&memoryBacking{data: data}, true)
}
