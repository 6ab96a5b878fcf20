// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/exp/mmap"
	"golang.org/x/sys/unix"
)

const elemBytes = 8

// diskBacking backs a DataStorage with a process-private scratch file:
// raw, little-endian, tightly-packed element records, no header, no
// checksum, deleted at process exit (§6 "Scratch file format").
//
// Reads go through a fresh read-only mmap (golang.org/x/exp/mmap) per
// access; writes go through a read-write mmap opened with
// golang.org/x/sys/unix.Mmap, written, Msync'd and unmapped. Re-mapping
// per access rather than holding one long-lived mapping keeps every read
// consistent with the file's current size after a resize.
type diskBacking struct {
	path     string
	file     *os.File
	n        uint64
	registry *Registry
}

func newDiskBacking(n uint64, gen FilenameGenerator, registry *Registry) (*diskBacking, error) {
	path := gen.Next()
	f, err := createScratchFile(path, registry)
	if err != nil {
		return nil, err
	}
	db := &diskBacking{path: path, file: f, n: n, registry: registry}
	if err := db.setSize(n); err != nil {
		db.close()
		return nil, err
	}
	runtime.SetFinalizer(db, func(d *diskBacking) { d.close() })
	return db, nil
}

func createScratchFile(path string, registry *Registry) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		registry.reclaimOneForRetry()
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return nil, ioError(path, err)
		}
	}
	registry.register(path)
	return f, nil
}

func ioError(filename string, cause error) error {
	return fmt.Errorf("storage: I/O failure on scratch file %q: %w", filename, cause)
}

func (d *diskBacking) size() uint64 { return d.n }

func (d *diskBacking) setSize(n uint64) error {
	newBytes := int64(n) * elemBytes
	if err := d.file.Truncate(newBytes); err != nil {
		d.registry.reclaimOneForRetry()
		if err2 := d.file.Truncate(newBytes); err2 != nil {
			return ioError(d.path, err2)
		}
	}
	// Truncate zero-extends on grow; ftruncate is invoked explicitly for
	// parity with hosts whose filesystems don't guarantee that (and to
	// make the zero-padding invariant explicit rather than incidental).
	if err := unix.Ftruncate(int(d.file.Fd()), newBytes); err != nil {
		return ioError(d.path, err)
	}
	d.n = n
	return nil
}

func (d *diskBacking) readAt(dst []uint64, offset uint64) error {
	r, err := mmap.Open(d.path)
	if err != nil {
		d.registry.reclaimOneForRetry()
		r, err = mmap.Open(d.path)
		if err != nil {
			return ioError(d.path, err)
		}
	}
	defer r.Close()

	buf := make([]byte, len(dst)*elemBytes)
	if _, err := readFullyAt(r, buf, int64(offset)*elemBytes); err != nil {
		return ioError(d.path, err)
	}
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint64(buf[i*elemBytes:])
	}
	return nil
}

// readFullyAt retries ReadAt until buf is filled or an error (other than a
// short read) occurs, matching §4.C's "retries until the requested byte
// count is satisfied" bulk-transfer contract.
func readFullyAt(r interface {
	ReadAt(p []byte, off int64) (int, error)
}, buf []byte, off int64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.ReadAt(buf[total:], off+int64(total))
		total += n
		if err != nil {
			if err == io.EOF && total == len(buf) {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

func (d *diskBacking) writeAt(src []uint64, offset uint64) error {
	byteOff := int64(offset) * elemBytes
	byteLen := len(src) * elemBytes
	needed := byteOff + int64(byteLen)
	if needed > int64(d.n)*elemBytes {
		return fmt.Errorf("storage: write [%d,%d) exceeds file size %d bytes", byteOff, needed, d.n*elemBytes)
	}

	mapLen := int(needed)
	region, err := unix.Mmap(int(d.file.Fd()), 0, mapLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		d.registry.reclaimOneForRetry()
		region, err = unix.Mmap(int(d.file.Fd()), 0, mapLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return ioError(d.path, err)
		}
	}
	defer unix.Munmap(region)

	for i, v := range src {
		binary.LittleEndian.PutUint64(region[byteOff+int64(i*elemBytes):], v)
	}
	return unix.Msync(region, unix.MS_SYNC)
}

// copyFrom moves n elements into d starting at dstOffset. Disk-to-disk
// transfers go file-to-file as raw bytes (no element decode/encode
// needed, since the on-disk format is exactly the in-memory uint64
// layout); any other combination goes through the block_size buffer.
func (d *diskBacking) copyFrom(src backing, srcOffset, dstOffset, n uint64, blockSize int) error {
	if sd, ok := src.(*diskBacking); ok {
		section := io.NewSectionReader(sd.file, int64(srcOffset)*elemBytes, int64(n)*elemBytes)
		w := io.NewOffsetWriter(d.file, int64(dstOffset)*elemBytes)
		if _, err := io.Copy(w, section); err != nil {
			return ioError(d.path, err)
		}
		return nil
	}
	return bufferedCopy(d, src, srcOffset, dstOffset, n, blockSize)
}

func (d *diskBacking) close() error {
	if d.file == nil {
		return nil
	}
	runtime.SetFinalizer(d, nil)
	err := d.file.Close()
	os.Remove(d.path)
	d.registry.unregister(d.path)
	d.file = nil
	return err
}

func (d *diskBacking) isDisk() bool { return true }

func (d *diskBacking) diskOps() (diskOps, bool) { return d, true }

func (d *diskBacking) rawSlice(offset, length uint64) ([]uint64, bool) { return nil, false }
