// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nttcore is the public facade over the arbitrary-precision
// multiplication core: a three-modulus NTT convolution engine with a
// storage layer that transparently spills to disk for operands too large
// for memory. The heavy machinery lives in internal/element,
// internal/transpose, internal/storage, internal/parallel, internal/ntt
// and internal/crt; this package wires them together behind Convolute,
// CreateNTT and the DataStorage constructors, the way gonum's fourier,
// mat and blas64 packages sit atop internal/asm and internal/cephes.
package nttcore

import (
	"context"
	"fmt"

	"github.com/apflib/nttcore/internal/convolution"
	"github.com/apflib/nttcore/internal/element"
	"github.com/apflib/nttcore/internal/ntt"
	"github.com/apflib/nttcore/internal/parallel"
	"github.com/apflib/nttcore/internal/storage"
	"github.com/apflib/nttcore/internal/transpose"
)

// Sequence is an ordered, finite series of base-2^64 elements (§3
// "Sequence"). It is the concrete type the facade accepts and returns at
// its boundary; Digits is an alias for the same underlying
// representation used when a value is read as a little-endian digit
// stream rather than an opaque element series.
type Sequence = Digits

// Digits is a little-endian base-2^64 digit sequence: Digits[0] is the
// least significant word. Convolute treats both its operands and its
// result this way.
type Digits []uint64

// Len reports the number of elements in d.
func (d Digits) Len() int { return len(d) }

// Clone returns an independent copy of d.
func (d Digits) Clone() Digits {
	c := make(Digits, len(d))
	copy(c, d)
	return c
}

// Config is the host configuration every entry point in this package
// takes as an explicit argument (§6 "Host configuration", Design Note
// 5): element representation, cache/memory sizing, the worker pool and
// scratch-file plumbing, and the shared-memory lock sentinel. There is
// no global or process-wide equivalent; a caller constructs one Config
// per logical host environment (e.g. one per machine profile) and reuses
// it across calls.
type Config struct {
	// CacheL1Bytes, CacheL2Bytes and CacheBurstBytes size the transpose
	// regimes of §4.B.
	CacheL1Bytes   uint64
	CacheL2Bytes   uint64
	CacheBurstBytes uint64

	// BlockSizeBytes sizes the buffered copy loop of storage copies and
	// the default page size of storage iterators (§4.C).
	BlockSizeBytes uint64

	// MemoryThresholdBytes and MaxMemoryBlockBytes choose memory vs. disk
	// backing for ordinary and cached storages respectively (§4.C, §6).
	MemoryThresholdBytes uint64
	MaxMemoryBlockBytes  uint64

	// SharedMemoryThresholdBytes holds the host's shared-memory threshold
	// (§4.D, §6 sharedMemoryThreshold). No function in this package reads
	// it: Convolute and CreateNTT run without taking any shared-memory
	// lock, whatever the working-set size.
	SharedMemoryThresholdBytes uint64

	// NumberOfProcessors bounds how many goroutines a ParallelRunner or
	// the CRT combiner's block pipeline fans out to (§6).
	NumberOfProcessors int

	// Filenames yields unique scratch-file names for disk-backed storage
	// (§6 "filename generator"). Required whenever an operation may need
	// disk backing; CreateDataStorage et al. return an error if it is
	// nil and a disk-backed storage turns out to be necessary.
	Filenames storage.FilenameGenerator

	// Registry tracks this Config's scratch files for CleanUp/Gc (§6
	// cleanUp/gc). Construct one with NewRegistry and reuse it across
	// every call built from the same Config; a nil Registry is only
	// valid when every operation a Config is used for stays entirely
	// memory-backed.
	Registry *storage.Registry

	// ShortPathLimit is the operand-length product at or below which Convolute
	// dispatches straight to a schoolbook multiply instead of paying NTT
	// setup cost (§1 "Schoolbook and Karatsuba... dispatch to the core
	// when neither applies" — the core still needs *some* cutoff so
	// tiny convolutions don't round-trip through three full NTTs). Zero
	// selects a small built-in default; negative disables the fallback
	// entirely, which is useful for tests that want every call to
	// exercise the NTT path.
	ShortPathLimit int
}

// NewRegistry returns a scratch-file registry for use as a Config's
// Registry field. §6's "process-wide" scratch-file bookkeeping is scoped
// here to the caller's own Config value rather than a package-level
// global (Design Note 1/5): one Registry per logical host environment,
// constructed once and reused across every Config built from it.
func NewRegistry() *storage.Registry { return storage.NewRegistry() }

func (c *Config) thresholds() storage.Thresholds {
	return storage.Thresholds{
		MemoryThresholdBytes: c.MemoryThresholdBytes,
		MaxMemoryBlockBytes:  c.MaxMemoryBlockBytes,
		BlockSizeBytes:       int(c.BlockSizeBytes),
		ElementSize:          8,
	}
}

func (c *Config) cacheConfig() transpose.CacheConfig {
	return transpose.CacheConfig{
		L1Size:      int(c.CacheL1Bytes),
		L2Size:      int(c.CacheL2Bytes),
		CacheBurst:  int(c.CacheBurstBytes),
		ElementSize: 8,
	}
}

func (c *Config) selectorConfig() ntt.SelectorConfig {
	return ntt.SelectorConfig{
		CacheL1Bytes:    c.CacheL1Bytes,
		CacheL2Bytes:    c.CacheL2Bytes,
		MemoryBytes:     c.MemoryThresholdBytes,
		MaxMemoryBlock:  c.MaxMemoryBlockBytes,
		ElementSizeByte: 8,
	}
}

func (c *Config) convolutionConfig() convolution.Config {
	return convolution.Config{
		Selector:       c.selectorConfig(),
		Thresholds:     c.thresholds(),
		FilenameGen:    c.Filenames,
		Registry:       c.Registry,
		NumWorkers:     c.NumberOfProcessors,
		Cache:          c.cacheConfig(),
		ShortPathLimit: c.ShortPathLimit,
	}
}

// Errors surfaced at this package's boundary. Each wraps (via errors.Is)
// the internal-package sentinel it stands in for, so callers that only
// import nttcore can still match on the taxonomy of §6/§7 without
// reaching into internal packages themselves.
var (
	// ErrTransformLengthExceeded reports a requested transform length
	// beyond what a modulus supports (§6 TransformLengthExceeded).
	ErrTransformLengthExceeded = ntt.ErrTransformLengthExceeded

	// ErrSizeTooLarge reports an in-memory size beyond the storage
	// layer's native index range (§6 SizeTooLarge).
	ErrSizeTooLarge = storage.ErrSizeTooLarge

	// ErrArithmetic reports a non-invertible element or division by
	// zero inside a modular-arithmetic kernel (§6 ArithmeticError).
	ErrArithmetic = element.ErrNotInvertible

	// ErrInterrupted reports a worker join cancelled before all
	// submitted work completed (§6 Interrupted).
	ErrInterrupted = parallel.ErrInterrupted
)

// Convolute computes the resultSize-element convolution of x and y (§6
// convolute): the base-2^64 digit sequence of x*y, truncated or
// zero-extended to exactly resultSize elements. x and y are never
// mutated. Passing y as the same Digits value as x (same backing array)
// takes the autoconvolution fast path described in §4.J, transforming
// the shared operand once instead of twice.
func Convolute(ctx context.Context, x, y Digits, resultSize int, cfg Config) (Digits, error) {
	out, err := convolution.Convolve(ctx, x, y, resultSize, cfg.convolutionConfig())
	if err != nil {
		return nil, err
	}
	return Digits(out), nil
}

// NttStrategy is a single-modulus NTT ready to run forward or inverse
// transforms of one fixed length (§4.I "NTT strategy selector"): the
// table, six-step or two-pass regime Select picked, wrapped in the
// Factor-3 overlay when the requested length needed it. A NttStrategy is
// not tied to the three-modulus convolution driver; it is the building
// block (4.E-I) that driver (4.J) is built from, exposed directly for
// callers that want a raw transform over one of the module's three fixed
// primes.
type NttStrategy struct {
	plan          ntt.Plan
	modulus       element.Modulus
	kernel        element.Kernel
	runConfig     ntt.RunConfig
}

// Len returns the transform length this strategy was created for.
func (s *NttStrategy) Len() int { return s.plan.N }

// Forward runs the forward transform of data in place. len(data) must
// equal s.Len().
func (s *NttStrategy) Forward(data []uint64) error {
	return ntt.RunPlan(s.kernel, data, s.plan, s.modulus.PrimitiveRoot, s.runConfig, ntt.Forward)
}

// Inverse runs the inverse transform of data in place, including the
// final 1/length normalization (§4.E). len(data) must equal s.Len().
func (s *NttStrategy) Inverse(data []uint64) error {
	return ntt.RunPlan(s.kernel, data, s.plan, s.modulus.PrimitiveRoot, s.runConfig, ntt.Inverse)
}

// CreateNTT returns an NttStrategy for a transform of at least size
// elements (§6 createNTT), rounded up to the next length the module's
// strategies support directly (a power of two or three times one) and
// run over the largest of the three fixed moduli in element.Table. The
// selector (§4.I) picks which regime backs it from cfg's cache and
// memory sizes.
func CreateNTT(size uint64, cfg Config) (*NttStrategy, error) {
	n := ntt.NextTransformLength(int(size))
	m := element.M0
	plan, err := ntt.Select(n, m.MaxTransformLength(), cfg.selectorConfig())
	if err != nil {
		return nil, err
	}
	return &NttStrategy{
		plan:    plan,
		modulus: m,
		kernel:  element.NewInt64Kernel(m.M),
		runConfig: ntt.RunConfig{
			Cache:      cfg.cacheConfig(),
			Thresholds: cfg.thresholds(),
			Filenames:  cfg.Filenames,
			Registry:   cfg.Registry,
		},
	}, nil
}

// CreateDataStorage returns a new zero-filled storage of size elements,
// memory-backed below cfg.MemoryThresholdBytes and disk-backed above it
// (§6 createDataStorage).
func CreateDataStorage(size uint64, cfg Config) (*storage.DataStorage, error) {
	if err := requireFilenames(size, cfg.MemoryThresholdBytes, cfg); err != nil {
		return nil, err
	}
	return storage.CreateDataStorage(size, cfg.thresholds(), cfg.Filenames, cfg.Registry)
}

// CreateCachedDataStorage returns a new zero-filled storage intended for
// transient, short-lived use, staying memory-backed up to the larger
// cfg.MaxMemoryBlockBytes allowance even above the ordinary memory
// threshold (§6 createCachedDataStorage).
func CreateCachedDataStorage(size uint64, cfg Config) (*storage.DataStorage, error) {
	if err := requireFilenames(size, cfg.MaxMemoryBlockBytes, cfg); err != nil {
		return nil, err
	}
	return storage.CreateCachedDataStorage(size, cfg.thresholds(), cfg.Filenames, cfg.Registry)
}

// CreateDataStorageFrom adapts an already-populated in-memory digit
// sequence as a read-write root DataStorage without copying it (§6's
// create_data_storage(existing) overload).
func CreateDataStorageFrom(existing Digits) *storage.DataStorage {
	return storage.WrapExisting([]uint64(existing))
}

func requireFilenames(size, memoryAllowance uint64, cfg Config) error {
	bytes := size * 8
	if bytes > memoryAllowance && cfg.Filenames == nil {
		return fmt.Errorf("nttcore: storage of %d bytes exceeds the memory threshold and no filename generator was configured", bytes)
	}
	return nil
}

// CleanUp releases every scratch file cfg.Registry has tracked (§6
// cleanUp). Safe to call at host shutdown; safe to call more than once;
// a no-op when cfg.Registry is nil.
func CleanUp(cfg Config) {
	if cfg.Registry != nil {
		cfg.Registry.CleanUp()
	}
}

// Gc triggers a best-effort finalization sweep of scratch files whose
// owning DataStorage was dropped without an explicit Close (§6 gc).
// A no-op when cfg.Registry is nil.
func Gc(cfg Config) {
	if cfg.Registry != nil {
		cfg.Registry.Gc()
	}
}
