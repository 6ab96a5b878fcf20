// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convolution implements §4.J's three-modulus convolution
// driver: it runs a forward NTT of both operands under each of the three
// primes of element.Table, multiplies pointwise, inverse-transforms, and
// hands the three residue sequences to internal/crt for reconstruction
// into the final mantissa.
package convolution

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/apflib/nttcore/internal/crt"
	"github.com/apflib/nttcore/internal/element"
	"github.com/apflib/nttcore/internal/ntt"
	"github.com/apflib/nttcore/internal/parallel"
	"github.com/apflib/nttcore/internal/storage"
	"github.com/apflib/nttcore/internal/transpose"
)

// Config carries every host-supplied knob the driver needs (§6 Context):
// cache/memory sizes for the NTT strategy selector, storage thresholds
// and a scratch-file generator for any operand large enough to need
// disk-backed storage, and a worker count for the parallel runner.
type Config struct {
	Selector       ntt.SelectorConfig
	Thresholds     storage.Thresholds
	FilenameGen    storage.FilenameGenerator
	Registry       *storage.Registry
	NumWorkers     int
	Cache          transpose.CacheConfig
	SharedLocks    *parallel.LockRegistry
	ShortPathLimit int // operand-length product at or below which schoolbook multiply runs directly
}

// shortPathDefault is the limit used when Config.ShortPathLimit is zero:
// operands whose length product is at most this take the schoolbook path.
const shortPathDefault = 1 << 12

// ErrSizeMismatch reports incompatible operand/result-size arguments.
var ErrSizeMismatch = fmt.Errorf("convolution: result size is too small for the given operands")

// Convolve computes the resultSize-word product of x and y (§6
// convolute). x and y are base-2^64 digit sequences, least-significant
// word first. When x and y alias the same backing array, Convolve takes
// the autoconvolution fast path and transforms the shared operand once.
func Convolve(ctx context.Context, x, y []uint64, resultSize int, cfg Config) ([]uint64, error) {
	if len(x) == 0 || len(y) == 0 {
		return make([]uint64, resultSize), nil
	}
	full := len(x) + len(y)

	limit := cfg.ShortPathLimit
	switch {
	case limit < 0:
		limit = 0 // negative disables the schoolbook fallback entirely
	case limit == 0:
		limit = shortPathDefault
	}
	if limit > 0 && len(x)*len(y) <= limit {
		return schoolbook(x, y, resultSize), nil
	}

	auto := len(x) == len(y) && sameBacking(x, y)

	L := ntt.NextTransformLength(full)
	maxLen := element.M2.MaxTransformLength() // the smallest of the three moduli's limits binds the transform length
	plan, err := ntt.Select(L, maxLen, cfg.Selector)
	if err != nil {
		return nil, err
	}

	residues := make([][]uint64, 3)
	table := element.Table
	for mi := 0; mi < 3; mi++ {
		r, err := convolveOneModulus(ctx, x, y, auto, L, plan, table[mi], cfg)
		if err != nil {
			return nil, err
		}
		residues[mi] = r
	}

	cb := crt.New()
	if cfg.NumWorkers > 1 {
		return cb.CombineParallel(residues[0], residues[1], residues[2], resultSize, cfg.NumWorkers)
	}
	return cb.Combine(residues[0], residues[1], residues[2], resultSize)
}

func sameBacking(x, y []uint64) bool {
	if len(x) == 0 || len(y) == 0 {
		return len(x) == len(y)
	}
	return &x[0] == &y[0]
}

// schoolbook computes the direct O(n*m) product, used below
// cfg.ShortPathLimit where NTT setup cost dominates (§4.J / §9 short
// convolution path).
func schoolbook(x, y []uint64, resultSize int) []uint64 {
	out := make([]uint64, resultSize)
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		var carry uint64
		for j, yj := range y {
			k := i + j
			if k >= resultSize {
				break
			}
			hi, lo := bits.Mul64(xi, yj)
			sum, c1 := bits.Add64(out[k], lo, 0)
			sum, c2 := bits.Add64(sum, carry, 0)
			out[k] = sum
			carry = hi + c1 + c2
		}
		k := i + len(y)
		for carry != 0 && k < resultSize {
			var c uint64
			out[k], c = bits.Add64(out[k], carry, 0)
			carry = c
			k++
		}
	}
	return out
}

// convolveOneModulus runs the forward transform of x and y (or just x,
// squared pointwise, for autoconvolution) under modulus m, multiplies
// pointwise, and inverse-transforms, returning the natural-order residue
// sequence (§4.J).
func convolveOneModulus(ctx context.Context, x, y []uint64, auto bool, L int, plan ntt.Plan, m element.Modulus, cfg Config) ([]uint64, error) {
	k := element.NewInt64Kernel(m.M)

	xr, err := transformOperand(ctx, x, L, plan, m, k, cfg, ntt.Forward)
	if err != nil {
		return nil, err
	}
	var yr []uint64
	if auto {
		yr = xr
	} else {
		yr, err = transformOperand(ctx, y, L, plan, m, k, cfg, ntt.Forward)
		if err != nil {
			return nil, err
		}
	}

	product := make([]uint64, L)
	for i := range product {
		product[i] = k.Mul(xr[i], yr[i])
	}

	return transformOperand(ctx, product, L, plan, m, k, cfg, ntt.Inverse)
}

// transformOperand zero-pads data to length L (copying; callers pass
// their own slices unmodified) and runs the transform regime plan
// selected, returning the transformed buffer.
func transformOperand(_ context.Context, data []uint64, L int, plan ntt.Plan, m element.Modulus, k element.Kernel, cfg Config, dir ntt.Direction) ([]uint64, error) {
	buf := make([]uint64, L)
	copy(buf, data)
	for i := range buf {
		buf[i] %= m.M
	}

	rc := ntt.RunConfig{
		Cache:      cfg.Cache,
		Thresholds: cfg.Thresholds,
		Filenames:  cfg.FilenameGen,
		Registry:   cfg.Registry,
	}
	if err := ntt.RunPlan(k, buf, plan, m.PrimitiveRoot, rc, dir); err != nil {
		return nil, err
	}
	return buf, nil
}
