// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transpose implements the cache-blocked, in-place matrix
// transpose (§4.B) that the six-step and two-pass NTT strategies use
// between their row-transform passes. It handles square matrices and the
// 2:1 / 1:2 rectangular shapes those strategies produce, for power-of-two
// side lengths.
package transpose

import (
	"fmt"
	"math/bits"
)

// CacheConfig carries the sizing knobs §4.B's three regimes select on.
// All sizes are in bytes; ElementSize is the size in bytes of one
// transformed element (8 for int64/float64 elements).
type CacheConfig struct {
	L1Size      int
	L2Size      int
	CacheBurst  int
	ElementSize int
}

// Regime names which of §4.B's three algorithmic paths TileSize selected.
type Regime int

const (
	RegimeL1Resident Regime = iota
	RegimeL2Resident
	RegimeOutOfL2
)

// TileSize picks a blocking factor and names the regime it corresponds to,
// for an n1 x n2 transpose under cfg.
func TileSize(cfg CacheConfig, n1, n2 int) (tile int, regime Regime) {
	elemSize := cfg.ElementSize
	if elemSize == 0 {
		elemSize = 8
	}
	l1Elems := isqrt(cfg.L1Size / elemSize)
	if n1 <= l1Elems {
		return n1, RegimeL1Resident
	}
	if n1*n2 <= cfg.L2Size/elemSize {
		burst := cfg.CacheBurst / elemSize
		if burst < 1 {
			burst = 1
		}
		return burst, RegimeL2Resident
	}
	b := isqrt(cfg.L1Size / elemSize)
	if b < 1 {
		b = 1
	}
	return b, RegimeOutOfL2
}

func isqrt(n int) int {
	if n <= 0 {
		return 1
	}
	r := int(bits.Len(uint(n))) / 2
	root := 1 << r
	for root*root > n {
		root--
	}
	for (root+1)*(root+1) <= n {
		root++
	}
	if root < 1 {
		root = 1
	}
	return root
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Transpose transposes the n1 x n2 row-major matrix stored in data
// in place, where n1 and n2 are powers of two and exactly one of
// n1 == n2, n1 == 2*n2, n2 == 2*n1 holds. cfg selects the blocking
// strategy; the result is independent of cfg.
func Transpose(data []uint64, n1, n2 int, cfg CacheConfig) error {
	if !isPowerOfTwo(n1) || !isPowerOfTwo(n2) {
		return fmt.Errorf("transpose: n1=%d n2=%d must both be powers of two", n1, n2)
	}
	if len(data) != n1*n2 {
		return fmt.Errorf("transpose: len(data)=%d does not match n1*n2=%d", len(data), n1*n2)
	}
	switch {
	case n1 == n2:
		tile, _ := TileSize(cfg, n1, n1)
		transposeSquareStrided(data, n1, 0, n1, tile)
		return nil
	case n2 == 2*n1:
		return transposeRect(data, n1, n2, cfg, true)
	case n1 == 2*n2:
		return transposeRect(data, n1, n2, cfg, false)
	default:
		return fmt.Errorf("transpose: shape n1=%d n2=%d is not square or a 2:1/1:2 rectangle", n1, n2)
	}
}

// transposeSquareStrided transposes the n x n block of data that begins at
// column colOffset within rows of the given stride, blocking the work into
// tile x tile panels. tile need not divide n evenly.
func transposeSquareStrided(data []uint64, n, colOffset, stride, tile int) {
	if tile < 1 {
		tile = n
	}
	for i0 := 0; i0 < n; i0 += tile {
		iEnd := min(i0+tile, n)
		for j0 := i0; j0 < n; j0 += tile {
			jEnd := min(j0+tile, n)
			if i0 == j0 {
				transposeDiagonalPanel(data, colOffset, stride, i0, iEnd)
				continue
			}
			swapPanels(data, colOffset, stride, i0, iEnd, j0, jEnd)
		}
	}
}

func transposeDiagonalPanel(data []uint64, colOffset, stride, lo, hi int) {
	for i := lo; i < hi; i++ {
		for j := i + 1; j < hi; j++ {
			a := i*stride + colOffset + j
			b := j*stride + colOffset + i
			data[a], data[b] = data[b], data[a]
		}
	}
}

func swapPanels(data []uint64, colOffset, stride, i0, iEnd, j0, jEnd int) {
	for i := i0; i < iEnd; i++ {
		for j := j0; j < jEnd; j++ {
			a := i*stride + colOffset + j
			b := j*stride + colOffset + i
			data[a], data[b] = data[b], data[a]
		}
	}
}
