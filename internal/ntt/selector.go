// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ntt

import (
	"fmt"
	"math/bits"
)

// Regime names the strategy a Plan selects.
type Regime int

const (
	RegimeTable Regime = iota
	RegimeSixStep
	RegimeTwoPass
)

func (r Regime) String() string {
	switch r {
	case RegimeTable:
		return "table"
	case RegimeSixStep:
		return "six-step"
	case RegimeTwoPass:
		return "two-pass"
	default:
		return "unknown"
	}
}

// SelectorConfig carries the host's cache and memory sizes the selector
// chooses a regime from (§6 Config; passed explicitly rather than read
// from a global, per the re-architecture notes).
type SelectorConfig struct {
	CacheL1Bytes    uint64
	CacheL2Bytes    uint64
	MemoryBytes     uint64
	MaxMemoryBlock  uint64
	ElementSizeByte int
}

// Plan is the selector's decision for one transform of length N.
type Plan struct {
	N        int // requested transform length
	Factor3  bool
	M        int // power-of-two part; N == M or N == 3*M
	Regime   Regime
	N1, N2   int // six-step/two-pass factorization of M, unused for RegimeTable
	BlockLen int // two-pass column block width, unused otherwise
}

// Select chooses a Plan for a transform of length n against maxLen (the
// active modulus's 2^S maximum transform length) and cfg (§4.I). It
// compares thresholds against M, the power-of-two part of n, per the
// resolved Open Question preferring power2size-based arithmetic over
// raw-size arithmetic: a factor-3 plan's cutoff is decided by its
// power-of-two core size, not by the full 3x length.
func Select(n int, maxLen uint64, cfg SelectorConfig) (Plan, error) {
	if n <= 0 {
		return Plan{}, fmt.Errorf("ntt: transform length must be positive, got %d", n)
	}
	if uint64(n) > maxLen {
		return Plan{}, ErrTransformLengthExceeded
	}

	factor3, m, err := splitPowerOfTwoPart(n)
	if err != nil {
		return Plan{}, err
	}

	elemSize := cfg.ElementSizeByte
	if elemSize <= 0 {
		elemSize = 8
	}
	mBytes := uint64(m) * uint64(elemSize)

	p := Plan{N: n, Factor3: factor3, M: m}

	switch {
	case n == 1:
		p.Regime = RegimeTable
	case mBytes <= cfg.CacheL1Bytes:
		p.Regime = RegimeTable
	case mBytes <= cfg.MemoryBytes:
		p.Regime = RegimeSixStep
		p.N1, p.N2 = squareFactorization(m)
	default:
		p.Regime = RegimeTwoPass
		p.N1, p.N2 = squareFactorization(m)
		block := 1
		if p.N1 > 0 {
			block = int(cfg.MaxMemoryBlock / (uint64(p.N1) * uint64(elemSize)))
		}
		if block < 1 {
			block = 1
		}
		if block > p.N2 {
			block = p.N2
		}
		p.BlockLen = block
	}
	return p, nil
}

// splitPowerOfTwoPart reports whether n itself is a power of two (in
// which case factor3 is false and m==n) or n/3 is (factor3 true, m==n/3),
// the only two shapes this module's strategies produce (§4.H).
func splitPowerOfTwoPart(n int) (factor3 bool, m int, err error) {
	if isPow2(n) {
		return false, n, nil
	}
	if n%3 == 0 && isPow2(n/3) {
		return true, n / 3, nil
	}
	return false, 0, fmt.Errorf("ntt: transform length %d is neither a power of two nor 3 times one", n)
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

// NextTransformLength returns the smallest length >= minLen that is
// either a power of two or 3 times one, the set of lengths this module's
// strategies can transform directly. The two families interleave as
// 4, 6, 8, 12, 16, 24, 32, ...; the tightest 3*2^j fit below the next
// power of two p2 is (p2/4)*3, three quarters of p2. Below p2==8 the only
// 3x candidate would have a power-of-two part of 1; it is not offered,
// so the power-of-two length is always used there.
func NextTransformLength(minLen int) int {
	if minLen <= 1 {
		return 1
	}
	p2 := 1
	for p2 < minLen {
		p2 <<= 1
	}
	if p2 >= 8 {
		if threeTimes := (p2 / 4) * 3; threeTimes >= minLen {
			return threeTimes
		}
	}
	return p2
}

// squareFactorization splits power-of-two m into n1*n2 with n1 a power of
// two, n1 <= n2 <= 2*n1: n1 = 2^floor(log2(m)/2).
func squareFactorization(m int) (n1, n2 int) {
	if m <= 1 {
		return m, 1
	}
	totalBits := bits.Len(uint(m)) - 1
	n1Bits := totalBits / 2
	n1 = 1 << n1Bits
	n2 = m / n1
	return n1, n2
}
