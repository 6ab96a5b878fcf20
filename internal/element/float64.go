// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import "math"

// Float64Kernel implements Kernel for float64 elements, using the
// Barrett-in-floating-point technique §4.A alludes to: a cached
// approximate reciprocal of the modulus gives a fast quotient estimate,
// which is then corrected by exact integer-valued float64 arithmetic into
// the true residue. Every value handled here stays an exact integer as a
// float64 (no rounding error accumulates) because FloatTableEntries keeps
// the moduli small enough that intermediate products never leave the
// 53-bit exact range.
type Float64Kernel struct {
	m     float64
	invM  float64
	mU64  uint64
}

// NewFloat64Kernel returns a kernel primed for modulus m. m must be one of
// FloatTableEntries' primes (or another prime well under 2^26).
func NewFloat64Kernel(m uint64) *Float64Kernel {
	k := &Float64Kernel{}
	k.SetModulus(m)
	return k
}

func (k *Float64Kernel) SetModulus(m uint64) {
	k.mU64 = m
	k.m = float64(m)
	k.invM = 1.0 / k.m
}

func (k *Float64Kernel) Modulus() uint64 { return k.mU64 }

func (k *Float64Kernel) Add(a, b uint64) uint64 {
	s := float64(a) + float64(b)
	if s >= k.m {
		s -= k.m
	}
	return uint64(s)
}

func (k *Float64Kernel) Sub(a, b uint64) uint64 {
	d := float64(a) - float64(b)
	if d < 0 {
		d += k.m
	}
	return uint64(d)
}

func (k *Float64Kernel) Negate(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return uint64(k.m - float64(a))
}

// Mul reduces the exact product a*b (representable exactly as a float64
// since both factors are under 2^26) modulo m, using a floating quotient
// estimate corrected to the exact integer residue.
func (k *Float64Kernel) Mul(a, b uint64) uint64 {
	product := float64(a) * float64(b)
	q := math.Floor(product * k.invM)
	r := product - q*k.m
	// The floating estimate can be off by one ULP in either direction;
	// nudge into [0, m) exactly, which terminates in at most two steps.
	for r < 0 {
		r += k.m
	}
	for r >= k.m {
		r -= k.m
	}
	return uint64(r)
}

func (k *Float64Kernel) Pow(a, e uint64) uint64 {
	result := uint64(1) % k.mU64
	base := a % k.mU64
	for e > 0 {
		if e&1 == 1 {
			result = k.Mul(result, base)
		}
		base = k.Mul(base, base)
		e >>= 1
	}
	return result
}

func (k *Float64Kernel) Inv(a uint64) (uint64, error) {
	if a%k.mU64 == 0 {
		return 0, ErrNotInvertible
	}
	return k.Pow(a, k.mU64-2), nil
}

func (k *Float64Kernel) Div(a, b uint64) (uint64, error) {
	inv, err := k.Inv(b)
	if err != nil {
		return 0, err
	}
	return k.Mul(a, inv), nil
}

func (k *Float64Kernel) CreateWTable(w uint64, n int) []uint64 {
	table := make([]uint64, n/2)
	cur := uint64(1) % k.mU64
	for i := range table {
		table[i] = cur
		cur = k.Mul(cur, w)
	}
	return table
}

func (k *Float64Kernel) ForwardNthRoot(g uint64, n uint64) (uint64, error) {
	if n == 0 || (k.mU64-1)%n != 0 {
		return 0, ErrUnsupportedLength
	}
	return k.Pow(g, (k.mU64-1)/n), nil
}

func (k *Float64Kernel) InverseNthRoot(g uint64, n uint64) (uint64, error) {
	root, err := k.ForwardNthRoot(g, n)
	if err != nil {
		return 0, err
	}
	return k.Inv(root)
}
