// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import (
	"fmt"
	"math/bits"
)

// ErrUnsupportedLength is returned by ForwardNthRoot/InverseNthRoot when n
// does not divide the order of the multiplicative group of the current
// modulus, i.e. no primitive n-th root of unity exists mod m.
var ErrUnsupportedLength = fmt.Errorf("element: requested root order does not divide the group order")

// Int64Kernel implements Kernel for 64-bit-integer elements. Products are
// formed as full 128-bit intermediates via math/bits and reduced with a
// single division, which is exact for every modulus in Table (all well
// under 2^64) without any floating-point approximation.
type Int64Kernel struct {
	m uint64
}

// NewInt64Kernel returns a kernel primed for modulus m.
func NewInt64Kernel(m uint64) *Int64Kernel {
	k := &Int64Kernel{}
	k.SetModulus(m)
	return k
}

func (k *Int64Kernel) SetModulus(m uint64) { k.m = m }

func (k *Int64Kernel) Modulus() uint64 { return k.m }

func (k *Int64Kernel) Add(a, b uint64) uint64 {
	s := a + b
	if s >= k.m || s < a {
		s -= k.m
	}
	return s
}

func (k *Int64Kernel) Sub(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return k.m - (b - a)
}

func (k *Int64Kernel) Negate(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return k.m - a
}

func (k *Int64Kernel) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= k.m {
		hi %= k.m
	}
	_, rem := bits.Div64(hi, lo, k.m)
	return rem
}

func (k *Int64Kernel) Pow(a, e uint64) uint64 {
	result := uint64(1) % k.m
	base := a % k.m
	for e > 0 {
		if e&1 == 1 {
			result = k.Mul(result, base)
		}
		base = k.Mul(base, base)
		e >>= 1
	}
	return result
}

func (k *Int64Kernel) Inv(a uint64) (uint64, error) {
	if a%k.m == 0 {
		return 0, ErrNotInvertible
	}
	// m is prime, so a^(m-2) == a^-1 mod m (Fermat's little theorem).
	return k.Pow(a, k.m-2), nil
}

func (k *Int64Kernel) Div(a, b uint64) (uint64, error) {
	inv, err := k.Inv(b)
	if err != nil {
		return 0, err
	}
	return k.Mul(a, inv), nil
}

func (k *Int64Kernel) CreateWTable(w uint64, n int) []uint64 {
	table := make([]uint64, n/2)
	cur := uint64(1) % k.m
	for i := range table {
		table[i] = cur
		cur = k.Mul(cur, w)
	}
	return table
}

func (k *Int64Kernel) ForwardNthRoot(g uint64, n uint64) (uint64, error) {
	if n == 0 || (k.m-1)%n != 0 {
		return 0, ErrUnsupportedLength
	}
	return k.Pow(g, (k.m-1)/n), nil
}

func (k *Int64Kernel) InverseNthRoot(g uint64, n uint64) (uint64, error) {
	root, err := k.ForwardNthRoot(g, n)
	if err != nil {
		return 0, err
	}
	return k.Inv(root)
}
