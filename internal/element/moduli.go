// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import "math/big"

// Modulus describes one of the three primes a three-NTT convolution runs
// over: m = k*2^s + 1, so that a primitive 2^s-th root of unity exists and
// every length up to 2^s can be transformed directly.
type Modulus struct {
	M uint64 // the prime itself
	K uint64 // cofactor: M == K*2^S + 1
	S uint   // 2^S divides M-1; sets MaxTransformLength

	// PrimitiveRoot is a generator of the multiplicative group mod M.
	PrimitiveRoot uint64

	// MaxRoot is a primitive 2^S-th root of unity mod M, i.e.
	// PrimitiveRoot^K mod M.
	MaxRoot uint64

	// MaxRootInv is the modular inverse of MaxRoot.
	MaxRootInv uint64
}

// MaxTransformLength returns the largest transform length this modulus
// directly supports (2^S).
func (mo Modulus) MaxTransformLength() uint64 {
	return uint64(1) << mo.S
}

// M0, M1, M2 are the three moduli used by the convolution driver, with
// M0 > M1 > M2 as required by §3. Each shares S = 50, so every length up
// to 2^50 elements (far beyond any realistic many-billion-digit operand)
// is directly addressable without the factor-3 overlay forcing a longer
// underlying transform than necessary.
//
// The primes and their primitive roots were derived offline (Miller-Rabin
// primality plus an explicit multiplicative-order check of MaxRoot) rather
// than copied from a reference implementation.
var (
	M0 = Modulus{
		M: 31525197391593473, K: 28, S: 50,
		PrimitiveRoot: 3,
		MaxRoot:       22876792454961,
		MaxRootInv:    21230513177608698,
	}
	M1 = Modulus{
		M: 30399297484750849, K: 27, S: 50,
		PrimitiveRoot: 11,
		MaxRoot:       13768335286539707,
		MaxRootInv:    767542827278387,
	}
	M2 = Modulus{
		M: 7881299347898369, K: 7, S: 50,
		PrimitiveRoot: 6,
		MaxRoot:       279936,
		MaxRootInv:    2554997560589295,
	}
)

// Table is the ordered [M0, M1, M2] table referenced throughout the
// convolution driver and CRT combiner.
var Table = [3]Modulus{M0, M1, M2}

// CRTConstants holds the derived constants of §3: pairwise and triple
// products of the moduli, and each modulus's CRT coefficient
// Ti = (M/mi)^-1 mod mi.
type CRTConstants struct {
	M01, M02, M12 *big.Int
	M012          *big.Int
	T0, T1, T2    uint64
}

// Derived computes the CRT constants for Table. It is computed once at
// package init rather than hand-derived, since the values depend only on
// the fixed modulus table above.
var Derived = computeCRTConstants(Table)

func computeCRTConstants(table [3]Modulus) CRTConstants {
	m0 := new(big.Int).SetUint64(table[0].M)
	m1 := new(big.Int).SetUint64(table[1].M)
	m2 := new(big.Int).SetUint64(table[2].M)

	m01 := new(big.Int).Mul(m0, m1)
	m02 := new(big.Int).Mul(m0, m2)
	m12 := new(big.Int).Mul(m1, m2)
	m012 := new(big.Int).Mul(m01, m2)

	t0 := inverseModBig(m12, m0)
	t1 := inverseModBig(m02, m1)
	t2 := inverseModBig(m01, m2)

	return CRTConstants{
		M01: m01, M02: m02, M12: m12, M012: m012,
		T0: t0, T1: t1, T2: t2,
	}
}

// FloatTable is the modulus table used by Float64Kernel. A float64
// mantissa holds 53 bits exactly, so these primes are kept well under 2^26:
// any product of two residues is under 2^52 and every intermediate of the
// Mul reduction below stays in the exactly-representable range.
var (
	FloatM0 = Modulus{M: 23068673, K: 22, S: 20, PrimitiveRoot: 3, MaxRoot: 7664329, MaxRootInv: 18342835}
	FloatM1 = Modulus{M: 13631489, K: 13, S: 20, PrimitiveRoot: 15, MaxRoot: 11799463, MaxRootInv: 6244495}
	FloatM2 = Modulus{M: 7340033, K: 7, S: 20, PrimitiveRoot: 3, MaxRoot: 2187, MaxRootInv: 4665133}
)

// FloatTableEntries is the ordered [FloatM0, FloatM1, FloatM2] table for
// the float64 element representation.
var FloatTableEntries = [3]Modulus{FloatM0, FloatM1, FloatM2}

func inverseModBig(a, m *big.Int) uint64 {
	r := new(big.Int).Mod(a, m)
	inv := new(big.Int).ModInverse(r, m)
	if inv == nil {
		panic("element: modulus table is not pairwise coprime")
	}
	return inv.Uint64()
}
