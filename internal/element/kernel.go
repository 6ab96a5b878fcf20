// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package element implements the modular-arithmetic kernels that every NTT
// strategy is built on: add/sub/mul/pow/inv modulo one of the three primes
// in a Moduli table, plus the root-of-unity and twiddle-table helpers the
// table, six-step and two-pass transforms share.
package element

import "fmt"

// ErrNotInvertible is returned by Kernel.Inv and Kernel.Div when the
// operand shares a factor with the current modulus (only possible for 0,
// since every configured modulus is prime).
var ErrNotInvertible = fmt.Errorf("element: value is not invertible modulo the current modulus")

// Kernel is the modular-arithmetic surface every NTT layer (table, six-step,
// two-pass, factor-3) is generalized over. Exactly one concrete
// implementation is active for a given element representation; SetModulus
// primes it for one of the three entries of a Moduli table.
//
// Implementations are monomorphized per representation (Int64Kernel,
// Float64Kernel) rather than dispatched dynamically in hot loops; Kernel
// itself is the seam the selector and convolution driver program against.
type Kernel interface {
	// SetModulus primes the kernel for subsequent Add/Sub/Mul/... calls.
	// m must be one of the three primes of the active Moduli table.
	SetModulus(m uint64)

	// Modulus returns the currently active modulus.
	Modulus() uint64

	Add(a, b uint64) uint64
	Sub(a, b uint64) uint64
	Negate(a uint64) uint64
	Mul(a, b uint64) uint64

	// Pow returns a^e mod the current modulus.
	Pow(a uint64, e uint64) uint64

	// Inv returns the multiplicative inverse of a modulo the current
	// modulus, or ErrNotInvertible if a == 0.
	Inv(a uint64) (uint64, error)

	// Div returns a/b modulo the current modulus.
	Div(a, b uint64) (uint64, error)

	// CreateWTable returns w^0, w^1, ..., w^(n/2-1) modulo the current
	// modulus, for use as the twiddle table of a length-n transform.
	CreateWTable(w uint64, n int) []uint64

	// ForwardNthRoot derives a primitive n-th root of unity from the
	// primitive root g of the current modulus.
	ForwardNthRoot(g uint64, n uint64) (uint64, error)

	// InverseNthRoot returns the modular inverse of ForwardNthRoot(g, n).
	InverseNthRoot(g uint64, n uint64) (uint64, error)
}
