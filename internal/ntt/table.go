// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ntt implements the fast number-theoretic transform strategies of
// §4.E-I: an in-cache table transform built directly on a twiddle table,
// a six-step transform that factors an in-memory length n = n1*n2 into
// two table-transform passes joined by a matrix transpose, a two-pass
// transform that does the same over disk-backed storage, a factor-3
// overlay extending any of them from a power of two to three times a
// power of two, and a selector that picks among these by transform
// length and the host's configured cache and memory sizes.
package ntt

import (
	"fmt"
	"math/bits"

	"github.com/apflib/nttcore/internal/element"
)

// ErrTransformLengthExceeded reports a transform length that exceeds the
// active modulus's maximum supported length, 2^S (§6
// TransformLengthExceeded).
var ErrTransformLengthExceeded = fmt.Errorf("ntt: transform length exceeds the modulus's maximum transform length")

// Direction selects the forward or inverse transform.
type Direction int

const (
	Forward Direction = iota
	Inverse
)

// bitReverse scrambles data into bit-reversed order in place; n must be a
// power of two. Both TableForward (Sande-Tukey, decimation in frequency)
// and TableInverse (Cooley-Tukey, decimation in time) need exactly one
// bit-reversal pass, at the output and input respectively.
func bitReverse(data []uint64, n int) {
	bitsN := bits.Len(uint(n)) - 1
	for i := 0; i < n; i++ {
		j := reverseBits(i, bitsN)
		if j > i {
			data[i], data[j] = data[j], data[i]
		}
	}
}

func reverseBits(x, numBits int) int {
	r := 0
	for i := 0; i < numBits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// WTable holds the precomputed twiddle factors for a length-n table
// transform over one modulus: wTable[i] = w^i for i in [0, n/2).
type WTable struct {
	N   int
	W   []uint64
	Inv []uint64
}

// BuildWTable derives the forward and inverse twiddle tables for a
// length-n transform from the primitive root of k's current modulus
// (§4.A create_w_table, forward/inverse nth root).
func BuildWTable(k element.Kernel, primitiveRoot uint64, n int) (*WTable, error) {
	w, err := k.ForwardNthRoot(primitiveRoot, uint64(n))
	if err != nil {
		return nil, err
	}
	wInv, err := k.InverseNthRoot(primitiveRoot, uint64(n))
	if err != nil {
		return nil, err
	}
	return &WTable{N: n, W: k.CreateWTable(w, n), Inv: k.CreateWTable(wInv, n)}, nil
}

// TableForward performs an in-place, length-n (n a power of two)
// Sande-Tukey decimation-in-frequency FNT: natural order in, natural
// order out (the butterflies leave bit-reversed order, which a final
// bitReverse pass undoes). This is the in-cache kernel every other strategy in this
// package (six-step, two-pass, factor-3) ultimately calls.
func TableForward(k element.Kernel, data []uint64, wt *WTable) error {
	n := len(data)
	if n != wt.N {
		return fmt.Errorf("ntt: data length %d does not match twiddle table length %d", n, wt.N)
	}
	if n&(n-1) != 0 {
		return fmt.Errorf("ntt: table transform length %d is not a power of two", n)
	}
	for size := n; size > 1; size >>= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for i := 0; i < half; i++ {
				w := wt.W[i*step]
				a, b := data[start+i], data[start+i+half]
				data[start+i] = k.Add(a, b)
				data[start+i+half] = k.Mul(k.Sub(a, b), w)
			}
		}
	}
	bitReverse(data, n)
	return nil
}

// TableInverse performs the matching in-place Cooley-Tukey
// decimation-in-time inverse FNT: natural order in (a first bitReverse
// pass puts it in the order the butterflies expect), natural order out,
// including the final 1/n scaling.
func TableInverse(k element.Kernel, data []uint64, wt *WTable) error {
	n := len(data)
	if n != wt.N {
		return fmt.Errorf("ntt: data length %d does not match twiddle table length %d", n, wt.N)
	}
	if n&(n-1) != 0 {
		return fmt.Errorf("ntt: table transform length %d is not a power of two", n)
	}
	bitReverse(data, n)
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for i := 0; i < half; i++ {
				w := wt.Inv[i*step]
				a := data[start+i]
				b := k.Mul(data[start+i+half], w)
				data[start+i] = k.Add(a, b)
				data[start+i+half] = k.Sub(a, b)
			}
		}
	}
	nInv, err := k.Inv(uint64(n) % k.Modulus())
	if err != nil {
		return err
	}
	for i := range data {
		data[i] = k.Mul(data[i], nInv)
	}
	return nil
}

// Table runs the forward or inverse in-cache transform, building its own
// twiddle table. Callers doing repeated transforms at the same length
// should call BuildWTable once and TableForward/TableInverse directly
// instead.
func Table(k element.Kernel, data []uint64, primitiveRoot uint64, dir Direction) error {
	wt, err := BuildWTable(k, primitiveRoot, len(data))
	if err != nil {
		return err
	}
	if dir == Forward {
		return TableForward(k, data, wt)
	}
	return TableInverse(k, data, wt)
}
