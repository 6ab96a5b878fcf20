// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crt

import (
	"math/big"
	"testing"

	"github.com/apflib/nttcore/internal/element"
)

// residuesFor reduces each big.Int coefficient in coeffs to its three
// residues mod Table[0..2], simulating what an inverse NTT and pointwise
// multiply would have produced.
func residuesFor(t *testing.T, coeffs []*big.Int) (r0, r1, r2 []uint64) {
	t.Helper()
	n := len(coeffs)
	r0, r1, r2 = make([]uint64, n), make([]uint64, n), make([]uint64, n)
	m0 := new(big.Int).SetUint64(element.M0.M)
	m1 := new(big.Int).SetUint64(element.M1.M)
	m2 := new(big.Int).SetUint64(element.M2.M)
	for i, c := range coeffs {
		r0[i] = new(big.Int).Mod(c, m0).Uint64()
		r1[i] = new(big.Int).Mod(c, m1).Uint64()
		r2[i] = new(big.Int).Mod(c, m2).Uint64()
	}
	return
}

func bigFromWords(words []uint64) *big.Int {
	out := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		out.Lsh(out, 64)
		out.Or(out, new(big.Int).SetUint64(words[i]))
	}
	return out
}

func TestCombineReconstructsExactValue(t *testing.T) {
	cb := New()
	// Coefficients representative of a short convolution: each can be up
	// to roughly base^2 * minOperandLen, comfortably under M012.
	coeffs := []*big.Int{
		big.NewInt(0),
		big.NewInt(123456789),
		new(big.Int).Lsh(big.NewInt(1), 100),
		new(big.Int).Sub(element.Derived.M012, big.NewInt(1)),
	}
	r0, r1, r2 := residuesFor(t, coeffs)

	for i, c := range coeffs {
		got, err := cb.Combine(r0[i:i+1], r1[i:i+1], r2[i:i+1], 4)
		if err != nil {
			t.Fatalf("coeff %d: Combine: %v", i, err)
		}
		gotVal := bigFromWords(got)
		if gotVal.Cmp(c) != 0 {
			t.Fatalf("coeff %d: got %v, want %v", i, gotVal, c)
		}
	}
}

func TestCombineCarryPropagation(t *testing.T) {
	cb := New()
	maxWord := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	// Position 0 equals the max 64-bit value plus 5: it must carry exactly
	// 1 into position 1.
	c0 := new(big.Int).Add(maxWord, big.NewInt(5))
	c1 := big.NewInt(7)
	r0, r1, r2 := residuesFor(t, []*big.Int{c0, c1})

	got, err := cb.Combine(r0, r1, r2, 3)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got[0] != 4 {
		t.Fatalf("low word of position 0 = %d, want 4", got[0])
	}
	if got[1] != 8 { // 1 (carried) + 7
		t.Fatalf("position 1 = %d, want 8 (carry-in 1 + 7)", got[1])
	}
	if got[2] != 0 {
		t.Fatalf("position 2 = %d, want 0", got[2])
	}
}

func TestCombineOverflowWithoutEnoughResultWords(t *testing.T) {
	cb := New()
	big1 := new(big.Int).Lsh(big.NewInt(1), 64) // exactly one full carry word
	r0, r1, r2 := residuesFor(t, []*big.Int{big1})
	if _, err := cb.Combine(r0, r1, r2, 0); err != ErrCarryOverflow {
		t.Fatalf("Combine error = %v, want ErrCarryOverflow", err)
	}
}

// TestCombineTruncatesToLowOrderWords pins down which end a short
// resultLen drops. internal/convolution.Convolve dispatches the exact
// same resultSize to both its schoolbook path (which keeps output
// positions < resultSize and discards everything past it) and this NTT
// path, so Combine must agree: a coefficient sequence representing more
// positions than resultLen asks for should be truncated to its
// low-order resultLen words, not its high-order ones.
func TestCombineTruncatesToLowOrderWords(t *testing.T) {
	cb := New()
	maxWord := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	// Position 1 deliberately carries 1 into position 2, so a formula
	// that kept the wrong end would also get the carry wrong.
	coeffs := []*big.Int{
		big.NewInt(10),
		new(big.Int).Add(maxWord, big.NewInt(20)),
		big.NewInt(30),
		big.NewInt(40),
	}
	r0, r1, r2 := residuesFor(t, coeffs)

	want := new(big.Int)
	for i := len(coeffs) - 1; i >= 0; i-- {
		want.Add(want, new(big.Int).Lsh(coeffs[i], uint(64*i)))
	}
	want.Mod(want, new(big.Int).Lsh(big.NewInt(1), 64*2))

	got, err := cb.Combine(r0, r1, r2, 2)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if gotVal := bigFromWords(got); gotVal.Cmp(want) != 0 {
		t.Fatalf("Combine(resultLen=2) = %v, want %v (low 2 words of the full %d-word value)", gotVal, want, len(coeffs))
	}

	par, err := cb.CombineParallel(r0, r1, r2, 2, 4)
	if err != nil {
		t.Fatalf("CombineParallel: %v", err)
	}
	if parVal := bigFromWords(par); parVal.Cmp(want) != 0 {
		t.Fatalf("CombineParallel(resultLen=2) = %v, want %v", parVal, want)
	}
}

func TestCombineRejectsMismatchedLengths(t *testing.T) {
	cb := New()
	_, err := cb.Combine([]uint64{1, 2}, []uint64{1}, []uint64{1}, 2)
	if err == nil {
		t.Fatalf("expected an error for mismatched residue lengths")
	}
}

func TestCombineParallelMatchesSequential(t *testing.T) {
	cb := New()
	const n = 200
	coeffs := make([]*big.Int, n)
	for i := range coeffs {
		// A mix of zero, small, and near-max-word values to exercise
		// carry chains of varying length across block boundaries.
		switch i % 5 {
		case 0:
			coeffs[i] = big.NewInt(0)
		case 1:
			coeffs[i] = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
		case 2:
			coeffs[i] = big.NewInt(int64(i))
		case 3:
			coeffs[i] = new(big.Int).Lsh(big.NewInt(1), 70)
		default:
			coeffs[i] = new(big.Int).Sub(element.Derived.M012, big.NewInt(int64(i+1)))
		}
	}
	r0, r1, r2 := residuesFor(t, coeffs)

	seq, err := cb.Combine(r0, r1, r2, n+4)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	par, err := cb.CombineParallel(r0, r1, r2, n+4, 8)
	if err != nil {
		t.Fatalf("CombineParallel: %v", err)
	}
	if len(seq) != len(par) {
		t.Fatalf("length mismatch: sequential %d, parallel %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("word %d: sequential %d, parallel %d", i, seq[i], par[i])
		}
	}
}
