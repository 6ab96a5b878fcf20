// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import "testing"

func kernels(t *testing.T) []struct {
	name string
	k    Kernel
	mod  Modulus
} {
	return []struct {
		name string
		k    Kernel
		mod  Modulus
	}{
		{"int64/M0", NewInt64Kernel(M0.M), M0},
		{"int64/M2", NewInt64Kernel(M2.M), M2},
		{"float64/FloatM0", NewFloat64Kernel(FloatM0.M), FloatM0},
		{"float64/FloatM2", NewFloat64Kernel(FloatM2.M), FloatM2},
	}
}

func TestMulExhaustiveSmallRange(t *testing.T) {
	for _, tc := range kernels(t) {
		m := tc.mod.M
		for a := uint64(0); a < 50; a++ {
			for b := uint64(0); b < 50; b++ {
				got := tc.k.Mul(a, b)
				want := (a * b) % m
				if got != want {
					t.Fatalf("%s: Mul(%d,%d) = %d, want %d", tc.name, a, b, got, want)
				}
			}
		}
	}
}

func TestMulNearModulus(t *testing.T) {
	for _, tc := range kernels(t) {
		m := tc.mod.M
		a, b := m-1, m-2
		got := tc.k.Mul(a, b)
		// (m-1)*(m-2) mod m == 2, computed without overflowing uint64 math
		// by reducing through the distributive form (-1)*(-2) mod m.
		want := uint64(2) % m
		if got != want {
			t.Fatalf("%s: Mul(%d,%d) = %d, want %d", tc.name, a, b, got, want)
		}
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	for _, tc := range kernels(t) {
		m := tc.mod.M
		for a := uint64(0); a < 37; a++ {
			for b := uint64(0); b < 37; b++ {
				s := tc.k.Add(a, b)
				back := tc.k.Sub(s, b)
				if back != a%m {
					t.Fatalf("%s: Sub(Add(%d,%d),%d) = %d, want %d", tc.name, a, b, b, back, a%m)
				}
			}
		}
	}
}

func TestInvAndDiv(t *testing.T) {
	for _, tc := range kernels(t) {
		for a := uint64(1); a < 37; a++ {
			inv, err := tc.k.Inv(a)
			if err != nil {
				t.Fatalf("%s: Inv(%d) error: %v", tc.name, a, err)
			}
			if got := tc.k.Mul(a, inv); got != 1 {
				t.Fatalf("%s: %d * Inv(%d) = %d, want 1", tc.name, a, a, got)
			}
		}
		if _, err := tc.k.Inv(0); err != ErrNotInvertible {
			t.Fatalf("%s: Inv(0) error = %v, want ErrNotInvertible", tc.name, err)
		}
	}
}

func TestPowMatchesRepeatedMul(t *testing.T) {
	for _, tc := range kernels(t) {
		a := uint64(7)
		got := tc.k.Pow(a, 13)
		want := uint64(1) % tc.mod.M
		for i := 0; i < 13; i++ {
			want = tc.k.Mul(want, a)
		}
		if got != want {
			t.Fatalf("%s: Pow(7,13) = %d, want %d", tc.name, got, want)
		}
	}
}

func TestForwardAndInverseNthRoot(t *testing.T) {
	for _, tc := range kernels(t) {
		n := tc.mod.MaxTransformLength()
		root, err := tc.k.ForwardNthRoot(tc.mod.PrimitiveRoot, n)
		if err != nil {
			t.Fatalf("%s: ForwardNthRoot error: %v", tc.name, err)
		}
		if root != tc.mod.MaxRoot {
			t.Fatalf("%s: ForwardNthRoot(g,%d) = %d, want %d", tc.name, n, root, tc.mod.MaxRoot)
		}
		if got := tc.k.Pow(root, n); got != 1 {
			t.Fatalf("%s: root^n = %d, want 1", tc.name, got)
		}
		if got := tc.k.Pow(root, n/2); got == 1 {
			t.Fatalf("%s: root^(n/2) = 1, root is not primitive", tc.name)
		}
		invRoot, err := tc.k.InverseNthRoot(tc.mod.PrimitiveRoot, n)
		if err != nil {
			t.Fatalf("%s: InverseNthRoot error: %v", tc.name, err)
		}
		if got := tc.k.Mul(root, invRoot); got != 1 {
			t.Fatalf("%s: root * invRoot = %d, want 1", tc.name, got)
		}
	}
}

func TestForwardNthRootUnsupportedLength(t *testing.T) {
	k := NewInt64Kernel(M0.M)
	if _, err := k.ForwardNthRoot(M0.PrimitiveRoot, 3); err != ErrUnsupportedLength {
		t.Fatalf("ForwardNthRoot(g,3) error = %v, want ErrUnsupportedLength", err)
	}
}

func TestCreateWTable(t *testing.T) {
	k := NewInt64Kernel(M2.M)
	w, err := k.ForwardNthRoot(M2.PrimitiveRoot, 16)
	if err != nil {
		t.Fatal(err)
	}
	table := k.CreateWTable(w, 16)
	if len(table) != 8 {
		t.Fatalf("len(table) = %d, want 8", len(table))
	}
	cur := uint64(1)
	for i, got := range table {
		if got != cur {
			t.Fatalf("table[%d] = %d, want %d", i, got, cur)
		}
		cur = k.Mul(cur, w)
	}
}
