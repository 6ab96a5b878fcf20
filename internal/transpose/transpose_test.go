// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transpose

import (
	"testing"
)

func referenceTranspose(data []uint64, rows, cols int) []uint64 {
	out := make([]uint64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = data[i*cols+j]
		}
	}
	return out
}

func iota64(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i)
	}
	return out
}

// cacheConfigs exercises all three regimes of §4.B by forcing the tile
// selector into each one in turn.
var cacheConfigs = []CacheConfig{
	{L1Size: 1 << 30, L2Size: 1 << 30, CacheBurst: 64, ElementSize: 8}, // L1-resident
	{L1Size: 64, L2Size: 1 << 30, CacheBurst: 64, ElementSize: 8},      // L2-resident
	{L1Size: 64, L2Size: 64, CacheBurst: 64, ElementSize: 8},           // out-of-L2
}

func TestTransposeSquareMatchesReference(t *testing.T) {
	for _, cfg := range cacheConfigs {
		for _, n := range []int{1, 2, 4, 8, 16} {
			data := iota64(n * n)
			want := referenceTranspose(data, n, n)
			got := append([]uint64(nil), data...)
			if err := Transpose(got, n, n, cfg); err != nil {
				t.Fatalf("n=%d cfg=%+v: %v", n, cfg, err)
			}
			if !eq(got, want) {
				t.Fatalf("n=%d cfg=%+v: got %v, want %v", n, cfg, got, want)
			}
		}
	}
}

func TestTransposeRectMatchesReference(t *testing.T) {
	for _, cfg := range cacheConfigs {
		for _, small := range []int{1, 2, 4, 8} {
			// 1:2 direction: small rows x 2*small cols.
			data := iota64(small * 2 * small)
			want := referenceTranspose(data, small, 2*small)
			got := append([]uint64(nil), data...)
			if err := Transpose(got, small, 2*small, cfg); err != nil {
				t.Fatalf("1:2 small=%d: %v", small, err)
			}
			if !eq(got, want) {
				t.Fatalf("1:2 small=%d cfg=%+v: got %v, want %v", small, cfg, got, want)
			}

			// 2:1 direction: 2*small rows x small cols.
			data2 := iota64(2 * small * small)
			want2 := referenceTranspose(data2, 2*small, small)
			got2 := append([]uint64(nil), data2...)
			if err := Transpose(got2, 2*small, small, cfg); err != nil {
				t.Fatalf("2:1 small=%d: %v", small, err)
			}
			if !eq(got2, want2) {
				t.Fatalf("2:1 small=%d cfg=%+v: got %v, want %v", small, cfg, got2, want2)
			}
		}
	}
}

func TestTransposeInvolution(t *testing.T) {
	cfg := cacheConfigs[0]
	shapes := [][2]int{{8, 8}, {4, 8}, {8, 4}, {16, 16}, {2, 4}, {4, 2}}
	for _, sh := range shapes {
		n1, n2 := sh[0], sh[1]
		data := iota64(n1 * n2)
		work := append([]uint64(nil), data...)
		if err := Transpose(work, n1, n2, cfg); err != nil {
			t.Fatalf("shape %v: %v", sh, err)
		}
		if err := Transpose(work, n2, n1, cfg); err != nil {
			t.Fatalf("shape %v (back): %v", sh, err)
		}
		if !eq(work, data) {
			t.Fatalf("shape %v: transpose(transpose(x)) != x: got %v, want %v", sh, work, data)
		}
	}
}

func TestTransposeRejectsBadShapes(t *testing.T) {
	cfg := cacheConfigs[0]
	data := make([]uint64, 24)
	if err := Transpose(data, 3, 8, cfg); err == nil {
		t.Fatal("expected error for non-power-of-two n1")
	}
	if err := Transpose(make([]uint64, 16), 4, 4, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Transpose(data, 4, 8, cfg); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func eq(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
