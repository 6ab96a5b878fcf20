// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convolution

import (
	"context"
	"math/big"
	"testing"

	"github.com/apflib/nttcore/internal/ntt"
)

func smallConfig() Config {
	return Config{
		Selector: ntt.SelectorConfig{
			CacheL1Bytes:    1 << 20,
			CacheL2Bytes:    1 << 24,
			MemoryBytes:     1 << 24,
			MaxMemoryBlock:  1 << 16,
			ElementSizeByte: 8,
		},
		ShortPathLimit: -1, // force every test through the NTT path
	}
}

func wordsToBig(words []uint64) *big.Int {
	out := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		out.Lsh(out, 64)
		out.Or(out, new(big.Int).SetUint64(words[i]))
	}
	return out
}

func bigToWords(v *big.Int, n int) []uint64 {
	out := make([]uint64, n)
	t := new(big.Int).Set(v)
	mask := new(big.Int).SetUint64(^uint64(0))
	for i := 0; i < n; i++ {
		w := new(big.Int).And(t, mask)
		out[i] = w.Uint64()
		t.Rsh(t, 64)
	}
	return out
}

func schoolbookBig(x, y []uint64, resultSize int) []uint64 {
	xi := wordsToBig(x)
	yi := wordsToBig(y)
	prod := new(big.Int).Mul(xi, yi)
	return bigToWords(prod, resultSize)
}

func TestConvolveMatchesSchoolbookSmall(t *testing.T) {
	x := []uint64{1, 2, 3, 4}
	y := []uint64{5, 6, 7, 8}
	resultSize := len(x) + len(y)

	got, err := Convolve(context.Background(), x, y, resultSize, smallConfig())
	if err != nil {
		t.Fatalf("Convolve: %v", err)
	}
	want := schoolbookBig(x, y, resultSize)
	if wordsToBig(got).Cmp(wordsToBig(want)) != 0 {
		t.Fatalf("Convolve = %v, want %v", got, want)
	}
}

// TestConvolveTruncatedResultSizeMatchesSchoolbook exercises the NTT path
// with resultSize strictly smaller than len(x)+len(y), the case neither
// the CRT package nor this package previously had a test for. The NTT
// and schoolbook paths share one resultSize contract (see
// TestSchoolbookFallbackMatchesNTTPath), so truncated results must agree
// too: both keep the low-order resultSize words of the full product.
func TestConvolveTruncatedResultSizeMatchesSchoolbook(t *testing.T) {
	x := []uint64{1, 2, 3, 4, 5, 6}
	y := []uint64{7, 6, 5, 4, 3, 2, 1}
	resultSize := len(x) + len(y) - 3

	got, err := Convolve(context.Background(), x, y, resultSize, smallConfig())
	if err != nil {
		t.Fatalf("Convolve: %v", err)
	}
	want := schoolbookBig(x, y, resultSize)
	if wordsToBig(got).Cmp(wordsToBig(want)) != 0 {
		t.Fatalf("Convolve(resultSize=%d) = %v, want %v", resultSize, got, want)
	}
}

func TestConvolveIsCommutative(t *testing.T) {
	x := []uint64{11, 22, 33, 5}
	y := []uint64{1, 0, 9, 2, 6}
	resultSize := len(x) + len(y)

	a, err := Convolve(context.Background(), x, y, resultSize, smallConfig())
	if err != nil {
		t.Fatalf("Convolve(x,y): %v", err)
	}
	b, err := Convolve(context.Background(), y, x, resultSize, smallConfig())
	if err != nil {
		t.Fatalf("Convolve(y,x): %v", err)
	}
	if wordsToBig(a).Cmp(wordsToBig(b)) != 0 {
		t.Fatalf("Convolve(x,y) = %v != Convolve(y,x) = %v", a, b)
	}
}

func TestAutoconvolutionMatchesGeneralConvolution(t *testing.T) {
	x := []uint64{3, 9, 27, 81, 243}
	resultSize := 2 * len(x)
	cfg := smallConfig()

	auto, err := Convolve(context.Background(), x, x, resultSize, cfg)
	if err != nil {
		t.Fatalf("autoconvolution: %v", err)
	}
	xCopy := append([]uint64(nil), x...)
	general, err := Convolve(context.Background(), x, xCopy, resultSize, cfg)
	if err != nil {
		t.Fatalf("general convolution: %v", err)
	}
	if wordsToBig(auto).Cmp(wordsToBig(general)) != 0 {
		t.Fatalf("autoconvolution = %v, general = %v", auto, general)
	}
}

func TestConvolveSingleWordOperands(t *testing.T) {
	x := []uint64{7}
	y := []uint64{6}
	got, err := Convolve(context.Background(), x, y, 2, smallConfig())
	if err != nil {
		t.Fatalf("Convolve: %v", err)
	}
	if got[0] != 42 || got[1] != 0 {
		t.Fatalf("Convolve = %v, want [42 0]", got)
	}
}

func TestConvolveEmptyOperandYieldsZero(t *testing.T) {
	got, err := Convolve(context.Background(), nil, []uint64{1, 2}, 4, smallConfig())
	if err != nil {
		t.Fatalf("Convolve: %v", err)
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("word %d = %d, want 0", i, v)
		}
	}
}

func TestSchoolbookFallbackMatchesNTTPath(t *testing.T) {
	x := []uint64{123, 456, 789}
	y := []uint64{9, 8, 7}
	resultSize := len(x) + len(y)

	ntCfg := smallConfig()
	withNTT, err := Convolve(context.Background(), x, y, resultSize, ntCfg)
	if err != nil {
		t.Fatalf("NTT path: %v", err)
	}

	schoolbookCfg := ntCfg
	schoolbookCfg.ShortPathLimit = 1 << 20
	withSchoolbook, err := Convolve(context.Background(), x, y, resultSize, schoolbookCfg)
	if err != nil {
		t.Fatalf("schoolbook path: %v", err)
	}

	if wordsToBig(withNTT).Cmp(wordsToBig(withSchoolbook)) != 0 {
		t.Fatalf("NTT path = %v, schoolbook path = %v", withNTT, withSchoolbook)
	}
}
