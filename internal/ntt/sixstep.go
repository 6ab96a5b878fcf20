// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ntt

import (
	"fmt"

	"github.com/apflib/nttcore/internal/element"
	"github.com/apflib/nttcore/internal/transpose"
)

// SixStep performs Bailey's six-step transform over an in-memory array of
// length n = n1*n2 (§4.F): transpose to n2 x n1, n1-length row
// transforms, twiddle by the n-th root, transpose to n1 x n2, n2-length
// row transforms, transpose back to n2 x n1. n1 and n2 must each be
// powers of two with n2 in {n1, 2*n1} (the shapes internal/transpose
// supports); the selector is responsible for only ever choosing such a
// factorization.
func SixStep(k element.Kernel, data []uint64, n1, n2 int, primitiveRoot uint64, cfg transpose.CacheConfig, dir Direction) error {
	n := n1 * n2
	if len(data) != n {
		return fmt.Errorf("ntt: data length %d does not match n1*n2 (%d*%d)", len(data), n1, n2)
	}

	var root uint64
	var err error
	if dir == Forward {
		root, err = k.ForwardNthRoot(primitiveRoot, uint64(n))
	} else {
		root, err = k.InverseNthRoot(primitiveRoot, uint64(n))
	}
	if err != nil {
		return err
	}

	wt1, err := BuildWTable(k, primitiveRoot, n1)
	if err != nil {
		return err
	}
	wt2, err := BuildWTable(k, primitiveRoot, n2)
	if err != nil {
		return err
	}

	if err := transpose.Transpose(data, n1, n2, cfg); err != nil {
		return err
	}
	if err := transformRows(k, data, n2, n1, wt1, dir); err != nil {
		return err
	}
	twiddle(k, data, n2, n1, root)
	if err := transpose.Transpose(data, n2, n1, cfg); err != nil {
		return err
	}
	if err := transformRows(k, data, n1, n2, wt2, dir); err != nil {
		return err
	}
	return transpose.Transpose(data, n1, n2, cfg)
}

func transformRows(k element.Kernel, data []uint64, rows, cols int, wt *WTable, dir Direction) error {
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		var err error
		if dir == Forward {
			err = TableForward(k, row, wt)
		} else {
			err = TableInverse(k, row, wt)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// twiddle multiplies data[r*cols+c] (r in [0,rows), c in [0,cols)) by
// root^(r*c), the step between the two row-transform passes of a
// six-step or two-pass transform (§4.F step 3).
func twiddle(k element.Kernel, data []uint64, rows, cols int, root uint64) {
	n := uint64(rows * cols)
	for r := 0; r < rows; r++ {
		if r == 0 {
			continue
		}
		base := root
		w := k.Pow(base, uint64(r)%n)
		acc := uint64(1)
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			data[idx] = k.Mul(data[idx], acc)
			acc = k.Mul(acc, w)
		}
	}
}
