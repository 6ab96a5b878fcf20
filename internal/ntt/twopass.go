// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ntt

import (
	"fmt"

	"github.com/apflib/nttcore/internal/element"
	"github.com/apflib/nttcore/internal/storage"
)

// TwoPass performs the out-of-core transform of §4.G over a disk-backed
// storage s holding n = n1*n2 elements laid out as n1 contiguous rows of
// n2 elements each. n1 and n2 must satisfy n1 <= n2 <= 2*n1 (asserted
// here per the resolved two-pass sizing Open Question): the selector
// never hands this function a factorization outside that range.
//
// Forward runs the column pass first: blockWidth columns at a time
// through a TransposedArray, so a length-n1 transform (down a column)
// only ever touches memory, then the twiddle by w^(i·j). It then runs
// the row pass: each row is read as n2 contiguous elements, row-
// transformed, and scattered out through a second TransposedArray (this
// time keyed by n1, not n2) instead of written back in place — this is
// what lands the result in the same natural element order TableForward
// would produce, without a third full-array transpose pass.
//
// Inverse reverses the order of the two passes (§4.G): the row-shaped
// pass undoes the scatter and the row transform first, then untwiddles,
// and only then the column pass undoes the length-n1 transform. Each
// pass still touches the storage exactly once, so this remains two
// passes over the disk, not three.
func TwoPass(k element.Kernel, s *storage.DataStorage, n1, n2 int, primitiveRoot uint64, blockWidth int, dir Direction) error {
	if n1 > n2 || n2 > 2*n1 {
		return fmt.Errorf("ntt: two-pass requires n1 <= n2 <= 2*n1, got n1=%d n2=%d", n1, n2)
	}
	n := n1 * n2
	if int(s.Size()) != n {
		return fmt.Errorf("ntt: storage size %d does not match n1*n2 (%d*%d)", s.Size(), n1, n2)
	}
	if blockWidth <= 0 {
		blockWidth = 1
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

	if dir == Forward {
		if err := twoPassColumnPass(k, s, n1, n2, wt1, root, blockWidth, dir); err != nil {
			return err
		}
		return twoPassRowPass(k, s, n1, n2, wt2, root, blockWidth, dir)
	}

	if err := twoPassRowPass(k, s, n1, n2, wt2, root, blockWidth, dir); err != nil {
		return err
	}
	return twoPassColumnPass(k, s, n1, n2, wt1, root, blockWidth, dir)
}

// twoPassColumnPass is the n1 pass of §4.G: it gathers each column of the
// n1 x n2 layout through a TransposedArray keyed by n2, runs the length-n1
// table transform down it, and scatters it back to the same column. In
// the forward direction the twiddle by w^(col·row) is folded in here,
// right after the column's own transform; in the inverse direction the
// untwiddle has already happened in twoPassRowPass, so this pass only
// ever undoes the length-n1 transform.
func twoPassColumnPass(k element.Kernel, s *storage.DataStorage, n1, n2 int, wt1 *WTable, root uint64, blockWidth int, dir Direction) error {
	n := n1 * n2
	for start := 0; start < n2; start += blockWidth {
		width := blockWidth
		if start+width > n2 {
			width = n2 - start
		}
		ta, err := s.GetTransposedArray(storage.ModeReadWrite, uint64(start), uint64(width), uint64(n2))
		if err != nil {
			return err
		}
		data := ta.Data()
		for c := 0; c < width; c++ {
			col := start + c
			row := data[c*n1 : (c+1)*n1]
			var terr error
			if dir == Forward {
				terr = TableForward(k, row, wt1)
			} else {
				terr = TableInverse(k, row, wt1)
			}
			if terr != nil {
				ta.Abandon()
				return terr
			}
			if dir == Forward {
				w := k.Pow(root, uint64(col)%uint64(n))
				acc := uint64(1)
				for r := range row {
					row[r] = k.Mul(row[r], acc)
					acc = k.Mul(acc, w)
				}
			}
		}
		if err := ta.Close(); err != nil {
			return err
		}
	}
	return nil
}

// twoPassRowPass is the n2 pass of §4.G: it reads each of the n1 rows of
// n2 contiguous elements, runs the length-n2 table transform across it,
// and scatters the result out through a TransposedArray keyed by n1 — to
// column r of what becomes the final n2 x n1 natural-order layout — in
// place of writing the row back where it was read from.
//
// In the inverse direction this pass runs first (§4.G "reverses the
// order of the two passes"): it gathers column r of the n2 x n1 input
// through the same n1-keyed TransposedArray, undoes the length-n2
// transform, multiplies by the inverse twiddle w^(-row·col) ("multiplies
// before the n2 pass" — before the column pass that follows it — rather
// than after, since this pass itself is the n2 pass here), and writes
// the untwiddled row back contiguously, leaving twoPassColumnPass a
// plain n1 x n2 layout to undo the length-n1 transform from.
func twoPassRowPass(k element.Kernel, s *storage.DataStorage, n1, n2 int, wt2 *WTable, root uint64, blockWidth int, dir Direction) error {
	n := n1 * n2
	if dir == Forward {
		for r := 0; r < n1; r++ {
			aa, err := s.GetArray(storage.ModeRead, uint64(r)*uint64(n2), uint64(n2))
			if err != nil {
				return err
			}
			row := append([]uint64(nil), aa.Data()...)
			if err := aa.Close(); err != nil {
				return err
			}
			if err := TableForward(k, row, wt2); err != nil {
				return err
			}
			ta, err := s.GetTransposedArray(storage.ModeWrite, uint64(r), 1, uint64(n1))
			if err != nil {
				return err
			}
			copy(ta.Data(), row)
			if err := ta.Close(); err != nil {
				return err
			}
		}
		return nil
	}

	for r := 0; r < n1; r++ {
		ta, err := s.GetTransposedArray(storage.ModeRead, uint64(r), 1, uint64(n1))
		if err != nil {
			return err
		}
		row := append([]uint64(nil), ta.Data()...)
		ta.Abandon()

		if err := TableInverse(k, row, wt2); err != nil {
			return err
		}

		w := k.Pow(root, uint64(r)%uint64(n))
		acc := uint64(1)
		for c := range row {
			row[c] = k.Mul(row[c], acc)
			acc = k.Mul(acc, w)
		}

		aa, err := s.GetArray(storage.ModeWrite, uint64(r)*uint64(n2), uint64(n2))
		if err != nil {
			return err
		}
		copy(aa.Data(), row)
		if err := aa.Close(); err != nil {
			return err
		}
	}
	return nil
}
