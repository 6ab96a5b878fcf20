// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ntt

import (
	"fmt"

	"github.com/apflib/nttcore/internal/element"
)

// Core is a length-m transform (table, six-step or two-pass, forward or
// inverse already baked in) that Factor3 decimates a length-3m transform
// into three calls to, one per residue class mod 3 (§4.H).
type Core func(data []uint64) error

// Factor3 extends any length-m core transform (m a power of two) to a
// length-3m transform by radix-3 decimation-in-time: split the input
// into the three stride-3 subsequences, run core on each, premultiply by
// the appropriate power of the length-3m root, and combine with a
// 3-point DFT over the cube root of unity w3 = root^m.
//
// The combine step here is the direct three-term sum, not the
// multiplication-reduced Winograd form the name suggests in the
// 3-point literature: m is usually large enough that three modular
// multiplies per output (rot1/rot2 already cached as running powers)
// are cheaper than the extra adds Winograd's 3-multiply form would
// trade them for.
func Factor3(k element.Kernel, data []uint64, m int, root uint64, core0, core1, core2 Core, dir Direction) error {
	n := 3 * m
	if len(data) != n {
		return fmt.Errorf("ntt: factor-3 data length %d does not match 3*m (3*%d)", len(data), m)
	}

	x0 := make([]uint64, m)
	x1 := make([]uint64, m)
	x2 := make([]uint64, m)
	for j := 0; j < m; j++ {
		x0[j] = data[3*j]
		x1[j] = data[3*j+1]
		x2[j] = data[3*j+2]
	}

	if err := core0(x0); err != nil {
		return err
	}
	if err := core1(x1); err != nil {
		return err
	}
	if err := core2(x2); err != nil {
		return err
	}

	w3 := k.Pow(root, uint64(m))
	w3sq := k.Mul(w3, w3)

	var scale uint64 = 1
	if dir == Inverse {
		inv3, err := k.Inv(3 % k.Modulus())
		if err != nil {
			return err
		}
		scale = inv3
	}

	rot1 := uint64(1)
	rot2 := uint64(1)
	for j := 0; j < m; j++ {
		a0 := x0[j]
		a1 := k.Mul(x1[j], rot1)
		a2 := k.Mul(x2[j], rot2)

		data[j] = k.Mul(k.Add(k.Add(a0, a1), a2), scale)
		data[j+m] = k.Mul(k.Add(k.Add(a0, k.Mul(w3, a1)), k.Mul(w3sq, a2)), scale)
		data[j+2*m] = k.Mul(k.Add(k.Add(a0, k.Mul(w3sq, a1)), k.Mul(w3, a2)), scale)

		rot1 = k.Mul(rot1, root)
		rot2 = k.Mul(rot2, k.Mul(root, root))
	}
	return nil
}
