// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ntt

import (
	"fmt"

	"github.com/apflib/nttcore/internal/element"
	"github.com/apflib/nttcore/internal/storage"
	"github.com/apflib/nttcore/internal/transpose"
)

// RunConfig carries the resources a Plan needs that Select itself does
// not: the cache-blocking knobs the six-step transpose passes use, and
// the disk-storage plumbing the two-pass regime needs for its scratch
// file (§4.I "wrapped by the Factor-3 overlay", §4.G two-pass).
type RunConfig struct {
	Cache      transpose.CacheConfig
	Thresholds storage.Thresholds
	Filenames  storage.FilenameGenerator
	Registry   *storage.Registry
}

// RunPlan executes plan (as produced by Select) over data in place, for
// the given direction, wrapping the chosen regime in the Factor-3
// overlay when plan.Factor3 is set. len(data) must equal plan.N.
func RunPlan(k element.Kernel, data []uint64, plan Plan, primitiveRoot uint64, rc RunConfig, dir Direction) error {
	if len(data) != plan.N {
		return fmt.Errorf("ntt: data length %d does not match plan length %d", len(data), plan.N)
	}

	if !plan.Factor3 {
		return runRegime(k, data, plan, primitiveRoot, rc, dir)
	}

	root, err := rootForLength(k, primitiveRoot, plan.N, dir)
	if err != nil {
		return err
	}
	core := func(sub []uint64) error {
		inner := Plan{N: plan.M, Regime: plan.Regime, N1: plan.N1, N2: plan.N2, BlockLen: plan.BlockLen, M: plan.M}
		return runRegime(k, sub, inner, primitiveRoot, rc, dir)
	}
	return Factor3(k, data, plan.M, root, core, core, core, dir)
}

func rootForLength(k element.Kernel, primitiveRoot uint64, n int, dir Direction) (uint64, error) {
	if dir == Forward {
		return k.ForwardNthRoot(primitiveRoot, uint64(n))
	}
	return k.InverseNthRoot(primitiveRoot, uint64(n))
}

// runRegime dispatches the non-Factor3 part of a Plan to the table,
// six-step or two-pass strategy it names.
func runRegime(k element.Kernel, data []uint64, plan Plan, primitiveRoot uint64, rc RunConfig, dir Direction) error {
	switch plan.Regime {
	case RegimeTable:
		wt, err := BuildWTable(k, primitiveRoot, len(data))
		if err != nil {
			return err
		}
		if dir == Forward {
			return TableForward(k, data, wt)
		}
		return TableInverse(k, data, wt)

	case RegimeSixStep:
		return SixStep(k, data, plan.N1, plan.N2, primitiveRoot, rc.Cache, dir)

	case RegimeTwoPass:
		// Two-pass is the out-of-core regime: GetTransposedArray is only
		// implemented by disk-backed storages (§4.C), so the scratch
		// storage here is forced to disk regardless of the host's memory
		// threshold.
		diskTh := rc.Thresholds
		diskTh.MemoryThresholdBytes = 0
		s, err := storage.CreateDataStorage(uint64(len(data)), diskTh, rc.Filenames, rc.Registry)
		if err != nil {
			return err
		}
		defer s.Close()

		wa, err := s.GetArray(storage.ModeWrite, 0, s.Size())
		if err != nil {
			return err
		}
		copy(wa.Data(), data)
		if err := wa.Close(); err != nil {
			return err
		}

		blockLen := plan.BlockLen
		if blockLen <= 0 {
			blockLen = 1
		}
		if err := TwoPass(k, s, plan.N1, plan.N2, primitiveRoot, blockLen, dir); err != nil {
			return err
		}

		ra, err := s.GetArray(storage.ModeRead, 0, s.Size())
		if err != nil {
			return err
		}
		copy(data, ra.Data())
		return ra.Close()

	default:
		return fmt.Errorf("ntt: unknown regime %v", plan.Regime)
	}
}
