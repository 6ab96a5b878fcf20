// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crt implements §4.K's CRT-and-carry combiner: given the three
// inverse-transformed, pointwise-multiplied sequences of a three-modulus
// convolution, it reconstructs each position's exact integer coefficient
// via the Chinese Remainder Theorem and carry-propagates the resulting
// coefficient sequence into the final base-2^64 mantissa.
package crt

import (
	"context"
	"fmt"
	"math/big"

	"github.com/apflib/nttcore/internal/element"
	"github.com/apflib/nttcore/internal/parallel"
)

// ErrCarryOverflow reports that, after combining every coefficient, a
// nonzero carry remained with no more output positions to absorb it
// (§8 "CRT carry words zero at termination"): the caller asked for fewer
// result digits than the convolution actually produced.
var ErrCarryOverflow = fmt.Errorf("crt: nonzero carry remained after the requested result size")

// Combiner reconstructs convolution coefficients from their three modular
// residues using the fixed Derived constants of the active modulus table.
type Combiner struct {
	c element.CRTConstants
}

// New returns a Combiner over the default Table/Derived constants.
func New() *Combiner { return &Combiner{c: element.Derived} }

// NewWithConstants returns a Combiner over caller-supplied CRT constants,
// for a host using a non-default modulus table.
func NewWithConstants(c element.CRTConstants) *Combiner { return &Combiner{c: c} }

// reconstruct returns the unique x in [0, M012) with x == r0 (mod m0),
// x == r1 (mod m1), x == r2 (mod m2), via the explicit (non-Garner) CRT
// formula x = r0*M12*T0 + r1*M02*T1 + r2*M01*T2 (mod M012).
func (cb *Combiner) reconstruct(r0, r1, r2 uint64, scratch *big.Int) *big.Int {
	scratch.SetUint64(r0)
	scratch.Mul(scratch, cb.c.M12)
	scratch.Mul(scratch, new(big.Int).SetUint64(cb.c.T0))

	t1 := new(big.Int).SetUint64(r1)
	t1.Mul(t1, cb.c.M02)
	t1.Mul(t1, new(big.Int).SetUint64(cb.c.T1))
	scratch.Add(scratch, t1)

	t2 := new(big.Int).SetUint64(r2)
	t2.Mul(t2, cb.c.M01)
	t2.Mul(t2, new(big.Int).SetUint64(cb.c.T2))
	scratch.Add(scratch, t2)

	scratch.Mod(scratch, cb.c.M012)
	return scratch
}

var mask64 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))

// Combine reconstructs the L := len(r0) convolution coefficients carried
// in r0, r1, r2 and carry-propagates them into resultLen base-2^64
// output words, least-significant word first. r0/r1/r2 use the same
// digit-position convention as the x/y operands of
// internal/convolution.Convolve (index 0 is the lowest-order
// coefficient), so when resultLen < L this keeps exactly the
// low-order resultLen words and drops the rest — the same truncated-
// product convention internal/convolution's schoolbook path uses when
// it stops accumulating past resultSize, so the NTT and schoolbook
// paths agree on what a short resultLen means. The carry is still
// rippled through all L coefficients regardless of resultLen; when
// resultLen > L, the carry out of position L-1 fills positions L and up,
// and a carry still nonzero after both position L-1 and position
// resultLen-1 is reported as ErrCarryOverflow (§8 "CRT carry words zero
// at termination").
func (cb *Combiner) Combine(r0, r1, r2 []uint64, resultLen int) ([]uint64, error) {
	L := len(r0)
	if len(r1) != L || len(r2) != L {
		return nil, fmt.Errorf("crt: residue sequences have mismatched lengths %d, %d, %d", L, len(r1), len(r2))
	}

	out := make([]uint64, resultLen)
	carry := new(big.Int)
	scratch := new(big.Int)
	sum := new(big.Int)
	digit := new(big.Int)

	for i := 0; i < L; i++ {
		x := cb.reconstruct(r0[i], r1[i], r2[i], scratch)
		sum.Add(carry, x)
		digit.And(sum, mask64)
		carry.Rsh(sum, 64)
		if i < resultLen {
			out[i] = digit.Uint64()
		}
	}
	for i := L; i < resultLen; i++ {
		digit.And(carry, mask64)
		out[i] = digit.Uint64()
		carry.Rsh(carry, 64)
	}
	if carry.Sign() != 0 {
		return nil, ErrCarryOverflow
	}
	return out, nil
}

// block is one independently-computed slice of a parallel combine: its
// local digits assume a zero carry-in, and carryOut is what a zero
// carry-in actually produced, which the sequential fix-up pass below
// turns into the true carry-in of the next block (§4.D/§4.K "mailbox
// carry-out handoff between blocks").
type block struct {
	digits   []uint64
	carryOut *big.Int
}

// CombineParallel is functionally equivalent to Combine but splits the L
// coefficients into blocks processed concurrently via parallel.Runner:
// each block reconstructs and locally carry-propagates its own
// coefficients assuming no incoming carry, then a short sequential pass
// walks the block boundaries left to right, handing each block's true
// carry-in to the next and rippling it through that block's digits
// (bounded work, since a ripple that does not die out after a handful of
// all-0xFFFF...FFFF words is the exceptional case, not the common one).
func (cb *Combiner) CombineParallel(r0, r1, r2 []uint64, resultLen int, numWorkers int) ([]uint64, error) {
	L := len(r0)
	if len(r1) != L || len(r2) != L {
		return nil, fmt.Errorf("crt: residue sequences have mismatched lengths %d, %d, %d", L, len(r1), len(r2))
	}
	if L == 0 {
		return make([]uint64, resultLen), nil
	}

	blockSize := (L + numWorkers - 1) / numWorkers
	if blockSize < 1 {
		blockSize = L
	}
	numBlocks := (L + blockSize - 1) / blockSize
	blocks := make([]block, numBlocks)

	runner := parallel.Runner{NumWorkers: numWorkers, BatchSize: 1}
	err := runner.Run(context.Background(), int64(numBlocks), parallel.RunnableFunc(func(_ context.Context, start, length int64) error {
		for bi := start; bi < start+length; bi++ {
			lo := int(bi) * blockSize
			hi := lo + blockSize
			if hi > L {
				hi = L
			}
			digits := make([]uint64, hi-lo)
			carry := new(big.Int)
			scratch := new(big.Int)
			sum := new(big.Int)
			digit := new(big.Int)
			for i := lo; i < hi; i++ {
				x := cb.reconstruct(r0[i], r1[i], r2[i], scratch)
				sum.Add(carry, x)
				digit.And(sum, mask64)
				carry.Rsh(sum, 64)
				digits[i-lo] = digit.Uint64()
			}
			blocks[bi] = block{digits: digits, carryOut: carry}
		}
		return nil
	}), nil)
	if err != nil {
		return nil, err
	}

	// Sequential fix-up: ripple each block's true incoming carry through
	// its digits, producing the true outgoing carry for the next block.
	carryIn := new(big.Int)
	for bi := range blocks {
		b := &blocks[bi]
		c := new(big.Int).Set(carryIn)
		for i := range b.digits {
			if c.Sign() == 0 {
				break
			}
			sum := new(big.Int).Add(c, new(big.Int).SetUint64(b.digits[i]))
			b.digits[i] = new(big.Int).And(sum, mask64).Uint64()
			c = new(big.Int).Rsh(sum, 64)
		}
		carryIn = new(big.Int).Add(c, b.carryOut)
	}

	out := make([]uint64, resultLen)
	idx := 0
	for bi := range blocks {
		for _, d := range blocks[bi].digits {
			if idx < resultLen {
				out[idx] = d
			}
			idx++
		}
	}
	for i := L; i < resultLen; i++ {
		out[i] = new(big.Int).And(carryIn, mask64).Uint64()
		carryIn.Rsh(carryIn, 64)
	}
	if carryIn.Sign() != 0 {
		return nil, ErrCarryOverflow
	}
	return out, nil
}
