// Copyright ©2026 The nttcore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transpose

// transposeRect implements the 2:1 / 1:2 rectangular transpose of §4.B:
// two square transposes of the n1 x n1 (or n2 x n2) sub-blocks, plus a
// row-chunk permutation walking a cyclic trail with a visited bitset and a
// one-chunk scratch buffer.
//
// wide selects direction: wide == true means n2 == 2*n1 (the "1:2" case,
// input has the smaller row count); wide == false means n1 == 2*n2 (the
// "2:1" case). Treating each row of the smaller dimension as a chunk, the
// 1:2 case transposes the two small x small column blocks in place and
// then moves chunks from interleaved order (chunk c = row*2+half) into
// block order via newc = (c*small) mod (2*small-1); the 2:1 case is its
// inverse and so runs the same chunk permutation with multiplier 2 first,
// undoing block order back to interleaved order, then transposes the two
// blocks.
func transposeRect(data []uint64, n1, n2 int, cfg CacheConfig, wide bool) error {
	small := n1
	large := n2
	if !wide {
		small = n2
		large = n1
	}
	_ = large

	if wide {
		transposeSquareStrided(data, small, 0, n2, tileFor(cfg, small))
		transposeSquareStrided(data, small, small, n2, tileFor(cfg, small))
		permuteChunks(data, 2*small, small, small)
		return nil
	}

	permuteChunks(data, 2*small, small, 2)
	transposeSquareStrided(data, small, 0, 2*small, tileFor(cfg, small))
	transposeSquareStrided(data, small, small, 2*small, tileFor(cfg, small))
	return nil
}

func tileFor(cfg CacheConfig, n int) int {
	tile, _ := TileSize(cfg, n, n)
	return tile
}

// permuteChunks cyclically permutes the numChunks chunks of chunkSize
// elements each within data, under newc = (c*mult) mod (numChunks-1) for
// c in [0, numChunks-2], with numChunks-1 a fixed point. It moves one
// chunk at a time, copying each displaced chunk into a newly allocated
// buffer, following each permutation cycle to completion before starting
// the next.
func permuteChunks(data []uint64, numChunks, chunkSize, mult int) {
	if numChunks <= 1 {
		return
	}
	mod := numChunks - 1
	pi := func(c int) int {
		if c == mod {
			return c
		}
		return (c * mult) % mod
	}

	visited := make([]bool, numChunks)
	carry := make([]uint64, chunkSize)

	for s := 0; s < numChunks; s++ {
		if visited[s] {
			continue
		}
		visited[s] = true
		if pi(s) == s {
			continue
		}
		copy(carry, chunk(data, s, chunkSize))
		cur := s
		for {
			nxt := pi(cur)
			if nxt == s {
				copy(chunk(data, nxt, chunkSize), carry)
				break
			}
			visited[nxt] = true
			next := make([]uint64, chunkSize)
			copy(next, chunk(data, nxt, chunkSize))
			copy(chunk(data, nxt, chunkSize), carry)
			carry = next
			cur = nxt
		}
	}
}

func chunk(data []uint64, idx, size int) []uint64 {
	return data[idx*size : idx*size+size]
}
