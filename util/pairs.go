// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package util

import "fmt"

// Unordered pairs (i, j), i < j, of n items are ranked in combinatorial
// order:
//
//   (0,1) (0,2) ... (0,n-1) (1,2) ... (n-2,n-1)
//
// i.e. the strict upper triangle of an n x n matrix, read row-major.  This
// lets a pair list be split into contiguous chunks by rank without ever being
// materialized.

// NumPairs returns n choose 2.
func NumPairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// PairAt returns the pair with the given rank.  It panics if k is out of
// range.
func PairAt(n, k int) (i, j int) {
	if k < 0 || k >= NumPairs(n) {
		panic(fmt.Sprintf("PairAt: rank %d out of range for %d items", k, n))
	}
	rowLen := n - 1
	for k >= rowLen {
		k -= rowLen
		i++
		rowLen--
	}
	return i, i + 1 + k
}

// PairIter walks pairs in rank order.
type PairIter struct {
	n, i, j int
	left    int
}

// NewPairIter returns an iterator over the pairs with ranks in r.
func NewPairIter(n int, r Range) *PairIter {
	it := &PairIter{n: n, left: r.Len()}
	if it.left > 0 {
		it.i, it.j = PairAt(n, r.Start)
		// Back up one so that the first Next() lands on r.Start.
		it.j--
	}
	return it
}

// Next advances to the next pair, returning false when the range is
// exhausted.
func (it *PairIter) Next() bool {
	if it.left <= 0 {
		return false
	}
	it.left--
	it.j++
	if it.j >= it.n {
		it.i++
		it.j = it.i + 1
	}
	return true
}

// Pair returns the current pair.
func (it *PairIter) Pair() (i, j int) {
	return it.i, it.j
}
