package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allPairs(n int) [][2]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

func TestNumPairs(t *testing.T) {
	assert.Equal(t, 0, NumPairs(0))
	assert.Equal(t, 0, NumPairs(1))
	assert.Equal(t, 1, NumPairs(2))
	assert.Equal(t, 6, NumPairs(4))
	assert.Equal(t, 4950, NumPairs(100))
}

func TestPairAt(t *testing.T) {
	for n := 2; n < 12; n++ {
		for k, want := range allPairs(n) {
			i, j := PairAt(n, k)
			assert.Equal(t, want, [2]int{i, j}, "n=%d k=%d", n, k)
		}
	}
	assert.Panics(t, func() { PairAt(4, 6) })
	assert.Panics(t, func() { PairAt(4, -1) })
}

func TestPairIterChunks(t *testing.T) {
	for n := 2; n < 15; n++ {
		want := allPairs(n)
		for p := 1; p < 9; p++ {
			ranges, err := Chunks(NumPairs(n), p)
			require.NoError(t, err)
			var got [][2]int
			for _, r := range ranges {
				it := NewPairIter(n, r)
				for it.Next() {
					i, j := it.Pair()
					got = append(got, [2]int{i, j})
				}
			}
			assert.Equal(t, want, got, "n=%d p=%d", n, p)
		}
	}
}

func TestPairIterEmpty(t *testing.T) {
	it := NewPairIter(5, Range{3, 3})
	assert.False(t, it.Next())
}
