package util

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		n, parallelism int
		want           []Range
	}{
		{10, 1, []Range{{0, 10}}},
		{10, 3, []Range{{0, 3}, {3, 6}, {6, 10}}},
		{3, 8, []Range{{0, 1}, {1, 2}, {2, 3}}},
		{0, 4, []Range{}},
		{6, 6, []Range{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}}},
	}
	for _, test := range tests {
		got, err := Chunks(test.n, test.parallelism)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "n=%d parallelism=%d", test.n, test.parallelism)
	}
}

func TestChunksCoverEverythingOnce(t *testing.T) {
	for n := 0; n < 50; n++ {
		for p := 1; p < 12; p++ {
			ranges, err := Chunks(n, p)
			require.NoError(t, err)
			next := 0
			for _, r := range ranges {
				assert.Equal(t, next, r.Start)
				assert.True(t, r.Len() > 0, "empty chunk for n=%d p=%d", n, p)
				next = r.End
			}
			assert.Equal(t, n, next)
		}
	}
}

func TestChunksRejectsBadInput(t *testing.T) {
	_, err := Chunks(10, 0)
	assert.Error(t, err)
	_, err = Chunks(10, -2)
	assert.Error(t, err)
	_, err = Chunks(-1, 2)
	assert.Error(t, err)
}

func TestFanOut(t *testing.T) {
	var total int64
	seen := make([]int32, 100)
	err := FanOut(len(seen), 7, func(jobIdx int, r Range) error {
		for i := r.Start; i < r.End; i++ {
			atomic.AddInt32(&seen[i], 1)
			atomic.AddInt64(&total, int64(i))
		}
		return nil
	})
	require.NoError(t, err)
	for i, s := range seen {
		assert.Equal(t, int32(1), s, "unit %d", i)
	}
	assert.Equal(t, int64(99*100/2), total)
}

func TestFanOutPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := FanOut(20, 4, func(jobIdx int, r Range) error {
		if jobIdx == 2 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMapChunks(t *testing.T) {
	sums, err := MapChunks(10, 3, func(_ int, r Range) (int, error) {
		s := 0
		for i := r.Start; i < r.End; i++ {
			s += i
		}
		return s, nil
	})
	require.NoError(t, err)
	// Chunks are [0,3) [3,6) [6,10).
	assert.Equal(t, []int{3, 12, 30}, sums)

	_, err = MapChunks(10, 0, func(_ int, r Range) (int, error) { return 0, nil })
	assert.Error(t, err)

	res, err := MapChunks(10, 3, func(_ int, r Range) (int, error) {
		if r.Start == 3 {
			return 0, errors.New("fail")
		}
		return 1, nil
	})
	assert.Error(t, err)
	assert.Nil(t, res)
}
