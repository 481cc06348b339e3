// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package util

import (
	"fmt"

	"github.com/grailbio/base/traverse"
)

// Range is a half-open interval [Start, End) of work-unit indexes.
type Range struct {
	Start, End int
}

// Len returns the number of units in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Chunks splits the units [0, n) into contiguous ranges, one per job.  The
// number of jobs is min(parallelism, n), so no returned range is empty.  Job
// boundaries are job*n/nJob, the same split used by the pileup main loop, and
// are fully determined by (n, parallelism).
func Chunks(n, parallelism int) ([]Range, error) {
	if parallelism <= 0 {
		return nil, fmt.Errorf("Chunks: parallelism must be positive, got %d", parallelism)
	}
	if n < 0 {
		return nil, fmt.Errorf("Chunks: negative work size %d", n)
	}
	nJob := parallelism
	if n < nJob {
		nJob = n
	}
	ranges := make([]Range, nJob)
	for jobIdx := range ranges {
		ranges[jobIdx] = Range{
			Start: (jobIdx * n) / nJob,
			End:   ((jobIdx + 1) * n) / nJob,
		}
	}
	return ranges, nil
}

// FanOut runs fn once per chunk of [0, n), with up to parallelism chunks in
// flight.  Each call receives its job index and range.  The first error
// returned by any job is returned; callers must treat all output of the
// phase as invalid in that case.
func FanOut(n, parallelism int, fn func(jobIdx int, r Range) error) error {
	ranges, err := Chunks(n, parallelism)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		return nil
	}
	return traverse.Each(len(ranges), func(jobIdx int) error {
		return fn(jobIdx, ranges[jobIdx])
	})
}

// MapChunks is FanOut with fan-in: the value produced for each chunk is
// returned in chunk order, so results[i] covers the i'th range returned by
// Chunks(n, parallelism).  On error, no partial results are returned.
func MapChunks[T any](n, parallelism int, fn func(jobIdx int, r Range) (T, error)) ([]T, error) {
	ranges, err := Chunks(n, parallelism)
	if err != nil {
		return nil, err
	}
	results := make([]T, len(ranges))
	if len(ranges) == 0 {
		return results, nil
	}
	err = traverse.Each(len(ranges), func(jobIdx int) error {
		v, e := fn(jobIdx, ranges[jobIdx])
		if e != nil {
			return e
		}
		results[jobIdx] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
