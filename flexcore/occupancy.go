// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/flexcore/util"
)

// OccupancyCounter accumulates, for every alignment column, the number of
// sequences carrying a missing symbol there.
type OccupancyCounter struct {
	missing *Symbols
	counts  []int
	n       int
}

// NewOccupancyCounter returns a zeroed counter for sequences of the given
// width.
func NewOccupancyCounter(width int, missing *Symbols) *OccupancyCounter {
	return &OccupancyCounter{missing: missing, counts: make([]int, width)}
}

// Add counts the missing symbols of one sequence.
func (c *OccupancyCounter) Add(seq []byte) error {
	if len(seq) != len(c.counts) {
		return newError(DataShape, "sequence of length %d added to counter of width %d", len(seq), len(c.counts))
	}
	counts := c.counts[:len(seq)]
	for col, b := range seq {
		if c.missing[b] {
			counts[col]++
		}
	}
	c.n++
	return nil
}

// Merge adds the counts of o into c.
func (c *OccupancyCounter) Merge(o *OccupancyCounter) error {
	if len(o.counts) != len(c.counts) {
		return newError(DataShape, "merging counters of width %d and %d", len(c.counts), len(o.counts))
	}
	for col, v := range o.counts {
		c.counts[col] += v
	}
	c.n += o.n
	return nil
}

// Counts returns the per-column missing counts.  The slice is owned by the
// counter.
func (c *OccupancyCounter) Counts() []int { return c.counts }

// NumSeqs returns the number of sequences added, including merged ones.
func (c *OccupancyCounter) NumSeqs() int { return c.n }

// CountMissing computes the per-column missing counts of every sequence in
// src.  Genomes are partitioned into contiguous ranges, one per job; each
// job fills a private counter and the counters are summed afterwards.
func CountMissing(src SeqSource, missing *Symbols, parallelism int) (*OccupancyCounter, error) {
	if err := checkParallelism(parallelism); err != nil {
		return nil, err
	}
	width := src.Width()
	partial, err := util.MapChunks(src.NumSeqs(), parallelism, func(jobIdx int, r util.Range) (*OccupancyCounter, error) {
		c := NewOccupancyCounter(width, missing)
		for i := r.Start; i < r.End; i++ {
			seq, err := src.Fetch(i)
			if err != nil {
				return nil, err
			}
			if err := c.Add(seq); err != nil {
				return nil, err
			}
		}
		log.Debug.Printf("CountMissing: job %d counted genomes [%d,%d)", jobIdx, r.Start, r.End)
		return c, nil
	})
	if err != nil {
		return nil, workerFailure("count missing", err)
	}
	total := NewOccupancyCounter(width, missing)
	for _, c := range partial {
		if err := total.Merge(c); err != nil {
			return nil, err
		}
	}
	return total, nil
}
