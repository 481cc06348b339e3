// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"math"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/flexcore/util"
	"gonum.org/v1/gonum/stat"
)

// PairResult holds the comparison of one unordered pair of genomes.
type PairResult struct {
	ID1, ID2 string
	// SNPs is the number of compared columns where the two genomes differ.
	SNPs int
	// Shared is the number of compared columns: core columns where neither
	// genome carries a missing symbol.
	Shared int
	// Distance is SNPs/Shared, or NaN when Shared is 0.
	Distance float64
	// Adjusted is Distance scaled to the full core width.
	Adjusted float64
}

// Degenerate reports whether the pair had no columns to compare.
func (r PairResult) Degenerate() bool { return r.Shared == 0 }

// ComparePair compares two aligned sequences of equal length.
func ComparePair(id1 string, a []byte, id2 string, b []byte, missing *Symbols) PairResult {
	b = b[:len(a)]
	snps, shared := 0, 0
	for col, x := range a {
		y := b[col]
		if missing[x] || missing[y] {
			continue
		}
		shared++
		if x != y {
			snps++
		}
	}
	r := PairResult{ID1: id1, ID2: id2, SNPs: snps, Shared: shared}
	if shared == 0 {
		r.Distance = math.NaN()
		r.Adjusted = math.NaN()
	} else {
		r.Distance = float64(snps) / float64(shared)
		r.Adjusted = r.Distance * float64(len(a))
	}
	return r
}

// DistanceOpts configures the pairwise distance phase.
type DistanceOpts struct {
	// Parallelism is the number of jobs the pair list is split into.
	Parallelism int
	// Missing is the missing-symbol set.  Nil means DefaultMissingSymbols.
	Missing *Symbols
}

func (o DistanceOpts) missing() *Symbols {
	if o.Missing == nil {
		return NewSymbols(DefaultMissingSymbols)
	}
	return o.Missing
}

// eachPair calls fn for the pairs whose ranks fall in r.  Pairs are visited
// row by row, so the first sequence of a pair is fetched once per row.
func eachPair(src SeqSource, r util.Range, missing *Symbols, fn func(PairResult) error) error {
	var (
		n    = src.NumSeqs()
		it   = util.NewPairIter(n, r)
		rowI = -1
		seqI []byte
	)
	for it.Next() {
		i, j := it.Pair()
		if i != rowI {
			seq, err := src.Fetch(i)
			if err != nil {
				return err
			}
			// Sources may reuse their buffers.
			seqI = append(seqI[:0], seq...)
			rowI = i
		}
		seqJ, err := src.Fetch(j)
		if err != nil {
			return err
		}
		if len(seqJ) != len(seqI) {
			return newError(DataShape, "genomes %s and %s have lengths %d and %d",
				src.Name(i), src.Name(j), len(seqI), len(seqJ))
		}
		res := ComparePair(src.Name(i), seqI, src.Name(j), seqJ, missing)
		if res.Degenerate() && log.At(log.Debug) {
			log.Debug.Printf("genomes %s and %s share no comparable columns", res.ID1, res.ID2)
		}
		if err := fn(res); err != nil {
			return err
		}
	}
	return nil
}

func checkPopulation(src SeqSource) error {
	if n := src.NumSeqs(); n < 2 {
		return newError(InsufficientPopulation, "%d genome(s); at least 2 are needed for pairwise distances", n)
	}
	return nil
}

// ComputeDistances compares every unordered pair of genomes in src.  The
// results are in combinatorial order of the source ids: (0,1), (0,2), ...,
// (1,2), ...
func ComputeDistances(src SeqSource, opts DistanceOpts) ([]PairResult, error) {
	if err := checkParallelism(opts.Parallelism); err != nil {
		return nil, err
	}
	if err := checkPopulation(src); err != nil {
		return nil, err
	}
	missing := opts.missing()
	parts, err := util.MapChunks(util.NumPairs(src.NumSeqs()), opts.Parallelism, func(jobIdx int, r util.Range) ([]PairResult, error) {
		results := make([]PairResult, 0, r.Len())
		err := eachPair(src, r, missing, func(res PairResult) error {
			results = append(results, res)
			return nil
		})
		return results, err
	})
	if err != nil {
		return nil, workerFailure("pairwise distances", err)
	}
	results := make([]PairResult, 0, util.NumPairs(src.NumSeqs()))
	for _, p := range parts {
		results = append(results, p...)
	}
	logDegenerate(Summarize(results))
	return results, nil
}

// DistanceSummary describes a set of pair results.
type DistanceSummary struct {
	// Pairs is the number of pairs compared.
	Pairs int
	// Degenerate is the number of pairs with no comparable columns.
	Degenerate int
	// MeanDistance and MedianDistance are computed over non-degenerate
	// pairs.  They are NaN when every pair is degenerate.
	MeanDistance, MedianDistance float64
}

// distanceAccumulator collects what a job needs for the summary.
type distanceAccumulator struct {
	pairs      int
	degenerate int
	distances  []float64
}

func (acc *distanceAccumulator) add(r PairResult) {
	acc.pairs++
	if r.Degenerate() {
		acc.degenerate++
		return
	}
	acc.distances = append(acc.distances, r.Distance)
}

func mergeAccumulators(accs []*distanceAccumulator) DistanceSummary {
	total := distanceAccumulator{}
	for _, acc := range accs {
		total.pairs += acc.pairs
		total.degenerate += acc.degenerate
		total.distances = append(total.distances, acc.distances...)
	}
	s := DistanceSummary{
		Pairs:          total.pairs,
		Degenerate:     total.degenerate,
		MeanDistance:   math.NaN(),
		MedianDistance: math.NaN(),
	}
	if len(total.distances) > 0 {
		sort.Float64s(total.distances)
		s.MeanDistance = stat.Mean(total.distances, nil)
		s.MedianDistance = stat.Quantile(0.5, stat.Empirical, total.distances, nil)
	}
	return s
}

// Summarize computes the summary of results.
func Summarize(results []PairResult) DistanceSummary {
	acc := &distanceAccumulator{}
	for _, r := range results {
		acc.add(r)
	}
	return mergeAccumulators([]*distanceAccumulator{acc})
}

func logDegenerate(s DistanceSummary) {
	if s.Degenerate > 0 {
		log.Error.Printf("%d of %d pairs share no comparable columns; their distances are reported as NaN",
			s.Degenerate, s.Pairs)
	}
}
