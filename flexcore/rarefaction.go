// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"context"
	"encoding/csv"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/flexcore/util"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// RarefactionOpts configures Rarefy.
type RarefactionOpts struct {
	// Cutoff is the percent-core cutoff applied to every subsample.
	Cutoff int
	// MinPop is the smallest subsample size.
	MinPop int
	// Step is the increment between subsample sizes.
	Step int
	// Iterations is the number of subsamples drawn per size.
	Iterations int
	// Parallelism is the number of jobs the iterations of one size are
	// split into.
	Parallelism int
	// Seed determines every subsample.
	Seed uint64
	// Missing is the missing-symbol set.  Nil means DefaultMissingSymbols.
	Missing *Symbols
}

// DefaultRarefactionOpts are the default rarefaction options.
var DefaultRarefactionOpts = RarefactionOpts{
	Cutoff:      95,
	MinPop:      20,
	Step:        10,
	Iterations:  100,
	Parallelism: 1,
	Seed:        1,
}

// RarefactionRow holds the core sizes observed at one subsample size.
type RarefactionRow struct {
	PopSize int
	// CoreSites[i] is the number of core columns of the i'th subsample.
	CoreSites []int
}

// MeanStdDev returns the mean and sample standard deviation of CoreSites.
func (r RarefactionRow) MeanStdDev() (mean, std float64) {
	x := make([]float64, len(r.CoreSites))
	for i, v := range r.CoreSites {
		x[i] = float64(v)
	}
	return stat.MeanStdDev(x, nil)
}

func (o RarefactionOpts) validate() error {
	if err := ValidateCutoff(o.Cutoff); err != nil {
		return err
	}
	if err := checkParallelism(o.Parallelism); err != nil {
		return err
	}
	if o.MinPop < 1 || o.Step < 1 || o.Iterations < 1 {
		return newError(Config, "minpop, step and iterations must be positive, got %d, %d, %d",
			o.MinPop, o.Step, o.Iterations)
	}
	return nil
}

// iterationSeed derives the seed of one subsample, so that the draw does
// not depend on which job runs it.
func iterationSeed(seed uint64, popSize, iter int) uint64 {
	z := seed + uint64(popSize)<<32 + uint64(iter) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// coreSize counts the core columns of the genomes at idxs.
func coreSize(a *Alignment, idxs []int, cutoff int, missing *Symbols) (int, error) {
	c := NewOccupancyCounter(a.Width(), missing)
	for _, i := range idxs {
		if err := c.Add(a.Seq(i)); err != nil {
			return 0, err
		}
	}
	mask, err := Classify(c.Counts(), len(idxs), cutoff)
	if err != nil {
		return 0, err
	}
	return mask.Count(), nil
}

// Rarefy measures how the core alignment shrinks as the population grows.
// For each size MinPop, MinPop+Step, ... below the population size, it draws
// Iterations random subsamples without replacement and counts the core
// columns of each.
func Rarefy(a *Alignment, opts RarefactionOpts) ([]RarefactionRow, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	missing := opts.Missing
	if missing == nil {
		missing = NewSymbols(DefaultMissingSymbols)
	}
	n := a.NumSeqs()
	if opts.MinPop >= n {
		log.Error.Printf("Rarefy: minimum population %d is not below the population size %d; nothing to do", opts.MinPop, n)
		return nil, nil
	}
	var rows []RarefactionRow
	for popSize := opts.MinPop; popSize < n; popSize += opts.Step {
		parts, err := util.MapChunks(opts.Iterations, opts.Parallelism, func(jobIdx int, r util.Range) ([]int, error) {
			sizes := make([]int, 0, r.Len())
			idxs := make([]int, popSize)
			for iter := r.Start; iter < r.End; iter++ {
				sampleuv.WithoutReplacement(idxs, n, rand.NewSource(iterationSeed(opts.Seed, popSize, iter)))
				size, err := coreSize(a, idxs, opts.Cutoff, missing)
				if err != nil {
					return nil, err
				}
				sizes = append(sizes, size)
			}
			return sizes, nil
		})
		if err != nil {
			return nil, workerFailure("rarefaction", err)
		}
		row := RarefactionRow{PopSize: popSize}
		for _, p := range parts {
			row.CoreSites = append(row.CoreSites, p...)
		}
		mean, std := row.MeanStdDev()
		log.Printf("population %d: mean core size %.1f (sd %.1f) over %d subsamples", popSize, mean, std, len(row.CoreSites))
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRarefaction writes rows as CSV with header popsize,iter0,iter1,...
func WriteRarefaction(ctx context.Context, path string, rows []RarefactionRow, iterations int) (err error) {
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, dst, &err)
	w := csv.NewWriter(dst.Writer(ctx))
	record := []string{"popsize"}
	for i := 0; i < iterations; i++ {
		record = append(record, "iter"+strconv.Itoa(i))
	}
	if err = w.Write(record); err != nil {
		return
	}
	for _, row := range rows {
		record = append(record[:0], strconv.Itoa(row.PopSize))
		for _, v := range row.CoreSites {
			record = append(record, strconv.Itoa(v))
		}
		if err = w.Write(record); err != nil {
			return
		}
	}
	w.Flush()
	return w.Error()
}
