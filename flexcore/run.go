// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"context"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/log"
)

// Summary describes a completed run.
type Summary struct {
	// Genomes is the population size.
	Genomes int
	// Width is the source alignment width.  It is 0 when a persisted core
	// alignment was reused.
	Width int
	// CoreWidth is the number of core columns.
	CoreWidth int
	// Checksum is the seahash of the core alignment records.
	Checksum uint64
	// Distances summarizes the distance table.  It is nil when distances
	// were not computed.
	Distances *DistanceSummary
}

// Checksum returns a 64-bit hash of the ids and sequences of src, in order.
// Two runs that produce the same core alignment produce the same checksum.
func Checksum(src SeqSource) (uint64, error) {
	h := seahash.New()
	for i := 0; i < src.NumSeqs(); i++ {
		seq, err := src.Fetch(i)
		if err != nil {
			return 0, err
		}
		h.Write([]byte(src.Name(i)))
		h.Write([]byte{'\n'})
		h.Write(seq)
		h.Write([]byte{'\n'})
	}
	return h.Sum64(), nil
}

// Run executes the pipeline described by opts: ingest the alignment, count
// missing calls per column, classify core columns, materialize and persist
// the core alignment, then compute pairwise SNP distances.
func Run(ctx context.Context, opts Opts) (summary Summary, err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	colBitset, _ := ParseCols(opts.Cols)
	distOpts := DistanceOutputOpts{
		DistanceOpts: DistanceOpts{
			Parallelism: opts.Parallelism,
			Missing:     NewSymbols(opts.MissingSymbols),
		},
		Format:    opts.Format,
		ColBitset: colBitset,
		TempDir:   opts.TempDir,
	}

	var core SeqSource
	if opts.CoreInPath != "" {
		var closer func() error
		if core, closer, err = OpenCore(ctx, opts.CoreInPath); err != nil {
			return
		}
		defer func() {
			if e := closer(); e != nil && err == nil {
				err = e
			}
		}()
	} else {
		var coreAln *CoreAlignment
		if coreAln, err = buildCore(ctx, opts, distOpts.Missing); err != nil {
			return
		}
		summary.Width = coreAln.SourceWidth
		core = coreAln
	}
	summary.Genomes = core.NumSeqs()
	summary.CoreWidth = core.Width()
	if summary.Checksum, err = Checksum(core); err != nil {
		return
	}
	log.Printf("core alignment: %d genomes, %d columns, checksum %016x", summary.Genomes, summary.CoreWidth, summary.Checksum)

	if opts.NoDists {
		return
	}
	var dists DistanceSummary
	if dists, err = WriteDistances(ctx, core, opts.distOutPath(), distOpts); err != nil {
		return
	}
	summary.Distances = &dists
	log.Printf("distance summary: %d pairs, %d degenerate, mean %.6g, median %.6g",
		dists.Pairs, dists.Degenerate, dists.MeanDistance, dists.MedianDistance)
	return
}

func buildCore(ctx context.Context, opts Opts, missing *Symbols) (*CoreAlignment, error) {
	a, err := LoadAlignment(ctx, opts.AlignmentPath, ReadOpts{
		KeepReference: opts.KeepReference,
		ReferenceName: opts.ReferenceName,
	})
	if err != nil {
		return nil, err
	}
	// Fail before any artifact is written.
	if !opts.NoDists {
		if err := checkPopulation(a); err != nil {
			return nil, err
		}
	}
	counter, err := CountMissing(a, missing, opts.Parallelism)
	if err != nil {
		return nil, err
	}
	mask, err := Classify(counter.Counts(), a.NumSeqs(), opts.Cutoff)
	if err != nil {
		return nil, err
	}
	log.Printf("cutoff %d%%: columns with more than %d of %d genomes missing are dropped",
		opts.Cutoff, MaxMissing(a.NumSeqs(), opts.Cutoff), a.NumSeqs())
	core, err := Materialize(a, mask, opts.Parallelism)
	if err != nil {
		return nil, err
	}
	if opts.CoreOutPath != "" {
		if err := WriteCore(ctx, opts.CoreOutPath, core, opts.Parallelism); err != nil {
			return nil, err
		}
	}
	if opts.SitesOutPath != "" {
		if err := WriteSites(ctx, opts.SitesOutPath, core); err != nil {
			return nil, err
		}
	}
	return core, nil
}
