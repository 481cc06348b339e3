// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"fmt"
	"strings"
)

// Opts configures Run.
type Opts struct {
	// AlignmentPath is the input multiple sequence alignment (FASTA,
	// optionally compressed).  Required unless CoreInPath is set.
	AlignmentPath string
	// Cutoff is the minimum percentage of genomes that must have a call at
	// a column for the column to be core.
	Cutoff int
	// Parallelism is the number of jobs each parallel phase is split into.
	Parallelism int
	// NoDists skips the pairwise distance phase.
	NoDists bool
	// KeepReference retains the record named ReferenceName.
	KeepReference bool
	// ReferenceName names the reference record.
	ReferenceName string
	// MissingSymbols lists the symbols that count as a missing call.
	MissingSymbols string
	// CoreOutPath receives the core alignment.  Empty skips writing it.
	CoreOutPath string
	// DistOutPath receives the distance table.  Empty means
	// rSNP<Cutoff>.csv (or .tsv).
	DistOutPath string
	// SitesOutPath, if set, receives the source coordinate of every core
	// column.
	SitesOutPath string
	// CoreInPath, if set, is a core alignment written by an earlier run.
	// Counting and classification are skipped and distances are computed
	// from it directly.
	CoreInPath string
	// Format is the distance table format, "csv" or "tsv".
	Format string
	// Cols selects distance table columns; see ParseCols.
	Cols string
	// TempDir holds per-job temporary files.
	TempDir string
}

// DefaultOpts are the default options.
var DefaultOpts = Opts{
	Cutoff:         95,
	Parallelism:    1,
	ReferenceName:  DefaultReferenceName,
	MissingSymbols: DefaultMissingSymbols,
	CoreOutPath:    "Coresites.fasta",
	Format:         FormatCSV,
}

func checkParallelism(parallelism int) error {
	if parallelism <= 0 {
		return newError(Config, "parallelism must be positive, got %d", parallelism)
	}
	return nil
}

// Validate checks opts before any work is done.
func (o *Opts) Validate() error {
	if err := ValidateCutoff(o.Cutoff); err != nil {
		return err
	}
	if err := checkParallelism(o.Parallelism); err != nil {
		return err
	}
	if o.AlignmentPath == "" && o.CoreInPath == "" {
		return newError(Config, "an alignment path is required")
	}
	if o.CoreInPath != "" && o.NoDists {
		return newError(Config, "a reused core alignment is only useful for distances; drop -nodists or -core-in")
	}
	if o.MissingSymbols == "" {
		return newError(Config, "the missing symbol set is empty")
	}
	if o.Format != FormatCSV && o.Format != FormatTSV {
		return newError(Config, "unknown distance table format %q", o.Format)
	}
	if _, err := ParseCols(o.Cols); err != nil {
		return err
	}
	if !o.KeepReference && o.ReferenceName == "" {
		return newError(Config, "a reference name is required unless the reference is kept")
	}
	return nil
}

// distOutPath returns the distance table path.
func (o *Opts) distOutPath() string {
	if o.DistOutPath != "" {
		return o.DistOutPath
	}
	return fmt.Sprintf("rSNP%d.%s", o.Cutoff, strings.ToLower(o.Format))
}
