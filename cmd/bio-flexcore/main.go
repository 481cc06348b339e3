// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/flexcore/flexcore"
)

var (
	alignmentPath  string
	cutoff         int
	parallelism    int
	noDists        = flag.Bool("nodists", flexcore.DefaultOpts.NoDists, "Don't calculate SNP distances, only write the core alignment")
	keepRef        = flag.Bool("keepref", flexcore.DefaultOpts.KeepReference, "Retain the reference sequence in the core calculation and SNP distances")
	referenceName  = flag.String("reference-name", flexcore.DefaultOpts.ReferenceName, "Name of the reference record dropped unless -keepref is set")
	missingSymbols = flag.String("missing", flexcore.DefaultOpts.MissingSymbols, "Alignment symbols treated as missing calls (case-sensitive)")
	coreOut        = flag.String("core-out", flexcore.DefaultOpts.CoreOutPath, "Core alignment output path; a .gz suffix writes BGZF. Empty to skip")
	distOut        = flag.String("dist-out", flexcore.DefaultOpts.DistOutPath, "Distance table output path; a .gz suffix compresses (default rSNP<cutoff>.<format>)")
	sitesOut       = flag.String("sites-out", flexcore.DefaultOpts.SitesOutPath, "If set, write the source alignment coordinate of every core column")
	coreIn         = flag.String("core-in", flexcore.DefaultOpts.CoreInPath, "Compute distances from this previously written core alignment instead of an alignment")
	format         = flag.String("format", flexcore.DefaultOpts.Format, "Distance table format; 'csv' and 'tsv' supported")
	cols           = flag.String("cols", flexcore.DefaultOpts.Cols, "Distance table columns. g1/g2 are always present. Optional columns are 'SNPs', 'sharedseq', 'SNPdistance' and 'adjustedSNPs' (default all); prefix with +/- to patch the default")
	tempDir        = flag.String("temp-dir", flexcore.DefaultOpts.TempDir, "Directory to write temporary files to (default os.TempDir())")
)

func init() {
	flag.StringVar(&alignmentPath, "alignment", "", "Input alignment path (FASTA, optionally compressed); may also be given as the positional argument")
	flag.StringVar(&alignmentPath, "a", "", "Shorthand for -alignment")
	flag.IntVar(&cutoff, "cutoff", flexcore.DefaultOpts.Cutoff, "Per-site percent core (integer 0-100)")
	flag.IntVar(&cutoff, "c", flexcore.DefaultOpts.Cutoff, "Shorthand for -cutoff")
	flag.IntVar(&parallelism, "parallelism", flexcore.DefaultOpts.Parallelism, "Number of parallel jobs; 0 = runtime.NumCPU()")
	flag.IntVar(&parallelism, "p", flexcore.DefaultOpts.Parallelism, "Shorthand for -parallelism")
}

func bioFlexcoreUsage() {
	fmt.Printf("Usage: %s [OPTIONS] [alignment]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

// newOpts builds the run options from the parsed flags and the positional
// arguments.
func newOpts(positionalArgs []string) (flexcore.Opts, error) {
	opts := flexcore.Opts{
		AlignmentPath:  alignmentPath,
		Cutoff:         cutoff,
		Parallelism:    parallelism,
		NoDists:        *noDists,
		KeepReference:  *keepRef,
		ReferenceName:  *referenceName,
		MissingSymbols: *missingSymbols,
		CoreOutPath:    *coreOut,
		DistOutPath:    *distOut,
		SitesOutPath:   *sitesOut,
		CoreInPath:     *coreIn,
		Format:         *format,
		Cols:           *cols,
		TempDir:        *tempDir,
	}
	switch len(positionalArgs) {
	case 0:
	case 1:
		if opts.AlignmentPath != "" && opts.AlignmentPath != positionalArgs[0] {
			return opts, fmt.Errorf("alignment given both as -alignment=%s and as argument %s", opts.AlignmentPath, positionalArgs[0])
		}
		opts.AlignmentPath = positionalArgs[0]
	default:
		return opts, fmt.Errorf("too many positional arguments (only the alignment path expected); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	return opts, nil
}

func main() {
	flag.Usage = bioFlexcoreUsage
	shutdown := grail.Init()
	defer shutdown()

	opts, err := newOpts(flag.Args())
	if err != nil {
		log.Fatalf("%v", err)
	}
	ctx := vcontext.Background()
	summary, err := flexcore.Run(ctx, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("done: %d genomes, %d core columns", summary.Genomes, summary.CoreWidth)
	log.Debug.Printf("exiting")
}
