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

/*
bio-core-rarefaction measures how the flexible core of an alignment shrinks
as genomes are added.  For population sizes -minpop, -minpop+-step, ...
below the number of genomes, it draws -iterations random subsamples and
counts their core columns.  The result is a CSV with one row per size:

  popsize,iter0,iter1,...

Sample usage:
bio-core-rarefaction -cutoff 95 -iterations 100 -out rarefaction.csv alignment.fasta
*/
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
	cutoff         = flag.Int("cutoff", flexcore.DefaultRarefactionOpts.Cutoff, "Per-site percent core (integer 0-100)")
	minPop         = flag.Int("minpop", flexcore.DefaultRarefactionOpts.MinPop, "Minimum (starting) subsample size")
	step           = flag.Int("step", flexcore.DefaultRarefactionOpts.Step, "Step between subsample sizes")
	iterations     = flag.Int("iterations", flexcore.DefaultRarefactionOpts.Iterations, "Number of subsamples per size")
	seed           = flag.Uint64("seed", flexcore.DefaultRarefactionOpts.Seed, "Random seed; the output is a function of the seed and the input")
	parallelism    = flag.Int("parallelism", flexcore.DefaultRarefactionOpts.Parallelism, "Number of parallel jobs; 0 = runtime.NumCPU()")
	keepRef        = flag.Bool("keepref", false, "Retain the reference sequence")
	referenceName  = flag.String("reference-name", flexcore.DefaultReferenceName, "Name of the reference record dropped unless -keepref is set")
	missingSymbols = flag.String("missing", flexcore.DefaultMissingSymbols, "Alignment symbols treated as missing calls (case-sensitive)")
	outPath        = flag.String("out", "rarefaction.csv", "Output path")
)

func bioCoreRarefactionUsage() {
	fmt.Printf("Usage: %s [OPTIONS] alignment\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioCoreRarefactionUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Expected exactly one positional argument (the alignment path); please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	opts := flexcore.RarefactionOpts{
		Cutoff:      *cutoff,
		MinPop:      *minPop,
		Step:        *step,
		Iterations:  *iterations,
		Parallelism: *parallelism,
		Seed:        *seed,
		Missing:     flexcore.NewSymbols(*missingSymbols),
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	ctx := vcontext.Background()
	a, err := flexcore.LoadAlignment(ctx, flag.Arg(0), flexcore.ReadOpts{
		KeepReference: *keepRef,
		ReferenceName: *referenceName,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	rows, err := flexcore.Rarefy(a, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := flexcore.WriteRarefaction(ctx, *outPath, rows, opts.Iterations); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %d population sizes to %s", len(rows), *outPath)
}
