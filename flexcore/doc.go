// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package flexcore computes a flexible core genome from a multiple sequence
alignment of N genomes, and pairwise SNP distances over that core.

A column of the alignment is "core" when at least round(N*cutoff/100)
genomes carry a non-missing call there; by default '-' (gap) and 'N'
(ambiguous base) are missing calls.  The pipeline is

  LoadAlignment -> CountMissing -> Classify -> Materialize -> WriteCore
                                                          \-> WriteDistances

Counting, materialization and pairwise comparison are split into
contiguous chunks of genomes (or of genome pairs, in combinatorial order)
and run in parallel.  Outputs do not depend on the degree of parallelism.

For each pair of genomes, only core columns where neither genome has a
missing call are compared.  With s differing columns among c compared ones
in a core of width L', the reported distance is s/c and the adjusted SNP
count is L'*s/c.  A pair with c == 0 gets NaN for both.

Run ties the stages together from an Opts, as the bio-flexcore command
does.  Rarefy measures core size on random subsamples of the population.
*/
package flexcore
