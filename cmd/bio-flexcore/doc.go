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
Given a whole-genome multiple sequence alignment, bio-flexcore extracts the
"flexible core": the columns where at least -cutoff percent of the genomes
have a call other than a gap ('-') or an ambiguous base ('N').  It writes the
core alignment, then the pairwise SNP distances between all genomes over
the core.

For each pair, columns missing in either genome are skipped.  The table
reports the SNP count, the number of compared columns (sharedseq), the SNP
rate over compared columns, and that rate scaled to the core length
(adjustedSNPs).  Pairs with nothing to compare get NaN.

A record named "Reference" is dropped unless -keepref is given.

Sample usage:
bio-flexcore \
    -cutoff 95 \
    -parallelism 8 \
    -core-out Coresites.fasta \
    -dist-out rSNP95.csv \
    alignment.fasta

A core alignment written by an earlier run can be reused for distances:
bio-flexcore -core-in Coresites.fasta -dist-out rSNP95.csv
*/
package main
