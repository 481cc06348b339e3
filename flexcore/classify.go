// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

// Mask marks the alignment columns retained in the core alignment.
type Mask []bool

// Count returns the number of retained columns.
func (m Mask) Count() int {
	n := 0
	for _, keep := range m {
		if keep {
			n++
		}
	}
	return n
}

// Columns returns the 0-based indexes of the retained columns, ascending.
func (m Mask) Columns() []int {
	cols := make([]int, 0, m.Count())
	for col, keep := range m {
		if keep {
			cols = append(cols, col)
		}
	}
	return cols
}

// ValidateCutoff checks that cutoff is a percentage.
func ValidateCutoff(cutoff int) error {
	if cutoff < 0 || cutoff > 100 {
		return newError(InvalidCutoff, "cutoff %d is outside [0, 100]", cutoff)
	}
	return nil
}

// RequiredPresent returns round(n*cutoff/100), the number of genomes that
// must carry a call at a column for it to be retained.  Ties round to even.
func RequiredPresent(n, cutoff int) int {
	num := n * cutoff
	q, r := num/100, num%100
	switch {
	case 2*r > 100:
		q++
	case 2*r == 100:
		q += q & 1
	}
	return q
}

// MaxMissing returns the largest per-column missing count that still keeps
// a column.
func MaxMissing(n, cutoff int) int {
	return n - RequiredPresent(n, cutoff)
}

// Classify computes the core mask for per-column missing counts over a
// population of n genomes.  A column is kept iff its missing count is at
// most MaxMissing(n, cutoff).
func Classify(counts []int, n, cutoff int) (Mask, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, newError(DataShape, "negative population size %d", n)
	}
	maxMissing := MaxMissing(n, cutoff)
	mask := make(Mask, len(counts))
	for col, missing := range counts {
		mask[col] = missing <= maxMissing
	}
	return mask, nil
}
