// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

// DefaultMissingSymbols are the alignment symbols treated as missing calls:
// the gap and the ambiguous base.  Matching is on raw bytes, so lowercase 'n'
// is a regular call unless listed explicitly.
const DefaultMissingSymbols = "-N"

// Symbols is a byte-indexed membership table of missing symbols.
type Symbols [256]bool

// NewSymbols returns the set containing every byte of s.
func NewSymbols(s string) *Symbols {
	var set Symbols
	for i := 0; i < len(s); i++ {
		set[s[i]] = true
	}
	return &set
}

// Has reports whether b is a missing symbol.
func (s *Symbols) Has(b byte) bool {
	return s[b]
}

// Count returns the number of missing symbols in seq.
func (s *Symbols) Count(seq []byte) int {
	n := 0
	for _, b := range seq {
		if s[b] {
			n++
		}
	}
	return n
}
