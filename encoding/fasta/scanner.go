// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

const readerBufSize = 1 << 20

// Scanner streams records out of FASTA data one at a time, so that callers
// can validate or pack sequences without first building a name -> sequence
// map.  Typical usage:
//
//   sc := fasta.NewScanner(r)
//   for sc.Scan() {
//     use(sc.Name(), sc.Seq())
//   }
//   if err := sc.Err(); err != nil { ... }
type Scanner struct {
	r    *bufio.Reader
	line []byte

	name    string
	seq     []byte
	pending string // name from a header line we have read but not returned
	header  bool   // pending is valid
	done    bool
	err     error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, readerBufSize)}
}

// readLine returns the next line without its terminator.  Lines may be
// arbitrarily long; single-line alignments are often megabytes wide.
func (s *Scanner) readLine() ([]byte, error) {
	s.line = s.line[:0]
	for {
		frag, err := s.r.ReadSlice('\n')
		s.line = append(s.line, frag...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(s.line) > 0 {
			err = nil
		}
		return bytes.TrimRight(s.line, "\r\n"), err
	}
}

func parseName(header []byte) string {
	name := header[1:]
	if i := bytes.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// Scan advances to the next record.  It returns false at the end of the
// input or on error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.done {
		return false
	}
	s.seq = s.seq[:0]
	for !s.header {
		line, err := s.readLine()
		if err == io.EOF {
			s.done = true
			return false
		}
		if err != nil {
			s.err = errors.Wrap(err, "fasta: read")
			return false
		}
		if len(line) == 0 {
			continue
		}
		if line[0] != '>' {
			s.err = errors.Errorf("malformed FASTA file: sequence data before first header")
			return false
		}
		s.pending = parseName(line)
		s.header = true
	}
	s.name = s.pending
	for {
		line, err := s.readLine()
		if err == io.EOF {
			s.done = true
			s.header = false
			return true
		}
		if err != nil {
			s.err = errors.Wrap(err, "fasta: read")
			return false
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			s.pending = parseName(line)
			return true
		}
		s.seq = append(s.seq, line...)
	}
}

// Name returns the name of the current record.
func (s *Scanner) Name() string {
	return s.name
}

// Seq returns the sequence of the current record.  The slice is only valid
// until the next call to Scan.
func (s *Scanner) Seq() []byte {
	return s.seq
}

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}
