// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

func writeIndexEntry(tsvOut *tsv.Writer, ent indexEntry) error {
	tsvOut.WriteString(ent.name)
	tsvOut.WriteInt64(int64(ent.length))
	tsvOut.WriteInt64(int64(ent.offset))
	tsvOut.WriteInt64(int64(ent.lineBase))
	tsvOut.WriteInt64(int64(ent.lineWidth))
	return tsvOut.EndLine()
}

// GenerateIndex generates an index (*.fai) from FASTA.  The index can be later
// passed to NewIndexed() to random-access the FASTA file quickly.
//
// The index format is defined by "samtool faidx"
// (http://www.htslib.org/doc/faidx.html).  Records with an empty sequence
// are indexed with zero length.
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		tsvOut  = tsv.NewWriter(out)
		r       = bufio.NewReaderSize(in, readerBufSize)
		ent     indexEntry
		inSeq   bool
		cumByte int64
		eof     bool
	)

	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	flush := func() {
		if inSeq {
			setErr(writeIndexEntry(tsvOut, ent))
		}
	}
	for !eof && err == nil {
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF { // Process fullLine, then exit the loop
			eof = true
		} else if e != nil {
			setErr(e)
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			flush()
			ent = indexEntry{name: parseName(line), offset: uint64(cumByte)}
			if ent.name == "" {
				setErr(errors.E("malformed FASTA file: unnamed record"))
			}
			inSeq = true
			continue
		}
		if !inSeq {
			setErr(errors.E("malformed FASTA file: sequence data before first header"))
			break
		}
		if ent.lineWidth == 0 {
			ent.lineWidth = uint64(len(fullLine))
			ent.lineBase = uint64(len(line))
		}
		ent.length += uint64(len(line))
	}
	flush()
	setErr(tsvOut.Flush())
	if cumByte == 0 {
		setErr(errors.E("empty FASTA file"))
	}
	return
}
