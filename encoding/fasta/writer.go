// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"io"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// Writer writes FASTA records in two-line form: a header line followed by
// the whole sequence on a single line.  It keeps track of the byte offset of
// each record so that a matching index can be emitted afterwards without
// rereading the output.
type Writer struct {
	w     *bufio.Writer
	off   uint64
	index []indexEntry
	err   error
}

// NewWriter creates a Writer on top of w.  Flush must be called once all
// records have been written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, readerBufSize)}
}

// Write appends one record.
func (w *Writer) Write(name string, seq []byte) error {
	if w.err != nil {
		return w.err
	}
	if name == "" {
		w.err = errors.Errorf("fasta.Writer: empty sequence name")
		return w.err
	}
	ent := indexEntry{
		name:   name,
		length: uint64(len(seq)),
		offset: w.off + uint64(len(name)) + 2,
	}
	if len(seq) > 0 {
		ent.lineBase = uint64(len(seq))
		ent.lineWidth = uint64(len(seq)) + 1
	}
	w.w.WriteByte('>')
	w.w.WriteString(name)
	w.w.WriteByte('\n')
	w.w.Write(seq)
	if err := w.w.WriteByte('\n'); err != nil {
		w.err = errors.Wrapf(err, "fasta.Writer: write %s", name)
		return w.err
	}
	w.off = ent.offset + uint64(len(seq)) + 1
	w.index = append(w.index, ent)
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = errors.Wrap(err, "fasta.Writer: flush")
	}
	return w.err
}

// WriteIndex writes a samtools-compatible index (*.fai) describing the
// records written so far.
func (w *Writer) WriteIndex(out io.Writer) error {
	tsvOut := tsv.NewWriter(out)
	for _, ent := range w.index {
		if err := writeIndexEntry(tsvOut, ent); err != nil {
			return err
		}
	}
	return tsvOut.Flush()
}
