// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/flexcore/encoding/fasta"
)

// DefaultReferenceName is the record name that is dropped from an input
// alignment unless ReadOpts.KeepReference is set.
const DefaultReferenceName = "Reference"

// ReadOpts controls how an alignment is ingested.
type ReadOpts struct {
	// KeepReference retains the record named ReferenceName as an ordinary
	// genome.
	KeepReference bool
	// ReferenceName is the record dropped when KeepReference is false.
	ReferenceName string
}

// DefaultReadOpts drops the record named "Reference".
var DefaultReadOpts = ReadOpts{ReferenceName: DefaultReferenceName}

// SeqSource is read-only access to a rectangular set of named sequences.
// Both an in-memory Alignment and an (indexed) FASTA file implement it.
type SeqSource interface {
	// NumSeqs returns the number of sequences.
	NumSeqs() int
	// Width returns the common sequence length.
	Width() int
	// Name returns the id of the i'th sequence, in ingestion order.
	Name(i int) string
	// Fetch returns the i'th sequence.  The caller must not modify the
	// result.
	Fetch(i int) ([]byte, error)
}

// Alignment is a dense multiple sequence alignment: N genomes, each exactly
// Width() bytes long.  Sequences are stored back to back in one arena, so
// the i'th genome is data[i*width:(i+1)*width].  An Alignment is immutable
// once built and is safe for concurrent readers.
type Alignment struct {
	ids   []string
	index map[string]int
	width int
	data  []byte
}

// NewAlignment builds an alignment from parallel id and sequence slices.
// The sequences are copied.
func NewAlignment(ids []string, seqs [][]byte) (*Alignment, error) {
	if len(ids) != len(seqs) {
		return nil, newError(DataShape, "%d ids for %d sequences", len(ids), len(seqs))
	}
	b := alignmentBuilder{}
	for i := range ids {
		if err := b.add(ids[i], seqs[i]); err != nil {
			return nil, err
		}
	}
	return b.finish()
}

type alignmentBuilder struct {
	a Alignment
}

func (b *alignmentBuilder) add(id string, seq []byte) error {
	a := &b.a
	if id == "" {
		return newError(DataShape, "genome #%d has an empty id", len(a.ids))
	}
	if a.index == nil {
		a.index = map[string]int{}
		a.width = len(seq)
	}
	if _, ok := a.index[id]; ok {
		return newError(DataShape, "duplicate genome id %s", id)
	}
	if len(seq) != a.width {
		return newError(DataShape, "genome %s has length %d, expected %d (length of %s)",
			id, len(seq), a.width, a.ids[0])
	}
	a.index[id] = len(a.ids)
	a.ids = append(a.ids, id)
	a.data = append(a.data, seq...)
	return nil
}

func (b *alignmentBuilder) finish() (*Alignment, error) {
	if len(b.a.ids) == 0 {
		return nil, newError(DataShape, "empty alignment: no genomes")
	}
	if b.a.width == 0 {
		return nil, newError(DataShape, "empty alignment: sequences have length 0")
	}
	a := b.a
	return &a, nil
}

// ReadAlignment parses a FASTA alignment from r.
func ReadAlignment(r io.Reader, opts ReadOpts) (*Alignment, error) {
	var (
		b       alignmentBuilder
		dropped int
		sc      = fasta.NewScanner(r)
	)
	for sc.Scan() {
		if !opts.KeepReference && sc.Name() == opts.ReferenceName {
			dropped++
			continue
		}
		if err := b.add(sc.Name(), sc.Seq()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &Error{Kind: DataShape, Err: err}
	}
	if dropped > 0 {
		log.Debug.Printf("ReadAlignment: dropped %d record(s) named %s", dropped, opts.ReferenceName)
	}
	return b.finish()
}

// LoadAlignment reads a FASTA alignment from path.  Compressed input (gzip,
// bzip2, zstd, ...) is detected from its content.
func LoadAlignment(ctx context.Context, path string, opts ReadOpts) (a *Alignment, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	reader, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if a, err = ReadAlignment(reader, opts); err != nil {
		return nil, err
	}
	log.Printf("loaded %d genomes of length %d from %s", a.NumSeqs(), a.Width(), path)
	return
}

// NumSeqs implements SeqSource.
func (a *Alignment) NumSeqs() int { return len(a.ids) }

// Width implements SeqSource.
func (a *Alignment) Width() int { return a.width }

// Name implements SeqSource.
func (a *Alignment) Name(i int) string { return a.ids[i] }

// IDs returns the genome ids in ingestion order.
func (a *Alignment) IDs() []string { return a.ids }

// Seq returns the i'th sequence.  The result aliases the arena.
func (a *Alignment) Seq(i int) []byte {
	return a.data[i*a.width : (i+1)*a.width : (i+1)*a.width]
}

// Fetch implements SeqSource.
func (a *Alignment) Fetch(i int) ([]byte, error) { return a.Seq(i), nil }

// Lookup returns the sequence of the genome with the given id.
func (a *Alignment) Lookup(id string) ([]byte, bool) {
	i, ok := a.index[id]
	if !ok {
		return nil, false
	}
	return a.Seq(i), true
}

// Index returns the ingestion position of id.
func (a *Alignment) Index(id string) (int, bool) {
	i, ok := a.index[id]
	return i, ok
}
