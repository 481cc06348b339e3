// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/flexcore/encoding/fasta"
)

type fastaSource struct {
	fa    fasta.Fasta
	names []string
	width int
}

// NewFastaSource exposes the records of fa as a SeqSource.  All records
// must have the same length.
func NewFastaSource(fa fasta.Fasta) (SeqSource, error) {
	names := fa.SeqNames()
	if len(names) == 0 {
		return nil, newError(DataShape, "empty alignment: no genomes")
	}
	src := &fastaSource{fa: fa, names: names}
	for i, name := range names {
		if name == "" {
			return nil, newError(DataShape, "genome #%d has an empty id", i)
		}
		n, err := fa.Len(name)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			src.width = int(n)
		} else if int(n) != src.width {
			return nil, newError(DataShape, "genome %s has length %d, expected %d (length of %s)",
				name, n, src.width, names[0])
		}
	}
	return src, nil
}

func (s *fastaSource) NumSeqs() int      { return len(s.names) }
func (s *fastaSource) Width() int        { return s.width }
func (s *fastaSource) Name(i int) string { return s.names[i] }

func (s *fastaSource) Fetch(i int) ([]byte, error) {
	if s.width == 0 {
		return nil, nil
	}
	seq, err := s.fa.Get(s.names[i], 0, uint64(s.width))
	if err != nil {
		return nil, err
	}
	return gunsafe.StringToBytes(seq), nil
}

// OpenCore opens a core alignment previously written by WriteCore for
// reuse.  Uncompressed files are accessed through their FASTA index, which
// is generated in memory when <path>.fai does not exist.  Compressed files
// are loaded whole.  The returned closer releases the underlying file.
func OpenCore(ctx context.Context, path string) (src SeqSource, closer func() error, err error) {
	noop := func() error { return nil }
	if strings.HasSuffix(path, ".gz") {
		a, err := LoadAlignment(ctx, path, ReadOpts{KeepReference: true})
		if err != nil {
			return nil, nil, err
		}
		return a, noop, nil
	}
	idx, err := readOrGenerateIndex(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	closer = func() error { return in.Close(ctx) }
	fa, err := fasta.NewIndexed(in.Reader(ctx), bytes.NewReader(idx))
	if err == nil {
		src, err = NewFastaSource(fa)
	}
	if err != nil {
		_ = closer()
		if KindOf(err) == Other {
			err = errors.E(err, "open core alignment", path)
		}
		return nil, nil, err
	}
	log.Printf("reusing core alignment %s: %d genomes of length %d", path, src.NumSeqs(), src.Width())
	return src, closer, nil
}

func readOrGenerateIndex(ctx context.Context, path string) ([]byte, error) {
	if idxIn, err := file.Open(ctx, path+".fai"); err == nil {
		idx, err := ioutil.ReadAll(idxIn.Reader(ctx))
		if e := idxIn.Close(ctx); e != nil && err == nil {
			err = e
		}
		return idx, err
	}
	log.Debug.Printf("no index for %s; generating one", path)
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var idx bytes.Buffer
	err = fasta.GenerateIndex(&idx, in.Reader(ctx))
	if e := in.Close(ctx); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, errors.E(err, "index", path)
	}
	return idx.Bytes(), nil
}
