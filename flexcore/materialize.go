// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/flexcore/util"
)

// CoreAlignment is the column-filtered alignment.  It shares the Alignment
// API; ids and their order are those of the source alignment.
type CoreAlignment struct {
	*Alignment
	// Columns[k] is the 0-based coordinate, in the source alignment, of core
	// column k.
	Columns []int
	// SourceWidth is the width of the source alignment.
	SourceWidth int
}

// Materialize keeps, for every genome of a, exactly the symbols at the
// columns set in m.  Genomes are split across parallelism jobs, each
// filling its own rows of the output arena.
func Materialize(a *Alignment, m Mask, parallelism int) (*CoreAlignment, error) {
	if err := checkParallelism(parallelism); err != nil {
		return nil, err
	}
	if len(m) != a.Width() {
		return nil, newError(DataShape, "mask of length %d for alignment of width %d", len(m), a.Width())
	}
	cols := m.Columns()
	width := len(cols)
	core := &CoreAlignment{
		Alignment: &Alignment{
			ids:   a.ids,
			index: a.index,
			width: width,
			data:  make([]byte, a.NumSeqs()*width),
		},
		Columns:     cols,
		SourceWidth: a.Width(),
	}
	err := util.FanOut(a.NumSeqs(), parallelism, func(jobIdx int, r util.Range) error {
		for i := r.Start; i < r.End; i++ {
			src := a.Seq(i)
			dst := core.data[i*width : (i+1)*width]
			n := 0
			for col, keep := range m {
				if keep {
					if n < width {
						dst[n] = src[col]
					}
					n++
				}
			}
			if n != width {
				return newError(Integrity, "genome %s: retained %d columns, expected %d", a.Name(i), n, width)
			}
		}
		return nil
	})
	if err != nil {
		return nil, workerFailure("materialize", err)
	}
	log.Printf("retained %d of %d columns", width, a.Width())
	return core, nil
}
