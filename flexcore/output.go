// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package flexcore

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/flexcore/encoding/fasta"
	"github.com/grailbio/flexcore/util"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/pgzip"
)

// Distance table columns.  g1 and g2 are always written.
const (
	ColBitSNPs = 1 << iota
	ColBitShared
	ColBitDistance
	ColBitAdjusted

	ColAll = ColBitSNPs | ColBitShared | ColBitDistance | ColBitAdjusted
)

var distColNames = []struct {
	bit  int
	name string
}{
	{ColBitSNPs, "SNPs"},
	{ColBitShared, "sharedseq"},
	{ColBitDistance, "SNPdistance"},
	{ColBitAdjusted, "adjustedSNPs"},
}

// Distance table formats.
const (
	FormatCSV = "csv"
	FormatTSV = "tsv"
)

// ParseCols parses a column-set descriptor such as "SNPs,SNPdistance" or
// "-sharedseq" into a column bitset.  Terms either all carry a +/- prefix,
// patching the default set (all columns), or none do, naming the full set.
func ParseCols(colsParam string) (colBitset int, err error) {
	if colsParam == "" {
		return ColAll, nil
	}
	lookup := func(name string) (int, error) {
		for _, c := range distColNames {
			if c.name == name {
				return c.bit, nil
			}
		}
		return 0, newError(Config, "unknown distance column %q", name)
	}
	parts := strings.Split(colsParam, ",")
	patch := parts[0] != "" && (parts[0][0] == '+' || parts[0][0] == '-')
	if patch {
		colBitset = ColAll
	}
	for _, part := range parts {
		if part == "" {
			return 0, newError(Config, "empty term in column set %q", colsParam)
		}
		sign := part[0]
		if (sign == '+' || sign == '-') != patch {
			return 0, newError(Config, "either all terms in column set %q must be preceded by +/-, or none can be", colsParam)
		}
		name := part
		if patch {
			name = part[1:]
		}
		v, err := lookup(name)
		if err != nil {
			return 0, err
		}
		if sign == '-' {
			colBitset &^= v
		} else {
			colBitset |= v
		}
	}
	return colBitset, nil
}

func distHeader(colBitset int) []string {
	fields := []string{"g1", "g2"}
	for _, c := range distColNames {
		if colBitset&c.bit != 0 {
			fields = append(fields, c.name)
		}
	}
	return fields
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// appendPairFields appends the text fields of r to fields.
func appendPairFields(fields []string, r PairResult, colBitset int) []string {
	fields = append(fields, r.ID1, r.ID2)
	if colBitset&ColBitSNPs != 0 {
		fields = append(fields, strconv.Itoa(r.SNPs))
	}
	if colBitset&ColBitShared != 0 {
		fields = append(fields, strconv.Itoa(r.Shared))
	}
	if colBitset&ColBitDistance != 0 {
		fields = append(fields, formatFloat(r.Distance))
	}
	if colBitset&ColBitAdjusted != 0 {
		fields = append(fields, formatFloat(r.Adjusted))
	}
	return fields
}

type rowWriter interface {
	Write(fields []string) error
	Flush() error
}

type csvRowWriter struct {
	w *csv.Writer
}

func (c csvRowWriter) Write(fields []string) error { return c.w.Write(fields) }

func (c csvRowWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

type tsvRowWriter struct {
	w *tsv.Writer
}

func (t tsvRowWriter) Write(fields []string) error {
	for _, f := range fields {
		t.w.WriteString(f)
	}
	return t.w.EndLine()
}

func (t tsvRowWriter) Flush() error { return t.w.Flush() }

func newRowWriter(w io.Writer, format string) (rowWriter, error) {
	switch format {
	case FormatCSV, "":
		return csvRowWriter{csv.NewWriter(w)}, nil
	case FormatTSV:
		return tsvRowWriter{tsv.NewWriter(w)}, nil
	}
	return nil, newError(Config, "unknown distance table format %q", format)
}

// DistanceOutputOpts configures WriteDistances.
type DistanceOutputOpts struct {
	DistanceOpts
	// Format is FormatCSV or FormatTSV.
	Format string
	// ColBitset selects the optional columns; 0 means ColAll.
	ColBitset int
	// TempDir holds the per-job row files.  Empty means the system default.
	TempDir string
}

// WriteDistances compares every unordered pair of genomes in src and writes
// the distance table to path.  Each job writes its rows to a private
// temporary file; the files are then concatenated after the header in job
// order, so the table is in combinatorial pair order.  A path ending in .gz
// is gzip-compressed.
func WriteDistances(ctx context.Context, src SeqSource, path string, opts DistanceOutputOpts) (summary DistanceSummary, err error) {
	if err = checkParallelism(opts.Parallelism); err != nil {
		return
	}
	if err = checkPopulation(src); err != nil {
		return
	}
	colBitset := opts.ColBitset
	if colBitset == 0 {
		colBitset = ColAll
	}
	if _, err = newRowWriter(ioutil.Discard, opts.Format); err != nil {
		return
	}
	var (
		missing = opts.missing()
		nPairs  = util.NumPairs(src.NumSeqs())
		ranges  []util.Range
	)
	if ranges, err = util.Chunks(nPairs, opts.Parallelism); err != nil {
		return
	}
	if opts.TempDir != "" {
		if err = os.MkdirAll(opts.TempDir, 0755); err != nil {
			return
		}
	}
	tmpFiles := make([]*os.File, len(ranges))
	defer func() {
		for _, f := range tmpFiles {
			if f != nil {
				if e := f.Close(); e != nil && err == nil {
					err = e
				}
				_ = os.Remove(f.Name())
			}
		}
	}()
	for jobIdx := range tmpFiles {
		if tmpFiles[jobIdx], err = ioutil.TempFile(opts.TempDir, "flexcore_dist"+strconv.Itoa(jobIdx)+"_*.tmp"); err != nil {
			return
		}
	}

	log.Printf("computing %d pairwise distances (%d jobs)", nPairs, len(ranges))
	accs, err := util.MapChunks(nPairs, opts.Parallelism, func(jobIdx int, r util.Range) (*distanceAccumulator, error) {
		bw := bufio.NewWriterSize(tmpFiles[jobIdx], 1<<20)
		rw, err := newRowWriter(bw, opts.Format)
		if err != nil {
			return nil, err
		}
		acc := &distanceAccumulator{}
		fields := make([]string, 0, 6)
		err = eachPair(src, r, missing, func(res PairResult) error {
			acc.add(res)
			return rw.Write(appendPairFields(fields[:0], res, colBitset))
		})
		if err == nil {
			err = rw.Flush()
		}
		if err == nil {
			err = bw.Flush()
		}
		log.Debug.Printf("WriteDistances: job %d finished pairs [%d,%d)", jobIdx, r.Start, r.End)
		return acc, err
	})
	if err != nil {
		err = workerFailure("pairwise distances", err)
		return
	}
	summary = mergeAccumulators(accs)
	logDegenerate(summary)

	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		err = errors.E(err, "create", path)
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)
	w := dst.Writer(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz := pgzip.NewWriter(w)
		if err = gz.SetConcurrency(1<<20, opts.Parallelism); err != nil {
			return
		}
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = gz
	}
	header, _ := newRowWriter(w, opts.Format)
	if err = header.Write(distHeader(colBitset)); err != nil {
		return
	}
	if err = header.Flush(); err != nil {
		return
	}
	for i, f := range tmpFiles {
		if _, err = f.Seek(0, io.SeekStart); err != nil {
			return
		}
		if _, err = io.Copy(w, f); err != nil {
			return
		}
		curPath := f.Name()
		if err = f.Close(); err != nil {
			return
		}
		tmpFiles[i] = nil
		_ = os.Remove(curPath)
	}
	log.Printf("wrote %d pairs to %s", summary.Pairs, path)
	return
}

// WriteCore writes src to path as two-line FASTA records in source order.
// A path ending in .gz is written as BGZF; otherwise <path>.fai is written
// alongside so the file can be reopened with OpenCore without a scan.
func WriteCore(ctx context.Context, path string, src SeqSource, parallelism int) (err error) {
	if err = checkParallelism(parallelism); err != nil {
		return
	}
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, dst, &err)

	gz := strings.HasSuffix(path, ".gz")
	w := dst.Writer(ctx)
	if gz {
		bgzfWriter := bgzf.NewWriter(w, parallelism)
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bgzfWriter
	}
	fw := fasta.NewWriter(w)
	for i := 0; i < src.NumSeqs(); i++ {
		var seq []byte
		if seq, err = src.Fetch(i); err != nil {
			return
		}
		if err = fw.Write(src.Name(i), seq); err != nil {
			return
		}
	}
	if err = fw.Flush(); err != nil {
		return
	}
	if !gz {
		var idx file.File
		if idx, err = file.Create(ctx, path+".fai"); err != nil {
			return errors.E(err, "create", path+".fai")
		}
		defer file.CloseAndReport(ctx, idx, &err)
		if err = fw.WriteIndex(idx.Writer(ctx)); err != nil {
			return
		}
	}
	log.Printf("wrote %d core sequences of length %d to %s", src.NumSeqs(), src.Width(), path)
	return
}

// WriteSites writes the provenance of each core column: its 1-based index in
// the core alignment and its 1-based coordinate in the source alignment.
func WriteSites(ctx context.Context, path string, core *CoreAlignment) (err error) {
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, dst, &err)
	tsvw := tsv.NewWriter(dst.Writer(ctx))
	tsvw.WriteString("#CORE_POS\tALIGN_POS")
	if err = tsvw.EndLine(); err != nil {
		return
	}
	for k, col := range core.Columns {
		tsvw.WriteInt64(int64(k + 1))
		tsvw.WriteInt64(int64(col + 1))
		if err = tsvw.EndLine(); err != nil {
			return
		}
	}
	return tsvw.Flush()
}
