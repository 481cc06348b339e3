package flexcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestRun(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	alnPath := filepath.Join(tmpdir, "aln.fasta")
	assert.NoError(t, os.WriteFile(alnPath, []byte(testAlignmentFasta), 0644))

	opts := DefaultOpts
	opts.AlignmentPath = alnPath
	opts.Cutoff = 75
	opts.Parallelism = 3
	opts.CoreOutPath = filepath.Join(tmpdir, "Coresites.fasta")
	opts.DistOutPath = filepath.Join(tmpdir, "rSNP75.csv")
	opts.SitesOutPath = filepath.Join(tmpdir, "sites.tsv")
	opts.TempDir = tmpdir
	summary, err := Run(ctx, opts)
	assert.NoError(t, err)

	// Column 2 is missing in g3 and g4, above the one allowed at 75% of 4.
	expect.EQ(t, summary.Genomes, 4)
	expect.EQ(t, summary.Width, 8)
	expect.EQ(t, summary.CoreWidth, 7)
	expect.EQ(t, readFile(t, opts.CoreOutPath), ">g1\nACTACGT\n>g2\nACTACGA\n>g3\nACTACNT\n>g4\nACTTCGT\n")
	expect.EQ(t, readFile(t, opts.SitesOutPath), "#CORE_POS\tALIGN_POS\n1\t1\n2\t2\n3\t4\n4\t5\n5\t6\n6\t7\n7\t8\n")
	_, err = os.Stat(opts.CoreOutPath + ".fai")
	assert.NoError(t, err)

	assert.True(t, summary.Distances != nil)
	expect.EQ(t, summary.Distances.Pairs, 6)
	expect.EQ(t, summary.Distances.Degenerate, 0)
	dists := readFile(t, opts.DistOutPath)
	expect.EQ(t, dists[:len("g1,g2,SNPs,sharedseq,SNPdistance,adjustedSNPs\ng1,g2,1,7,")],
		"g1,g2,SNPs,sharedseq,SNPdistance,adjustedSNPs\ng1,g2,1,7,")

	// Reusing the persisted core reproduces the distance table.
	reuse := DefaultOpts
	reuse.CoreInPath = opts.CoreOutPath
	reuse.Parallelism = 2
	reuse.DistOutPath = filepath.Join(tmpdir, "reuse.csv")
	reuseSummary, err := Run(ctx, reuse)
	assert.NoError(t, err)
	expect.EQ(t, reuseSummary.Genomes, 4)
	expect.EQ(t, reuseSummary.CoreWidth, 7)
	expect.EQ(t, reuseSummary.Checksum, summary.Checksum)
	expect.EQ(t, readFile(t, reuse.DistOutPath), dists)

	// Without distances, a single genome is fine.
	single := filepath.Join(tmpdir, "single.fasta")
	assert.NoError(t, os.WriteFile(single, []byte(">only\nAC-T\n"), 0644))
	noDists := DefaultOpts
	noDists.AlignmentPath = single
	noDists.NoDists = true
	noDists.CoreOutPath = filepath.Join(tmpdir, "single.core.fasta.gz")
	summary, err = Run(ctx, noDists)
	assert.NoError(t, err)
	expect.True(t, summary.Distances == nil)
	expect.EQ(t, summary.CoreWidth, 3)
	expect.EQ(t, readFile(t, noDists.CoreOutPath), ">only\nACT\n")
}

func TestRunErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	single := filepath.Join(tmpdir, "single.fasta")
	assert.NoError(t, os.WriteFile(single, []byte(">Reference\nACGT\n>only\nAC-T\n"), 0644))
	ragged := filepath.Join(tmpdir, "ragged.fasta")
	assert.NoError(t, os.WriteFile(ragged, []byte(">a\nACGT\n>b\nAC-\n"), 0644))

	tests := []struct {
		mod  func(o *Opts)
		kind Kind
	}{
		{func(o *Opts) { o.Cutoff = 101 }, InvalidCutoff},
		{func(o *Opts) { o.Cutoff = -5 }, InvalidCutoff},
		{func(o *Opts) { o.Parallelism = 0 }, Config},
		{func(o *Opts) { o.AlignmentPath = "" }, Config},
		{func(o *Opts) { o.Format = "xml" }, Config},
		{func(o *Opts) { o.Cols = "SNPs,+bogus" }, Config},
		{func(o *Opts) { o.MissingSymbols = "" }, Config},
		{func(o *Opts) { o.ReferenceName = "" }, Config},
		{func(o *Opts) { o.CoreInPath = single; o.NoDists = true }, Config},
		{func(o *Opts) { o.AlignmentPath = ragged }, DataShape},
		{func(o *Opts) {}, InsufficientPopulation},
	}
	for i, test := range tests {
		opts := DefaultOpts
		opts.AlignmentPath = single
		opts.CoreOutPath = filepath.Join(tmpdir, "core.fasta")
		opts.DistOutPath = filepath.Join(tmpdir, "dist.csv")
		test.mod(&opts)
		_, err := Run(ctx, opts)
		expect.EQ(t, KindOf(err), test.kind, "case %d: %v", i, err)
	}
	// Nothing was written by the failing runs.
	_, err := os.Stat(filepath.Join(tmpdir, "core.fasta"))
	expect.True(t, os.IsNotExist(err))
}

func TestOptsDistOutPath(t *testing.T) {
	opts := DefaultOpts
	expect.EQ(t, opts.distOutPath(), "rSNP95.csv")
	opts.Cutoff = 80
	opts.Format = FormatTSV
	expect.EQ(t, opts.distOutPath(), "rSNP80.tsv")
	opts.DistOutPath = "x.csv"
	expect.EQ(t, opts.distOutPath(), "x.csv")
}
