package flexcore

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestRarefy(t *testing.T) {
	a := randomAlignment(t, 7, 45, 200, 25)
	opts := DefaultRarefactionOpts
	opts.MinPop = 10
	opts.Step = 15
	opts.Iterations = 9
	opts.Cutoff = 90

	want, err := Rarefy(a, opts)
	assert.NoError(t, err)
	assert.EQ(t, len(want), 3)
	for i, row := range want {
		expect.EQ(t, row.PopSize, 10+15*i)
		assert.EQ(t, len(row.CoreSites), opts.Iterations)
		for _, v := range row.CoreSites {
			expect.LE(t, v, a.Width())
			expect.True(t, v >= 0)
		}
	}

	for _, p := range []int{2, 4, 9, 20} {
		opts.Parallelism = p
		got, err := Rarefy(a, opts)
		assert.NoError(t, err)
		expect.EQ(t, got, want, "parallelism %d", p)
	}

	opts.Seed = 12345
	other, err := Rarefy(a, opts)
	assert.NoError(t, err)
	expect.True(t, len(other) == len(want))
}

func TestRarefyFullSubsample(t *testing.T) {
	// A subsample of every genome but one, drawn from a population where
	// only the last column is ever missing, keeps the other columns.
	a := newTestAlignment(t,
		"g1:ACG-",
		"g2:ACGT",
		"g3:ACG-",
		"g4:ACGT")
	rows, err := Rarefy(a, RarefactionOpts{
		Cutoff:      100,
		MinPop:      3,
		Step:        1,
		Iterations:  5,
		Parallelism: 2,
	})
	assert.NoError(t, err)
	assert.EQ(t, len(rows), 1)
	expect.EQ(t, rows[0].PopSize, 3)
	// Three of four genomes always include a gapped one.
	expect.EQ(t, rows[0].CoreSites, []int{3, 3, 3, 3, 3})
	mean, std := rows[0].MeanStdDev()
	expect.EQ(t, mean, 3.0)
	expect.EQ(t, std, 0.0)

	rows, err = Rarefy(a, RarefactionOpts{Cutoff: 100, MinPop: 4, Step: 1, Iterations: 5, Parallelism: 1})
	assert.NoError(t, err)
	expect.EQ(t, len(rows), 0)
}

func TestRarefyErrors(t *testing.T) {
	a := randomAlignment(t, 8, 10, 10, 5)
	for _, mod := range []func(o *RarefactionOpts){
		func(o *RarefactionOpts) { o.Cutoff = 200 },
		func(o *RarefactionOpts) { o.Parallelism = 0 },
		func(o *RarefactionOpts) { o.Step = 0 },
		func(o *RarefactionOpts) { o.MinPop = 0 },
		func(o *RarefactionOpts) { o.Iterations = -1 },
	} {
		opts := DefaultRarefactionOpts
		opts.MinPop = 2
		mod(&opts)
		_, err := Rarefy(a, opts)
		expect.True(t, IsKind(err, Config) || IsKind(err, InvalidCutoff), "%v", err)
	}
}

func TestWriteRarefaction(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	path := filepath.Join(tmpdir, "rarefaction.csv")
	rows := []RarefactionRow{
		{PopSize: 20, CoreSites: []int{100, 98, 99}},
		{PopSize: 30, CoreSites: []int{95, 97, 90}},
	}
	assert.NoError(t, WriteRarefaction(ctx, path, rows, 3))
	expect.EQ(t, readFile(t, path), strings.Join([]string{
		"popsize,iter0,iter1,iter2",
		"20,100,98,99",
		"30,95,97,90",
		"",
	}, "\n"))
}
