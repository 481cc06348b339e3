package flexcore

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

// newTestAlignment builds an alignment from "id:SEQ" strings.
func newTestAlignment(t testing.TB, recs ...string) *Alignment {
	var (
		ids  []string
		seqs [][]byte
	)
	for _, rec := range recs {
		parts := strings.SplitN(rec, ":", 2)
		ids = append(ids, parts[0])
		seqs = append(seqs, []byte(parts[1]))
	}
	a, err := NewAlignment(ids, seqs)
	assert.NoError(t, err)
	return a
}

// randomAlignment returns n genomes of width l drawn from ACGT with about
// one symbol in gapRate missing.
func randomAlignment(t testing.TB, seed int64, n, l, gapRate int) *Alignment {
	const bases = "ACGT"
	r := rand.New(rand.NewSource(seed))
	ids := make([]string, n)
	seqs := make([][]byte, n)
	for i := range ids {
		ids[i] = "genome" + string(rune('A'+i%26)) + strings.Repeat("x", i/26)
		seq := make([]byte, l)
		for j := range seq {
			switch r.Intn(gapRate) {
			case 0:
				seq[j] = '-'
			case 1:
				seq[j] = 'N'
			default:
				seq[j] = bases[r.Intn(4)]
			}
		}
		seqs[i] = seq
	}
	a, err := NewAlignment(ids, seqs)
	assert.NoError(t, err)
	return a
}

func seqsOf(t testing.TB, src SeqSource) map[string]string {
	m := map[string]string{}
	for i := 0; i < src.NumSeqs(); i++ {
		seq, err := src.Fetch(i)
		assert.NoError(t, err)
		m[src.Name(i)] = string(seq)
	}
	return m
}

const testAlignmentFasta = `>Reference
AAAAAAAA
>g1 first genome
ACGTACGT
>g2
ACGT
ACGA
>g3
AC-TACNT
>g4
AC-TTCGT
`

func TestReadAlignment(t *testing.T) {
	a, err := ReadAlignment(strings.NewReader(testAlignmentFasta), DefaultReadOpts)
	assert.NoError(t, err)
	expect.EQ(t, a.IDs(), []string{"g1", "g2", "g3", "g4"})
	expect.EQ(t, a.NumSeqs(), 4)
	expect.EQ(t, a.Width(), 8)
	expect.EQ(t, string(a.Seq(1)), "ACGTACGA")
	seq, ok := a.Lookup("g3")
	expect.True(t, ok)
	expect.EQ(t, string(seq), "AC-TACNT")
	_, ok = a.Lookup("Reference")
	expect.True(t, !ok)
	i, ok := a.Index("g4")
	expect.True(t, ok)
	expect.EQ(t, i, 3)

	a, err = ReadAlignment(strings.NewReader(testAlignmentFasta), ReadOpts{KeepReference: true, ReferenceName: "Reference"})
	assert.NoError(t, err)
	expect.EQ(t, a.IDs(), []string{"Reference", "g1", "g2", "g3", "g4"})

	a, err = ReadAlignment(strings.NewReader(testAlignmentFasta), ReadOpts{ReferenceName: "g2"})
	assert.NoError(t, err)
	expect.EQ(t, a.IDs(), []string{"Reference", "g1", "g3", "g4"})

	// Appending to a returned sequence must not clobber its neighbour.
	a = newTestAlignment(t, "x:AC", "y:GT")
	_ = append(a.Seq(0), 'N')
	expect.EQ(t, string(a.Seq(1)), "GT")
}

func TestReadAlignmentErrors(t *testing.T) {
	tests := []struct {
		data string
		re   string
	}{
		{">a\nACGT\n>b\nACG\n", "genome b has length 3, expected 4"},
		{">a\nACGT\n>a\nACGA\n", "duplicate genome id a"},
		{"", "empty alignment"},
		{">Reference\nACGT\n", "empty alignment"},
		{">a\n>b\n", "length 0"},
		{"ACGT\n>a\nACGT\n", "before first header"},
	}
	for _, test := range tests {
		_, err := ReadAlignment(strings.NewReader(test.data), DefaultReadOpts)
		assert.Regexp(t, err, test.re)
		expect.EQ(t, KindOf(err), DataShape, "data: %q", test.data)
	}
	_, err := NewAlignment([]string{"a", ""}, [][]byte{[]byte("A"), []byte("C")})
	expect.True(t, IsKind(err, DataShape))
	_, err = NewAlignment([]string{"a"}, nil)
	expect.True(t, IsKind(err, DataShape))
}

func TestLoadAlignment(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	plain := filepath.Join(tmpdir, "aln.fasta")
	assert.NoError(t, os.WriteFile(plain, []byte(testAlignmentFasta), 0644))

	gzPath := filepath.Join(tmpdir, "aln.fasta.gz")
	f, err := os.Create(gzPath)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testAlignmentFasta))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())

	for _, path := range []string{plain, gzPath} {
		a, err := LoadAlignment(ctx, path, DefaultReadOpts)
		assert.NoError(t, err)
		expect.EQ(t, a.IDs(), []string{"g1", "g2", "g3", "g4"})
		expect.EQ(t, string(a.Seq(3)), "AC-TTCGT")
	}

	_, err = LoadAlignment(ctx, filepath.Join(tmpdir, "missing.fasta"), DefaultReadOpts)
	expect.True(t, err != nil)
}
