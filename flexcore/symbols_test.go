package flexcore

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestSymbols(t *testing.T) {
	s := NewSymbols(DefaultMissingSymbols)
	expect.True(t, s.Has('-'))
	expect.True(t, s.Has('N'))
	expect.True(t, !s.Has('n'))
	expect.True(t, !s.Has('A'))
	expect.EQ(t, s.Count([]byte("AN-nN?")), 3)

	s = NewSymbols("?")
	expect.EQ(t, s.Count([]byte("AN-nN?")), 1)
}
