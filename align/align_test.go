package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignExactMatch(t *testing.T) {
	a := New([]byte("ACGTACGTACGT"))
	hit := a.Align([]byte("ACGTACGTACGT"))
	require.False(t, hit.Empty)
	assert.Equal(t, 12, hit.Score)
	assert.Equal(t, 0, hit.RefBegin)
	assert.Equal(t, 11, hit.RefEnd)
	assert.Equal(t, 0, hit.QueryBegin)
	assert.Equal(t, 11, hit.QueryEnd)
}

func TestAlignSubsequence(t *testing.T) {
	// Query is a substring of the reference flanked by unrelated bases.
	a := New([]byte("TTTTACGTACGTACGTTTTT"))
	hit := a.Align([]byte("GGACGTACGTACGTGG"))
	require.False(t, hit.Empty)
	assert.Equal(t, 12, hit.Score)
	assert.True(t, hit.RefBegin >= 3 && hit.RefBegin <= 5)
}

func TestAlignNoHomology(t *testing.T) {
	a := New([]byte("AAAAAAAAAAAAAAAAAAAA"))
	hit := a.Align([]byte("CCCCCCCCCCCCCCCCCCCC"))
	assert.True(t, hit.Empty)
}

func TestAlignWithGap(t *testing.T) {
	// Query has a single base deleted relative to the reference.
	ref := []byte("ACGTACGTACGTACGTACGT")
	query := []byte("ACGTACGTCGTACGTACGT") // missing one 'A' in the middle
	a := New(ref)
	hit := a.Align(query)
	require.False(t, hit.Empty)
	assert.True(t, hit.AlignedLen() >= MinAlignedLen(len(query), len(ref)))
}

func TestMinScoreAndLen(t *testing.T) {
	assert.Equal(t, 30, MinScore(40, 40))
	assert.Equal(t, 50, MinScore(100, 140))
	assert.Equal(t, 20, MinAlignedLen(40, 60))
}

func TestBankBuildsBothOrientations(t *testing.T) {
	b := NewBank("AAAAAAAAAAAAAAAAAA", "CAG", "TTTTTTTTTTTTTTTTTT", 3)
	require.Len(t, b.Templates, 6)
	for _, tmpl := range b.Templates {
		assert.True(t, tmpl.U >= 1 && tmpl.U <= 3)
	}
}

func TestUMaxForReadLen(t *testing.T) {
	assert.Equal(t, 34, UMaxForReadLen(100, 3))
	assert.Equal(t, 0, UMaxForReadLen(100, 0))
}
