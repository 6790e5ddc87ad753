package classify

import (
	"strings"
	"testing"

	"github.com/grailbio/tredcaller/align"
	"github.com/grailbio/tredcaller/locus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrefix = "GGGGGGGGGGGGGGGGGG" // 18bp
	testSuffix = "CCCCCCCCCCCCCCCCCC" // 18bp
	testMotif  = "CAG"
)

func buildBank(uMax int) *align.Bank {
	return align.NewBank(testPrefix, testMotif, testSuffix, uMax)
}

func synthRead(u int) []byte {
	s := testPrefix + strings.Repeat(testMotif, u) + testSuffix
	return []byte(s)
}

func TestReadFullSpanning(t *testing.T) {
	bank := buildBank(30)
	read := synthRead(19)
	tag, h, ok := Read(bank, read, 3, Options{})
	require.True(t, ok)
	assert.Equal(t, locus.TagFull, tag)
	assert.Equal(t, 19, h)
}

func TestReadPrefixOnly(t *testing.T) {
	bank := buildBank(30)
	full := testPrefix + strings.Repeat(testMotif, 19) + testSuffix
	// Keep prefix + half the repeat, drop the suffix entirely.
	read := []byte(full[:len(testPrefix)+30])
	tag, _, ok := Read(bank, read, 3, Options{})
	require.True(t, ok)
	assert.Equal(t, locus.TagPrefix, tag)
}

func TestReadRepeatOnly(t *testing.T) {
	bank := buildBank(20)
	// A read entirely inside the repeat tract, away from both flanks.
	read := []byte(strings.Repeat(testMotif, 20))
	tag, _, ok := Read(bank, read, 3, Options{})
	require.True(t, ok)
	assert.Equal(t, locus.TagRepeat, tag)
}

func TestReadNoEvidence(t *testing.T) {
	bank := buildBank(10)
	read := []byte(strings.Repeat("T", 60))
	_, _, ok := Read(bank, read, 3, Options{})
	assert.False(t, ok)
}

func TestAggregatePairOfReptSuppression(t *testing.T) {
	raw := []rawEvidence{
		{Evidence: Evidence{Tag: locus.TagRepeat, H: 20, ReadID: "r1"}, ok: true},
		{Evidence: Evidence{Tag: locus.TagRepeat, H: 21, ReadID: "r1"}, ok: true}, // same read_id twice -> dropped
		{Evidence: Evidence{Tag: locus.TagRepeat, H: 22, ReadID: "r2"}, ok: true},
		{Evidence: Evidence{Tag: locus.TagFull, H: 19, ReadID: "r3"}, ok: true},
	}
	counts := aggregate(raw, Options{})
	assert.Equal(t, 0, counts.Repeat[20])
	assert.Equal(t, 0, counts.Repeat[21])
	assert.Equal(t, 1, counts.Repeat[22])
	assert.Equal(t, 1, counts.Full[19])
}

func TestAggregateClippedModeSkipsSuppression(t *testing.T) {
	raw := []rawEvidence{
		{Evidence: Evidence{Tag: locus.TagRepeat, H: 20, ReadID: "r1"}, ok: true},
		{Evidence: Evidence{Tag: locus.TagRepeat, H: 21, ReadID: "r1"}, ok: true},
	}
	counts := aggregate(raw, Options{ClippedMode: true})
	assert.Equal(t, 1, counts.Repeat[20])
	assert.Equal(t, 1, counts.Repeat[21])
}

func TestCountsAggregators(t *testing.T) {
	c := newCounts()
	c.Repeat[10] = 3
	c.Repeat[11] = 5
	assert.Equal(t, 5, c.MaxRepeat())
	assert.Equal(t, 8, c.SumRepeat())
}
