package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/readsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAggregatesFullReads(t *testing.T) {
	loc := locus.Locus{
		Name:        "HD",
		Chrom:       "chr4",
		RepeatStart: 1001,
		RepeatEnd:   1057, // 19 * 3bp
		Motif:       testMotif,
		Prefix:      testPrefix,
		Suffix:      testSuffix,
	}
	bank := buildBank(30)

	seq := testPrefix + strings.Repeat(testMotif, 19) + testSuffix
	reads := []readsource.Read{
		{
			QueryName:      "read1",
			QuerySequence:  seq,
			ReferenceStart: loc.RepeatStart - 1 - len(testPrefix),
			ReferenceEnd:   loc.RepeatStart - 1 - len(testPrefix) + len(seq),
			QueryLength:    len(seq),
		},
	}
	src := readsource.NewFake(reads, len(seq))

	result, err := Scan(context.Background(), loc, src, bank, len(seq), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts.Full[19])
	assert.Equal(t, 0, result.Counts.Hang)
}

func TestScanSkipsReadsFarFromLocus(t *testing.T) {
	loc := locus.Locus{
		Name: "HD", Chrom: "chr4", RepeatStart: 1001, RepeatEnd: 1057,
		Motif: testMotif, Prefix: testPrefix, Suffix: testSuffix,
	}
	bank := buildBank(30)
	seq := testPrefix + strings.Repeat(testMotif, 19) + testSuffix
	reads := []readsource.Read{
		{
			QueryName:      "far",
			QuerySequence:  seq,
			ReferenceStart: loc.RepeatStart + 100000,
			ReferenceEnd:   loc.RepeatStart + 100000 + len(seq),
			QueryLength:    len(seq),
		},
	}
	src := readsource.NewFake(reads, len(seq))
	result, err := Scan(context.Background(), loc, src, bank, len(seq), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Counts.Full[19])
}
