package peextract

import (
	"context"
	"testing"

	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/readsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseLocus() locus.Locus {
	return locus.Locus{
		Name: "HD", Chrom: "chr4", RepeatStart: 3076604, RepeatEnd: 3076661,
		Motif: "CAG",
	}
}

func TestExtractGlobalAndTarget(t *testing.T) {
	loc := baseLocus()
	start0, end0 := loc.RepeatStart-1, loc.RepeatEnd

	reads := []readsource.Read{
		// A target-spanning pair: crosses the whole repeat tract.
		{
			QueryName: "p1", IsPaired: true,
			ReferenceStart: start0 - 200, ReferenceEnd: start0 - 200 + 100,
			QueryAlignmentStart: 0, QueryAlignmentEnd: 100, QueryLength: 100,
		},
		{
			QueryName: "p1", IsPaired: true, IsReverse: true,
			ReferenceStart: end0 + 100, ReferenceEnd: end0 + 200,
			QueryAlignmentStart: 0, QueryAlignmentEnd: 100, QueryLength: 100,
		},
		// A global (non-spanning) nearby pair.
		{
			QueryName: "p2", IsPaired: true,
			ReferenceStart: start0 - 500, ReferenceEnd: start0 - 500 + 100,
			QueryAlignmentStart: 0, QueryAlignmentEnd: 100, QueryLength: 100,
		},
		{
			QueryName: "p2", IsPaired: true, IsReverse: true,
			ReferenceStart: start0 - 200, ReferenceEnd: start0 - 100,
			QueryAlignmentStart: 0, QueryAlignmentEnd: 100, QueryLength: 100,
		},
	}
	src := readsource.NewFake(reads, 100)
	res, err := Extract(context.Background(), loc, src)
	require.NoError(t, err)
	assert.Len(t, res.GlobalLens, 2)
	assert.Len(t, res.TargetLens, 1)
}

func TestExtractDropsUnpairedAndDuplicates(t *testing.T) {
	loc := baseLocus()
	start0 := loc.RepeatStart - 1
	reads := []readsource.Read{
		{QueryName: "solo", IsPaired: false, ReferenceStart: start0 - 50, ReferenceEnd: start0 + 50, QueryLength: 100, QueryAlignmentEnd: 100},
	}
	src := readsource.NewFake(reads, 100)
	res, err := Extract(context.Background(), loc, src)
	require.NoError(t, err)
	assert.Empty(t, res.GlobalLens)
}

func TestMinPE(t *testing.T) {
	loc := baseLocus()
	res, err := Extract(context.Background(), loc, readsource.NewFake(nil, 100))
	require.NoError(t, err)
	assert.Equal(t, loc.RepeatEnd-loc.RepeatStart+2*locus.FlankMatch+2, res.MinPE)
}
