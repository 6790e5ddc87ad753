package locusdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundledTable(t *testing.T) {
	db, err := Load()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, db.Len(), 5)

	hd, ok := db.Lookup("HD")
	require.True(t, ok)
	assert.Equal(t, "chr4", hd.Chrom)
	assert.Equal(t, "CAG", hd.Motif)
	assert.Equal(t, 19, hd.RefCopy())
	assert.NoError(t, hd.Validate())
}

func TestLoadAttachesAltRegions(t *testing.T) {
	db, err := Load()
	require.NoError(t, err)

	fxs, ok := db.Lookup("FXS")
	require.True(t, ok)
	require.Len(t, fxs.Alts, 2)
	assert.Equal(t, "chrX", fxs.Alts[0].Chrom)
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	db, err := Load()
	require.NoError(t, err)
	_, ok := db.Lookup("NOT_A_LOCUS")
	assert.False(t, ok)
}

func TestLoadFromRejectsBadRepeatLocation(t *testing.T) {
	treds := "name\trepeat\trepeat_location\tprefix\tsuffix\tcutoff_prerisk\tcutoff_risk\tinheritance\tmutation_nature\ttitle\n" +
		"BAD\tCAG\tchr1:100-50\tAAAAAAAAAAAAAAAAAA\tAAAAAAAAAAAAAAAAAA\t10\t20\tAD\tincrease\tbad\n"
	alts := "name\tregions\n"
	_, err := loadFrom(strings.NewReader(treds), strings.NewReader(alts))
	assert.Error(t, err)
}
