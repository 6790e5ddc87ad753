package pelik

import (
	"math"
	"testing"

	"github.com/grailbio/tredcaller/locus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGlobalLens() []int {
	lens := make([]int, 0, 200)
	for i := 0; i < 200; i++ {
		lens = append(lens, 340+(i%20))
	}
	return lens
}

func TestBuildNormalizesToPMF(t *testing.T) {
	m := Build(sampleGlobalLens(), 57, 10)
	sum := 0.0
	for _, v := range m.g {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestPMFForHFloorsMinPERegion(t *testing.T) {
	m := Build(sampleGlobalLens(), 57, 20)
	p := m.PMFForH(57)
	for i := 0; i < 20; i++ {
		assert.InDelta(t, Floor, p[i], 1e-12)
	}
}

func TestPMFForHIsMemoized(t *testing.T) {
	m := Build(sampleGlobalLens(), 57, 10)
	p1 := m.PMFForH(123)
	p2 := m.PMFForH(123)
	require.Equal(t, len(p1), len(p2))
	assert.Same(t, &p1[0], &p2[0])
}

func TestPMFForHShiftsByRefMinusH(t *testing.T) {
	m := Build(sampleGlobalLens(), 57, 0)
	pRef := m.PMFForH(57) // shift = 0
	for i := 0; i < locus.SPAN; i++ {
		assert.InDelta(t, m.g[i], pRef[i], 1e-12)
	}
}

func TestLogLikelihoodUsesFloorOutOfRange(t *testing.T) {
	m := Build(sampleGlobalLens(), 57, 0)
	ll := m.LogLikelihood(57, 57, []int{-1, locus.SPAN + 5})
	assert.InDelta(t, 2*math.Log(Floor), ll, 1e-9)
}
