package stutter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundledModels(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)
	require.NotNil(t, m.Step)
	require.NotNil(t, m.Noise)
	assert.Len(t, m.Step.StepSizePMF, MaxPeriod)
	for p := 1; p <= MaxPeriod; p++ {
		assert.NotEmpty(t, m.Step.StepSizePMF[p])
	}
	assert.True(t, m.Step.ProbIncrease > 0 && m.Step.ProbIncrease < 1)
	assert.True(t, len(m.Noise.Weights) >= 2)
}

func TestPMFForPeriodReusesMaxPeriod(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)
	assert.Equal(t, m.Step.PMFForPeriod(MaxPeriod), m.Step.PMFForPeriod(MaxPeriod+11))
}

func TestNoiseModelPredictIsProbability(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)
	p := m.Noise.Predict([4]float64{3, 6.3, 0.68, 1.0})
	assert.True(t, p >= 0 && p <= 1)
}

func TestSpanningPDFSymmetricAroundH(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)
	h := 500
	pdf := SpanningPDF(m, 3, h, 0.68, 1.0)
	dev := len(m.Step.PMFForPeriod(3)) / 2
	for k := 1; k <= dev; k++ {
		assert.InDelta(t, pdf[h-k], pdf[h+k], 1e-9, "bin %d", k)
	}
}

func TestSpanningPDFClipsAtZero(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)
	pdf := SpanningPDF(m, 3, 1, 0.68, 1.0)
	assert.Len(t, pdf, 1000)
}

func TestPartialPDFUniformPlusStutterTail(t *testing.T) {
	m, err := Load()
	require.NoError(t, err)
	pdf := PartialPDF(m, 3, 30, 150, 0.68, 1.0)
	// Mass below h' should be roughly uniform and positive.
	assert.True(t, pdf[0] > 0)
	assert.True(t, pdf[10] > 0)
}

func TestParseStepModelRejectsTruncatedInput(t *testing.T) {
	_, err := ParseStepModel([]byte("0.1\n0.1\n"))
	assert.Error(t, err)
}

func TestParseNoiseModelRejectsEmpty(t *testing.T) {
	_, err := ParseNoiseModel([]byte("h1\nh2\nh3\nh4\nh5\nh6\n"), 6)
	assert.Error(t, err)
}
