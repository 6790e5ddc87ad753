package stutter

import "github.com/grailbio/tredcaller/locus"

// SpanningPDF builds the length-SPAN probability vector for a spanning read
// truly carrying h repeat units, per spec.md §4.4's pdf_spanning: the
// period-indexed step-size PMF, scaled by the stutter probability and
// centered so its middle bin holds the no-stutter mass (1-q), deposited at
// h and clipped to [0, SPAN).
func SpanningPDF(models *Models, period, h int, gc, score float64) []float64 {
	pmf := models.Step.PMFForPeriod(period)
	lp := len(pmf)
	dev := lp / 2

	q := models.Noise.Predict([4]float64{float64(period), float64(h) / float64(period), gc, score})

	scaled := make([]float64, lp)
	for i, v := range pmf {
		scaled[i] = v * q
	}
	scaled[dev] = 1 - q

	out := make([]float64, locus.SPAN)
	start, end := h-dev, h+dev+1
	srcStart := 0
	if start < 0 {
		srcStart = -start
		start = 0
	}
	if end > locus.SPAN {
		end = locus.SPAN
	}
	for i := start; i < end; i++ {
		out[i] = scaled[srcStart+(i-start)]
	}
	return out
}

// PartialPDF builds the length-SPAN probability vector for a partial
// (flank-only) read implying h repeat units, per spec.md §4.4's
// pdf_partial: uniform mass over [0, h') plus the spanning PMF folded into
// the final bin, where h' = min(h, max_partial) and
// max_partial = readLen - 2*FlankMatch.
func PartialPDF(models *Models, period, h, readLen int, gc, score float64) []float64 {
	maxPartial := readLen - 2*locus.FlankMatch
	hp := h
	if hp > maxPartial {
		hp = maxPartial
	}
	if hp < 0 {
		hp = 0
	}

	out := make([]float64, locus.SPAN)
	c := 1.0 / float64(hp+1)
	for i := 0; i < hp && i < locus.SPAN; i++ {
		out[i] = c
	}
	spanning := SpanningPDF(models, period, hp, gc, score)
	for i := range out {
		out[i] += c * spanning[i]
	}
	return out
}
