package caller

import (
	"math"

	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/pelik"
	"github.com/grailbio/tredcaller/stutter"
)

// floor is the numerical floor used throughout L_S/L_P, per spec.md §4.6.
const floor = 4.5399929762484854e-05 // math.Exp(-10)

// poissonFloorLog is the floor applied to log L_R, per spec.md §4.6.
const poissonFloorLog = -100

// likelihoodEngine owns the per-call memoization caches (spanning_db,
// partial_db) and the fixed parameters (period, readLen, gc, score) shared
// by every grid candidate, per spec.md §5 and §9.
type likelihoodEngine struct {
	models *stutter.Models
	period int
	readLen int
	gc, score float64

	spanningDB map[int][]float64
	partialDB  map[int][]float64

	pe       *pelik.Model
	peEnable bool
}

func newLikelihoodEngine(models *stutter.Models, period, readLen int, gc, score float64, pe *pelik.Model, peEnable bool) *likelihoodEngine {
	return &likelihoodEngine{
		models:     models,
		period:     period,
		readLen:    readLen,
		gc:         gc,
		score:      score,
		spanningDB: map[int][]float64{},
		partialDB:  map[int][]float64{},
		pe:         pe,
		peEnable:   peEnable,
	}
}

func (e *likelihoodEngine) spanningPDF(h int) []float64 {
	if p, ok := e.spanningDB[h]; ok {
		return p
	}
	p := stutter.SpanningPDF(e.models, e.period, h, e.gc, e.score)
	e.spanningDB[h] = p
	return p
}

func (e *likelihoodEngine) partialPDF(h int) []float64 {
	if p, ok := e.partialDB[h]; ok {
		return p
	}
	p := stutter.PartialPDF(e.models, e.period, h, e.readLen, e.gc, e.score)
	e.partialDB[h] = p
	return p
}

// lSpanning computes L_S(h1,h2), per spec.md §4.6.
func (e *likelihoodEngine) lSpanning(h1, h2 int, oS map[int]int) float64 {
	if len(oS) == 0 {
		return 0
	}
	t2 := e.readLen - 2*locus.FlankMatch
	s1, s2 := maxInt(0, t2-h1), maxInt(0, t2-h2)
	alpha := mixWeight(s1, s2)

	p1, p2 := e.spanningPDF(h1), e.spanningPDF(h2)
	total := 0.0
	for _, h := range sortedIntKeys(oS) {
		n := oS[h]
		mix := alpha*densityAt(p1, h) + (1-alpha)*densityAt(p2, h)
		total += float64(n) * math.Log(maxFloat(mix, floor))
	}
	return total
}

// lPartial computes L_P(h1,h2), per spec.md §4.6.
func (e *likelihoodEngine) lPartial(h1, h2 int, oP map[int]int) float64 {
	if len(oP) == 0 {
		return 0
	}
	t1 := e.readLen - locus.FlankMatch
	s1, s2 := minInt(h1, t1), minInt(h2, t1)
	alpha := mixWeight(s1, s2)

	p1, p2 := e.partialPDF(h1), e.partialPDF(h2)
	total := 0.0
	for _, h := range sortedIntKeys(oP) {
		n := oP[h]
		mix := alpha*densityAt(p1, h) + (1-alpha)*densityAt(p2, h)
		total += float64(n) * math.Log(maxFloat(mix, floor))
	}
	return total
}

// lRepeat computes L_R(h1,h2), per spec.md §4.6: a Poisson log-pmf over the
// repeat-only read count.
func (e *likelihoodEngine) lRepeat(h1, h2, nR int, halfDepth float64) float64 {
	d1 := maxInt(h1-e.readLen, 1)
	d2 := maxInt(h2-e.readLen, 1)
	lambda := float64(d1+d2) * halfDepth / float64(e.readLen)
	return maxFloat(poissonLogPMF(nR, lambda), poissonFloorLog)
}

// lPairedEnd computes L_PE(h1,h2), per spec.md §4.5; zero when the PE model
// is not active for this call.
func (e *likelihoodEngine) lPairedEnd(h1, h2 int, targetLens []int) float64 {
	if !e.peEnable || e.pe == nil {
		return 0
	}
	return e.pe.LogLikelihood(h1, h2, targetLens)
}

func mixWeight(s1, s2 int) float64 {
	if s1+s2 == 0 {
		return 0.5
	}
	return float64(s1) / float64(s1+s2)
}

func densityAt(pdf []float64, h int) float64 {
	if h < 0 || h >= len(pdf) {
		return floor
	}
	return pdf[h]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func sortedIntKeys(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
