// Package pelik builds the paired-end insert-size likelihood model: a
// Gaussian KDE over globally observed insert sizes, shifted per candidate
// allele length to predict the target-spanning insert-size distribution,
// per spec.md §4.5.
package pelik

import (
	"math"

	"github.com/grailbio/tredcaller/locus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Floor is the numerical floor applied wherever the PE PMF would otherwise
// be exactly zero (out-of-range shift, masked MinPE region).
const Floor = 4.5399929762484854e-05 // math.Exp(-10), spelled out so the
// constant stays comparable to spec.md's notation of exp(-10).

// MinGlobalPairs and MinSpanningPairs gate whether the PE model is built at
// all, per spec.md §4.5's preamble.
const (
	MinGlobalPairs   = 100
	MinSpanningPairs = 5
)

// Model is a KDE-derived insert-size PMF, shiftable per candidate allele
// length and memoized by h.
type Model struct {
	g       []float64 // KDE-derived PMF over the 0..SPAN-1 grid
	refLen  int       // reference (unexpanded) repeat-tract length, in bases
	minPE   int       // bins below this are floored, per spec.md §4.3's MINPE
	cache   map[int][]float64
}

// Build fits a Gaussian KDE to globalLens (Silverman's rule-of-thumb
// bandwidth), evaluates it on the grid 0..SPAN-1 and normalizes it to a
// PMF, per spec.md §4.5. refLen is the repeat tract's reference length in
// bases; minPE is the MINPE floor from spec.md §4.3.
func Build(globalLens []int, refLen, minPE int) *Model {
	xs := make([]float64, len(globalLens))
	for i, v := range globalLens {
		xs[i] = float64(v)
	}
	bw := bandwidth(xs)

	g := make([]float64, locus.SPAN)
	for _, x := range xs {
		d := distuv.Normal{Mu: x, Sigma: bw}
		for i := 0; i < locus.SPAN; i++ {
			g[i] += d.Prob(float64(i))
		}
	}
	sum := 0.0
	for i := range g {
		if g[i] < Floor {
			g[i] = Floor
		}
		sum += g[i]
	}
	if sum > 0 {
		for i := range g {
			g[i] /= sum
		}
	}
	return &Model{g: g, refLen: refLen, minPE: minPE, cache: map[int][]float64{}}
}

// bandwidth picks a Gaussian KDE bandwidth via Silverman's rule of thumb.
func bandwidth(xs []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 1
	}
	_, std := stat.MeanStdDev(xs, nil)
	if std <= 0 {
		std = 1
	}
	bw := 1.06 * std * math.Pow(n, -0.2)
	if bw <= 0 {
		bw = 1
	}
	return bw
}

// PMFForH returns the locus-conditional insert-size PMF for a candidate
// allele of length h bases: the global PMF shifted by (refLen - h), with
// out-of-range bins and the sub-MinPE region floored. It is NOT
// renormalized after shifting — spec.md §9 Open Question 2 states this is
// load-bearing for the resulting likelihood magnitudes. Results are
// memoized by h.
func (m *Model) PMFForH(h int) []float64 {
	if p, ok := m.cache[h]; ok {
		return p
	}
	shift := m.refLen - h
	p := make([]float64, locus.SPAN)
	for i := range p {
		src := i - shift
		if src < 0 || src >= locus.SPAN {
			p[i] = Floor
			continue
		}
		p[i] = m.g[src]
	}
	for i := 0; i < m.minPE && i < len(p); i++ {
		p[i] = Floor
	}
	m.cache[h] = p
	return p
}

// LogLikelihood evaluates the log-likelihood of the observed target-spanning
// insert sizes under the 50/50 mixture of the (h1, h2) conditional PMFs,
// per spec.md §4.5.
func (m *Model) LogLikelihood(h1, h2 int, targetLens []int) float64 {
	p1 := m.PMFForH(h1)
	p2 := m.PMFForH(h2)
	ll := 0.0
	for _, t := range targetLens {
		if t < 0 || t >= locus.SPAN {
			ll += math.Log(Floor)
			continue
		}
		mix := 0.5*p1[t] + 0.5*p2[t]
		if mix < Floor {
			mix = Floor
		}
		ll += math.Log(mix)
	}
	return ll
}
