package caller

import (
	"math"

	"github.com/grailbio/tredcaller/locus"
)

// computePP computes the posterior pathology probability, per spec.md
// §4.6: the mass-weighted fraction of grid points whose (h1,h2), in motif
// units, is pathological under loc's inheritance model.
func computePP(results []scored, lmax float64, loc locus.Locus, period int) float64 {
	var num, den float64
	for _, r := range results {
		w := math.Exp(r.l - lmax)
		den += w
		if loc.IsPathological(r.h1/period, r.h2/period) {
			num += w
		}
	}
	if den == 0 {
		return 0
	}
	pp := num / den
	if pp > 1 {
		pp = 1
	}
	return pp
}
