package caller

import "math"

// scored is one evaluated grid point.
type scored struct {
	h1, h2 int
	l      float64
}

// pickMAP returns argmax(L, -h1), per spec.md §4.6.
func pickMAP(results []scored) scored {
	best := results[0]
	for _, r := range results[1:] {
		if r.l > best.l || (r.l == best.l && r.h1 < best.h1) {
			best = r
		}
	}
	return best
}

// buildDistributions exponentiates L-Lmax and sums over axes to build the
// marginal and joint distributions, per spec.md §4.6.
func buildDistributions(results []scored, lmax float64, period int) (ph1, ph2 map[int]float64, ph1h2 map[[2]int]float64) {
	rawH1 := map[int]float64{}
	rawH2 := map[int]float64{}
	rawJoint := map[[2]int]float64{}
	for _, r := range results {
		w := math.Exp(r.l - lmax)
		rawH1[r.h1] += w
		rawH2[r.h2] += w
		rawJoint[[2]int{r.h1, r.h2}] += w
	}
	return sparsifyNormalize1(rawH1, period), sparsifyNormalize1(rawH2, period), sparsifyNormalizeJoint(rawJoint, period)
}

// sparsifyNormalize1 normalizes raw to sum 1, drops mass below the exp(-10)
// floor, rekeys by motif units, then renormalizes the survivors to sum 1
// again, per spec.md §4.6 and §8's normalization invariant.
func sparsifyNormalize1(raw map[int]float64, period int) map[int]float64 {
	sum := 0.0
	for _, v := range raw {
		sum += v
	}
	out := map[int]float64{}
	if sum == 0 {
		return out
	}
	for k, v := range raw {
		nv := v / sum
		if nv < floor {
			continue
		}
		out[k/period] = nv
	}
	renormalize1(out)
	return out
}

func sparsifyNormalizeJoint(raw map[[2]int]float64, period int) map[[2]int]float64 {
	sum := 0.0
	for _, v := range raw {
		sum += v
	}
	out := map[[2]int]float64{}
	if sum == 0 {
		return out
	}
	for k, v := range raw {
		nv := v / sum
		if nv < floor {
			continue
		}
		out[[2]int{k[0] / period, k[1] / period}] = nv
	}
	sum2 := 0.0
	for _, v := range out {
		sum2 += v
	}
	if sum2 > 0 {
		for k := range out {
			out[k] /= sum2
		}
	}
	return out
}

func renormalize1(m map[int]float64) {
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for k := range m {
		m[k] /= sum
	}
}

// marginalCI computes the 95% credible interval for a sparse normalized
// marginal, per spec.md §4.6: lower is the smallest key whose cumulative
// mass exceeds 2.5%, upper the smallest key whose cumulative mass exceeds
// 97.5%.
func marginalCI(norm map[int]float64) (lo, hi int) {
	keys := make([]int, 0, len(norm))
	for k := range norm {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	if len(keys) == 0 {
		return 0, 0
	}
	lo, hi = keys[0], keys[len(keys)-1]
	cum := 0.0
	foundLo, foundHi := false, false
	for _, k := range keys {
		cum += norm[k]
		if !foundLo && cum > 0.025 {
			lo = k
			foundLo = true
		}
		if !foundHi && cum > 0.975 {
			hi = k
			foundHi = true
			break
		}
	}
	return lo, hi
}
