package caller

import "github.com/grailbio/tredcaller/locus"

// observationSet builds the bases-keyed h -> n dictionary from a motif-unit
// keyed histogram, per spec.md §4.6 ("from FULL counts keyed by motif-units
// x |motif|").
func observationSet(byUnit map[int]int, period int) map[int]int {
	out := make(map[int]int, len(byUnit))
	for h, n := range byUnit {
		out[h*period] += n
	}
	return out
}

func maxKeyOrZero(m map[int]int) int {
	max := 0
	for h := range m {
		if h > max {
			max = h
		}
	}
	return max
}

func sumAbove(m map[int]int, threshold int) int {
	sum := 0
	for h, n := range m {
		if h > threshold {
			sum += n
		}
	}
	return sum
}

func sortedKeys(s map[int]bool) []int {
	out := make([]int, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// extendedRange builds Base ∪ {maxPartial + k*period : k >= 1, value <=
// maxinsert*period}, per spec.md §4.6.
func extendedRange(base []int, maxPartial, period, maxInsert int) []int {
	set := map[int]bool{}
	for _, h := range base {
		set[h] = true
	}
	cap := maxInsert * period
	for k := 1; ; k++ {
		v := maxPartial + k*period
		if v > cap {
			break
		}
		set[v] = true
	}
	return sortedKeys(set)
}

// fullSweep builds {period, 2*period, ..., maxInsert*period}.
func fullSweep(period, maxInsert int) []int {
	out := make([]int, 0, maxInsert)
	for k := 1; k <= maxInsert; k++ {
		out = append(out, k*period)
	}
	return out
}

// candidateGrid is the result of grid construction: the two per-allele
// candidate ranges plus bookkeeping needed downstream.
type candidateGrid struct {
	H1, H2 []int
	PEMode bool
}

// buildGrid implements spec.md §4.6's "Grid construction" section. It
// returns ok=false when the candidate set A is empty, meaning there is no
// usable evidence at all (spec.md §4.6 "Failure semantics").
func buildGrid(oS, oP map[int]int, period, maxFull, maxPartial, readLen int, nR int, peModelAvailable bool, opts Options) (candidateGrid, bool) {
	a := map[int]bool{}
	for h := range oS {
		a[h] = true
	}
	if len(oP) > 0 {
		for h := range oP {
			a[h] = true
		}
		a[maxPartial] = true
	}
	if len(a) == 0 {
		return candidateGrid{}, false
	}
	base := sortedKeys(a)
	extended := extendedRange(base, maxPartial, period, opts.MaxInsert)

	peMode := maxPartial >= readLen-3*locus.FlankMatch && sumAbove(oP, maxFull+period) > 1 && peModelAvailable

	h1 := base
	if len(oS) == 0 {
		h1 = extended
	}
	h2 := base
	if nR > 0 || peMode {
		h2 = extended
	}
	if opts.FullSearch {
		h1 = fullSweep(period, opts.MaxInsert)
		h2 = fullSweep(period, opts.MaxInsert)
	}
	return candidateGrid{H1: h1, H2: h2, PEMode: peMode}, true
}

// candidatePairs enumerates the (h1, h2) pairs to evaluate, per spec.md
// §4.6: for ploidy 1, (h, h) pairs over the union of H1 and H2; for ploidy
// 2, (h1, h2) with h1 in H1, h2 in H2, h1 <= h2.
func candidatePairs(g candidateGrid, ploidy int) [][2]int {
	if ploidy == 1 {
		union := map[int]bool{}
		for _, h := range g.H1 {
			union[h] = true
		}
		for _, h := range g.H2 {
			union[h] = true
		}
		keys := sortedKeys(union)
		pairs := make([][2]int, len(keys))
		for i, h := range keys {
			pairs[i] = [2]int{h, h}
		}
		return pairs
	}
	var pairs [][2]int
	for _, h1 := range g.H1 {
		for _, h2 := range g.H2 {
			if h1 <= h2 {
				pairs = append(pairs, [2]int{h1, h2})
			}
		}
	}
	return pairs
}
