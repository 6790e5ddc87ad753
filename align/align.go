// Package align implements a bank of affine-gap Smith-Waterman aligners
// templated on k copies of a repeat motif, grounded conceptually on the
// local/global alignment recurrences in the bioflow alignment package (see
// DESIGN.md) but specialized to local alignment with score/position
// tracking only — the classifier never needs a reconstructed alignment
// string, only where on the reference and query the best local alignment
// begins and ends.
package align

// Scoring parameters fixed by spec.md §4.1.
const (
	MatchScore    = 1
	MismatchScore = -5
	GapOpen       = -7
	GapExtend     = -2
)

// Hit is the outcome of aligning one query against one Aligner's reference.
// Begin/End positions are 0-based and inclusive of the first/last aligned
// base. Empty is true when no positive-scoring local alignment exists.
type Hit struct {
	Score int

	RefBegin, RefEnd     int
	QueryBegin, QueryEnd int

	Empty bool
}

// AlignedLen returns the number of query bases participating in the
// alignment, used against spec.md §4.1's minimum-aligned-length threshold.
func (h Hit) AlignedLen() int {
	if h.Empty {
		return 0
	}
	return h.QueryEnd - h.QueryBegin + 1
}

// Aligner runs local (Smith-Waterman) alignment of arbitrary queries against
// one fixed reference sequence. An Aligner is built once per synthetic
// reference and reused across many reads.
type Aligner struct {
	ref []byte
}

// New builds an Aligner for the given reference sequence.
func New(ref []byte) *Aligner {
	r := make([]byte, len(ref))
	copy(r, ref)
	return &Aligner{ref: r}
}

// Ref returns the aligner's reference sequence.
func (a *Aligner) Ref() []byte { return a.ref }

func score(a, b byte) int {
	if a == b {
		return MatchScore
	}
	return MismatchScore
}

const negInf = -(1 << 30)

// direction codes for the H-matrix traceback.
const (
	dirStop = iota
	dirDiag
	dirE
	dirF
)

// Align runs local alignment of query against the aligner's reference and
// returns the best-scoring local alignment, or Hit{Empty: true} if the best
// score is not positive.
func (a *Aligner) Align(query []byte) Hit {
	m, n := len(query), len(a.ref)
	if m == 0 || n == 0 {
		return Hit{Empty: true}
	}

	H := make([][]int, m+1)
	E := make([][]int, m+1)
	F := make([][]int, m+1)
	Hdir := make([][]uint8, m+1)
	Eopen := make([][]bool, m+1)
	Fopen := make([][]bool, m+1)
	for i := range H {
		H[i] = make([]int, n+1)
		E[i] = make([]int, n+1)
		F[i] = make([]int, n+1)
		Hdir[i] = make([]uint8, n+1)
		Eopen[i] = make([]bool, n+1)
		Fopen[i] = make([]bool, n+1)
	}
	for i := 0; i <= m; i++ {
		E[i][0] = negInf
	}
	for j := 0; j <= n; j++ {
		F[0][j] = negInf
	}

	bestScore, bestI, bestJ := 0, 0, 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			// E[i][j]: best alignment ending with a gap in the query (the
			// reference has a base here with no matching query base).
			openE := H[i][j-1] + GapOpen
			extE := E[i][j-1] + GapExtend
			if extE > openE {
				E[i][j] = extE
				Eopen[i][j] = false
			} else {
				E[i][j] = openE
				Eopen[i][j] = true
			}

			// F[i][j]: best alignment ending with a gap in the reference.
			openF := H[i-1][j] + GapOpen
			extF := F[i-1][j] + GapExtend
			if extF > openF {
				F[i][j] = extF
				Fopen[i][j] = false
			} else {
				F[i][j] = openF
				Fopen[i][j] = true
			}

			diag := H[i-1][j-1] + score(query[i-1], a.ref[j-1])

			best, dir := 0, uint8(dirStop)
			if diag > best {
				best, dir = diag, dirDiag
			}
			if E[i][j] > best {
				best, dir = E[i][j], dirE
			}
			if F[i][j] > best {
				best, dir = F[i][j], dirF
			}
			H[i][j] = best
			Hdir[i][j] = dir

			if best > bestScore {
				bestScore, bestI, bestJ = best, i, j
			}
		}
	}

	if bestScore <= 0 {
		return Hit{Empty: true}
	}

	queryEnd, refEnd := bestI-1, bestJ-1

	// Traceback to find where the best local alignment begins.
	i, j := bestI, bestJ
	mode := dirDiag // start by consulting Hdir at (i,j)
	for i > 0 && j > 0 {
		switch mode {
		case dirDiag:
			switch Hdir[i][j] {
			case dirStop:
				goto done
			case dirDiag:
				i--
				j--
			case dirE:
				mode = dirE
			case dirF:
				mode = dirF
			}
		case dirE:
			opened := Eopen[i][j]
			j--
			if opened {
				mode = dirDiag
			}
		case dirF:
			opened := Fopen[i][j]
			i--
			if opened {
				mode = dirDiag
			}
		}
	}
done:
	return Hit{
		Score:      bestScore,
		RefBegin:   j,
		RefEnd:     refEnd,
		QueryBegin: i,
		QueryEnd:   queryEnd,
	}
}

// MinScore returns the minimum alignment score threshold for a query/target
// pair of the given lengths, per spec.md §4.1.
func MinScore(queryLen, targetLen int) int {
	half := queryLen
	if targetLen < half {
		half = targetLen
	}
	half /= 2
	if half > 30 {
		return half
	}
	return 30
}

// MinAlignedLen returns the minimum aligned-length threshold for a
// query/target pair of the given lengths, per spec.md §4.1.
func MinAlignedLen(queryLen, targetLen int) int {
	half := queryLen
	if targetLen < half {
		half = targetLen
	}
	return half / 2
}
