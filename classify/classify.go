package classify

import (
	"github.com/grailbio/tredcaller/align"
	"github.com/grailbio/tredcaller/locus"
)

// Options controls tag-selection behavior that varies by CLI flag in the
// original tool.
type Options struct {
	// ClippedMode broadens the REPT acceptance window to use U_local
	// (derived from the individual read's own length) instead of the
	// bank-wide U_max, per spec.md §4.2 rule 5 and §9's clipped_mode note.
	ClippedMode bool
}

type candidate struct {
	score int
	u     int
	tag   locus.Tag
}

// betterThan implements the argmax(score, -u) winner rule: higher score
// wins; ties broken by smaller u.
func (c candidate) betterThan(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	return c.u < o.u
}

// Read runs every aligner in bank against query and returns the winning
// evidence tag and implied repeat count h = u, per spec.md §4.2. ok is false
// if no aligner produced a usable alignment (the read carries no evidence).
func Read(bank *align.Bank, query []byte, period int, opts Options) (tag locus.Tag, h int, ok bool) {
	var best candidate
	haveBest := false

	for _, tmpl := range bank.Templates {
		hit := tmpl.Aligner.Align(query)
		if hit.Empty {
			continue
		}
		targetLen := len(tmpl.Aligner.Ref())
		if hit.Score < align.MinScore(len(query), targetLen) {
			continue
		}
		if hit.AlignedLen() < align.MinAlignedLen(len(query), targetLen) {
			continue
		}

		c := candidate{score: hit.Score, u: tmpl.U, tag: classifyHit(hit, tmpl.U, targetLen, len(query), period, bank.UMax, opts)}
		if c.tag == locus.TagNone {
			continue
		}
		if !haveBest || c.betterThan(best) {
			best, haveBest = c, true
		}
	}

	if !haveBest {
		return locus.TagNone, 0, false
	}
	return best.tag, best.u, true
}

// classifyHit derives the evidence tag for one alignment, per spec.md §4.2
// rules 1-6.
func classifyHit(hit align.Hit, u, targetLen, queryLen, period, uMax int, opts Options) locus.Tag {
	prefixRead := hit.RefBegin < locus.FlankMatch
	suffixRead := hit.RefEnd > targetLen-locus.FlankMatch-1

	aL, aR := hit.RefBegin, targetLen-hit.RefEnd-1
	bL, bR := hit.QueryBegin, queryLen-hit.QueryEnd-1
	hang := min4(aR+bL, aL+bR, aL+aR, bL+bR)
	hangRead := hang >= locus.FlankMatch

	switch {
	case hangRead:
		return locus.TagHang
	case prefixRead && suffixRead:
		return locus.TagFull
	case prefixRead:
		return locus.TagPrefix
	case suffixRead:
		return locus.TagSuffix
	}

	if period <= 0 {
		return locus.TagNone
	}
	if opts.ClippedMode {
		uLocal := (queryLen + period - 1) / period
		if u >= uLocal-1 && u*period <= queryLen {
			return locus.TagRepeat
		}
		return locus.TagNone
	}
	if u >= uMax-1 && u*period <= queryLen {
		return locus.TagRepeat
	}
	return locus.TagNone
}

func min4(a, b, c, d int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}
