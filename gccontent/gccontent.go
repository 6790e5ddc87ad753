// Package gccontent estimates the local GC fraction around a locus window,
// feeding the stutter noise model's gc feature. When no reference FASTA is
// available it falls back to the historical constant used throughout the
// original tool's model training, per SPEC_FULL.md §9 Open Question 4.
package gccontent

import (
	"strings"

	"github.com/grailbio/tredcaller/encoding/fasta"
	"github.com/grailbio/tredcaller/locus"
)

// DefaultGC is the fallback fraction used when no reference FASTA is
// configured, matching the constant the stutter model was trained against.
const DefaultGC = 0.68

// Estimator computes the GC fraction of a locus's flanking window from a
// reference FASTA, or returns DefaultGC when built without one.
type Estimator struct {
	ref fasta.Fasta
}

// NewEstimator wraps a reference FASTA. A nil ref makes every Estimate call
// return DefaultGC.
func NewEstimator(ref fasta.Fasta) *Estimator {
	return &Estimator{ref: ref}
}

// Estimate returns the GC fraction of the window [loc.RepeatStart-window,
// loc.RepeatEnd+window] (1-based, inclusive), with the start clamped at the
// contig's first base; a window running past the contig's end makes the
// lookup fail. It never errors: any FASTA lookup failure silently falls back to
// DefaultGC, since a missing or unindexed contig should not fail an entire
// locus call over a model feature that only nudges the noise term.
func (e *Estimator) Estimate(loc locus.Locus, window int) float64 {
	if e == nil || e.ref == nil {
		return DefaultGC
	}
	start := loc.RepeatStart - 1 - window
	if start < 0 {
		start = 0
	}
	end := uint64(loc.RepeatEnd + window)
	seq, err := e.ref.Get(loc.Chrom, uint64(start), end)
	if err != nil || len(seq) == 0 {
		return DefaultGC
	}
	return fraction(seq)
}

func fraction(seq string) float64 {
	gc := 0
	n := 0
	for _, r := range strings.ToUpper(seq) {
		switch r {
		case 'G', 'C':
			gc++
			n++
		case 'A', 'T':
			n++
		}
	}
	if n == 0 {
		return DefaultGC
	}
	return float64(gc) / float64(n)
}
