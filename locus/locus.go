// Package locus carries the immutable definition of a tandem-repeat locus:
// its genomic coordinates, motif, flanking anchors, and the inheritance
// model used to turn a genotype into a pathology call.
package locus

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Inheritance is the mode of inheritance governing pathology at a locus.
type Inheritance int

const (
	// AD is autosomal dominant.
	AD Inheritance = iota
	// AR is autosomal recessive.
	AR
	// XD is X-linked dominant.
	XD
	// XR is X-linked recessive.
	XR
	// XL is X-linked, inheritance pattern not further specified.
	XL
	// GCN is a generic copy-number locus with no classical dominant/recessive
	// pathology model.
	GCN
)

func (m Inheritance) String() string {
	switch m {
	case AD:
		return "AD"
	case AR:
		return "AR"
	case XD:
		return "XD"
	case XR:
		return "XR"
	case XL:
		return "XL"
	case GCN:
		return "GCN"
	default:
		return "unknown"
	}
}

// IsXLinked reports whether the locus sits on chrX and is genotyped at
// ploidy 1 in males.
func (m Inheritance) IsXLinked() bool {
	switch m {
	case XD, XR, XL:
		return true
	default:
		return false
	}
}

// IsRecessive reports whether pathology requires both alleles to cross the
// cutoff (AR, XR) as opposed to either allele (AD, XD, XL).
func (m Inheritance) IsRecessive() bool {
	switch m {
	case AR, XR:
		return true
	default:
		return false
	}
}

// ParseInheritance parses one of AD, AR, XD, XR, XL, GCN, case-insensitively.
func ParseInheritance(s string) (Inheritance, error) {
	switch s {
	case "AD", "ad":
		return AD, nil
	case "AR", "ar":
		return AR, nil
	case "XD", "xd":
		return XD, nil
	case "XR", "xr":
		return XR, nil
	case "XL", "xl":
		return XL, nil
	case "GCN", "gcn":
		return GCN, nil
	default:
		return 0, errors.E(errors.NotExist, fmt.Sprintf("locus: unknown inheritance %q", s))
	}
}

// MutationNature records whether pathological alleles at this locus have
// more repeats than the reference (increase, e.g. CAG expansions) or fewer
// (decrease, e.g. certain GCN contractions).
type MutationNature int

const (
	// Increase is the common TRED pattern: disease alleles are long.
	Increase MutationNature = iota
	// Decrease: disease alleles are short.
	Decrease
)

func (n MutationNature) String() string {
	if n == Decrease {
		return "decrease"
	}
	return "increase"
}

// ParseMutationNature parses "increase" or "decrease".
func ParseMutationNature(s string) (MutationNature, error) {
	switch s {
	case "increase":
		return Increase, nil
	case "decrease":
		return Decrease, nil
	default:
		return 0, errors.E(errors.NotExist, fmt.Sprintf("locus: unknown mutation_nature %q", s))
	}
}

// AltRegion is an alternative genomic region (a decoy or off-target site)
// where mismapped repeat-bearing reads may land; the classifier re-examines
// any read whose mate maps into the primary window but whose own alignment
// falls in one of these regions.
type AltRegion struct {
	Chrom string
	Start int // 0-based, inclusive
	End   int // 0-based, exclusive
}

// Tag is the evidence class assigned to a read by the classifier.
type Tag int

const (
	// TagNone means the read carried no usable evidence for this locus.
	TagNone Tag = iota
	// TagFull spans the entire repeat tract plus both flanks.
	TagFull
	// TagPrefix anchors only the 5' flank.
	TagPrefix
	// TagSuffix anchors only the 3' flank.
	TagSuffix
	// TagRepeat lies entirely inside the repeat tract.
	TagRepeat
	// TagHang is a dangling/overlapping alignment, recorded for diagnostics
	// only; it never feeds the likelihood.
	TagHang
)

func (t Tag) String() string {
	switch t {
	case TagFull:
		return "FULL"
	case TagPrefix:
		return "PREF"
	case TagSuffix:
		return "POST"
	case TagRepeat:
		return "REPT"
	case TagHang:
		return "HANG"
	default:
		return "NONE"
	}
}

// SPAN is the global cap on the indexing domain for PMFs and insert sizes,
// and the padding radius of the primary classifier fetch window.
const SPAN = 1000

// FlankMatch is the minimum anchor length, in bases, required to call a read
// prefix- or suffix-anchored.
const FlankMatch = 9

// Locus is the immutable definition of one tandem-repeat locus.
type Locus struct {
	Name string

	Chrom      string
	// RepeatStart and RepeatEnd are 1-based, inclusive, matching the
	// locus-metadata table's coordinate convention.
	RepeatStart int
	RepeatEnd   int

	// Motif is the repeat unit, 1-6 bases, e.g. "CAG".
	Motif string

	// Prefix and Suffix are 18bp (or longer) flanking anchor sequences,
	// immediately before RepeatStart and immediately after RepeatEnd.
	Prefix string
	Suffix string

	// Alts lists alternative genomic regions that may harbor mismapped
	// copies of the repeat.
	Alts []AltRegion

	Inheritance     Inheritance
	MutationNature  MutationNature
	CutoffPrerisk   int
	CutoffRisk      int

	// Ploidy is 2 for all loci by default; EffectivePloidy returns 1 instead
	// for X-linked loci in an inferred male sample.
	Ploidy int

	Title string
}

// Period returns the motif length in bases.
func (l Locus) Period() int {
	return len(l.Motif)
}

// RefCopy returns the reference copy number implied by the locus span,
// i.e. (RepeatEnd - RepeatStart + 1) / |motif|.
func (l Locus) RefCopy() int {
	return (l.RepeatEnd - l.RepeatStart + 1) / l.Period()
}

// Validate checks the invariants §3 requires of a Locus: the repeat span is
// an exact multiple of the motif length, cutoffs are ordered, and ploidy is
// 1 or 2.
func (l Locus) Validate() error {
	if l.Period() == 0 || l.Period() > 6 {
		return errors.E(fmt.Sprintf("locus %s: motif %q must be 1-6bp", l.Name, l.Motif))
	}
	span := l.RepeatEnd - l.RepeatStart + 1
	if span <= 0 || span%l.Period() != 0 {
		return errors.E(fmt.Sprintf("locus %s: repeat span %d is not a multiple of motif length %d", l.Name, span, l.Period()))
	}
	if l.CutoffPrerisk >= l.CutoffRisk {
		return errors.E(fmt.Sprintf("locus %s: cutoff_prerisk (%d) must be < cutoff_risk (%d)", l.Name, l.CutoffPrerisk, l.CutoffRisk))
	}
	if l.Ploidy != 1 && l.Ploidy != 2 {
		return errors.E(fmt.Sprintf("locus %s: ploidy must be 1 or 2, got %d", l.Name, l.Ploidy))
	}
	return nil
}

// EffectivePloidy returns the ploidy the caller should use: 1 for an
// X-linked locus in an inferred male sample, else the locus's own Ploidy
// (normally 2).
func (l Locus) EffectivePloidy(isMale bool) int {
	if l.Inheritance.IsXLinked() && isMale {
		return 1
	}
	return l.Ploidy
}

// CriticalAllele returns the allele (h1 or h2, in motif units) whose
// comparison against the risk cutoffs determines the disease label, given
// the locus's inheritance and mutation_nature, per spec.md §4.6 "Label".
func (l Locus) CriticalAllele(h1, h2 int) int {
	if h1 > h2 {
		h1, h2 = h2, h1
	}
	increase := l.MutationNature == Increase
	recessive := l.Inheritance.IsRecessive()
	switch {
	case increase && !recessive:
		return h2 // dominant, increase: max
	case increase && recessive:
		return h1 // recessive, increase: min
	case !increase && !recessive:
		return h1 // dominant, decrease: min
	default:
		return h2 // recessive, decrease: max
	}
}

// IsPathological reports whether the allele pair crosses into risk
// territory, per spec.md §4.6's four-way table.
func (l Locus) IsPathological(h1, h2 int) bool {
	increase := l.MutationNature == Increase
	recessive := l.Inheritance.IsRecessive()
	max, min := h1, h2
	if min > max {
		max, min = min, max
	}
	switch {
	case increase && !recessive:
		return max >= l.CutoffRisk
	case increase && recessive:
		return min >= l.CutoffRisk
	case !increase && !recessive:
		return min <= l.CutoffRisk
	default:
		return max <= l.CutoffRisk
	}
}

// Label classifies a called genotype into one of "ok", "prerisk", "risk",
// "missing", per spec.md §4.6. Note that because cutoff_prerisk < cutoff_risk
// is a locus invariant regardless of mutation_nature, the prerisk band is
// only reachable for increase loci; decrease loci (§8 scenario 6) only ever
// land in "ok" or "risk".
func (l Locus) Label(h1, h2 int) string {
	if h1 < 0 || h2 < 0 {
		return "missing"
	}
	crit := l.CriticalAllele(h1, h2)
	increase := l.MutationNature == Increase
	if increase {
		switch {
		case crit >= l.CutoffRisk:
			return "risk"
		case crit >= l.CutoffPrerisk:
			return "prerisk"
		default:
			return "ok"
		}
	}
	switch {
	case crit <= l.CutoffRisk:
		return "risk"
	case crit <= l.CutoffPrerisk:
		return "prerisk"
	default:
		return "ok"
	}
}
