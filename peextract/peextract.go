// Package peextract collects paired-end insert-size samples around a
// tandem-repeat locus, separating pairs that merely lie nearby ("global")
// from pairs whose insert spans the entire repeat tract ("target").
package peextract

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/readsource"
)

// Result holds the two insert-size multisets and the minimum PE length
// derived from the locus geometry, per spec.md §3 and §4.3.
type Result struct {
	// GlobalLens are insert sizes of all well-mapped pairs in the wide
	// window.
	GlobalLens []int
	// TargetLens are insert sizes of pairs whose span crosses the entire
	// repeat tract.
	TargetLens []int
	// MinPE is the minimum plausible spanning-pair insert size.
	MinPE int
}

// wideWindowFactor is the multiple of locus.SPAN defining the PE-extractor's
// fetch window, per spec.md §4.3.
const wideWindowFactor = 10

// Extract scans a wide window around loc and builds the global/target
// insert-size multisets, per spec.md §4.3.
func Extract(ctx context.Context, loc locus.Locus, src readsource.Source) (*Result, error) {
	start0, end0 := loc.RepeatStart-1, loc.RepeatEnd
	winStart := start0 - wideWindowFactor*locus.SPAN
	winEnd := end0 + wideWindowFactor*locus.SPAN

	iter, err := src.Fetch(ctx, loc.Chrom, winStart, winEnd)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	byID := map[string][]readsource.Read{}
	for iter.Scan() {
		r := iter.Read()
		if r.IsUnmapped || !r.IsPaired || r.IsDuplicate {
			continue
		}
		byID[r.QueryName] = append(byID[r.QueryName], r)
	}
	if err := iter.Err(); err != nil {
		log.Error.Printf("peextract: scan of %s: %v", loc.Name, err)
	}

	res := &Result{MinPE: loc.RepeatEnd - loc.RepeatStart + 2*locus.FlankMatch + 2}
	for _, pair := range byID {
		if len(pair) < 2 {
			continue
		}
		a, b := pair[0], pair[1]
		first, mate, ok := orientFR(a, b)
		if !ok {
			continue
		}

		correctedStart := first.ReferenceStart - first.QueryAlignmentStart
		correctedEnd := mate.ReferenceEnd + (mate.QueryLength - mate.QueryAlignmentEnd)
		t := correctedEnd - correctedStart
		if t < 0 || t >= locus.SPAN {
			continue
		}

		res.GlobalLens = append(res.GlobalLens, t)
		if first.ReferenceStart < start0-locus.FlankMatch && mate.ReferenceEnd > end0+locus.FlankMatch {
			res.TargetLens = append(res.TargetLens, t)
		}
	}
	return res, nil
}

// orientFR identifies which of a, b is the leftmost ("first") read and
// checks the pair is in conventional FR orientation: the leftmost read
// forward, its mate reverse.
func orientFR(a, b readsource.Read) (first, mate readsource.Read, ok bool) {
	first, mate = a, b
	if b.ReferenceStart < a.ReferenceStart {
		first, mate = b, a
	}
	if first.IsReverse || !mate.IsReverse {
		return readsource.Read{}, readsource.Read{}, false
	}
	return first, mate, true
}
