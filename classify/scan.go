package classify

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/tredcaller/align"
	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/readsource"
)

// Result is the output of scanning a locus window: aggregated counts plus
// the raw per-read evidence used to build them (kept for testing and
// diagnostics; the caller only consumes Counts).
type Result struct {
	Counts *Counts
	Raw    []Evidence
}

// Scan fetches reads around loc's repeat tract (and, for mismapped copies,
// any configured alternative regions), classifies each one against bank,
// and returns the aggregated evidence counts. Per-read classifier panics or
// errors are swallowed and logged, per spec.md §7 — a single bad read never
// aborts the scan.
func Scan(ctx context.Context, loc locus.Locus, src readsource.Source, bank *align.Bank, readLen int, opts Options) (*Result, error) {
	start0, end0 := loc.RepeatStart-1, loc.RepeatEnd
	winStart, winEnd := start0-locus.SPAN, end0+locus.SPAN

	var raw []rawEvidence

	primary, err := src.Fetch(ctx, loc.Chrom, winStart, winEnd)
	if err != nil {
		return nil, err
	}
	func() {
		defer primary.Close()
		for primary.Scan() {
			r := primary.Read()
			if !r.IsUnmapped {
				if r.ReferenceStart < start0-readLen || r.ReferenceStart > end0+readLen {
					continue
				}
			}
			raw = append(raw, classifyOneRead(bank, r, loc.Period(), opts))
		}
		if err := primary.Err(); err != nil {
			log.Error.Printf("classify: primary scan of %s: %v", loc.Name, err)
		}
	}()

	for _, alt := range loc.Alts {
		altIter, err := src.Fetch(ctx, alt.Chrom, alt.Start, alt.End)
		if err != nil {
			log.Debug.Printf("classify: alt region %s:%d-%d unavailable: %v", alt.Chrom, alt.Start, alt.End, err)
			continue
		}
		func() {
			defer altIter.Close()
			for altIter.Scan() {
				r := altIter.Read()
				if r.NextReferenceName != loc.Chrom {
					continue
				}
				if r.NextReferenceStart < winStart || r.NextReferenceStart >= winEnd {
					continue
				}
				raw = append(raw, classifyOneRead(bank, r, loc.Period(), opts))
			}
			if err := altIter.Err(); err != nil {
				log.Error.Printf("classify: alt scan of %s: %v", loc.Name, err)
			}
		}()
	}

	return aggregate(raw, opts), nil
}

// rawEvidence carries the read_id alongside Evidence, needed only for
// pair-of-REPT suppression.
type rawEvidence struct {
	Evidence
	ok bool
}

func classifyOneRead(bank *align.Bank, r readsource.Read, period int, opts Options) (ev rawEvidence) {
	defer func() {
		if p := recover(); p != nil {
			log.Error.Printf("classify: read %s dropped after classifier panic: %v", r.QueryName, p)
			ev = rawEvidence{}
		}
	}()
	tag, h, ok := Read(bank, []byte(r.QuerySequence), period, opts)
	if !ok {
		return rawEvidence{}
	}
	return rawEvidence{Evidence: Evidence{Tag: tag, H: h, ReadID: r.QueryName}, ok: true}
}

// aggregate builds Counts from raw per-read evidence, applying
// pair-of-REPT suppression (spec.md §4.2): when a read_id appears twice
// among REPT-tagged evidence, both copies are dropped, unless ClippedMode
// is requested (clipped/include-repeat-pairs mode skips this pass).
func aggregate(raw []rawEvidence, opts Options) *Counts {
	c := newCounts()

	reptByID := map[string]int{}
	for _, e := range raw {
		if e.ok && e.Tag == locus.TagHang {
			c.Hang++
		}
		if e.ok && e.Tag == locus.TagRepeat {
			reptByID[e.ReadID]++
		}
	}

	for _, e := range raw {
		if !e.ok {
			continue
		}
		switch e.Tag {
		case locus.TagFull:
			c.Full[e.H]++
		case locus.TagPrefix, locus.TagSuffix:
			c.Flank[e.H]++
		case locus.TagRepeat:
			if !opts.ClippedMode && reptByID[e.ReadID] >= 2 {
				continue
			}
			c.Repeat[e.H]++
		}
	}
	return c
}
