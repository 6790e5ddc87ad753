// Package caller implements the integrated likelihood caller: it wires the
// read classifier, PE extractor, stutter model and PE likelihood model
// together into a grid search over candidate (h1, h2) genotypes and
// produces a genotype.Call, per spec.md §4.6.
package caller

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/tredcaller/align"
	"github.com/grailbio/tredcaller/classify"
	"github.com/grailbio/tredcaller/genotype"
	"github.com/grailbio/tredcaller/locus"
	"github.com/grailbio/tredcaller/peextract"
	"github.com/grailbio/tredcaller/pelik"
	"github.com/grailbio/tredcaller/readsource"
	"github.com/grailbio/tredcaller/stutter"
	"gonum.org/v1/gonum/stat"
)

// Caller is built once per process around the shared, read-only bundled
// models and calls loci one at a time; each Call gets a fresh set of
// memoization caches, per spec.md §5.
type Caller struct {
	models *stutter.Models
	opts   Options
}

// New builds a Caller around a loaded model set.
func New(models *stutter.Models, opts Options) *Caller {
	return &Caller{models: models, opts: opts}
}

// Call evaluates one locus against one sample's reads and returns its
// genotype call. It never returns an error for lack of evidence — that is
// reported as an Underdetermined value (spec.md §7) — only for a locus that
// fails Validate, I/O failure or cancellation.
func (c *Caller) Call(ctx context.Context, loc locus.Locus, src readsource.Source) (genotype.Call, error) {
	if err := loc.Validate(); err != nil {
		return genotype.Call{}, err
	}

	readLen, err := src.PeekReadLen(ctx)
	if err != nil {
		return genotype.Call{}, errors.E(errors.NotExist, err, fmt.Sprintf("caller: read length unavailable for %s", loc.Name))
	}
	if readLen <= 0 {
		return genotype.Undetermined(loc.Name), nil
	}

	start0, end0 := loc.RepeatStart-1, loc.RepeatEnd
	depth, err := src.PileupDepth(ctx, loc.Chrom, start0, end0)
	if err != nil {
		log.Error.Printf("caller: pileup depth unavailable for %s: %v", loc.Name, err)
		depth = 0
	}
	halfDepth := depth / 2

	period := loc.Period()
	ploidy := loc.EffectivePloidy(c.opts.IsMale)

	bank := align.NewBank(loc.Prefix, loc.Motif, loc.Suffix, align.UMaxForReadLen(readLen, period))

	scanRes, err := classify.Scan(ctx, loc, src, bank, readLen, classify.Options{ClippedMode: c.opts.ClippedMode})
	if err != nil {
		return genotype.Call{}, errors.E(errors.NotExist, err, fmt.Sprintf("caller: read scan failed for %s", loc.Name))
	}
	peRes, err := peextract.Extract(ctx, loc, src)
	if err != nil {
		log.Error.Printf("caller: PE extraction failed for %s: %v", loc.Name, err)
		peRes = &peextract.Result{MinPE: loc.RepeatEnd - loc.RepeatStart + 2*locus.FlankMatch + 2}
	}

	oS := observationSet(scanRes.Counts.Full, period)
	oP := observationSet(scanRes.Counts.Flank, period)
	nR := scanRes.Counts.MaxRepeat()
	if c.opts.ClippedMode {
		nR = scanRes.Counts.SumRepeat()
	}

	maxFull := maxKeyOrZero(oS)
	maxPartial := maxKeyOrZero(oP)

	peModelAvailable := len(peRes.GlobalLens) >= pelik.MinGlobalPairs && len(peRes.TargetLens) >= pelik.MinSpanningPairs

	grid, ok := buildGrid(oS, oP, period, maxFull, maxPartial, readLen, nR, peModelAvailable, c.opts)
	if !ok {
		log.Debug.Printf("caller: %s: no candidate alleles, reporting undetermined", loc.Name)
		return genotype.Undetermined(loc.Name), nil
	}

	var peModel *pelik.Model
	if grid.PEMode {
		refLen := loc.RepeatEnd - loc.RepeatStart + 1
		peModel = pelik.Build(peRes.GlobalLens, refLen, peRes.MinPE)
	}

	engine := newLikelihoodEngine(c.models, period, readLen, c.opts.GC, c.opts.Score, peModel, grid.PEMode)

	pairs := candidatePairs(grid, ploidy)
	results := make([]scored, 0, len(pairs))
	for i, p := range pairs {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return genotype.Call{}, errors.E(err, "caller: interrupted during grid search")
			}
		}
		h1, h2 := p[0], p[1]
		l := engine.lSpanning(h1, h2, oS) +
			engine.lPartial(h1, h2, oP) +
			engine.lRepeat(h1, h2, nR, halfDepth) +
			engine.lPairedEnd(h1, h2, peRes.TargetLens)
		results = append(results, scored{h1: h1, h2: h2, l: l})
	}
	if len(results) == 0 {
		return genotype.Undetermined(loc.Name), nil
	}

	best := pickMAP(results)
	ph1, ph2, ph1h2 := buildDistributions(results, best.l, period)
	pp := computePP(results, best.l, loc, period)

	h1u, h2u := best.h1/period, best.h2/period
	lo1, hi1 := marginalCI(ph1)
	lo2, hi2 := marginalCI(ph2)

	call := genotype.Call{
		Locus:        loc.Name,
		Alleles:      [2]int{h1u, h2u},
		FDP:          sumValues(scanRes.Counts.Full),
		PDP:          sumValues(scanRes.Counts.Flank),
		RDP:          scanRes.Counts.SumRepeat(),
		PEDP:         len(peRes.TargetLens),
		FullCounts:   scanRes.Counts.Full,
		FlankCounts:  scanRes.Counts.Flank,
		RepeatCounts: scanRes.Counts.Repeat,
		PEG:          insertSummary(peRes.GlobalLens),
		PET:          insertSummary(peRes.TargetLens),
		CI1:          genotype.CI{Lo: lo1, Hi: hi1},
		CI2:          genotype.CI{Lo: lo2, Hi: hi2},
		PP:           pp,
		PH1:          ph1,
		PH2:          ph2,
		PH1H2:        ph1h2,
		Label:        loc.Label(h1u, h2u),
		Details:      fmt.Sprintf("grid=%d pe_mode=%v ploidy=%d", len(pairs), grid.PEMode, ploidy),
	}
	return call, nil
}

func sumValues(m map[int]int) int {
	sum := 0
	for _, v := range m {
		sum += v
	}
	return sum
}

// insertSummary formats a multiset of insert sizes as "<mean>+/-<std>bp",
// per spec.md §6.
func insertSummary(lens []int) string {
	if len(lens) == 0 {
		return ""
	}
	xs := make([]float64, len(lens))
	for i, v := range lens {
		xs[i] = float64(v)
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return fmt.Sprintf("%.1f+/-%.1fbp", mean, std)
}
