// Package bamsource implements readsource.Source over a BAM file, using the
// kept bamprovider/bam encoding packages for random-access fetch, and adds
// the chrY-depth gender-inference probe spec.md §6 describes.
package bamsource

import (
	"context"
	"embed"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	gbam "github.com/grailbio/tredcaller/encoding/bam"
	"github.com/grailbio/tredcaller/encoding/bamprovider"
	"github.com/grailbio/tredcaller/readsource"
)

//go:embed data/chrY.hg38.unique_ccn.gc
var bundledYTable embed.FS

// BundledYTable returns the default hg38 chrY depth-probe table, per
// spec.md §6. Callers targeting a different genome build supply their own
// table text to InferGender instead.
func BundledYTable() (string, error) {
	data, err := bundledYTable.ReadFile("data/chrY.hg38.unique_ccn.gc")
	if err != nil {
		return "", errors.E(errors.NotExist, err, "bamsource: bundled chrY table missing")
	}
	return string(data), nil
}

// BAMSource wraps one open BAM file as a readsource.Source.
type BAMSource struct {
	provider bamprovider.Provider
	header   *sam.Header
}

// Open opens the BAM file at path (with an optional explicit index path via
// opts.Index), grounded on bamprovider.NewProvider's construction pattern
// used throughout the teacher tree (e.g. encoding/bam/process_example).
func Open(path string, opts ...bamprovider.ProviderOpts) (*BAMSource, error) {
	provider := bamprovider.NewProvider(path, opts...)
	header, err := provider.GetHeader()
	if err != nil {
		provider.Close()
		return nil, errors.E(errors.NotExist, err, "bamsource: reading BAM header")
	}
	return &BAMSource{provider: provider, header: header}, nil
}

// Close releases the underlying provider.
func (s *BAMSource) Close() error {
	return s.provider.Close()
}

// Fetch implements readsource.Source.
func (s *BAMSource) Fetch(ctx context.Context, chrom string, start, end int) (readsource.Iterator, error) {
	ref := bamprovider.RefByName(s.header, chrom)
	if ref == nil {
		return nil, errors.E(errors.NotExist, "bamsource: reference "+chrom+" not found in BAM header")
	}
	it := s.provider.NewIterator(gbam.Shard{StartRef: ref, EndRef: ref, Start: start, End: end})
	return &iterator{it: it}, nil
}

// PileupDepth implements readsource.Source: the mean per-base coverage over
// [start, end), approximated from each overlapping record's reference span
// (CIGAR ref-consuming length) rather than a full base-level pileup — exact
// enough to feed the caller's half-depth Poisson term, per spec.md §4.6's
// lRepeat.
func (s *BAMSource) PileupDepth(ctx context.Context, chrom string, start, end int) (float64, error) {
	if end <= start {
		return 0, nil
	}
	it, err := s.Fetch(ctx, chrom, start, end)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	total := 0
	for it.Scan() {
		r := it.Read()
		if r.IsUnmapped || r.IsDuplicate {
			continue
		}
		lo := maxInt(r.ReferenceStart, start)
		hi := minInt(r.ReferenceEnd, end)
		if hi > lo {
			total += hi - lo
		}
	}
	if err := it.Err(); err != nil {
		return 0, errors.E(err, "bamsource: pileup depth scan")
	}
	return float64(total) / float64(end-start), nil
}

// PeekReadLen implements readsource.Source: the sequence length of the first
// record in the file that carries a sequence; mapping state is not checked.
func (s *BAMSource) PeekReadLen(ctx context.Context) (int, error) {
	shards, err := s.provider.GetFileShards()
	if err != nil {
		return 0, errors.E(err, "bamsource: listing file shards")
	}
	for _, shard := range shards {
		it := s.provider.NewIterator(shard)
		for it.Scan() {
			rec := it.Record()
			if len(rec.Seq.Seq) > 0 || rec.Seq.Length > 0 {
				n := rec.Seq.Length
				it.Close()
				return n, nil
			}
		}
		err := it.Err()
		it.Close()
		if err != nil {
			return 0, errors.E(err, "bamsource: peeking read length")
		}
	}
	return 0, errors.E(errors.NotExist, "bamsource: no reads found to determine read length")
}

// RegionDepth returns the mean per-base depth over one "chr:start-end"
// style region string's already-parsed bounds, a thin convenience wrapper
// used by InferGender to probe the bundled chrY table.
func (s *BAMSource) RegionDepth(ctx context.Context, chrom string, start, end int) (float64, error) {
	return s.PileupDepth(ctx, chrom, start, end)
}

func toRead(rec *sam.Record) readsource.Read {
	r := readsource.Read{
		QueryName:     rec.Name,
		QuerySequence: string(rec.Seq.Expand()),
		QueryLength:   rec.Seq.Length,
		IsUnmapped:    rec.Flags&sam.Unmapped != 0,
		IsPaired:      rec.Flags&sam.Paired != 0,
		IsReverse:     rec.Flags&sam.Reverse != 0,
		IsDuplicate:   rec.Flags&sam.Duplicate != 0,
	}
	if rec.Ref != nil {
		r.ReferenceStart = rec.Pos
		refSpan, _ := rec.Cigar.Lengths()
		r.ReferenceEnd = rec.Pos + refSpan
	}
	r.QueryAlignmentStart, r.QueryAlignmentEnd = alignedQueryBounds(rec)
	if rec.MateRef != nil {
		r.NextReferenceID = rec.MateRef.ID()
		r.NextReferenceName = rec.MateRef.Name()
	} else {
		r.NextReferenceID = -1
	}
	r.NextReferenceStart = rec.MatePos
	return r
}

// alignedQueryBounds returns the [start, end) of the query sequence excluding
// leading/trailing soft clips, per readsource.Read's QueryAlignmentStart/End
// convention.
func alignedQueryBounds(rec *sam.Record) (int, int) {
	start, end := 0, rec.Seq.Length
	cigar := rec.Cigar
	if len(cigar) == 0 {
		return start, end
	}
	if cigar[0].Type() == sam.CigarSoftClipped {
		start = cigar[0].Len()
	}
	if last := cigar[len(cigar)-1]; last.Type() == sam.CigarSoftClipped {
		end -= last.Len()
	}
	if end < start {
		end = start
	}
	return start, end
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type iterator struct {
	it  bamprovider.Iterator
	cur readsource.Read
}

func (i *iterator) Scan() bool {
	if !i.it.Scan() {
		return false
	}
	i.cur = toRead(i.it.Record())
	return true
}

func (i *iterator) Read() readsource.Read { return i.cur }
func (i *iterator) Err() error            { return i.it.Err() }
func (i *iterator) Close() error          { return i.it.Close() }

// gcRegion is one line of the bundled chrY depth table: chr, start, end,
// gc, per spec.md §6.
type gcRegion struct {
	Chrom      string
	Start, End int
	GC         float64
}

// excludedYIndices are the hard-coded table-row indices skipped before
// picking probe regions, per spec.md §6.
var excludedYIndices = map[int]bool{
	1: true, 4: true, 6: true, 7: true, 10: true, 11: true, 13: true, 16: true, 18: true, 19: true,
}

const yProbeCount = 5

func parseYTable(text string) []gcRegion {
	var regions []gcRegion
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			continue
		}
		start, err1 := strconv.Atoi(fields[1])
		end, err2 := strconv.Atoi(fields[2])
		gc, err3 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		regions = append(regions, gcRegion{Chrom: fields[0], Start: start, End: end, GC: gc})
	}
	return regions
}

// InferGender probes the bundled chrY table for this sample's depth: after
// skipping excludedYIndices, the first yProbeCount remaining regions are
// depth-probed and their median returned, per spec.md §6. depthY above
// yMaleThreshold implies a Y chromosome is present (male); near zero implies
// its absence (female) — the threshold is a coarse cut, not a calibrated
// classifier, matching the level of detail spec.md specifies.
func (s *BAMSource) InferGender(ctx context.Context, yTable string) (gender string, depthY float64, err error) {
	regions := parseYTable(yTable)
	var probes []gcRegion
	for i, r := range regions {
		if excludedYIndices[i] {
			continue
		}
		probes = append(probes, r)
		if len(probes) == yProbeCount {
			break
		}
	}
	if len(probes) == 0 {
		return "unknown", 0, errors.E(errors.NotExist, "bamsource: chrY table has no usable probe regions")
	}

	depths := make([]float64, 0, len(probes))
	for _, p := range probes {
		d, derr := s.RegionDepth(ctx, p.Chrom, p.Start, p.End)
		if derr != nil {
			return "unknown", 0, derr
		}
		depths = append(depths, d)
	}
	sort.Float64s(depths)
	depthY = median(depths)

	const yMaleThreshold = 1.0
	if depthY >= yMaleThreshold {
		return "male", depthY, nil
	}
	return "female", depthY, nil
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
