package caller

// Options configures one Call invocation; fields mirror CLI flags in the
// original tool.
type Options struct {
	// FullSearch forces both candidate ranges to the full {|motif| .. maxinsert*|motif|}
	// sweep, ignoring the evidence-derived Base/Extended ranges.
	FullSearch bool

	// ClippedMode broadens REPT's acceptance window and switches its
	// aggregator from max to sum, per spec.md §9's clipped_mode note.
	ClippedMode bool

	// IsMale downgrades ploidy to 1 at X-linked loci.
	IsMale bool

	// MaxInsert bounds the Extended/fullsearch candidate ranges, in motif
	// units.
	MaxInsert int

	// GC and Score are the stutter noise model's GC-content and
	// mapping-quality-derived score features; both are locus/read
	// properties the original tool defaults when not separately measured.
	GC    float64
	Score float64
}

// DefaultOptions mirrors IntegratedCaller's Python defaults.
func DefaultOptions() Options {
	return Options{MaxInsert: 100, GC: 0.68, Score: 1.0}
}
