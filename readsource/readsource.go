// Package readsource defines the core's only I/O boundary: a source of
// aligned reads over genomic intervals. Concrete implementations (see
// package bamsource) are deliberately kept out of the core's dependency
// graph so that classify, peextract and caller can be exercised against an
// in-memory fake.
package readsource

import "context"

// Read mirrors the subset of a BAM/SAM alignment record the core needs.
// Field names follow the pysam-derived list in spec.md §6; the Go-native
// equivalents (QueryName for query_name, etc.) are listed in SPEC_FULL.md
// §6.
type Read struct {
	QueryName     string
	QuerySequence string

	// ReferenceStart and ReferenceEnd are 0-based, half-open, on the
	// reference the read is aligned to ([ReferenceStart, ReferenceEnd)).
	ReferenceStart int
	ReferenceEnd   int

	// QueryAlignmentStart and QueryAlignmentEnd delimit the aligned portion
	// of QuerySequence (i.e. excluding soft clips), 0-based half-open.
	QueryAlignmentStart int
	QueryAlignmentEnd   int

	// QueryLength is len(QuerySequence).
	QueryLength int

	NextReferenceID    int
	NextReferenceStart int
	// NextReferenceName is the resolved chromosome name for
	// NextReferenceID, populated by the Source since only it holds the
	// BAM header needed to resolve reference IDs to names. Used by
	// classify.Scan to recognize reads whose mate maps into the primary
	// locus window when scanning an alternative (decoy) region.
	NextReferenceName string

	IsUnmapped  bool
	IsPaired    bool
	IsReverse   bool
	IsDuplicate bool
}

// Source is the read-fetching abstraction the core consumes. Implementations
// must be safe for the access pattern "one Fetch/iterate to completion at a
// time per Source value" — the core never calls a Source concurrently from
// multiple goroutines for a single sample×locus call.
type Source interface {
	// Fetch returns an iterator over reads overlapping [start, end) on chrom.
	// start/end use the same coordinate convention as Read.ReferenceStart/End
	// (0-based, half-open).
	Fetch(ctx context.Context, chrom string, start, end int) (Iterator, error)

	// PileupDepth returns the mean per-base read depth over [start, end).
	PileupDepth(ctx context.Context, chrom string, start, end int) (float64, error)

	// PeekReadLen returns a representative read length for the underlying
	// data (e.g. the length of the first read encountered), used to size
	// the aligner bank.
	PeekReadLen(ctx context.Context) (int, error)
}

// Iterator sequentially yields Reads. Callers must call Close exactly once.
type Iterator interface {
	// Scan advances to the next read, returning false at end of stream or on
	// error (check Err to distinguish).
	Scan() bool
	// Read returns the current read. Valid only after Scan returns true.
	Read() Read
	// Err returns the first error encountered during iteration, if any.
	Err() error
	// Close releases resources held by the iterator.
	Close() error
}
