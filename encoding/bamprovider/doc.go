// Package bamprovider provides utilities for scanning a BAM file in
// parallel.
//
// The Provider is an interface for reading a BAM file in parallel,
// independent of any particular genome locus.
//
// PairIterator is implemented on top of Provider to combine read pairs (R1+R2).
package bamprovider
