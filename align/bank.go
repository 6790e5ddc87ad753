package align

import (
	"github.com/grailbio/tredcaller/biosimd"
)

// Template is one candidate reference in the bank: the synthetic sequence
// prefix+motif^u+suffix (or its reverse complement), together with the
// repeat-unit count u it represents.
type Template struct {
	U         int
	Reverse   bool
	Aligner   *Aligner
}

// Bank holds one forward and one reverse-complement Aligner for every
// candidate repeat-unit count u = 1..UMax, per spec.md §4.1. Reads are run
// against every entry since the read source does not pre-orient reads onto
// the forward strand.
type Bank struct {
	Prefix, Motif, Suffix string
	UMax                  int
	Templates             []Template
}

// NewBank builds a bank of aligners for repeat-unit counts 1..uMax over the
// synthetic reference prefix+motif^u+suffix.
func NewBank(prefix, motif, suffix string, uMax int) *Bank {
	b := &Bank{Prefix: prefix, Motif: motif, Suffix: suffix, UMax: uMax}
	for u := 1; u <= uMax; u++ {
		fwd := buildReference(prefix, motif, suffix, u)
		rev := make([]byte, len(fwd))
		biosimd.ReverseComp8NoValidate(rev, fwd)
		b.Templates = append(b.Templates,
			Template{U: u, Reverse: false, Aligner: New(fwd)},
			Template{U: u, Reverse: true, Aligner: New(rev)},
		)
	}
	return b
}

func buildReference(prefix, motif, suffix string, u int) []byte {
	buf := make([]byte, 0, len(prefix)+len(motif)*u+len(suffix))
	buf = append(buf, prefix...)
	for i := 0; i < u; i++ {
		buf = append(buf, motif...)
	}
	buf = append(buf, suffix...)
	return buf
}

// UMaxForReadLen returns U_max = ceil(readLen / |motif|), per spec.md §4.1.
func UMaxForReadLen(readLen, period int) int {
	if period <= 0 {
		return 0
	}
	return (readLen + period - 1) / period
}
