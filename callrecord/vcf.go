package callrecord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/tredcaller/genotype"
	"github.com/grailbio/tredcaller/locus"
)

// vcfMeta carries the fixed VCF header block, grounded on
// original_source/tred.py's module-level INFO constant. FORMAT lists GB
// (genotype as absolute copy numbers) rather than the header's GA, matching
// what original_source/tred.py's to_vcf actually emits (the original's own
// header/field-list disagree; this follows the field actually written). Q
// (likelihood-ratio score) is dropped: spec.md's GenotypeCall carries no
// such field, and PP already serves as the call's confidence scalar.
const vcfInfoFormatHeader = `##INFO=<ID=RPA,Number=1,Type=String,Description="Repeats per allele">
##INFO=<ID=END,Number=1,Type=Integer,Description="End position of variant">
##INFO=<ID=MOTIF,Number=1,Type=String,Description="Canonical repeat motif">
##INFO=<ID=NS,Number=1,Type=Integer,Description="Number of samples with data">
##INFO=<ID=REF,Number=1,Type=Integer,Description="Reference copy number">
##INFO=<ID=CR,Number=1,Type=Integer,Description="Disease copy number cutoff">
##INFO=<ID=IH,Number=1,Type=String,Description="Inheritance">
##INFO=<ID=RL,Number=1,Type=Integer,Description="Reference STR track length in bp">
##INFO=<ID=VT,Number=1,Type=String,Description="Variant type">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=GB,Number=1,Type=String,Description="Genotype with absolute copy numbers">
##FORMAT=<ID=FR,Number=1,Type=String,Description="Full reads aligned to locus">
##FORMAT=<ID=PR,Number=1,Type=String,Description="Partial reads aligned to locus">
##FORMAT=<ID=FDP,Number=1,Type=Integer,Description="Full read Depth">
##FORMAT=<ID=PDP,Number=1,Type=Integer,Description="Partial read Depth">
##FORMAT=<ID=PP,Number=1,Type=Float,Description="Post. probability of disease">
##FORMAT=<ID=LABEL,Number=1,Type=String,Description="Risk assessment">
`

// VCFHeader builds the fixed VCF header block for one sample, per
// original_source/tred.py's vcfstanza. fileDate is passed in (never
// computed internally — the workflow's no-wall-clock-in-library-code rule
// applies equally to output formatting).
func VCFHeader(r SampleReport, reference, fileDate string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "##fileformat=VCFv4.1\n")
	fmt.Fprintf(&b, "##fileDate=%s\n", fileDate)
	fmt.Fprintf(&b, "##source=tred-call %s\n", r.BAMPath)
	fmt.Fprintf(&b, "##reference=%s\n", reference)
	fmt.Fprintf(&b, "##inferredGender=%s depthY=%g\n", r.InferredGender, r.DepthY)
	fmt.Fprintf(&b, "##readLen=%dbp\n", r.ReadLen)
	b.WriteString(vcfInfoFormatHeader)
	b.WriteString("#" + strings.Join([]string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO", "FORMAT", r.SampleID}, "\t"))
	return b.String()
}

// VCFRecord renders one locus's call as a single VCF data line, per
// original_source/tred.py's to_vcf.
func VCFRecord(loc locus.Locus, call genotype.Call) string {
	refCopy := loc.RefCopy()
	a, b := call.Alleles[0], call.Alleles[1]

	alleleSet := map[int]bool{a: true, b: true}
	var rpa []int
	for h := range alleleSet {
		if h != refCopy {
			rpa = append(rpa, h)
		}
	}
	sort.Ints(rpa)

	alt := "."
	if len(rpa) > 0 && rpa[0] != -1 {
		alts := make([]string, len(rpa))
		for i, h := range rpa {
			alts[i] = strings.Repeat(loc.Motif, h)
		}
		alt = strings.Join(alts, ",")
	}

	gt := "0/0"
	switch {
	case a < 0 || b < 0:
		gt = "./."
	case len(rpa) > 0 && alleleSet[refCopy]:
		gt = "0/1"
	case len(rpa) == 1:
		gt = "1/1"
	case len(rpa) > 1:
		gt = "1/2"
	}

	info := fmt.Sprintf("END=%d;MOTIF=%s;NS=1;REF=%d;CR=%d;IH=%s;RL=%d;VT=STR",
		loc.RepeatEnd, loc.Motif, refCopy, loc.CutoffRisk, loc.Inheritance, loc.RepeatEnd-loc.RepeatStart+1)
	if len(rpa) > 0 && rpa[0] != -1 {
		parts := make([]string, len(rpa))
		for i, h := range rpa {
			parts[i] = fmt.Sprintf("%d", h)
		}
		info += ";RPA=" + strings.Join(parts, ",")
	}

	gb := fmt.Sprintf("%d/%d", a, b)
	pp := "-1"
	if call.PP >= 0 {
		pp = fmt.Sprintf("%.4g", call.PP)
	}
	format := fmt.Sprintf("%s:%s:%s:%s:%d:%d:%s:%s",
		gt, gb, CounterString(call.FullCounts), CounterString(call.FlankCounts),
		call.FDP, call.PDP, pp, call.Label)

	refSeq := strings.Repeat(loc.Motif, refCopy)
	return strings.Join([]string{
		loc.Chrom, fmt.Sprintf("%d", loc.RepeatStart), loc.Name, refSeq, alt, ".", ".", info,
		"GT:GB:FR:PR:FDP:PDP:PP:LABEL", format,
	}, "\t")
}

// VCFBody renders every locus's record for a SampleReport, sorted by
// (chrom, pos), per to_vcf's output ordering.
func VCFBody(r SampleReport, loci map[string]locus.Locus) []string {
	type row struct {
		chrom string
		pos   int
		line  string
	}
	rows := make([]row, 0, len(r.Calls))
	for name, call := range r.Calls {
		loc, ok := loci[name]
		if !ok {
			continue
		}
		rows = append(rows, row{loc.Chrom, loc.RepeatStart, VCFRecord(loc, call)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].chrom != rows[j].chrom {
			return rows[i].chrom < rows[j].chrom
		}
		return rows[i].pos < rows[j].pos
	})
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.line
	}
	return out
}
