// Package callrecord renders genotype.Call values into the flat field set
// and VCF stanza consumed by downstream tooling, per spec.md §6 and
// original_source/tred.py's vcfstanza/to_vcf (carried over as a mechanical
// rendering step, not new inference logic).
package callrecord

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/tredcaller/genotype"
)

// SampleReport bundles one sample's sample-level fields (gender inference,
// read length) with its per-locus genotype calls, mirroring the flat
// tredCalls dict built by the original driver's run().
type SampleReport struct {
	SampleID        string
	BAMPath         string
	InferredGender  string
	DepthY          float64
	ReadLen         int
	Calls           map[string]genotype.Call // locus name -> call
}

// CounterString renders a h->n histogram as "h1|n1;h2|n2;...", sorted by h,
// omitting zero-count entries, per original_source/tred.py's counter_s.
func CounterString(m map[int]int) string {
	keys := make([]int, 0, len(m))
	for h, n := range m {
		if n != 0 {
			keys = append(keys, h)
		}
	}
	sort.Ints(keys)
	parts := make([]string, len(keys))
	for i, h := range keys {
		parts[i] = fmt.Sprintf("%d|%d", h, m[h])
	}
	return strings.Join(parts, ";")
}

// CIString renders the two marginal credible intervals as
// "h1_lo-h1_hi|h2_lo-h2_hi", per spec.md §6.
func CIString(call genotype.Call) string {
	if call.IsUndetermined() {
		return ""
	}
	return fmt.Sprintf("%d-%d|%d-%d", call.CI1.Lo, call.CI1.Hi, call.CI2.Lo, call.CI2.Hi)
}

// DistributionString renders a sparse h->probability distribution as
// "h1|p1;h2|p2;...", sorted by h.
func DistributionString(p map[int]float64) string {
	keys := make([]int, 0, len(p))
	for h := range p {
		keys = append(keys, h)
	}
	sort.Ints(keys)
	parts := make([]string, len(keys))
	for i, h := range keys {
		parts[i] = fmt.Sprintf("%d|%.4g", h, p[h])
	}
	return strings.Join(parts, ";")
}

// JointDistributionString renders the sparse joint (h1,h2)->probability
// distribution as "h1,h2|p;...", sorted by (h1,h2).
func JointDistributionString(p map[[2]int]float64) string {
	keys := make([][2]int, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d,%d|%.4g", k[0], k[1], p[k])
	}
	return strings.Join(parts, ";")
}

// Fields flattens one genotype.Call into its "<locus>.*" string fields, per
// spec.md §6.
func Fields(call genotype.Call) map[string]string {
	p := call.Locus + "."
	pp := "-1"
	if call.PP >= 0 {
		pp = fmt.Sprintf("%.4g", call.PP)
	}
	return map[string]string{
		p + "1":       strconv.Itoa(call.Alleles[0]),
		p + "2":       strconv.Itoa(call.Alleles[1]),
		p + "FR":      CounterString(call.FullCounts),
		p + "PR":      CounterString(call.FlankCounts),
		p + "RR":      CounterString(call.RepeatCounts),
		p + "DP":      strconv.Itoa(call.FDP + call.PDP + call.RDP),
		p + "FDP":     strconv.Itoa(call.FDP),
		p + "PDP":     strconv.Itoa(call.PDP),
		p + "RDP":     strconv.Itoa(call.RDP),
		p + "PEDP":    strconv.Itoa(call.PEDP),
		p + "PEG":     call.PEG,
		p + "PET":     call.PET,
		p + "CI":      CIString(call),
		p + "PP":      pp,
		p + "label":   call.Label,
		p + "details": call.Details,
		p + "P_h1":    DistributionString(call.PH1),
		p + "P_h2":    DistributionString(call.PH2),
		p + "P_h1h2":  JointDistributionString(call.PH1H2),
	}
}

// ReportFields flattens an entire SampleReport into the full field set
// (sample-level fields plus every locus's fields), per spec.md §6.
func ReportFields(r SampleReport) map[string]string {
	out := map[string]string{
		"inferredGender": r.InferredGender,
		"depthY":         fmt.Sprintf("%.3g", r.DepthY),
		"readLen":        strconv.Itoa(r.ReadLen),
	}
	for _, call := range r.Calls {
		for k, v := range Fields(call) {
			out[k] = v
		}
	}
	return out
}
