// Package stutter loads the period-indexed step-size and logistic noise
// models used to build per-allele spanning/partial-read likelihoods, per
// spec.md §4.4.
package stutter

import (
	"bufio"
	"bytes"
	"embed"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

//go:embed data/illumina_v3.pcrfree.stepmodel data/illumina_v3.pcrfree.stuttermodel
var bundledData embed.FS

// MaxPeriod is the largest motif period the bundled step model carries data
// for; periods beyond it reuse MaxPeriod's distribution (spec.md §9 Open
// Question 1).
const MaxPeriod = 6

// StepModel holds the period-indexed step-size PMFs loaded from the bundled
// stepmodel file.
type StepModel struct {
	// PNonUnitStep[p] is carried for diagnostics; not required to compute
	// pdf_spanning.
	PNonUnitStep map[int]float64
	// ProbIncrease is carried for diagnostics; not required to compute
	// pdf_spanning.
	ProbIncrease float64
	// StepSizePMF[p] is a symmetric vector of step-deviation probabilities
	// in motif-unit steps, for period p. Periods above MaxPeriod alias
	// StepSizePMF[MaxPeriod].
	StepSizePMF map[int][]float64
}

// PMFForPeriod returns the step-size PMF for period p, reusing the
// MaxPeriod entry for any p > MaxPeriod.
func (m *StepModel) PMFForPeriod(p int) []float64 {
	if p > MaxPeriod {
		p = MaxPeriod
	}
	return m.StepSizePMF[p]
}

// ParseStepModel parses the bundled stepmodel text format: 6 lines of
// P_non_unit_step[1..6], a "prob_increase = <v>" line, then 6 tab-separated
// "<label> v1 v2 ..." lines giving step_size_pmf[1..6].
func ParseStepModel(data []byte) (*StepModel, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	m := &StepModel{
		PNonUnitStep: map[int]float64{},
		StepSizePMF:  map[int][]float64{},
	}

	lines := make([]string, 0, 16)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E(err, "stutter: reading stepmodel")
	}

	idx := 0
	for p := 1; p <= MaxPeriod; p++ {
		if idx >= len(lines) {
			return nil, errors.E("stutter: stepmodel truncated before non_unit_step lines")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(lines[idx]), 64)
		if err != nil {
			return nil, errors.E(err, "stutter: parsing non_unit_step line", strconv.Itoa(idx))
		}
		m.PNonUnitStep[p] = v
		idx++
	}
	if idx >= len(lines) {
		return nil, errors.E("stutter: stepmodel missing prob_increase line")
	}
	parts := strings.SplitN(lines[idx], "=", 2)
	if len(parts) != 2 {
		return nil, errors.E("stutter: malformed prob_increase line", lines[idx])
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, errors.E(err, "stutter: parsing prob_increase value")
	}
	m.ProbIncrease = v
	idx++

	for p := 1; p <= MaxPeriod; p++ {
		if idx >= len(lines) {
			return nil, errors.E("stutter: stepmodel truncated before step_size_pmf lines")
		}
		fields := strings.Fields(lines[idx])
		if len(fields) < 2 {
			return nil, errors.E("stutter: malformed step_size_pmf line", lines[idx])
		}
		pmf := make([]float64, 0, len(fields)-1)
		for _, f := range fields[1:] {
			fv, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.E(err, "stutter: parsing step_size_pmf value", f)
			}
			pmf = append(pmf, fv)
		}
		m.StepSizePMF[p] = pmf
		idx++
	}
	return m, nil
}

// NoiseModel is the logistic regression sigma(w0 + w . x) predicting the
// stutter probability from (period, h/period, gc, score).
type NoiseModel struct {
	Weights []float64 // Weights[0] is the intercept.
}

// ParseNoiseModel parses the bundled stuttermodel text format: headerLines
// lines of comments/metadata, then one float weight per line (intercept
// first).
func ParseNoiseModel(data []byte, headerLines int) (*NoiseModel, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	n := &NoiseModel{}
	line := 0
	for sc.Scan() {
		line++
		if line <= headerLines {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.E(err, "stutter: parsing noise model weight", text)
		}
		n.Weights = append(n.Weights, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E(err, "stutter: reading stuttermodel")
	}
	if len(n.Weights) == 0 {
		return nil, errors.E("stutter: no weights found in stuttermodel")
	}
	return n, nil
}

// Predict returns the stutter probability for a feature vector x =
// (period, h/period, gc, score), as a logistic function of the loaded
// weights.
func (n *NoiseModel) Predict(x [4]float64) float64 {
	z := n.Weights[0]
	for i, xi := range x {
		if i+1 >= len(n.Weights) {
			break
		}
		z += n.Weights[i+1] * xi
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// Models bundles the step and noise models loaded once per process and
// shared read-only by every caller instance, per spec.md §5.
type Models struct {
	Step  *StepModel
	Noise *NoiseModel
}

// headerLines is the number of metadata lines preceding the weight values
// in the bundled stuttermodel file (spec.md §6).
const headerLines = 6

// Load parses the bundled stutter/noise model resources embedded in the
// binary.
func Load() (*Models, error) {
	stepData, err := bundledData.ReadFile("data/illumina_v3.pcrfree.stepmodel")
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "stutter: bundled stepmodel missing")
	}
	noiseData, err := bundledData.ReadFile("data/illumina_v3.pcrfree.stuttermodel")
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "stutter: bundled stuttermodel missing")
	}
	step, err := ParseStepModel(stepData)
	if err != nil {
		return nil, err
	}
	noise, err := ParseNoiseModel(noiseData, headerLines)
	if err != nil {
		return nil, err
	}
	return &Models{Step: step, Noise: noise}, nil
}
