package caller

import "math"

// poissonLogPMF returns log P(k; lambda). A non-positive lambda is treated
// as a zero rate: it returns 0 for k == 0 and -Inf for any other k.
func poissonLogPMF(k int, lambda float64) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	kf := float64(k)
	lg, _ := math.Lgamma(kf + 1)
	return kf*math.Log(lambda) - lambda - lg
}
