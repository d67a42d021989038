package services

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// zScore returns the two-sided standard normal critical value for a
// confidence level, e.g. 1.959964 for 0.95.
func zScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// WilsonInterval returns the Wilson score interval for successes out of n
// trials at critical value z. Bounds always lie in [0,1] and always contain
// the observed proportion. n must be positive.
func WilsonInterval(successes, n int, z float64) (lower, upper float64) {
	p := float64(successes) / float64(n)
	nf := float64(n)
	z2 := z * z

	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom

	lower = math.Max(0, center-half)
	upper = math.Min(1, center+half)

	// The closed form is exact at the boundaries; rounding is not.
	if successes == 0 {
		lower = 0
	}
	if successes == n {
		upper = 1
	}
	return math.Min(lower, p), math.Max(upper, p)
}
