package domain

import "math"

// NormCDF is the cumulative distribution function of the standard normal
// distribution, computed through the complementary error function.
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
