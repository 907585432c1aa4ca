// Package mathutil holds small numeric helpers shared by the analysis and
// ledger packages.
package mathutil

import "math"

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Round2 rounds to two decimal places (cents, percentage points).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
