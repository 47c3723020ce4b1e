package domain

import "github.com/shopspring/decimal"

// Round2 rounds a price or monetary value to 2 decimal places, half away
// from zero. All price writes in the engine go through this helper so the
// values stay at money precision.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ChangePercent computes the percentage delta of next versus prev at
// 2-decimal precision, substituting 1 for a zero denominator.
func ChangePercent(prev, next float64) float64 {
	denom := prev
	if denom == 0 {
		denom = 1
	}
	return Round2((next - prev) / denom * 100)
}
