package money

import "math"

// CeilCents rounds up to two decimals. Delivery and fee amounts are always
// rounded in the platform's favor, never down.
func CeilCents(v float64) float64 {
	// the epsilon keeps exact values like 10.50 from being pushed a cent up
	// by float noise
	return math.Ceil(v*100-1e-9) / 100
}

// FloorCents rounds down to two decimals; used for payouts, where the
// platform keeps the remainder.
func FloorCents(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}
