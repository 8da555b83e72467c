package shared

import "github.com/shopspring/decimal"

// Round rounds v to the given decimal places, half away from zero, using the
// shortest decimal representation of v so 1.2345 rounds to 1.235. Ties are
// symmetric in sign: -1.2345 rounds to -1.235, never toward +Inf.
func Round(v float64, places int32) float64 {
	out, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return out
}

// BelowCent reports whether |v| is under the 0.01 noise floor.
func BelowCent(v float64) bool {
	return v > -0.01 && v < 0.01
}
