package domain

import "math"

// KgPerLb is the exact international avoirdupois pound.
const KgPerLb = 0.45359237

// ConvertWeight converts v between kilograms (metric) and pounds.
// Equal units return v untouched. Results are rounded to one decimal when
// converting to kilograms and to a whole number when converting to pounds.
func ConvertWeight(fromMetric, toMetric bool, v float64) float64 {
	if fromMetric == toMetric {
		return v
	}
	if toMetric {
		return math.Round(v*KgPerLb*10) / 10
	}
	return math.Round(v / KgPerLb)
}

// UnitName returns "kg" or "lb".
func UnitName(metric bool) string {
	if metric {
		return "kg"
	}
	return "lb"
}
