package domain

import "math"

// Periods of the cyclical calendar encodings.
const (
	HoursPerDay    = 24
	MonthsPerYear  = 12
	DaysPerWeek    = 7
	NumTimeEncoded = 6
)

// Cyclical maps v onto the unit circle for period p, so values one step
// apart across the period boundary (23h and 0h) stay adjacent.
func Cyclical(v, p float64) (sin, cos float64) {
	angle := 2 * math.Pi * v / p
	return math.Sin(angle), math.Cos(angle)
}

// EncodeTime returns hour_sin, hour_cos, month_sin, month_cos, dow_sin, dow_cos.
func EncodeTime(t TimeComponents) [NumTimeEncoded]float64 {
	hs, hc := Cyclical(float64(t.HourOfDay), HoursPerDay)
	ms, mc := Cyclical(float64(t.Month), MonthsPerYear)
	ds, dc := Cyclical(float64(t.DayOfWeek), DaysPerWeek)
	return [NumTimeEncoded]float64{hs, hc, ms, mc, ds, dc}
}
