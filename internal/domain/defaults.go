package domain

import "math"

// Fixed substitutes for missing dataset measurements when the request carries
// no coordinates. Rain_Past3h has no constant: it follows the resolved Rain_mm.
const (
	DefaultElevation       = 210.0
	DefaultRoadDensity     = 0.5
	DefaultRainMM          = 5.0
	DefaultDrainWaterLevel = 0.8
	DefaultSoilMoisture    = 0.4
)

// DefaultFeatures returns the fixed defaults with Rain_Past3h set to rainMM.
func DefaultFeatures(rainMM float64) ContinuousFeatures {
	return ContinuousFeatures{
		Elevation:       DefaultElevation,
		RoadDensity:     DefaultRoadDensity,
		RainMM:          rainMM,
		RainPast3h:      rainMM,
		DrainWaterLevel: DefaultDrainWaterLevel,
		SoilMoisture:    DefaultSoilMoisture,
	}
}

// Missing reports which fields of c are NaN, in model column order.
func (c ContinuousFeatures) Missing() [NumContinuous]bool {
	var out [NumContinuous]bool
	for i, v := range c.Values() {
		out[i] = math.IsNaN(v)
	}
	return out
}

// FillFrom replaces each NaN field of c with the matching field of src.
func (c ContinuousFeatures) FillFrom(src ContinuousFeatures) ContinuousFeatures {
	pick := func(v, fallback float64) float64 {
		if math.IsNaN(v) {
			return fallback
		}
		return v
	}
	return ContinuousFeatures{
		Elevation:       pick(c.Elevation, src.Elevation),
		RoadDensity:     pick(c.RoadDensity, src.RoadDensity),
		RainMM:          pick(c.RainMM, src.RainMM),
		RainPast3h:      pick(c.RainPast3h, src.RainPast3h),
		DrainWaterLevel: pick(c.DrainWaterLevel, src.DrainWaterLevel),
		SoilMoisture:    pick(c.SoilMoisture, src.SoilMoisture),
	}
}
