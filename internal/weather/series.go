package weather

// Period is one forecast hour.
type Period struct {
	Temperature float64 // °F
	WindSpeed   float64 // mph
}

// Series is an hourly forecast ordered by forecast hour; index 0 is the
// current hour. A Series returned by Client.Forecast is never empty.
type Series []Period

// Current returns the first period.
func (s Series) Current() (Period, bool) {
	if len(s) == 0 {
		return Period{}, false
	}
	return s[0], true
}

// Temperatures returns the temperature column.
func (s Series) Temperatures() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Temperature
	}
	return out
}

// WindSpeeds returns the wind-speed column.
func (s Series) WindSpeeds() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.WindSpeed
	}
	return out
}
