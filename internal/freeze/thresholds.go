package freeze

// Thresholds is the coarse advisory classifier driven by the configured warn
// temperatures (°F). It is independent of Assess, which only ever reports
// None or Medium.
type Thresholds struct {
	Level1 float64
	Level2 float64
	Level3 float64
}

// DefaultThresholds returns the stock warn temperatures.
func DefaultThresholds() Thresholds {
	return Thresholds{Level1: 32, Level2: 10, Level3: 0}
}

// Classify bins tempF against the warn temperatures, coldest bin first.
func (t Thresholds) Classify(tempF float64) DangerLevel {
	switch {
	case tempF >= t.Level1:
		return DangerNone
	case tempF < t.Level3:
		return DangerHigh
	case tempF < t.Level2:
		return DangerMedium
	default:
		return DangerLow
	}
}
