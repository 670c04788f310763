package freeze

// lossModel is one heat-loss regime of the freeze model.
type lossModel interface {
	// surfaceCoefficient is the resistance term in the lumped-capacitance
	// time constant (W/m²·K).
	surfaceCoefficient(windMPH float64) float64
	// phaseChangeSeconds is the time to remove the latent heat of the pipe
	// contents once they reach the freezing point.
	phaseChangeSeconds(ambientC, windMPH float64) float64
}

type conductionModel struct{}

func (conductionModel) surfaceCoefficient(float64) float64 {
	return waterK / pipeDiameter
}

func (conductionModel) phaseChangeSeconds(ambientC, _ float64) float64 {
	return latentHeat * iceDensity * pipeDiameter * pipeDiameter / (avgK * -ambientC)
}

type convectionModel struct{}

func (convectionModel) surfaceCoefficient(windMPH float64) float64 {
	return ConvectiveCoefficient(windMPH)
}

func (convectionModel) phaseChangeSeconds(ambientC, windMPH float64) float64 {
	return latentHeat * iceDensity * pipeDiameter / (ConvectiveCoefficient(windMPH) * -ambientC)
}

// strategy returns the loss model for m. Unknown modes fall back to
// Conduction, which does not depend on wind.
func (m Mode) strategy() lossModel {
	if m == Convection {
		return convectionModel{}
	}
	return conductionModel{}
}
