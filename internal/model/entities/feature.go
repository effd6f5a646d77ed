package entities

// FeatureVector is the agronomic description of a plot: soil nutrients
// plus the climate it grows in. No bounds are enforced (ph is nominally 0-14).
type FeatureVector struct {
	Nitrogen    float64 `json:"nitrogen" yaml:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus" yaml:"phosphorus"`
	Potassium   float64 `json:"potassium" yaml:"potassium"`
	Temperature float64 `json:"temperature" yaml:"temperature"` // °C
	Humidity    float64 `json:"humidity" yaml:"humidity"`       // %
	PH          float64 `json:"ph" yaml:"ph"`
	Rainfall    float64 `json:"rainfall" yaml:"rainfall"` // mm
}

// Values returns the features in canonical order
// (N, P, K, temperature, humidity, ph, rainfall).
func (v FeatureVector) Values() [7]float64 {
	return [7]float64{v.Nitrogen, v.Phosphorus, v.Potassium, v.Temperature, v.Humidity, v.PH, v.Rainfall}
}
