package entities

// FertilizerInput is what the fertilizer form collects.
type FertilizerInput struct {
	Nitrogen   float64  `json:"nitrogen"`
	Phosphorus float64  `json:"phosphorus"`
	Potassium  float64  `json:"potassium"`
	Moisture   float64  `json:"moisture"` // %
	Soil       SoilType `json:"soil_type"`
	Crop       CropType `json:"crop_type"`
}

type AdviceSource string

const (
	AdviceFromTable     AdviceSource = "table"
	AdviceFromHeuristic AdviceSource = "heuristic"
)

// FertilizerAdvice is the fertilizer to apply plus optional alternatives and notes.
type FertilizerAdvice struct {
	Fertilizer   string       `json:"fertilizer"`
	Alternatives []string     `json:"alternatives,omitempty"`
	Notes        []string     `json:"notes,omitempty"`
	Source       AdviceSource `json:"source"`
}
