package entities

// CropProfile is a crop together with its ideal growing conditions.
type CropProfile struct {
	Name  string        `json:"name" yaml:"name"`
	Ideal FeatureVector `json:"ideal" yaml:"ideal"`
}

// ScoredCrop is a crop ranked against a query. Score is 1 for a perfect
// match and may go below 0 for far away queries.
type ScoredCrop struct {
	Crop  string  `json:"crop"`
	Score float64 `json:"score"`
}

// RecommendationSource tells where a ranking came from.
type RecommendationSource string

const (
	SourceLocal  RecommendationSource = "local"
	SourceRemote RecommendationSource = "remote"
)

// Recommendation is the primary crop plus up to two alternatives.
type Recommendation struct {
	Primary      *ScoredCrop          `json:"primary"`
	Alternatives []ScoredCrop         `json:"alternatives"`
	Source       RecommendationSource `json:"source"`
}
