package messages

import (
	"time"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

// Kinds of prediction published by the advisor, also used as the last topic segment.
const (
	KindCrop       = "crop"
	KindFertilizer = "fertilizer"
	KindChat       = "chat"
)

// PredictionEvent is published by the advisor for every answer it gives.
// Only the block matching Kind is populated.
type PredictionEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	Features       *entities.FeatureVector  `json:"features,omitempty"`
	Recommendation *entities.Recommendation `json:"recommendation,omitempty"`

	Fertilizer *entities.FertilizerInput  `json:"fertilizer_input,omitempty"`
	Advice     *entities.FertilizerAdvice `json:"advice,omitempty"`

	Question string `json:"question,omitempty"`
	Reply    string `json:"reply,omitempty"`
}
