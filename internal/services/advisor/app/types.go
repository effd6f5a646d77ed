package app

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/chat"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

// Number accepts a JSON number or a numeric string, as sent by HTML forms.
// Anything else decodes to NaN so validation reports the field instead of
// the whole body failing to decode.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			*n = Number(math.NaN())
			return nil
		}
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		f = math.NaN()
	}
	*n = Number(f)
	return nil
}

func (n *Number) value() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

// ---------- requests ----------

type CropRequest struct {
	Nitrogen    *Number `json:"nitrogen" validate:"required,finite"`
	Phosphorus  *Number `json:"phosphorus" validate:"required,finite"`
	Potassium   *Number `json:"potassium" validate:"required,finite"`
	Temperature *Number `json:"temperature" validate:"required,finite"`
	Humidity    *Number `json:"humidity" validate:"required,finite"`
	PH          *Number `json:"ph" validate:"required,finite"`
	Rainfall    *Number `json:"rainfall" validate:"required,finite"`
}

func (r CropRequest) Features() entities.FeatureVector {
	return entities.FeatureVector{
		Nitrogen:    r.Nitrogen.value(),
		Phosphorus:  r.Phosphorus.value(),
		Potassium:   r.Potassium.value(),
		Temperature: r.Temperature.value(),
		Humidity:    r.Humidity.value(),
		PH:          r.PH.value(),
		Rainfall:    r.Rainfall.value(),
	}
}

type FertilizerRequest struct {
	Nitrogen   *Number `json:"nitrogen" validate:"required,finite"`
	Phosphorus *Number `json:"phosphorus" validate:"required,finite"`
	Potassium  *Number `json:"potassium" validate:"required,finite"`
	Moisture   *Number `json:"moisture" validate:"required,finite"`
	SoilType   string  `json:"soil_type" validate:"required,soil_type"`
	CropType   string  `json:"crop_type" validate:"required,crop_type"`
}

func (r *FertilizerRequest) normalize() {
	r.SoilType = strings.ToLower(strings.TrimSpace(r.SoilType))
	r.CropType = strings.ToLower(strings.TrimSpace(r.CropType))
}

func (r FertilizerRequest) Input() entities.FertilizerInput {
	return entities.FertilizerInput{
		Nitrogen:   r.Nitrogen.value(),
		Phosphorus: r.Phosphorus.value(),
		Potassium:  r.Potassium.value(),
		Moisture:   r.Moisture.value(),
		Soil:       entities.SoilType(r.SoilType),
		Crop:       entities.CropType(r.CropType),
	}
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

type FeedbackRequest struct {
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ClimateRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

// ---------- responses ----------

type CropResponse struct {
	entities.Recommendation
	Message             string   `json:"message,omitempty"`
	AlternativeMessages []string `json:"alternative_messages"`
	TableVersion        string   `json:"table_version"`
	RequestID           string   `json:"request_id"`
}

type FertilizerResponse struct {
	entities.FertilizerAdvice
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ChatResponse struct {
	chat.Reply
	RequestID string `json:"request_id"`
}

type CropsResponse struct {
	Version string                 `json:"version"`
	Crops   []entities.CropProfile `json:"crops"`
}

type FertilizerOptions struct {
	SoilTypes []entities.SoilType `json:"soil_types"`
	CropTypes []entities.CropType `json:"crop_types"`
}

type FeedbackResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ReadyResponse struct {
	Status       string `json:"status"`
	TableVersion string `json:"table_version"`
	RemoteScorer string `json:"remote_scorer"`
	Broker       string `json:"broker"`
	Climate      bool   `json:"climate"`
}

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
