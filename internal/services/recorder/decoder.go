// Package recorder stores the advisor's prediction and feedback events in
// InfluxDB and serves the most recent crop predictions back over HTTP.
package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/eco_crop_advisor/pkg/dedup"
)

const (
	MeasurementCrop       = "crop_prediction"
	MeasurementFertilizer = "fertilizer_prediction"
	MeasurementChat       = "chat_answer"
	MeasurementFeedback   = "feedback"
)

var errIgnoredTopic = errors.New("topic not recorded")

// Record is an event flattened for storage.
type Record struct {
	Measurement string
	ID          string
	Source      string
	Tags        map[string]string
	Fields      map[string]interface{}
	Timestamp   time.Time

	// Prediction is set for crop predictions only, for the recent cache.
	Prediction *Prediction
}

// Prediction is one served crop recommendation as returned by /predictions/recent.
type Prediction struct {
	ID           string   `json:"id"`
	Crop         string   `json:"crop"`
	Score        float64  `json:"score"`
	Alternatives []string `json:"alternatives"`
	Source       string   `json:"source"`
	Time         string   `json:"time"` // RFC3339
}

// Decode turns a topic and payload into a Record.
func Decode(topic string, payload []byte) (Record, error) {
	switch {
	case strings.HasPrefix(topic, messages.PredictionTopicPrefix):
		var ev messages.PredictionEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Record{}, fmt.Errorf("decode %s: %w", topic, err)
		}
		if ev.Kind == "" {
			ev.Kind = messages.KindFromTopic(topic)
		}
		return decodePrediction(ev)
	case strings.HasPrefix(topic, "advisor/feedback/"):
		var ev messages.FeedbackEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Record{}, fmt.Errorf("decode %s: %w", topic, err)
		}
		return decodeFeedback(ev)
	default:
		return Record{}, errIgnoredTopic
	}
}

func decodePrediction(ev messages.PredictionEvent) (Record, error) {
	rec := Record{
		ID:        ev.ID,
		Source:    ev.Source,
		Tags:      map[string]string{"source": ev.Source},
		Fields:    map[string]interface{}{"event_id": ev.ID},
		Timestamp: timestampOrNow(ev.Timestamp),
	}
	switch ev.Kind {
	case messages.KindCrop:
		if ev.Recommendation == nil || ev.Recommendation.Primary == nil {
			return Record{}, errors.New("crop prediction without primary")
		}
		r := ev.Recommendation
		rec.Measurement = MeasurementCrop
		rec.Tags["crop"] = r.Primary.Crop
		rec.Fields["score"] = r.Primary.Score

		alts := make([]string, 0, len(r.Alternatives))
		for _, a := range r.Alternatives {
			alts = append(alts, a.Crop)
		}
		rec.Fields["alternatives"] = strings.Join(alts, ",")
		if f := ev.Features; f != nil {
			rec.Fields["nitrogen"] = f.Nitrogen
			rec.Fields["phosphorus"] = f.Phosphorus
			rec.Fields["potassium"] = f.Potassium
			rec.Fields["temperature"] = f.Temperature
			rec.Fields["humidity"] = f.Humidity
			rec.Fields["ph"] = f.PH
			rec.Fields["rainfall"] = f.Rainfall
		}
		rec.Prediction = &Prediction{
			ID:           ev.ID,
			Crop:         r.Primary.Crop,
			Score:        r.Primary.Score,
			Alternatives: alts,
			Source:       ev.Source,
			Time:         rec.Timestamp.UTC().Format(time.RFC3339),
		}
	case messages.KindFertilizer:
		if ev.Fertilizer == nil || ev.Advice == nil {
			return Record{}, errors.New("fertilizer prediction without input or advice")
		}
		rec.Measurement = MeasurementFertilizer
		rec.Tags["soil_type"] = string(ev.Fertilizer.Soil)
		rec.Tags["crop_type"] = string(ev.Fertilizer.Crop)
		rec.Fields["fertilizer"] = ev.Advice.Fertilizer
		rec.Fields["nitrogen"] = ev.Fertilizer.Nitrogen
		rec.Fields["phosphorus"] = ev.Fertilizer.Phosphorus
		rec.Fields["potassium"] = ev.Fertilizer.Potassium
		rec.Fields["moisture"] = ev.Fertilizer.Moisture
	case messages.KindChat:
		rec.Measurement = MeasurementChat
		rec.Fields["question"] = ev.Question
		rec.Fields["reply_chars"] = int64(len(ev.Reply))
	default:
		return Record{}, fmt.Errorf("unknown prediction kind %q", ev.Kind)
	}
	return rec, nil
}

func decodeFeedback(ev messages.FeedbackEvent) (Record, error) {
	if ev.Rating < 1 || ev.Rating > 5 {
		return Record{}, fmt.Errorf("feedback rating %d out of range", ev.Rating)
	}
	return Record{
		Measurement: MeasurementFeedback,
		ID:          ev.ID,
		Tags:        map[string]string{},
		Fields: map[string]interface{}{
			"event_id": ev.ID,
			"rating":   int64(ev.Rating),
			"comment":  ev.Comment,
		},
		Timestamp: timestampOrNow(ev.Timestamp),
	}, nil
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// MQTTHandler decodes, de-duplicates and forwards events to sink.
type MQTTHandler struct {
	dedup *dedup.Deduper
	sink  func(Record)
}

func NewMQTTHandler(d *dedup.Deduper, sink func(Record)) *MQTTHandler {
	return &MQTTHandler{dedup: d, sink: sink}
}

func (h *MQTTHandler) Handle(topic string, m mqtt.Message) error {
	payload := m.Payload()
	rec, err := Decode(topic, payload)
	if errors.Is(err, errIgnoredTopic) {
		return nil
	}
	if err != nil {
		decodeErrorsTotal.Inc()
		return err
	}
	if h.dedup != nil && !h.dedup.ShouldProcess(dedup.Key(rec.ID, payload)) {
		dedupDropsTotal.Inc()
		return nil
	}
	if h.sink != nil {
		h.sink(rec)
	}
	return nil
}
