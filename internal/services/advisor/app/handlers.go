package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/climate"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/guides"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/messages"
)

const maxBody = 64 << 10

func (a *Advisor) HandleCropRecommend(w http.ResponseWriter, r *http.Request) {
	var req CropRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	fv := req.Features()
	rec := a.recommendCrop(r.Context(), fv)
	if !a.pace(r.Context()) {
		return
	}

	id := uuid.NewString()
	resp := CropResponse{
		Recommendation:      rec,
		Message:             primaryMessage(rec),
		AlternativeMessages: alternativeMessages(rec),
		TableVersion:        a.crops.Version(),
		RequestID:           id,
	}
	recommendationsTotal.WithLabelValues(messages.KindCrop, string(rec.Source)).Inc()
	a.publish(messages.KindCrop, messages.PredictionEvent{
		ID: id, Kind: messages.KindCrop, Source: string(rec.Source), Timestamp: time.Now().UTC(),
		Features: &fv, Recommendation: &rec,
	})
	respondJSON(w, http.StatusOK, resp)
}

func (a *Advisor) HandleCrops(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, CropsResponse{Version: a.crops.Version(), Crops: a.crops.Profiles()})
}

func (a *Advisor) HandleFertilizerRecommend(w http.ResponseWriter, r *http.Request) {
	var req FertilizerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.normalize()
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	in := req.Input()
	advice := a.fertilizer.Recommend(in)
	if !a.pace(r.Context()) {
		return
	}

	id := uuid.NewString()
	recommendationsTotal.WithLabelValues(messages.KindFertilizer, string(advice.Source)).Inc()
	a.publish(messages.KindFertilizer, messages.PredictionEvent{
		ID: id, Kind: messages.KindFertilizer, Source: string(advice.Source), Timestamp: time.Now().UTC(),
		Fertilizer: &in, Advice: &advice,
	})
	respondJSON(w, http.StatusOK, FertilizerResponse{
		FertilizerAdvice: advice,
		Message:          fmt.Sprintf("For %s on %s soil we recommend %s.", in.Crop, in.Soil, advice.Fertilizer),
		RequestID:        id,
	})
}

func (a *Advisor) HandleFertilizerOptions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, FertilizerOptions{SoilTypes: entities.SoilTypes, CropTypes: entities.CropTypes})
}

func (a *Advisor) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	reply := a.chat.Reply(r.Context(), req.Message)
	chatAnswersTotal.WithLabelValues(string(reply.Source)).Inc()

	id := uuid.NewString()
	a.publish(messages.KindChat, messages.PredictionEvent{
		ID: id, Kind: messages.KindChat, Source: string(reply.Source), Timestamp: time.Now().UTC(),
		Question: req.Message, Reply: reply.Text,
	})
	respondJSON(w, http.StatusOK, ChatResponse{Reply: reply, RequestID: id})
}

func (a *Advisor) HandleChatGreeting(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"greeting": a.chat.Greeting()})
}

func (a *Advisor) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ev := messages.FeedbackEvent{
		ID:        uuid.NewString(),
		Rating:    *req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		Timestamp: time.Now().UTC(),
	}
	a.publishFeedback(ev)
	respondJSON(w, http.StatusAccepted, FeedbackResponse{ID: ev.ID, Status: "accepted"})
}

func (a *Advisor) HandleGuides(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, a.guides.List())
}

func (a *Advisor) HandleGuide(w http.ResponseWriter, r *http.Request) {
	g, err := a.guides.Get(chi.URLParam(r, "topic"))
	if errors.Is(err, guides.ErrUnknownTopic) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (a *Advisor) HandleClimate(w http.ResponseWriter, r *http.Request) {
	if !a.climate.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "CLIMATE_DISABLED", "climate lookup is not configured")
		return
	}
	req := ClimateRequest{Lat: queryFloat(r, "lat"), Lon: queryFloat(r, "lon")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	c, err := a.climate.Lookup(r.Context(), *req.Lat, *req.Lon)
	if err != nil {
		if errors.Is(err, climate.ErrMissingAPIKey) {
			respondError(w, http.StatusServiceUnavailable, "CLIMATE_DISABLED", err.Error())
			return
		}
		logging.Warn().Err(err).Msg("climate lookup failed")
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "climate lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (a *Advisor) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz is ready as soon as the embedded tables are loaded; remote
// collaborators are reported but never block readiness.
func (a *Advisor) HandleReadyz(w http.ResponseWriter, _ *http.Request) {
	resp := ReadyResponse{
		Status:       "ready",
		TableVersion: a.crops.Version(),
		RemoteScorer: "disabled",
		Broker:       "disabled",
		Climate:      a.climate.Enabled(),
	}
	if a.scorer.Enabled() {
		resp.RemoteScorer = stateName(a.scorer.State())
	}
	if a.publisher != nil {
		resp.Broker = "disconnected"
		if a.publisher.Connected() {
			resp.Broker = "connected"
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// ---------- helpers ----------

func primaryMessage(rec entities.Recommendation) string {
	if rec.Primary == nil {
		return ""
	}
	return fmt.Sprintf("Based on your soil and climate parameters, we recommend planting %s.", rec.Primary.Crop)
}

func alternativeMessages(rec entities.Recommendation) []string {
	out := make([]string, 0, len(rec.Alternatives))
	for _, alt := range rec.Alternatives {
		out = append(out, fmt.Sprintf("%s is also a good option (%s%% match).", alt.Crop, percent(alt.Score)))
	}
	return out
}

// percent rounds a score to a whole percentage. Negative scores stay negative.
func percent(score float64) string {
	return strconv.FormatFloat(math.Round(score*100), 'f', 0, 64)
}

// pace holds the answer for ResultDelay. It reports false when the client
// went away in the meantime.
func (a *Advisor) pace(ctx context.Context) bool {
	if a.cfg.ResultDelay <= 0 {
		return true
	}
	t := time.NewTimer(a.cfg.ResultDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Advisor) publish(kind string, ev messages.PredictionEvent) {
	a.publishTo(kind, messages.PredictionTopic(kind), ev)
}

func (a *Advisor) publishFeedback(ev messages.FeedbackEvent) {
	a.publishTo("feedback", messages.FeedbackTopic, ev)
}

func (a *Advisor) publishTo(kind, topic string, v any) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishJSON(topic, 1, v); err != nil {
		eventsPublishedTotal.WithLabelValues(kind, "error").Inc()
		logging.Warn().Err(err).Str("topic", topic).Msg("event publish failed")
		return
	}
	eventsPublishedTotal.WithLabelValues(kind, "ok").Inc()
}

func queryFloat(r *http.Request, key string) *float64 {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		nan := math.NaN()
		return &nan
	}
	return &f
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be a JSON object")
		return false
	}
	return true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if apiErr := validateRequest(v); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondAPIError(w, status, &APIError{Code: code, Message: message})
}

func respondAPIError(w http.ResponseWriter, status int, e *APIError) {
	respondJSON(w, status, ErrorResponse{Error: *e})
}
