package app

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/scoring"
)

// remoteAnswer covers both shapes a remote scorer may return: a full
// ranking, or just the name of the crop to plant.
type remoteAnswer struct {
	Ranking []entities.ScoredCrop `json:"ranking"`
	Crop    string                `json:"crop"`
}

type fallbackError struct {
	reason string
	err    error
}

func (e *fallbackError) Error() string {
	if e.err == nil {
		return e.reason
	}
	return e.reason + ": " + e.err.Error()
}

func (e *fallbackError) Unwrap() error { return e.err }

// recommendCrop asks the remote scorer when one is configured and falls back
// to the local ranking on any problem. It never fails.
func (a *Advisor) recommendCrop(ctx context.Context, fv entities.FeatureVector) entities.Recommendation {
	ranked := a.crops.Rank(fv)
	local := scoring.Recommend(ranked)
	if !a.scorer.Enabled() {
		return local
	}

	rec, err := a.remoteRecommendation(ctx, fv, ranked)
	if err != nil {
		var fe *fallbackError
		reason := "error"
		if errors.As(err, &fe) {
			reason = fe.reason
		}
		remoteFallbacksTotal.WithLabelValues(a.scorer.Name(), reason).Inc()
		logging.Warn().Err(err).Str("upstream", a.scorer.Name()).Str("reason", reason).Msg("remote scorer failed, using local ranking")
		return local
	}
	return rec
}

func (a *Advisor) remoteRecommendation(ctx context.Context, fv entities.FeatureVector, ranked []entities.ScoredCrop) (entities.Recommendation, error) {
	var ans remoteAnswer
	if err := a.scorer.PostJSON(ctx, fv, &ans); err != nil {
		return entities.Recommendation{}, &fallbackError{reason: classify(err), err: err}
	}

	if len(ans.Ranking) > 0 {
		known := make([]entities.ScoredCrop, 0, len(ans.Ranking))
		for _, sc := range ans.Ranking {
			if p, ok := a.crops.Lookup(sc.Crop); ok {
				known = append(known, entities.ScoredCrop{Crop: p.Name, Score: sc.Score})
			}
		}
		if len(known) == 0 {
			return entities.Recommendation{}, &fallbackError{reason: "unknown_crop"}
		}
		sort.SliceStable(known, func(i, j int) bool { return known[i].Score > known[j].Score })
		rec := scoring.Recommend(known)
		rec.Source = entities.SourceRemote
		return rec, nil
	}

	crop := strings.TrimSpace(ans.Crop)
	if crop == "" {
		return entities.Recommendation{}, &fallbackError{reason: "empty"}
	}
	rec, ok := scoring.Promote(ranked, crop)
	if !ok {
		return entities.Recommendation{}, &fallbackError{reason: "unknown_crop", err: errors.New(crop)}
	}
	rec.Source = entities.SourceRemote
	return rec, nil
}

func classify(err error) string {
	var ne net.Error
	switch {
	case isRejected(err):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// remoteAssistant adapts an Upstream to chat.Asker.
type remoteAssistant struct {
	up *Upstream
}

type assistantRequest struct {
	Message string `json:"message"`
}

type assistantResponse struct {
	Reply string `json:"reply"`
}

func (r remoteAssistant) Ask(ctx context.Context, question string) (string, error) {
	var out assistantResponse
	if err := r.up.PostJSON(ctx, assistantRequest{Message: question}, &out); err != nil {
		remoteFallbacksTotal.WithLabelValues(r.up.Name(), classify(err)).Inc()
		return "", err
	}
	return out.Reply, nil
}
