package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

// RecentQuerier reads recent crop predictions from the store.
type RecentQuerier interface {
	RecentPredictions(ctx context.Context, minutes, limit int) ([]Prediction, error)
}

type InfluxQuerier struct {
	api    api.QueryAPI
	bucket string
}

func NewInfluxQuerier(q api.QueryAPI, bucket string) *InfluxQuerier {
	return &InfluxQuerier{api: q, bucket: bucket}
}

func buildFlux(bucket string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r._field == "score" or r._field == "event_id" or r._field == "alternatives")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: %d)
`, bucket, minutes, MeasurementCrop, limit)
}

func (q *InfluxQuerier) RecentPredictions(ctx context.Context, minutes, limit int) ([]Prediction, error) {
	res, err := q.api.Query(ctx, buildFlux(q.bucket, minutes, limit))
	if err != nil {
		return nil, err
	}
	defer res.Close()

	out := make([]Prediction, 0, limit)
	for res.Next() {
		rec := res.Record()
		p := Prediction{
			ID:           str(rec.ValueByKey("event_id")),
			Crop:         str(rec.ValueByKey("crop")),
			Score:        num(rec.ValueByKey("score")),
			Source:       str(rec.ValueByKey("source")),
			Alternatives: []string{},
			Time:         rec.Time().UTC().Format(time.RFC3339),
		}
		if alts := str(rec.ValueByKey("alternatives")); alts != "" {
			p.Alternatives = strings.Split(alts, ",")
		}
		out = append(out, p)
	}
	return out, res.Err()
}

func str(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func num(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	}
	return 0
}

type recentParams struct {
	Source  string
	Minutes int
	Limit   int
}

func parseRecent(r *http.Request) recentParams {
	q := r.URL.Query()
	get := func(k string, def, lo, hi int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return min(max(n, lo), hi)
			}
		}
		return def
	}
	source := strings.ToLower(strings.TrimSpace(q.Get("source")))
	if source != "influx" && source != "cache" {
		source = "auto"
	}
	return recentParams{
		Source:  source,
		Minutes: get("minutes", 24*60, 1, 7*24*60),
		Limit:   get("limit", 20, 1, 500),
	}
}

// NewRecentHandler serves GET /predictions/recent?source=auto|influx|cache&minutes=&limit=.
// auto tries the store first and falls back to the cache; X-Data-Source says which.
func NewRecentHandler(store RecentQuerier, cache *Cache, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := parseRecent(r)

		var (
			list []Prediction
			used string
		)
		if store != nil && p.Source != "cache" {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			res, err := store.RecentPredictions(ctx, p.Minutes, p.Limit)
			cancel()
			switch {
			case err != nil:
				logging.Warn().Err(err).Msg("recorder: influx query failed")
				w.Header().Set("X-Error", "influx-query-error")
			case len(res) > 0 || p.Source == "influx":
				list, used = res, "influx"
			}
		}
		if used == "" {
			list = cache.Recent(time.Now().Add(-time.Duration(p.Minutes)*time.Minute), p.Limit)
			used = "cache"
		}
		if list == nil {
			list = []Prediction{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Data-Source", used)
		_ = json.NewEncoder(w).Encode(list)
	})
}
