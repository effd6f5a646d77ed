package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/eco_crop_advisor/pkg/dedup"
)

type fakeMsg struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMsg) Topic() string   { return m.topic }
func (m fakeMsg) Payload() []byte { return m.payload }

var at = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func cropEvent(t *testing.T, id string) []byte {
	t.Helper()
	b, err := json.Marshal(messages.PredictionEvent{
		ID: id, Kind: messages.KindCrop, Source: "local", Timestamp: at,
		Features: &entities.FeatureVector{Nitrogen: 60, PH: 6.5},
		Recommendation: &entities.Recommendation{
			Primary:      &entities.ScoredCrop{Crop: "rice", Score: 1},
			Alternatives: []entities.ScoredCrop{{Crop: "maize", Score: 0.8}, {Crop: "coffee", Score: 0.7}},
			Source:       entities.SourceLocal,
		},
	})
	require.NoError(t, err)
	return b
}

func TestDecode_Crop(t *testing.T) {
	rec, err := Decode("advisor/prediction/crop", cropEvent(t, "e1"))
	require.NoError(t, err)
	assert.Equal(t, MeasurementCrop, rec.Measurement)
	assert.Equal(t, "rice", rec.Tags["crop"])
	assert.Equal(t, "local", rec.Tags["source"])
	assert.Equal(t, 1.0, rec.Fields["score"])
	assert.Equal(t, "maize,coffee", rec.Fields["alternatives"])
	assert.Equal(t, 6.5, rec.Fields["ph"])
	require.NotNil(t, rec.Prediction)
	assert.Equal(t, Prediction{
		ID: "e1", Crop: "rice", Score: 1, Alternatives: []string{"maize", "coffee"},
		Source: "local", Time: "2024-06-01T10:00:00Z",
	}, *rec.Prediction)
}

func TestDecode_FertilizerChatFeedback(t *testing.T) {
	fert, _ := json.Marshal(messages.PredictionEvent{
		ID: "f1", Kind: messages.KindFertilizer, Source: "table", Timestamp: at,
		Fertilizer: &entities.FertilizerInput{Nitrogen: 40, Soil: entities.SoilClay, Crop: entities.CropRice},
		Advice:     &entities.FertilizerAdvice{Fertilizer: "Urea", Source: entities.AdviceFromTable},
	})
	rec, err := Decode("advisor/prediction/fertilizer", fert)
	require.NoError(t, err)
	assert.Equal(t, MeasurementFertilizer, rec.Measurement)
	assert.Equal(t, "clay", rec.Tags["soil_type"])
	assert.Equal(t, "Urea", rec.Fields["fertilizer"])
	assert.Nil(t, rec.Prediction)

	chat, _ := json.Marshal(messages.PredictionEvent{ID: "c1", Source: "fallback", Question: "hi", Reply: "hello"})
	rec, err = Decode("advisor/prediction/chat", chat)
	require.NoError(t, err, "kind falls back to the topic")
	assert.Equal(t, MeasurementChat, rec.Measurement)
	assert.Equal(t, int64(5), rec.Fields["reply_chars"])

	fb, _ := json.Marshal(messages.FeedbackEvent{ID: "b1", Rating: 4, Comment: "nice", Timestamp: at})
	rec, err = Decode("advisor/feedback/new", fb)
	require.NoError(t, err)
	assert.Equal(t, MeasurementFeedback, rec.Measurement)
	assert.Equal(t, int64(4), rec.Fields["rating"])
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("advisor/prediction/crop", []byte(`{`))
	assert.Error(t, err)

	_, err = Decode("advisor/prediction/crop", []byte(`{"id":"x","kind":"crop"}`))
	assert.ErrorContains(t, err, "without primary")

	_, err = Decode("advisor/prediction/weather", []byte(`{"id":"x"}`))
	assert.ErrorContains(t, err, "unknown prediction kind")

	_, err = Decode("advisor/feedback/new", []byte(`{"id":"x","rating":9}`))
	assert.Error(t, err)

	_, err = Decode("something/else", []byte(`{}`))
	assert.ErrorIs(t, err, errIgnoredTopic)
}

func TestMQTTHandler_DropsRedeliveries(t *testing.T) {
	var got []Record
	h := NewMQTTHandler(dedup.New(time.Minute, 100), func(r Record) { got = append(got, r) })

	drops, decodeErrs := testutil.ToFloat64(dedupDropsTotal), testutil.ToFloat64(decodeErrorsTotal)
	payload := cropEvent(t, "same-id")
	msg := fakeMsg{topic: "advisor/prediction/crop", payload: payload}
	require.NoError(t, h.Handle(msg.topic, msg))
	require.NoError(t, h.Handle(msg.topic, msg))
	require.NoError(t, h.Handle("other/topic", fakeMsg{topic: "other/topic", payload: []byte("x")}))
	assert.Error(t, h.Handle(msg.topic, fakeMsg{topic: msg.topic, payload: []byte("{")}))

	assert.Len(t, got, 1)
	assert.Equal(t, drops+1, testutil.ToFloat64(dedupDropsTotal))
	assert.Equal(t, decodeErrs+1, testutil.ToFloat64(decodeErrorsTotal))
}

func TestRecordToPoint(t *testing.T) {
	rec, err := Decode("advisor/prediction/crop", cropEvent(t, "e1"))
	require.NoError(t, err)
	p := RecordToPoint(rec)

	assert.Equal(t, MeasurementCrop, p.Name())
	assert.Equal(t, at, p.Time())
	tags := map[string]string{}
	for _, tg := range p.TagList() {
		tags[tg.Key] = tg.Value
	}
	assert.Equal(t, map[string]string{"crop": "rice", "source": "local"}, tags)
	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(1), fields["count"])
	assert.Equal(t, "e1", fields["event_id"])
}

type fakeWriteAPI struct {
	mu     sync.Mutex
	points []*write.Point
	errs   chan error
}

func (f *fakeWriteAPI) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
}

func (f *fakeWriteAPI) Errors() <-chan error { return f.errs }

func TestWriter(t *testing.T) {
	api := &fakeWriteAPI{errs: make(chan error)}
	w := NewWriter(api)
	defer close(api.errs)

	assert.Greater(t, w.LastErrorAge(), time.Hour)
	rec, _ := Decode("advisor/prediction/crop", cropEvent(t, "e1"))
	w.Write(rec)
	assert.Equal(t, int64(1), w.Count(MeasurementCrop))
	assert.Len(t, api.points, 1)

	api.errs <- errors.New("influx down")
	assert.Eventually(t, func() bool { return w.LastErrorAge() < time.Minute }, time.Second, 5*time.Millisecond)
}

func TestCache_RecentNewestFirst(t *testing.T) {
	c := NewCache(3)
	for i, crop := range []string{"rice", "maize", "wheat", "coffee"} {
		c.Add(at.Add(time.Duration(i)*time.Minute), Prediction{Crop: crop})
	}
	crops := func(ps []Prediction) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Crop)
		}
		return out
	}
	assert.Equal(t, []string{"coffee", "wheat", "maize"}, crops(c.Recent(at.Add(-time.Hour), 10)))
	assert.Equal(t, []string{"coffee"}, crops(c.Recent(at.Add(-time.Hour), 1)))
	assert.Equal(t, []string{"coffee", "wheat"}, crops(c.Recent(at.Add(2*time.Minute), 10)))
	assert.Empty(t, NewCache(2).Recent(at, 10))
}

type fakeQuerier struct {
	list []Prediction
	err  error
	args [2]int
}

func (f *fakeQuerier) RecentPredictions(_ context.Context, minutes, limit int) ([]Prediction, error) {
	f.args = [2]int{minutes, limit}
	return f.list, f.err
}

func getRecent(t *testing.T, h http.Handler, query string) (*httptest.ResponseRecorder, []Prediction) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions/recent"+query, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out []Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestRecentHandler(t *testing.T) {
	cache := NewCache(10)
	cache.Add(time.Now(), Prediction{ID: "cached", Crop: "maize"})

	store := &fakeQuerier{list: []Prediction{{ID: "stored", Crop: "rice"}}}
	h := NewRecentHandler(store, cache, time.Second)

	rec, out := getRecent(t, h, "?limit=5&minutes=60")
	assert.Equal(t, "influx", rec.Header().Get("X-Data-Source"))
	assert.Equal(t, "stored", out[0].ID)
	assert.Equal(t, [2]int{60, 5}, store.args)

	rec, out = getRecent(t, h, "?source=cache")
	assert.Equal(t, "cache", rec.Header().Get("X-Data-Source"))
	assert.Equal(t, "cached", out[0].ID)

	store.err = errors.New("influx down")
	rec, out = getRecent(t, h, "")
	assert.Equal(t, "cache", rec.Header().Get("X-Data-Source"))
	assert.Equal(t, "influx-query-error", rec.Header().Get("X-Error"))
	assert.Len(t, out, 1)

	store.err, store.list = nil, nil
	rec, out = getRecent(t, h, "?source=influx")
	assert.Equal(t, "influx", rec.Header().Get("X-Data-Source"))
	assert.Empty(t, out)

	rec, _ = getRecent(t, h, "?source=auto")
	assert.Equal(t, "cache", rec.Header().Get("X-Data-Source"), "empty store answer falls back to cache")
}

func TestParseRecent_Clamps(t *testing.T) {
	p := parseRecent(httptest.NewRequest(http.MethodGet, "/?limit=9999&minutes=0&source=bogus", nil))
	assert.Equal(t, recentParams{Source: "auto", Minutes: 1, Limit: 500}, p)
}

func TestBuildFlux(t *testing.T) {
	q := buildFlux("advisor", 30, 5)
	assert.Contains(t, q, `from(bucket: "advisor")`)
	assert.Contains(t, q, "range(start: -30m)")
	assert.Contains(t, q, `r._measurement == "crop_prediction"`)
	assert.Contains(t, q, "limit(n: 5)")
}

type conn bool

func (c conn) IsConnectionOpen() bool { return bool(c) }

func TestHealthAndReady(t *testing.T) {
	api := &fakeWriteAPI{errs: make(chan error)}
	defer close(api.errs)
	w := NewWriter(api)

	serve := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec
	}

	rec := serve(NewHealthHandler(conn(true), true, w))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, http.StatusOK, serve(NewReadyHandler(conn(true), true, w, time.Second)).Code)

	rec = serve(NewHealthHandler(conn(false), true, w))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Equal(t, http.StatusServiceUnavailable, serve(NewReadyHandler(conn(false), true, w, time.Second)).Code)

	rec = serve(NewHealthHandler(nil, false, w))
	assert.Contains(t, rec.Body.String(), `"status":"down"`)
}
