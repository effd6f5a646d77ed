package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	topic string
	qos   byte
	body  []byte
}

type fakePublisher struct {
	mu        sync.Mutex
	fail      bool
	connected bool
	sent      []sentEvent
}

func (f *fakePublisher) PublishJSON(topic string, qos byte, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.sent = append(f.sent, sentEvent{topic: topic, qos: qos, body: b})
	return nil
}

func (f *fakePublisher) Connected() bool { return f.connected }

func (f *fakePublisher) events() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.sent...)
}

func newTestServer(t *testing.T, cfg Config, pub Publisher) (*Advisor, http.Handler) {
	t.Helper()
	a := NewAdvisor(cfg, pub, nil)
	return a, a.Router(RouterConfig{})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var riceForm = map[string]any{
	"nitrogen": 60, "phosphorus": "40", "potassium": 40, "temperature": "23",
	"humidity": 80, "ph": "6.5", "rainfall": 200,
}
