package climate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "45.500000", r.URL.Query().Get("lat"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily":[
			{"dt":1,"temp":{"min":18,"max":30},"humidity":70,"rain":4.5},
			{"dt":2,"temp":{"min":17,"max":28},"humidity":65},
			{"dt":3,"temp":{"min":16,"max":27},"humidity":60,"rain":1.5}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, time.Second)
	got, err := c.Lookup(context.Background(), 45.5, 9.2)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, got.Temperature, 1e-9)
	assert.InDelta(t, 70.0, got.Humidity, 1e-9)
	assert.InDelta(t, 6.0, got.Rainfall, 1e-9)
	assert.Equal(t, 3, got.Days)
	assert.Greater(t, got.ET0, 0.0)
}

func TestLookup_MissingKey(t *testing.T) {
	c := NewClient("", "", 0)
	assert.False(t, c.Enabled())
	_, err := c.Lookup(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLookup_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL, time.Second).Lookup(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestLookup_NoDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL, time.Second).Lookup(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoDailyData)
}

func TestEtoHargreaves_NoNegativeRange(t *testing.T) {
	assert.Equal(t, 0.0, etoHargreaves(30, 20, 0.408))
}
