// Package climate pre-fills temperature, humidity and rainfall from the
// OpenWeather One Call daily forecast for a location.
package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

var (
	ErrMissingAPIKey = errors.New("climate: missing api key")
	ErrNoDailyData   = errors.New("climate: no daily data")
)

type owmDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Humidity float64 `json:"humidity"`
	Rain     float64 `json:"rain"`
}

type owmResp struct {
	Daily []owmDaily `json:"daily"`
}

// Climate is what the form autofill needs. ET0 is a Hargreaves estimate
// for the first forecast day, in mm/day.
type Climate struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	ET0         float64 `json:"et0"`
	Days        int     `json:"days"`
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

func (c *Client) Lookup(ctx context.Context, lat, lon float64) (Climate, error) {
	if !c.Enabled() {
		return Climate{}, ErrMissingAPIKey
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Climate{}, fmt.Errorf("climate: base url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("exclude", "current,minutely,hourly,alerts")
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Climate{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Climate{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Climate{}, fmt.Errorf("owm status %d: %s", resp.StatusCode, string(b))
	}
	var out owmResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Climate{}, err
	}
	return summarize(out.Daily)
}

func summarize(daily []owmDaily) (Climate, error) {
	if len(daily) == 0 {
		return Climate{}, ErrNoDailyData
	}
	first := daily[0]
	c := Climate{
		Temperature: (first.Temp.Min + first.Temp.Max) / 2.0,
		Humidity:    first.Humidity,
		ET0:         etoHargreaves(first.Temp.Min, first.Temp.Max, 0.408),
		Days:        len(daily),
	}
	for _, d := range daily {
		c.Rainfall += d.Rain
	}
	return c, nil
}

// simplified Hargreaves with a constant Ra
func etoHargreaves(tmin, tmax, ra float64) float64 {
	tmean := (tmin + tmax) / 2.0
	return 0.0023 * (tmean + 17.8) * math.Sqrt(math.Max(tmax-tmin, 0)) * ra
}
