package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrRemoteDisabled is returned by an Upstream without base URL.
var ErrRemoteDisabled = errors.New("remote upstream not configured")

// Upstream is an optional remote JSON endpoint behind a circuit breaker.
type Upstream struct {
	name    string
	base    string
	path    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewUpstream(name, base, path string, timeout time.Duration, breaker *gobreaker.CircuitBreaker) *Upstream {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Upstream{
		name:    name,
		base:    base,
		path:    path,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

func (u *Upstream) Enabled() bool { return u != nil && u.base != "" }

func (u *Upstream) Name() string { return u.name }

func (u *Upstream) State() gobreaker.State {
	if u == nil || u.breaker == nil {
		return gobreaker.StateClosed
	}
	return u.breaker.State()
}

// PostJSON sends in as JSON and decodes the 2xx response into out. Every
// failure, including a rejected call while the breaker is open, is returned.
func (u *Upstream) PostJSON(ctx context.Context, in, out any) error {
	if !u.Enabled() {
		return ErrRemoteDisabled
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s encode: %w", u.name, err)
	}
	_, err = u.breaker.Execute(func() (interface{}, error) {
		return nil, u.do(ctx, body, out)
	})
	return err
}

func (u *Upstream) do(ctx context.Context, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.base+u.path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s request: %w", u.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request error: %w", u.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s upstream status %d: %s", u.name, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode error: %w", u.name, err)
	}
	return nil
}
