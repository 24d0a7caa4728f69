package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"partspricing/internal/errs"
)

// session is the scoped network client for one driver call. It is acquired
// on entry and released on every exit path; the rate limiter it borrows
// lives on the driver so the politeness floor spans sessions.
type session struct {
	client  *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

func newSession(limiter *rate.Limiter, timeout time.Duration, headers map[string]string) *session {
	return &session{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		headers: headers,
	}
}

func (s *session) close() {
	s.client.CloseIdleConnections()
}

// getJSON performs one rate-limited GET and decodes the JSON body into out.
func (s *session) getJSON(ctx context.Context, url string, out any) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return errs.Wrap(err, "wait for rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(err, "build request")
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errs.Wrapf(err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrapf(err, "decode response from %s", url)
	}
	return nil
}

func defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "partspricing/1.0 (+price aggregation; contact: ops)",
		"Accept":          "application/json",
		"Accept-Language": "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
	}
}
