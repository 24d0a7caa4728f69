package sources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSearchLimit bounds search results per source when the caller does
// not specify one.
const DefaultSearchLimit = 10

// client carries the behavior shared by all drivers: the politeness
// limiter, timeouts and scoped session handling.
type client struct {
	name    string
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	headers map[string]string
}

func newClient(name string, profile DriverProfile) client {
	return client{
		name:    name,
		baseURL: profile.BaseURL,
		timeout: profile.Timeout(),
		limiter: rate.NewLimiter(rate.Every(profile.RequestDelay()), 1),
		headers: defaultHeaders(),
	}
}

// withSession scopes a network session to one driver call. The session is
// released on every exit path, including errors and cancellation.
func (c *client) withSession(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	s := newSession(c.limiter, c.timeout, c.headers)
	defer s.close()
	return fn(ctx, s)
}
