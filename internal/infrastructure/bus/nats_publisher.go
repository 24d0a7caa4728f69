package bus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"partspricing/internal/errs"
	"partspricing/internal/ports"
)

// SubjectRefreshCompleted is the subject refresh-cycle events are published
// on.
const SubjectRefreshCompleted = "parts.pricing.refresh.completed"

// NATSPublisher announces refresh completions over NATS so downstream
// consumers (notifiers, analytics) can react without polling.
type NATSPublisher struct {
	conn *nats.Conn
}

var _ ports.RefreshPublisher = (*NATSPublisher)(nil)

func Connect(url string, appName string) (*NATSPublisher, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(url,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}

	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) PublishRefreshCompleted(ctx context.Context, event ports.RefreshCompleted) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal refresh event")
	}

	if err := p.conn.Publish(SubjectRefreshCompleted, payload); err != nil {
		return errs.Wrap(err, "publish refresh event")
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain() //nolint:errcheck
	}
}

// NoopPublisher stands in when no broker is configured.
type NoopPublisher struct{}

var _ ports.RefreshPublisher = NoopPublisher{}

func NewNoopPublisher() NoopPublisher { return NoopPublisher{} }

func (NoopPublisher) PublishRefreshCompleted(ctx context.Context, event ports.RefreshCompleted) error {
	return nil
}
