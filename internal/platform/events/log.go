package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPublishTimeout bounds how long a BestEffort publish may hold up the
// request that triggered it.
const DefaultPublishTimeout = 2 * time.Second

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.logger.Info().
		Str("event_id", evt.ID).
		Str("event_type", evt.Type).
		Str("subject", evt.Subject).
		Str("actor_id", evt.ActorID).
		Time("occurred_at", evt.OccurredAt).
		Msg("domain event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// BestEffort wraps a Publisher so that delivery failures are logged and
// never returned. Each publish runs detached from the caller's cancellation
// and is cut off after the configured timeout. Domain services publish
// through it.
type BestEffort struct {
	next    Publisher
	logger  zerolog.Logger
	timeout time.Duration
}

func NewBestEffort(next Publisher, logger zerolog.Logger) *BestEffort {
	if next == nil {
		next = Noop{}
	}
	return &BestEffort{next: next, logger: logger, timeout: DefaultPublishTimeout}
}

// WithTimeout sets the per-publish deadline. Non-positive values keep the
// current one.
func (b *BestEffort) WithTimeout(d time.Duration) *BestEffort {
	if d > 0 {
		b.timeout = d
	}
	return b
}

func (b *BestEffort) Publish(ctx context.Context, evt Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()
	if err := b.next.Publish(ctx, evt); err != nil {
		b.logger.Warn().Err(err).
			Str("event_type", evt.Type).
			Str("subject", evt.Subject).
			Msg("failed to publish event")
	}
	return nil
}

func (b *BestEffort) Close() error { return b.next.Close() }
