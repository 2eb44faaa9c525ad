package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

// Store is what the relay needs from the outbox table.
type Store interface {
	FetchByID(ctx context.Context, id uuid.UUID) (*Record, error)
	FetchUnsent(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type RelayConfig struct {
	MaxRetries int
	RetryDelay time.Duration // Grows linearly with each attempt
	BatchSize  int           // Max events to fetch per fallback poll
	Retention  time.Duration // How long sent rows are kept; 0 keeps them forever
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		MaxRetries: 5,
		RetryDelay: 200 * time.Millisecond,
		BatchSize:  100,
		Retention:  24 * time.Hour,
	}
}

// Relay moves committed outbox rows onto the realtime feed. A row is marked
// sent only after a successful publish, so delivery is at least once.
type Relay struct {
	store     Store
	publisher realtime.Publisher
	clock     clockwork.Clock
	cfg       RelayConfig
}

func NewRelay(store Store, publisher realtime.Publisher, clock clockwork.Clock, cfg RelayConfig) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
	}
}

// HandleNotification relays the row named by a NOTIFY payload.
func (r *Relay) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	rec, err := r.store.FetchByID(ctx, id)
	if errors.Is(err, ErrAlreadySent) {
		log.Debug().Str("event_id", id.String()).Msg("outbox event already relayed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	if err := r.relay(ctx, *rec); err != nil {
		return err
	}
	log.Info().
		Str("event_id", id.String()).
		Str("match_id", rec.MatchID).
		Int64("version", rec.Version).
		Msg("published and marked event as sent")
	return nil
}

// ProcessUnsent relays one batch of rows that no notification delivered. It
// returns the number relayed; a failing row is logged and left for the next poll.
func (r *Relay) ProcessUnsent(ctx context.Context) (int, error) {
	unsent, err := r.store.FetchUnsent(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	sent := 0
	for _, rec := range unsent {
		if err := r.relay(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			log.Error().Err(err).Str("event_id", rec.ID.String()).Msg("failed to relay outbox event")
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Info().Int("count", sent).Msg("relayed unsent outbox events")
	}
	return sent, nil
}

// Prune deletes sent rows older than the retention window.
func (r *Relay) Prune(ctx context.Context) error {
	if r.cfg.Retention <= 0 {
		return nil
	}
	n, err := r.store.DeleteSentBefore(ctx, r.clock.Now().Add(-r.cfg.Retention))
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("pruned sent outbox events")
	}
	return nil
}

func (r *Relay) relay(ctx context.Context, rec Record) error {
	ev, err := rec.Event()
	if err != nil {
		return err
	}
	if err := r.publishWithRetry(ctx, ev); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := r.store.MarkSent(ctx, rec.ID, r.clock.Now()); err != nil {
		return err
	}
	return nil
}

// publishWithRetry attempts to publish an event with a linearly growing delay.
func (r *Relay) publishWithRetry(ctx context.Context, ev realtime.Event) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(delay):
			}
		}

		if err := r.publisher.Publish(ctx, ev); err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", ev.ID).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", ev.ID).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}
