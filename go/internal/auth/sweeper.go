package auth

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically deletes expired sessions.
type Sweeper struct {
	app      *App
	clock    clockwork.Clock
	interval time.Duration
}

func NewSweeper(app *App, clock clockwork.Clock, interval time.Duration) *Sweeper {
	return &Sweeper{app: app, clock: clock, interval: interval}
}

// Start blocks until ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("session sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session sweeper shutting down")
			return nil
		case <-ticker.Chan():
			n, err := s.app.SweepExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to sweep expired sessions")
				continue
			}
			if n > 0 {
				log.Info().Int64("count", n).Msg("deleted expired sessions")
			}
		}
	}
}
