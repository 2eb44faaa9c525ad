package match

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

// Repository defines what the app layer needs from a match store. Every
// successful write also records a change event for the realtime feed.
type Repository interface {
	CreateMatch(ctx context.Context, state models.MatchState, now time.Time) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	// SwapMatch replaces the whole document if the stored version still
	// equals expected, and returns cas.ErrConflict otherwise.
	SwapMatch(ctx context.Context, id string, expected int64, next models.MatchState, eventType models.EventType, now time.Time) (*models.Match, error)
	// PatchMatch applies patch in place without a version precondition.
	PatchMatch(ctx context.Context, id string, patch Patch, now time.Time) (*models.Match, error)
}

// App handles match business logic
type App struct {
	repo       Repository
	subscriber realtime.Subscriber
	clock      clockwork.Clock
	policy     cas.Policy
}

// NewApp creates a new match App
func NewApp(repo Repository, subscriber realtime.Subscriber, clock clockwork.Clock, policy cas.Policy) *App {
	return &App{
		repo:       repo,
		subscriber: subscriber,
		clock:      clock,
		policy:     policy,
	}
}

// CreateMatch validates the names and stores a fresh three-set document
func (a *App) CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.Match, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	m, err := a.repo.CreateMatch(ctx, NewMatchState(req), a.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	log.Info().
		Str("match_id", m.ID).
		Str("team_a", req.TeamNameA).
		Str("team_b", req.TeamNameB).
		Msg("created match")
	return m, nil
}

// GetMatch retrieves a match by ID
func (a *App) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m, err := a.repo.GetMatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// UpdateScore applies a won point or a correction to one set
func (a *App) UpdateScore(ctx context.Context, req UpdateScoreRequest) (*models.Match, error) {
	if err := validateTarget(req.MatchID, req.Set, req.Side); err != nil {
		return nil, err
	}
	if req.Delta != 1 && req.Delta != -1 {
		return nil, ErrInvalidDelta
	}

	return a.mutate(ctx, req.MatchID, req.Set, models.EventTypeScoreUpdated, func(s models.SetState) (models.SetState, error) {
		return ApplyScore(s, req.Side, req.Delta)
	})
}

// SwapPlayers exchanges a side's player names in one set
func (a *App) SwapPlayers(ctx context.Context, req SwapPlayersRequest) (*models.Match, error) {
	if err := validateTarget(req.MatchID, req.Set, req.Side); err != nil {
		return nil, err
	}

	return a.mutate(ctx, req.MatchID, req.Set, models.EventTypePlayersSwapped, func(s models.SetState) (models.SetState, error) {
		return SwapPlayers(s, req.Side)
	})
}

// SetServer gives serve to one position in one set
func (a *App) SetServer(ctx context.Context, req SetServerRequest) (*models.Match, error) {
	if err := validateTarget(req.MatchID, req.Set, req.Side); err != nil {
		return nil, err
	}
	if !req.Slot.Valid() {
		return nil, invalid("slot", "unknown slot %q", req.Slot)
	}

	return a.mutate(ctx, req.MatchID, req.Set, models.EventTypeServerSet, func(s models.SetState) (models.SetState, error) {
		return SetServer(s, req.Side, req.Slot)
	})
}

// UpdateTeamName renames one side in one set
func (a *App) UpdateTeamName(ctx context.Context, req UpdateTeamNameRequest) (*models.Match, error) {
	if err := validateTarget(req.MatchID, req.Set, req.Side); err != nil {
		return nil, err
	}
	name, err := normalizeName("name", req.Name)
	if err != nil {
		return nil, err
	}

	return a.patch(ctx, req.MatchID, TeamNamePatch{Set: req.Set, Side: req.Side, Name: name})
}

// UpdatePlayerNames renames both players of one side in one set
func (a *App) UpdatePlayerNames(ctx context.Context, req UpdatePlayerNamesRequest) (*models.Match, error) {
	if err := validateTarget(req.MatchID, req.Set, req.Side); err != nil {
		return nil, err
	}
	first, err := normalizeName("first", req.First)
	if err != nil {
		return nil, err
	}
	second, err := normalizeName("second", req.Second)
	if err != nil {
		return nil, err
	}

	return a.patch(ctx, req.MatchID, PlayerNamesPatch{Set: req.Set, Side: req.Side, First: first, Second: second})
}

// Watch streams snapshots of a match: the current state first, then every
// newer version as it is committed. Versions never repeat or go backwards;
// a slow reader may skip intermediate versions. The channel is closed when
// ctx is done or the feed ends.
func (a *App) Watch(ctx context.Context, id string) (<-chan models.Match, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	// Subscribe before reading so no commit falls between the two.
	sub, err := a.subscriber.Subscribe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	current, err := a.repo.GetMatch(ctx, id)
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	out := make(chan models.Match, 1)
	out <- *current
	go func() {
		defer close(out)
		defer sub.Close()

		last := current.Version
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.Version <= last {
					continue
				}
				last = ev.Version
				select {
				case out <- ev.Match:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// mutate runs a read-compute-swap cycle on one set, retrying on conflicts.
func (a *App) mutate(ctx context.Context, id string, set models.SetKey, eventType models.EventType, fn func(models.SetState) (models.SetState, error)) (*models.Match, error) {
	m, err := cas.Do(ctx, a.clock, a.policy, func(ctx context.Context) (*models.Match, error) {
		current, err := a.repo.GetMatch(ctx, id)
		if err != nil {
			return nil, err
		}

		next, err := fn(current.Sets.Set(set))
		if err != nil {
			return nil, err
		}
		if err := CheckInvariants(next); err != nil {
			return nil, err
		}

		return a.repo.SwapMatch(ctx, id, current.Version, current.Sets.WithSet(set, next), eventType, a.clock.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	log.Debug().
		Str("match_id", id).
		Str("set", string(set)).
		Str("event_type", string(eventType)).
		Int64("version", m.Version).
		Msg("match updated")
	return m, nil
}

func (a *App) patch(ctx context.Context, id string, p Patch) (*models.Match, error) {
	m, err := a.repo.PatchMatch(ctx, id, p, a.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	log.Debug().
		Str("match_id", id).
		Str("event_type", string(p.EventType())).
		Int64("version", m.Version).
		Msg("match renamed")
	return m, nil
}
