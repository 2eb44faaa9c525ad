package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

// MemoryRepository keeps matches in process. Each commit is published to
// the realtime feed directly, standing in for the outbox relay.
type MemoryRepository struct {
	mu        sync.Mutex
	matches   map[string]models.Match
	publisher realtime.Publisher
}

// NewMemoryRepository creates an empty store publishing to publisher
func NewMemoryRepository(publisher realtime.Publisher) *MemoryRepository {
	return &MemoryRepository{
		matches:   make(map[string]models.Match),
		publisher: publisher,
	}
}

func (r *MemoryRepository) CreateMatch(ctx context.Context, state models.MatchState, now time.Time) (*models.Match, error) {
	r.mu.Lock()
	var id string
	for {
		var err error
		if id, err = NewID(); err != nil {
			r.mu.Unlock()
			return nil, err
		}
		if _, taken := r.matches[id]; !taken {
			break
		}
	}
	m := models.Match{ID: id, Version: 1, Sets: state, CreatedAt: now, UpdatedAt: now}
	r.matches[id] = m
	r.mu.Unlock()

	r.publish(ctx, m, models.EventTypeMatchCreated, nil)
	return &m, nil
}

func (r *MemoryRepository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, models.ErrNotFound)
	}
	return &m, nil
}

func (r *MemoryRepository) SwapMatch(ctx context.Context, id string, expected int64, next models.MatchState, eventType models.EventType, now time.Time) (*models.Match, error) {
	r.mu.Lock()
	m, ok := r.matches[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("match %s: %w", id, models.ErrNotFound)
	}
	if m.Version != expected {
		r.mu.Unlock()
		return nil, fmt.Errorf("match %s at version %d, expected %d: %w", id, m.Version, expected, cas.ErrConflict)
	}
	previous := m.Sets
	m.Sets = next
	m.Version++
	m.UpdatedAt = now
	r.matches[id] = m
	r.mu.Unlock()

	r.publish(ctx, m, eventType, &previous)
	return &m, nil
}

func (r *MemoryRepository) PatchMatch(ctx context.Context, id string, patch Patch, now time.Time) (*models.Match, error) {
	r.mu.Lock()
	m, ok := r.matches[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("match %s: %w", id, models.ErrNotFound)
	}
	previous := m.Sets
	m.Sets = patch.Apply(m.Sets)
	m.Version++
	m.UpdatedAt = now
	r.matches[id] = m
	r.mu.Unlock()

	r.publish(ctx, m, patch.EventType(), &previous)
	return &m, nil
}

// publish runs after the write is committed, so a failure is only logged.
func (r *MemoryRepository) publish(ctx context.Context, m models.Match, eventType models.EventType, previous *models.MatchState) {
	if r.publisher == nil {
		return
	}
	ev := realtime.Event{
		ID:        uuid.New().String(),
		MatchID:   m.ID,
		Type:      eventType,
		Version:   m.Version,
		Timestamp: m.UpdatedAt,
		Match:     m,
		Previous:  previous,
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		log.Error().
			Err(err).
			Str("match_id", m.ID).
			Int64("version", m.Version).
			Msg("failed to publish match event")
	}
}
