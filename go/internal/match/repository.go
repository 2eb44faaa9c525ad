package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/outbox"
	"github.com/mcdev12/scoreboard/go/internal/sqlutil"
)

const (
	uniqueViolation = "23505"
	// maxIDAttempts bounds retries on an id collision.
	maxIDAttempts = 5
)

// PostgresRepository stores one JSONB document per match. Every write and its
// outbox row commit in one transaction.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository on pool
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertMatch = `
INSERT INTO matches (id, state, version, created_at, updated_at)
VALUES ($1, $2, 1, $3, $3)
RETURNING id, state, version, created_at, updated_at`

// CreateMatch inserts state under a fresh id.
func (r *PostgresRepository) CreateMatch(ctx context.Context, state models.MatchState, now time.Time) (*models.Match, error) {
	for attempt := 1; ; attempt++ {
		id, err := NewID()
		if err != nil {
			return nil, err
		}

		var m *models.Match
		err = sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
			var err error
			if m, err = scanMatch(tx.QueryRow(ctx, insertMatch, id, state, now)); err != nil {
				return err
			}
			return writeOutbox(ctx, tx, *m, models.EventTypeMatchCreated, nil)
		})
		if err == nil {
			return m, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && attempt < maxIDAttempts {
			continue
		}
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}
}

const selectMatch = `SELECT id, state, version, created_at, updated_at FROM matches WHERE id = $1`

func (r *PostgresRepository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, selectMatch, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// The FROM clause locks the row and exposes the replaced document.
const swapMatch = `
UPDATE matches AS m
SET state = $3, version = m.version + 1, updated_at = $4
FROM (SELECT id, state FROM matches WHERE id = $1 FOR UPDATE) AS prev
WHERE m.id = prev.id AND m.version = $2
RETURNING m.id, m.state, m.version, m.created_at, m.updated_at, prev.state`

// SwapMatch replaces the document if the stored version equals expected.
func (r *PostgresRepository) SwapMatch(ctx context.Context, id string, expected int64, next models.MatchState, eventType models.EventType, now time.Time) (*models.Match, error) {
	var m *models.Match
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			previous models.MatchState
			err      error
		)
		m, err = scanMatch(tx.QueryRow(ctx, swapMatch, id, expected, next, now), &previous)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrConflict(ctx, tx, id, expected)
		}
		if err != nil {
			return err
		}
		return writeOutbox(ctx, tx, *m, eventType, &previous)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to swap match: %w", err)
	}
	return m, nil
}

// PatchMatch writes the patch's fields in place with jsonb_set.
func (r *PostgresRepository) PatchMatch(ctx context.Context, id string, patch Patch, now time.Time) (*models.Match, error) {
	query, args := patchQuery(id, patch.Fields(), now)

	var m *models.Match
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			previous models.MatchState
			err      error
		)
		m, err = scanMatch(tx.QueryRow(ctx, query, args...), &previous)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("match %s: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return writeOutbox(ctx, tx, *m, patch.EventType(), &previous)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to patch match: %w", err)
	}
	return m, nil
}

// patchQuery builds a nested jsonb_set over every field. Paths and values
// are bound parameters.
func patchQuery(id string, fields []Field, now time.Time) (string, []any) {
	args := []any{id, now}
	expr := "m.state"
	for _, f := range fields {
		args = append(args, f.Path, f.Value)
		expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], to_jsonb($%d::text))", expr, len(args)-1, len(args))
	}

	var b strings.Builder
	b.WriteString("UPDATE matches AS m SET state = ")
	b.WriteString(expr)
	b.WriteString(", version = m.version + 1, updated_at = $2")
	b.WriteString(" FROM (SELECT id, state FROM matches WHERE id = $1 FOR UPDATE) AS prev")
	b.WriteString(" WHERE m.id = prev.id")
	b.WriteString(" RETURNING m.id, m.state, m.version, m.created_at, m.updated_at, prev.state")
	return b.String(), args
}

func (r *PostgresRepository) missOrConflict(ctx context.Context, tx pgx.Tx, id string, expected int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("match %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("match %s moved past version %d: %w", id, expected, cas.ErrConflict)
}

func writeOutbox(ctx context.Context, tx pgx.Tx, m models.Match, eventType models.EventType, previous *models.MatchState) error {
	rec, err := outbox.NewRecord(m, eventType, previous)
	if err != nil {
		return err
	}
	return outbox.Insert(ctx, tx, rec)
}

// scanMatch reads the standard match columns followed by any extra targets.
func scanMatch(row pgx.Row, extra ...any) (*models.Match, error) {
	var m models.Match
	dest := append([]any{&m.ID, &m.Sets, &m.Version, &m.CreatedAt, &m.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &m, nil
}
