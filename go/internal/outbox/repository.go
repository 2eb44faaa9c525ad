package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/sqlutil"
)

// ErrAlreadySent is returned by FetchByID for rows that were relayed already.
var ErrAlreadySent = errors.New("outbox event not found or already sent")

const selectColumns = `id, match_id, event_type, version, payload, previous, created_at, sent_at`

// Repository reads and acknowledges outbox rows over database/sql.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM match_outbox WHERE id = $1 AND sent_at IS NULL`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadySent
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	return rec, nil
}

// FetchUnsent returns up to limit unsent rows, oldest first.
func (r *Repository) FetchUnsent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM match_outbox WHERE sent_at IS NULL ORDER BY created_at, version LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return records, nil
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE match_outbox SET sent_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

// DeleteSentBefore prunes relayed rows older than cutoff.
func (r *Repository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM match_outbox WHERE sent_at IS NOT NULL AND sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune outbox: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec       Record
		eventType string
		payload   []byte
		previous  pqtype.NullRawMessage
		sentAt    sql.NullTime
	)
	if err := s.Scan(&rec.ID, &rec.MatchID, &eventType, &rec.Version, &payload, &previous, &rec.CreatedAt, &sentAt); err != nil {
		return nil, err
	}
	rec.EventType = models.EventType(eventType)
	rec.Payload = payload
	rec.Previous = sqlutil.FromNullRawMessage(previous)
	rec.SentAt = sqlutil.FromSqlTime(sentAt)
	return &rec, nil
}
