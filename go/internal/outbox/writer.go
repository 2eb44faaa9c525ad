package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/scoreboard/go/internal/sqlutil"
)

// Execer is satisfied by pgx.Tx, so the insert joins the caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertRecord = `
INSERT INTO match_outbox (id, match_id, event_type, version, payload, previous, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Insert writes rec. Callers run it in the same transaction as the match
// write it describes.
func Insert(ctx context.Context, db Execer, rec Record) error {
	_, err := db.Exec(ctx, insertRecord,
		rec.ID,
		rec.MatchID,
		string(rec.EventType),
		rec.Version,
		[]byte(rec.Payload),
		sqlutil.ToNullRawMessage(rec.Previous),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", rec.EventType, err)
	}
	return nil
}
