package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

// NotifyChannel is the channel the match_outbox insert trigger notifies.
const NotifyChannel = "match_outbox"

// Record is one row of match_outbox. Payload holds the committed match and
// Previous the document it replaced, if any.
type Record struct {
	ID        uuid.UUID        `json:"id"`
	MatchID   string           `json:"match_id"`
	EventType models.EventType `json:"event_type"`
	Version   int64            `json:"version"`
	Payload   json.RawMessage  `json:"payload"`
	Previous  json.RawMessage  `json:"previous,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	SentAt    *time.Time       `json:"sent_at,omitempty"`
}

// NewRecord builds the outbox row for a committed write.
func NewRecord(m models.Match, eventType models.EventType, previous *models.MatchState) (Record, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return Record{}, fmt.Errorf("marshal match: %w", err)
	}

	rec := Record{
		ID:        uuid.New(),
		MatchID:   m.ID,
		EventType: eventType,
		Version:   m.Version,
		Payload:   payload,
		CreatedAt: m.UpdatedAt,
	}
	if previous != nil {
		if rec.Previous, err = json.Marshal(previous); err != nil {
			return Record{}, fmt.Errorf("marshal previous state: %w", err)
		}
	}
	return rec, nil
}

// Event decodes the record into the form published to live subscribers.
func (r Record) Event() (realtime.Event, error) {
	ev := realtime.Event{
		ID:        r.ID.String(),
		MatchID:   r.MatchID,
		Type:      r.EventType,
		Version:   r.Version,
		Timestamp: r.CreatedAt,
	}
	if err := json.Unmarshal(r.Payload, &ev.Match); err != nil {
		return realtime.Event{}, fmt.Errorf("unmarshal payload of %s: %w", r.ID, err)
	}
	if len(r.Previous) > 0 {
		var prev models.MatchState
		if err := json.Unmarshal(r.Previous, &prev); err != nil {
			return realtime.Event{}, fmt.Errorf("unmarshal previous of %s: %w", r.ID, err)
		}
		ev.Previous = &prev
	}
	return ev, nil
}
