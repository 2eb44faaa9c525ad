package realtime

import (
	"context"
	"time"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

// Event is a committed match change as delivered to live subscribers.
type Event struct {
	ID        string             `json:"id"`
	MatchID   string             `json:"match_id"`
	Type      models.EventType   `json:"type"`
	Version   int64              `json:"version"`
	Timestamp time.Time          `json:"timestamp"`
	Match     models.Match       `json:"match"`
	Previous  *models.MatchState `json:"previous,omitempty"`
}

// Publisher fans committed events out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber opens a live event stream for one match.
type Subscriber interface {
	Subscribe(ctx context.Context, matchID string) (*Subscription, error)
}

// Feed is both ends of the realtime pipe.
type Feed interface {
	Publisher
	Subscriber
}

// Watcher produces a live sequence of match snapshots.
type Watcher interface {
	Watch(ctx context.Context, matchID string) (<-chan models.Match, error)
}

// MessageType tags frames written to websocket clients.
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
)

// Message is the frame written to websocket clients.
type Message struct {
	Type  MessageType   `json:"type"`
	Match *models.Match `json:"match,omitempty"`
}
