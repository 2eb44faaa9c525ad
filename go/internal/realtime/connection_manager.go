package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

var errUpgrade = errors.New("websocket upgrade failed")

// ConnectionManager manages WebSocket connections watching live matches
type ConnectionManager struct {
	// Connection pools organized by match ID
	matchConnections map[string]map[*Connection]struct{}
	mu               sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	watcher  Watcher
}

// Connection is one client socket following one match
type Connection struct {
	ID          string
	MatchID     string
	Conn        *websocket.Conn
	ConnectedAt time.Time

	updates <-chan models.Match
	cancel  context.CancelFunc
	manager *ConnectionManager
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// ConnectionStats summarizes open connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveMatches    int            `json:"active_matches"`
	MatchConnections map[string]int `json:"match_connections"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a connection manager that streams snapshots
// produced by watcher.
func NewConnectionManager(watcher Watcher, config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		matchConnections: make(map[string]map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:  config,
		watcher: watcher,
	}
}

// UpgradeConnection starts watching matchID and upgrades the request to a
// WebSocket on success. Watch errors are returned before the upgrade so the
// caller can still answer with a plain HTTP status.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, matchID string) error {
	// The watch outlives the handler, so it is not tied to the request context.
	ctx, cancel := context.WithCancel(context.Background())
	updates, err := cm.watcher.Watch(ctx, matchID)
	if err != nil {
		cancel()
		return fmt.Errorf("watch match: %w", err)
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %w", errUpgrade, err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		MatchID:     matchID,
		Conn:        conn,
		ConnectedAt: time.Now(),
		updates:     updates,
		cancel:      cancel,
		manager:     cm,
	}
	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("match_id", matchID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.matchConnections[conn.MatchID] == nil {
		cm.matchConnections[conn.MatchID] = make(map[*Connection]struct{})
	}
	cm.matchConnections[conn.MatchID][conn] = struct{}{}

	log.Debug().
		Str("connection_id", conn.ID).
		Str("match_id", conn.MatchID).
		Int("total_connections", len(cm.matchConnections[conn.MatchID])).
		Msg("connection registered")
}

// unregisterConnection is called from both pumps; only the first call logs.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, ok := cm.matchConnections[conn.MatchID]
	if !ok {
		return
	}
	if _, ok := connections[conn]; !ok {
		return
	}
	delete(connections, conn)
	if len(connections) == 0 {
		delete(cm.matchConnections, conn.MatchID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("match_id", conn.MatchID).
		Dur("duration", time.Since(conn.ConnectedAt)).
		Msg("connection unregistered")
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveMatches:    len(cm.matchConnections),
		MatchConnections: make(map[string]int, len(cm.matchConnections)),
	}
	for matchID, connections := range cm.matchConnections {
		stats.TotalConnections += len(connections)
		stats.MatchConnections[matchID] = len(connections)
	}
	return stats
}

// CloseAll ends every open connection with a close frame.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.matchConnections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		conn.cancel()
	}
	log.Info().Int("connections", len(all)).Msg("closed all WebSocket connections")
}

// writePump sends each snapshot from the watch and keeps the socket alive
// with pings. It sends a close frame once the watch ends.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.Conn.Close()
		c.manager.unregisterConnection(c)
	}()

	for {
		select {
		case m, ok := <-c.updates:
			c.Conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := json.Marshal(Message{Type: MessageTypeSnapshot, Match: &m})
			if err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal snapshot")
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// Clients send nothing else; any read error ends the watch.
func (c *Connection) readPump() {
	defer func() {
		c.cancel()
		c.manager.unregisterConnection(c)
	}()

	c.Conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("size", len(message)).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
