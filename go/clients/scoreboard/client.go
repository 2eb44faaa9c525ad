// Package scoreboard is a Go client for the scoreboard service.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/clients"
	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

const UserAgent = "scoreboard-go-client"

// Client wraps the connect clients and the websocket feed.
type Client struct {
	*clients.BaseClient

	matches scoreboardv1.MatchServiceClient
	session *Session
	dialer  *websocket.Dialer
}

func NewClient(baseURL string) *Client {
	base := clients.NewBaseClient(baseURL)
	base.SetHeader("User-Agent", UserAgent)

	session := newSession()
	interceptors := connect.WithInterceptors(base.Interceptor(), session.Interceptor())
	session.auth = scoreboardv1.NewAuthServiceClient(base.HTTPClient(), base.BaseURL(), interceptors)

	return &Client{
		BaseClient: base,
		matches:    scoreboardv1.NewMatchServiceClient(base.HTTPClient(), base.BaseURL(), interceptors),
		session:    session,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Session returns the client's login session.
func (c *Client) Session() *Session {
	return c.session
}

// Close drops the session listeners.
func (c *Client) Close() {
	c.session.Close()
}

// Health checks the server's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Get(ctx, "/health")
	return err
}

func (c *Client) CreateMatch(ctx context.Context, req *scoreboardv1.CreateMatchRequest) (*scoreboardv1.Match, error) {
	resp, err := c.matches.CreateMatch(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *Client) GetMatch(ctx context.Context, id string) (*scoreboardv1.Match, error) {
	resp, err := c.matches.GetMatch(ctx, connect.NewRequest(&scoreboardv1.GetMatchRequest{ID: id}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *Client) UpdateScore(ctx context.Context, id string, set models.SetKey, side models.Side, delta int) (*scoreboardv1.Match, error) {
	resp, err := c.matches.UpdateScore(ctx, connect.NewRequest(&scoreboardv1.UpdateScoreRequest{
		MatchID: id,
		Set:     string(set),
		Side:    string(side),
		Delta:   int32(delta),
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *Client) SwapPlayers(ctx context.Context, id string, set models.SetKey, side models.Side) (*scoreboardv1.Match, error) {
	resp, err := c.matches.SwapPlayers(ctx, connect.NewRequest(&scoreboardv1.SwapPlayersRequest{
		MatchID: id,
		Set:     string(set),
		Side:    string(side),
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *Client) SetServer(ctx context.Context, id string, set models.SetKey, side models.Side, slot models.Slot) (*scoreboardv1.Match, error) {
	resp, err := c.matches.SetServer(ctx, connect.NewRequest(&scoreboardv1.SetServerRequest{
		MatchID: id,
		Set:     string(set),
		Side:    string(side),
		Slot:    string(slot),
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *Client) UpdateTeamName(ctx context.Context, id string, set models.SetKey, side models.Side, name string) (*scoreboardv1.Match, error) {
	resp, err := c.matches.UpdateTeamName(ctx, connect.NewRequest(&scoreboardv1.UpdateTeamNameRequest{
		MatchID: id,
		Set:     string(set),
		Side:    string(side),
		Name:    name,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

func (c *Client) UpdatePlayerNames(ctx context.Context, id string, set models.SetKey, side models.Side, first, second string) (*scoreboardv1.Match, error) {
	resp, err := c.matches.UpdatePlayerNames(ctx, connect.NewRequest(&scoreboardv1.UpdatePlayerNamesRequest{
		MatchID: id,
		Set:     string(set),
		Side:    string(side),
		First:   first,
		Second:  second,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Match, nil
}

// Watch streams snapshots of one match until ctx ends or the server closes
// the connection. The first value is the current state.
func (c *Client) Watch(ctx context.Context, id string) (<-chan models.Match, error) {
	u, err := c.WebsocketURL("/ws/match", url.Values{"match_id": {id}})
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, u, c.Header())
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return nil, fmt.Errorf("match %s: %w", id, models.ErrNotFound)
			case http.StatusBadRequest:
				return nil, fmt.Errorf("match %s: %w", id, models.ErrInvalidArgument)
			}
		}
		return nil, fmt.Errorf("failed to dial match feed: %w", err)
	}

	out := make(chan models.Match)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()

		for {
			var msg realtime.Message
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
					!errors.Is(err, net.ErrClosed) {
					log.Warn().Err(err).Str("match_id", id).Msg("match feed closed")
				}
				return
			}
			if msg.Type != realtime.MessageTypeSnapshot || msg.Match == nil {
				continue
			}
			select {
			case out <- *msg.Match:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
