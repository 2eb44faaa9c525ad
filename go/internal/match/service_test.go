package match

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
	"github.com/mcdev12/scoreboard/go/internal/cas"
)

func newServiceClient(t *testing.T, app MatchApp) scoreboardv1.MatchServiceClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(scoreboardv1.NewMatchServiceHandler(NewService(app)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return scoreboardv1.NewMatchServiceClient(srv.Client(), srv.URL)
}

func TestService_MatchLifecycle(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	client := newServiceClient(t, f.app)
	ctx := context.Background()

	created, err := client.CreateMatch(ctx, connect.NewRequest(&scoreboardv1.CreateMatchRequest{
		TeamNameA: "Hawks", TeamNameB: "Owls",
		PlayerAFirst: "Ann", PlayerASecond: "Bea",
		PlayerBFirst: "Cal", PlayerBSecond: "Dan",
	}))
	require.NoError(t, err)
	id := created.Msg.Match.ID
	assert.Equal(t, int64(1), created.Msg.Match.Version)

	scored, err := client.UpdateScore(ctx, connect.NewRequest(&scoreboardv1.UpdateScoreRequest{
		MatchID: id, Set: "first", Side: "a", Delta: 1,
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, scored.Msg.Match.Sets.First.TeamScore.A)
	assert.True(t, scored.Msg.Match.Sets.First.TeamPlayers.A.Second.Serving)

	_, err = client.SwapPlayers(ctx, connect.NewRequest(&scoreboardv1.SwapPlayersRequest{MatchID: id, Set: "first", Side: "b"}))
	require.NoError(t, err)
	_, err = client.SetServer(ctx, connect.NewRequest(&scoreboardv1.SetServerRequest{MatchID: id, Set: "second", Side: "b", Slot: "first"}))
	require.NoError(t, err)
	_, err = client.UpdateTeamName(ctx, connect.NewRequest(&scoreboardv1.UpdateTeamNameRequest{MatchID: id, Set: "third", Side: "a", Name: "Ravens"}))
	require.NoError(t, err)
	_, err = client.UpdatePlayerNames(ctx, connect.NewRequest(&scoreboardv1.UpdatePlayerNamesRequest{MatchID: id, Set: "third", Side: "b", First: "Eve", Second: "Fay"}))
	require.NoError(t, err)

	got, err := client.GetMatch(ctx, connect.NewRequest(&scoreboardv1.GetMatchRequest{ID: id}))
	require.NoError(t, err)
	m := got.Msg.Match
	assert.Equal(t, int64(6), m.Version)
	assert.Equal(t, "Dan", m.Sets.First.TeamPlayers.B.First.Name)
	assert.True(t, m.Sets.Second.TeamPlayers.B.First.Serving)
	assert.Equal(t, "Ravens", m.Sets.Third.TeamName.A)
	assert.Equal(t, "Fay", m.Sets.Third.TeamPlayers.B.Second.Name)
}

func TestService_ErrorCodes(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	client := newServiceClient(t, f.app)
	ctx := context.Background()

	created, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		code connect.Code
	}{
		{"missing match", func() error {
			_, err := client.GetMatch(ctx, connect.NewRequest(&scoreboardv1.GetMatchRequest{ID: "missing"}))
			return err
		}, connect.CodeNotFound},
		{"blank name", func() error {
			_, err := client.CreateMatch(ctx, connect.NewRequest(&scoreboardv1.CreateMatchRequest{TeamNameA: "x"}))
			return err
		}, connect.CodeInvalidArgument},
		{"bad delta", func() error {
			_, err := client.UpdateScore(ctx, connect.NewRequest(&scoreboardv1.UpdateScoreRequest{MatchID: created.ID, Set: "first", Side: "a", Delta: 2}))
			return err
		}, connect.CodeInvalidArgument},
		{"unknown set", func() error {
			_, err := client.SwapPlayers(ctx, connect.NewRequest(&scoreboardv1.SwapPlayersRequest{MatchID: created.ID, Set: "fifth", Side: "a"}))
			return err
		}, connect.CodeInvalidArgument},
		{"underflow", func() error {
			_, err := client.UpdateScore(ctx, connect.NewRequest(&scoreboardv1.UpdateScoreRequest{MatchID: created.ID, Set: "first", Side: "a", Delta: -1}))
			return err
		}, connect.CodeFailedPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		err  error
		code connect.Code
	}{
		{invalid("side", "bad"), connect.CodeInvalidArgument},
		{ErrInvalidDelta, connect.CodeInvalidArgument},
		{ErrScoreUnderflow, connect.CodeFailedPrecondition},
		{cas.ErrExhausted, connect.CodeAborted},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("connection reset"), connect.CodeInternal},
	}
	for _, tt := range tests {
		got := toConnectError("/test", tt.err)
		assert.Equal(t, tt.code, connect.CodeOf(got), "%v", tt.err)
	}

	// Internal errors do not leak detail.
	var ce *connect.Error
	require.ErrorAs(t, toConnectError("/test", errors.New("password=hunter2")), &ce)
	assert.Equal(t, "internal error", ce.Message())
}
