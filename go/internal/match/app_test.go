package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

var createReq = CreateMatchRequest{
	TeamNameA:     "Hawks",
	TeamNameB:     "Owls",
	PlayerAFirst:  "Ann",
	PlayerASecond: "Bea",
	PlayerBFirst:  "Cal",
	PlayerBSecond: "Dan",
}

// conflictRepo fails the first n swaps with a version conflict.
type conflictRepo struct {
	*MemoryRepository
	n     atomic.Int32
	swaps atomic.Int32
}

func (r *conflictRepo) SwapMatch(ctx context.Context, id string, expected int64, next models.MatchState, eventType models.EventType, now time.Time) (*models.Match, error) {
	r.swaps.Add(1)
	if r.n.Add(-1) >= 0 {
		return nil, cas.ErrConflict
	}
	return r.MemoryRepository.SwapMatch(ctx, id, expected, next, eventType, now)
}

type fixture struct {
	app   *App
	repo  *MemoryRepository
	hub   *realtime.Hub
	clock *clockwork.FakeClock
}

func newFixture(t *testing.T, policy cas.Policy) *fixture {
	t.Helper()
	hub := realtime.NewHub()
	repo := NewMemoryRepository(hub)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	return &fixture{
		app:   NewApp(repo, hub, clock, policy),
		repo:  repo,
		hub:   hub,
		clock: clock,
	}
}

func noBackoff(attempts int) cas.Policy {
	return cas.Policy{MaxAttempts: attempts}
}

func TestApp_CreateAndGet(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	ctx := context.Background()

	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)
	assert.Len(t, m.ID, idLength)
	assert.Equal(t, int64(1), m.Version)
	assert.Equal(t, f.clock.Now(), m.CreatedAt)
	assert.Equal(t, "Hawks", m.Sets.Third.TeamName.A)

	got, err := f.app.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestApp_CreateValidates(t *testing.T) {
	f := newFixture(t, noBackoff(3))

	req := createReq
	req.TeamNameB = ""
	_, err := f.app.CreateMatch(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestApp_GetMatchNotFound(t *testing.T) {
	f := newFixture(t, noBackoff(3))

	_, err := f.app.GetMatch(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.app.GetMatch(context.Background(), "bad id")
	assert.True(t, IsValidation(err))
}

func TestApp_UpdateScore(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	ctx := context.Background()
	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	m, err = f.app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetSecond, Side: models.SideB, Delta: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Version)
	assert.Equal(t, 1, m.Sets.Second.TeamScore.B)
	assert.True(t, m.Sets.Second.TeamPlayers.B.First.Serving)
	// Other sets are independent.
	assert.Equal(t, models.TeamScores{}, m.Sets.First.TeamScore)

	_, err = f.app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Delta: -1})
	require.ErrorIs(t, err, ErrScoreUnderflow)

	got, err := f.app.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version, "rejected update must not write")
}

func TestApp_UpdateScoreValidates(t *testing.T) {
	f := newFixture(t, noBackoff(3))

	tests := []struct {
		name string
		req  UpdateScoreRequest
	}{
		{"bad set", UpdateScoreRequest{MatchID: "m1", Set: "fourth", Side: models.SideA, Delta: 1}},
		{"bad side", UpdateScoreRequest{MatchID: "m1", Set: models.SetFirst, Side: "c", Delta: 1}},
		{"bad id", UpdateScoreRequest{MatchID: "", Set: models.SetFirst, Side: models.SideA, Delta: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.app.UpdateScore(context.Background(), tt.req)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}

	_, err := f.app.UpdateScore(context.Background(), UpdateScoreRequest{MatchID: "m1", Set: models.SetFirst, Side: models.SideA, Delta: 3})
	assert.ErrorIs(t, err, ErrInvalidDelta)

	_, err = f.app.UpdateScore(context.Background(), UpdateScoreRequest{MatchID: "m1", Set: models.SetFirst, Side: models.SideA, Delta: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApp_RetriesConflicts(t *testing.T) {
	hub := realtime.NewHub()
	repo := &conflictRepo{MemoryRepository: NewMemoryRepository(hub)}
	app := NewApp(repo, hub, clockwork.NewRealClock(), noBackoff(5))
	ctx := context.Background()

	m, err := app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	repo.n.Store(2)
	m, err = app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Delta: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Sets.First.TeamScore.A)
	assert.Equal(t, int32(3), repo.swaps.Load())

	repo.n.Store(100)
	_, err = app.SwapPlayers(ctx, SwapPlayersRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA})
	require.ErrorIs(t, err, cas.ErrExhausted)
}

func TestApp_BackoffUsesClock(t *testing.T) {
	hub := realtime.NewHub()
	repo := &conflictRepo{MemoryRepository: NewMemoryRepository(hub)}
	clock := clockwork.NewFakeClock()
	app := NewApp(repo, hub, clock, cas.Policy{MaxAttempts: 2, BaseDelay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	repo.n.Store(1)
	done := make(chan error, 1)
	go func() {
		_, err := app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideB, Delta: 1})
		done <- err
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.NoError(t, <-done)
}

func TestApp_ConcurrentScoring(t *testing.T) {
	f := newFixture(t, noBackoff(100))
	ctx := context.Background()
	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	const points = 20
	var wg sync.WaitGroup
	for i := 0; i < points; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side := models.SideA
			if i%2 == 1 {
				side = models.SideB
			}
			_, err := f.app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetThird, Side: side, Delta: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.app.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, points/2, got.Sets.Third.TeamScore.A)
	assert.Equal(t, points/2, got.Sets.Third.TeamScore.B)
	assert.Equal(t, int64(points+1), got.Version)
	require.NoError(t, CheckInvariants(got.Sets.Third))
}

func TestApp_SwapAndServe(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	ctx := context.Background()
	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	m, err = f.app.SetServer(ctx, SetServerRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Slot: models.SlotSecond})
	require.NoError(t, err)
	assert.True(t, m.Sets.First.TeamPlayers.A.Second.Serving)

	m, err = f.app.SwapPlayers(ctx, SwapPlayersRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA})
	require.NoError(t, err)
	assert.Equal(t, "Bea", m.Sets.First.TeamPlayers.A.First.Name)
	assert.True(t, m.Sets.First.TeamPlayers.A.Second.Serving)
	assert.Equal(t, int64(3), m.Version)

	_, err = f.app.SetServer(ctx, SetServerRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Slot: "middle"})
	assert.True(t, IsValidation(err))
}

func TestApp_Renames(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	ctx := context.Background()
	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	m, err = f.app.UpdateTeamName(ctx, UpdateTeamNameRequest{MatchID: m.ID, Set: models.SetSecond, Side: models.SideB, Name: " Ravens "})
	require.NoError(t, err)
	assert.Equal(t, "Ravens", m.Sets.Second.TeamName.B)
	assert.Equal(t, "Owls", m.Sets.First.TeamName.B)

	m, err = f.app.UpdatePlayerNames(ctx, UpdatePlayerNamesRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, First: "Eve", Second: "Fay"})
	require.NoError(t, err)
	assert.Equal(t, models.Pair{First: models.PlayerSlot{Name: "Eve"}, Second: models.PlayerSlot{Name: "Fay"}}, m.Sets.First.TeamPlayers.A)
	assert.Equal(t, int64(3), m.Version)

	_, err = f.app.UpdateTeamName(ctx, UpdateTeamNameRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Name: ""})
	assert.True(t, IsValidation(err))

	_, err = f.app.UpdatePlayerNames(ctx, UpdatePlayerNamesRequest{MatchID: "nope", Set: models.SetFirst, Side: models.SideA, First: "a", Second: "b"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func next(t *testing.T, ch <-chan models.Match) models.Match {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "watch closed")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return models.Match{}
	}
}

func TestApp_Watch(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	ch, err := f.app.Watch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next(t, ch).Version)

	_, err = f.app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Delta: 1})
	require.NoError(t, err)
	got := next(t, ch)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, 1, got.Sets.First.TeamScore.A)

	_, err = f.app.UpdateTeamName(ctx, UpdateTeamNameRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideA, Name: "Ravens"})
	require.NoError(t, err)
	got = next(t, ch)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, "Ravens", got.Sets.First.TeamName.A)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return f.hub.Subscribers(m.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestApp_WatchSkipsReplayedVersion(t *testing.T) {
	f := newFixture(t, noBackoff(3))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := f.app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	// The hub replays version 1, which Watch already sent as the snapshot.
	ch, err := f.app.Watch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next(t, ch).Version)

	select {
	case m := <-ch:
		t.Fatalf("duplicate snapshot at version %d", m.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestApp_WatchErrors(t *testing.T) {
	f := newFixture(t, noBackoff(3))

	_, err := f.app.Watch(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 0, f.hub.Subscribers("missing"))

	_, err = f.app.Watch(context.Background(), "a.b")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
