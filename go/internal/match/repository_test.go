package match

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/database"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/mcdev12/scoreboard/go/internal/outbox"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

type pgEnv struct {
	pool   *pgxpool.Pool
	outbox *outbox.Repository
}

func startPostgres(t *testing.T) *pgEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker binary not found; skipping integration test")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("scoreboard"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := database.OpenSQL(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(ctx, sqlDB))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &pgEnv{pool: pool, outbox: outbox.NewRepository(sqlDB)}
}

func TestPostgresRepository(t *testing.T) {
	env := startPostgres(t)
	repo := NewPostgresRepository(env.pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	created, err := repo.CreateMatch(ctx, NewMatchState(createReq), now)
	require.NoError(t, err)
	assert.Len(t, created.ID, idLength)
	assert.Equal(t, int64(1), created.Version)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetMatch(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Sets, got.Sets)
		assert.True(t, now.Equal(got.CreatedAt))

		_, err = repo.GetMatch(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("swap", func(t *testing.T) {
		cur, err := repo.GetMatch(ctx, created.ID)
		require.NoError(t, err)
		set, err := ApplyScore(cur.Sets.First, models.SideA, 1)
		require.NoError(t, err)

		next, err := repo.SwapMatch(ctx, cur.ID, cur.Version, cur.Sets.WithSet(models.SetFirst, set), models.EventTypeScoreUpdated, now)
		require.NoError(t, err)
		assert.Equal(t, cur.Version+1, next.Version)
		assert.Equal(t, 1, next.Sets.First.TeamScore.A)

		_, err = repo.SwapMatch(ctx, cur.ID, cur.Version, cur.Sets, models.EventTypeScoreUpdated, now)
		assert.ErrorIs(t, err, cas.ErrConflict)

		_, err = repo.SwapMatch(ctx, "missing", 1, cur.Sets, models.EventTypeScoreUpdated, now)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("patch", func(t *testing.T) {
		cur, err := repo.GetMatch(ctx, created.ID)
		require.NoError(t, err)

		p := PlayerNamesPatch{Set: models.SetSecond, Side: models.SideB, First: "Eve's", Second: `Fay "F"`}
		next, err := repo.PatchMatch(ctx, cur.ID, p, now)
		require.NoError(t, err)
		assert.Equal(t, cur.Version+1, next.Version)
		assert.Equal(t, p.Apply(cur.Sets), next.Sets)

		_, err = repo.PatchMatch(ctx, "missing", p, now)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("outbox rows", func(t *testing.T) {
		rows, err := env.outbox.FetchUnsent(ctx, 100)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		types := []models.EventType{rows[0].EventType, rows[1].EventType, rows[2].EventType}
		assert.Equal(t, []models.EventType{models.EventTypeMatchCreated, models.EventTypeScoreUpdated, models.EventTypePlayersRenamed}, types)
		assert.Nil(t, rows[0].Previous)

		ev, err := rows[1].Event()
		require.NoError(t, err)
		assert.Equal(t, int64(2), ev.Version)
		require.NotNil(t, ev.Previous)
		assert.Equal(t, 0, ev.Previous.First.TeamScore.A)
		assert.Equal(t, 1, ev.Match.Sets.First.TeamScore.A)
	})
}

func TestPostgresRepository_ConcurrentScoring(t *testing.T) {
	env := startPostgres(t)
	app := NewApp(NewPostgresRepository(env.pool), realtime.NewHub(), clockwork.NewRealClock(),
		cas.Policy{MaxAttempts: 50, BaseDelay: time.Millisecond, MaxDelay: 20 * time.Millisecond})
	ctx := context.Background()

	m, err := app.CreateMatch(ctx, createReq)
	require.NoError(t, err)

	const points = 10
	var wg sync.WaitGroup
	for i := 0; i < points; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := app.UpdateScore(ctx, UpdateScoreRequest{MatchID: m.ID, Set: models.SetFirst, Side: models.SideB, Delta: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := app.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, points, got.Sets.First.TeamScore.B)
	assert.Equal(t, int64(points+1), got.Version)
}

func TestPostgresOutboxRelay(t *testing.T) {
	env := startPostgres(t)
	repo := NewPostgresRepository(env.pool)
	hub := realtime.NewHub()
	relay := outbox.NewRelay(env.outbox, hub, clockwork.NewRealClock(), outbox.DefaultRelayConfig())
	ctx := context.Background()

	m, err := repo.CreateMatch(ctx, NewMatchState(createReq), time.Now())
	require.NoError(t, err)

	sub, err := hub.Subscribe(ctx, m.ID)
	require.NoError(t, err)
	defer sub.Close()

	n, err := relay.ProcessUnsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	select {
	case ev := <-sub.C:
		assert.Equal(t, m.ID, ev.Match.ID)
		assert.Equal(t, models.EventTypeMatchCreated, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("relayed event not delivered")
	}

	n, err = relay.ProcessUnsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
