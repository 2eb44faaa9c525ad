package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
	"github.com/mcdev12/scoreboard/go/internal/match"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

type Match struct {
	TeamNameA     string `json:"team_name_a"`
	TeamNameB     string `json:"team_name_b"`
	PlayerAFirst  string `json:"player_a_first"`
	PlayerASecond string `json:"player_a_second"`
	PlayerBFirst  string `json:"player_b_first"`
	PlayerBSecond string `json:"player_b_second"`
	SwitchEnds    bool   `json:"switch_ends"`
}

func main() {
	ctx := context.Background()

	path := "go/internal/assets/matches.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load matches.json
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read matches.json: %v\n", err)
		os.Exit(1)
	}
	var matches []Match
	if err := json.Unmarshal(data, &matches); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal matches: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Outbox rows written here reach live viewers once a server relays them.
	app := match.NewApp(match.NewPostgresRepository(pool), realtime.NewHub(), clockwork.NewRealClock(), cas.DefaultPolicy())

	// 3) Create matches
	total, created, errs := len(matches), 0, 0
	for _, m := range matches {
		got, err := app.CreateMatch(ctx, match.CreateMatchRequest{
			TeamNameA:     m.TeamNameA,
			TeamNameB:     m.TeamNameB,
			PlayerAFirst:  m.PlayerAFirst,
			PlayerASecond: m.PlayerASecond,
			PlayerBFirst:  m.PlayerBFirst,
			PlayerBSecond: m.PlayerBSecond,
			SwitchEnds:    m.SwitchEnds,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating match %s vs %s: %v\n", m.TeamNameA, m.TeamNameB, err)
			errs++
			continue
		}
		fmt.Printf("created match %s (%s vs %s)\n", got.ID, m.TeamNameA, m.TeamNameB)
		created++
	}
	fmt.Printf(
		"Matches seed: total=%d created=%d errors=%d\n",
		total, created, errs,
	)
}
