package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scoreboard/go/internal/auth"
	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
)

type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func main() {
	ctx := context.Background()

	path := "go/internal/assets/users.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Session TTL is irrelevant here; the tool never logs in.
	app := auth.NewApp(auth.NewRepository(pool), clockwork.NewRealClock(), time.Hour)

	// 3) Create and count
	var (
		total    = len(users)
		inserted int
		skipped  int
		errs     int
	)

	for _, u := range users {
		_, err := app.CreateUser(ctx, u.Email, u.Password)
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			skipped++
		case err != nil:
			fmt.Fprintf(os.Stderr, "error creating user %s: %v\n", u.Email, err)
			errs++
		default:
			inserted++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Users seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
