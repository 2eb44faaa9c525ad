package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scoreboard/go/internal/database"
	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
)

// setupDatabase migrates the schema over database/sql and opens the pgx pool
// used by the repositories.
func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*sql.DB, *pgxpool.Pool, error) {
	sqlDB, err := database.OpenSQL(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("database", cfg.Redacted()).Int32("max_conns", cfg.MaxConns).Msg("connected to database")
	return sqlDB, pool, nil
}
