package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/mcdev12/scoreboard/go/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	fx.New(
		fx.Provide(
			provideConfig,
			func(cfg *Config) zerolog.Logger { return logger.New(cfg.LogLevel) },
			provideClock,
			newReadiness,
			provideFeed,
			provideStores,
			provideMatchApp,
			provideAuthApp,
			provideConnectionManager,
			newRouter,
		),
		fx.Invoke(bootstrapUser, runBackground, runServer),
	).Run()
}
