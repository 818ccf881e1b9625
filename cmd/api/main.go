package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"travelplanner/internal/logger"
)

func main() {
	// .env необязателен, переменные окружения могут прийти извне
	_ = godotenv.Load()

	runner := NewRunner(os.Stdout)

	app := &cli.Command{
		Name:  "travelplanner",
		Usage: "Travel planning API: accounts, plans and destination search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TRAVEL_CONFIG"),
			},
		},
		Before:   runner.Setup,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		l := runner.logger
		if l == nil {
			l = logger.New(os.Stderr, "info")
		}
		l.Fatal("ошибка приложения", "err", err)
	}
}
