package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"travelplanner/internal/app"
	"travelplanner/internal/bot"
	"travelplanner/internal/config"
	"travelplanner/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "travelplanner-bot",
		Usage: "Telegram bot for destination search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TRAVEL_CONFIG"),
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.New(os.Stderr, "info").Fatal("ошибка бота", "err", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	l := logger.New(os.Stderr, cfg.Log.Level)

	if cfg.Bot.Token == "" {
		return fmt.Errorf("%w: не указан токен бота (BOT_TOKEN)", config.ErrMissingCredentials)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// badger держит блокировку каталога у API, кэш геокодера бота в памяти
	searchApp, err := app.NewSearch(ctx, cfg, nil, l)
	if err != nil {
		return err
	}
	defer searchApp.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("ошибка инициализации бота: %w", err)
	}
	l.Info("бот запущен", "username", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	bot.New(api, searchApp.Service, logger.Component(l, "bot")).Run(ctx, updates)
	l.Info("бот остановлен")
	return nil
}
