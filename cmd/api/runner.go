package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v3"

	"travelplanner/internal/config"
	"travelplanner/internal/database"
	"travelplanner/internal/logger"
)

// Runner хранит общие зависимости команд.
type Runner struct {
	config *config.Config
	logger *log.Logger
	output io.Writer
}

func NewRunner(output io.Writer) *Runner {
	if output == nil {
		output = os.Stdout
	}
	return &Runner{output: output}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, migrateCommand, searchCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// Setup читает конфигурацию и настраивает логгер до запуска команды.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	r.config = cfg
	r.logger = logger.New(os.Stderr, cfg.Log.Level)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	return ctx, nil
}

func (r *Runner) openDB() (*sqlx.DB, error) {
	db, err := database.Open(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.logger.Info("база данных подключена", "driver", r.config.Database.Driver)
	return db, nil
}

func (r *Runner) openKV() (*badger.DB, error) {
	kv, err := database.OpenKV(r.config.Storage.BadgerPath, logger.Component(r.logger, "badger"))
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть badger: %w", err)
	}
	return kv, nil
}

func (r *Runner) writePlainln(format string, args ...any) {
	fmt.Fprintf(r.output, format+"\n", args...)
}
