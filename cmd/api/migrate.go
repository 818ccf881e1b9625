package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"travelplanner/internal/database"
)

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: r.MigrateUp,
			},
			{
				Name:   "down",
				Usage:  "Roll back the latest migration",
				Action: r.MigrateDown,
			},
		},
	}
}

func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(db)
	if err != nil {
		return err
	}
	r.writePlainln("Applied migrations: %d", applied)
	return nil
}

func (r *Runner) MigrateDown(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Rollback(db); err != nil {
		return err
	}
	r.writePlainln("Rolled back the latest migration")
	return nil
}
