package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"travelplanner/internal/app"
)

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Rank destinations for a free-text query",
		ArgsUsage: "<query words...>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "describe",
				Usage: "Attach generated descriptions",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// Search выполняет поиск без HTTP-сервера; кэш геокодера держится в памяти.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	s, err := app.NewSearch(ctx, r.config, nil, r.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.Service.Search(ctx, query, cmd.Bool("describe"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("не удалось сериализовать выдачу: %w", err)
		}
		r.writePlainln("%s", data)
		return nil
	}

	for i, rec := range recs {
		r.writePlainln("%d. %s (best time: %s)", i+1, rec.Place.City, rec.Place.BestTime)
		if rec.MapLink != "" {
			r.writePlainln("   %s", rec.MapLink)
		}
		if rec.Blurb != nil {
			r.writePlainln("   %s", rec.Blurb.Text)
		}
	}
	return nil
}
