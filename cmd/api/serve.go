package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"travelplanner/internal/app"
	"travelplanner/internal/auth"
	"travelplanner/internal/database"
	"travelplanner/internal/handler"
	"travelplanner/internal/logger"
	"travelplanner/internal/mailer"
	"travelplanner/internal/otp"
	"travelplanner/internal/repository"
	"travelplanner/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply pending migrations before start",
				Value: true,
			},
		},
		Action: r.Serve,
	}
}

// Serve поднимает HTTP-сервер и останавливает его по SIGINT/SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := r.config

	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("migrate") {
		applied, err := database.Migrate(db)
		if err != nil {
			return err
		}
		r.logger.Info("миграции применены", "count", applied)
	}

	kv, err := r.openKV()
	if err != nil {
		return err
	}
	defer kv.Close()

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	plans := repository.NewPlanRepository(db)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL.Duration, cfg.Auth.RefreshTTL.Duration)
	codes := otp.NewStore(kv, cfg.OTP.Secret, cfg.OTP.TTL.Duration, otp.WithMaxAttempts(cfg.OTP.MaxAttempts))
	mail := mailer.New(cfg.Mail, logger.Component(r.logger, "mail"))

	searchApp, err := app.NewSearch(ctx, cfg, kv, r.logger)
	if err != nil {
		return err
	}
	defer searchApp.Close()

	h := handler.NewHandler(
		service.NewAuthService(users, tokens, hasher, issuer, logger.Component(r.logger, "auth")),
		service.NewUserService(users, hasher),
		service.NewPlanService(plans),
		service.NewPasswordResetService(users, hasher, codes, mail, logger.Component(r.logger, "reset")),
		searchApp.Service,
		logger.Component(r.logger, "http"),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("сервер запущен", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		r.logger.Info("остановка сервера")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				n, err := tokens.PurgeExpired(gctx, now)
				if err != nil {
					r.logger.Warn("не удалось очистить отозванные токены", "err", err)
					continue
				}
				if n > 0 {
					r.logger.Debug("отозванные токены очищены", "count", n)
				}
			}
		}
	})
	return g.Wait()
}
