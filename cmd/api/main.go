package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dose-tracker/internal/adapters/auth/odin"
	pg "dose-tracker/internal/adapters/storage/postgres"
	rds "dose-tracker/internal/adapters/storage/redis"
	"dose-tracker/internal/config"
	"dose-tracker/internal/platform/logger"
	"dose-tracker/internal/platform/metrics"
	"dose-tracker/internal/ports/auth"
	"dose-tracker/internal/router"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// @title Dose Tracker API
// @version 1.0
// @description Medicamentos, tomas programadas, alarmas y adherencia del paciente.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(ctx, pg.Options{DSN: cfg.DBDSN})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer db.Close()

		if cfg.DBAutoMigrate {
			if err := pg.EnsureSchema(ctx, db); err != nil {
				return fmt.Errorf("postgres schema: %w", err)
			}
		}
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb, err = rds.Open(ctx, rds.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
	}

	var verifier auth.TokenVerifier
	client, err := odin.NewClient(odin.Config{BaseURL: cfg.OdinBaseURL, APIKey: cfg.OdinAPIKey})
	if err != nil {
		return err
	}
	if client.IsConfigured() {
		verifier = odin.NewVerifier(client)
	} else {
		log.Warn("odin not configured, dev auth via X-Debug-User-ID", nil)
	}

	rt := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Redis:        rdb,
		Logger:       log,
		Metrics:      metrics.NewCollector("dose_tracker"),
		Context:      ctx,
		Location:     cfg.Location(),
		PollInterval: cfg.AlarmPollInterval,
		DueWindow:    cfg.AlarmDueWindow,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rt,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		rt.Alarms.Shutdown()
		log.Info("server stopped", nil)
		return err
	})
	return g.Wait()
}
