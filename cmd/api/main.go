/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/adapters/jira"
	"github.com/magicronn/jira-scg-utils/internal/adapters/openai"
	"github.com/magicronn/jira-scg-utils/internal/adapters/telegram"
	"github.com/magicronn/jira-scg-utils/internal/config"
	apphttp "github.com/magicronn/jira-scg-utils/internal/http"
	"github.com/magicronn/jira-scg-utils/internal/jobs"
	"github.com/magicronn/jira-scg-utils/internal/logger"
	"github.com/magicronn/jira-scg-utils/internal/metrics"
	"github.com/magicronn/jira-scg-utils/internal/repo"
	"github.com/magicronn/jira-scg-utils/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("exit")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// DB is optional; without it there are no snapshots and no schedule
	var (
		store services.Store
		lock  *repo.Repository
	)
	if cfg.PersistenceEnabled() {
		db, err := repo.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repo.Migrate(ctx, cfg.DBDSN); err != nil {
			return err
		}
		lock = repo.NewRepository(db, log)
		store = lock
	} else {
		log.Warn().Msg("DB_DSN empty: persistence and cron disabled")
	}

	// Adapters
	jc := jira.NewClient(cfg, log, jira.WithObserver(m.JiraRequest))
	llm := openai.NewClient(cfg, log)
	tg := telegram.NewClient(cfg, log)

	svc, err := services.New(cfg, log, jc, store, llm, tg, m)
	if err != nil {
		return err
	}

	// a nil *repo.Repository must not become a non-nil locker
	var cr *jobs.Cron
	if lock != nil {
		cr, err = jobs.NewCron(cfg, log, svc, lock)
	} else {
		cr, err = jobs.NewCron(cfg, log, svc, nil)
	}
	if err != nil {
		return err
	}
	if cfg.PersistenceEnabled() {
		cr.Start()
	}
	defer cr.Stop()

	router := apphttp.NewRouter(cfg, log, svc, cr, m)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
