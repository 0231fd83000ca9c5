/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/burndown"
	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

type JiraClient interface {
	SearchAll(ctx context.Context, jql string) ([]domain.Issue, error)
	Issue(ctx context.Context, key string) (domain.Issue, error)
	EpicIssues(ctx context.Context, epicKey string) ([]domain.Issue, error)
	BoardEpicIssues(ctx context.Context, boardID int64, epicID string) ([]domain.Issue, error)
	Projects(ctx context.Context) ([]domain.Project, error)
	Project(ctx context.Context, key string) (domain.Project, error)
	GroupMembers(ctx context.Context, group string) ([]domain.User, error)
	ProjectVersions(ctx context.Context, key string) ([]domain.Version, error)
	Version(ctx context.Context, id string) (domain.Version, error)
	NavURL(jql string) string
	BrowseURL(key string) string
	ProjectURL(key string) string
}

// Store persists job runs and burn-down snapshots. It is nil when no
// database is configured.
type Store interface {
	StartJobRun(ctx context.Context, runID uuid.UUID, epics []string) (int64, error)
	FinishJobRun(ctx context.Context, id int64, res domain.JobResult) error
	GetLastRun(ctx context.Context) (*domain.JobRun, error)
	SaveBurnDowns(ctx context.Context, takenAt time.Time, bds []domain.BurnDown) error
	LatestBurnDown(ctx context.Context, epicKey string) (*domain.Snapshot, error)
}

type LLM interface {
	Enabled() bool
	SummarizeBurnDowns(ctx context.Context, payload any) (string, error)
}

type Notifier interface {
	Enabled() bool
	ChatIDs() []int64
	SendMessagePlain(ctx context.Context, chatID int64, text string) error
	SendMarkdownV2(ctx context.Context, chatID int64, text string) error
}

// Recorder receives burn-down outcomes for metrics.
type Recorder interface {
	BurnDown(err error, bars int)
}

type nopRecorder struct{}

func (nopRecorder) BurnDown(error, int) {}

type Service struct {
	cfg    config.Config
	log    zerolog.Logger
	jira   JiraClient
	store  Store
	llm    LLM
	tg     Notifier
	rec    Recorder
	period burndown.Period
	now    func() time.Time
}

// New wires the service. store, llm, tg and rec may be nil.
func New(cfg config.Config, log zerolog.Logger, jira JiraClient, store Store, llm LLM, tg Notifier, rec Recorder) (*Service, error) {
	period, err := burndown.ParsePeriod(cfg.BurnDownPeriod)
	if err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		cfg:    cfg,
		log:    log.With().Str("component", "service").Logger(),
		jira:   jira,
		store:  store,
		llm:    llm,
		tg:     tg,
		rec:    rec,
		period: period,
		now:    time.Now,
	}, nil
}

func (s *Service) workers() int {
	if s.cfg.WorkersJira > 0 {
		return s.cfg.WorkersJira
	}
	return 1
}

// GetLastRun returns the last weekly job run.
func (s *Service) GetLastRun(ctx context.Context) (*domain.JobRun, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: persistence disabled", domain.ErrNotFound)
	}
	return s.store.GetLastRun(ctx)
}

// LatestSnapshot returns the last stored burn-down of epicKey.
func (s *Service) LatestSnapshot(ctx context.Context, epicKey string) (*domain.Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: persistence disabled", domain.ErrNotFound)
	}
	return s.store.LatestBurnDown(ctx, epicKey)
}
