package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

const (
	lockKey    int64 = 424242
	runTimeout       = 5 * time.Minute
)

type service interface {
	RunWeeklySnapshot(ctx context.Context) (domain.JobResult, error)
}

// locker is a cluster-wide mutex; Postgres advisory locks in production.
type locker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (bool, error)
	AdvisoryUnlock(ctx context.Context, key int64) error
}

type Cron struct {
	cfg  config.Config
	log  zerolog.Logger
	svc  service
	lock locker
	c    *cron.Cron
	wg   sync.WaitGroup
}

// NewCron schedules the weekly snapshot on cfg.DigestCron. lock may be nil,
// in which case runs are not coordinated between instances.
func NewCron(cfg config.Config, log zerolog.Logger, svc service, lock locker) (*Cron, error) {
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log.With().Str("component", "cron").Logger(), svc: svc, lock: lock, c: c}
	if _, err := c.AddFunc(cfg.DigestCron, func() { cr.weekly(context.Background()) }); err != nil {
		return nil, fmt.Errorf("jobs: CRON_SPEC %q: %w", cfg.DigestCron, err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop halts the schedule and waits for running jobs.
func (cr *Cron) Stop() {
	<-cr.c.Stop().Done()
	cr.wg.Wait()
}

// RunNow starts one snapshot in the background, detached from the caller.
func (cr *Cron) RunNow() {
	cr.wg.Add(1)
	go func() {
		defer cr.wg.Done()
		cr.weekly(context.Background())
	}()
}

func (cr *Cron) weekly(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()
	if cr.lock != nil {
		ok, err := cr.lock.TryAdvisoryLock(ctx, lockKey)
		if err != nil {
			cr.log.Error().Err(err).Msg("cron: lock error")
			return
		}
		if !ok {
			cr.log.Info().Msg("cron: already running elsewhere")
			return
		}
		defer func() {
			if err := cr.lock.AdvisoryUnlock(context.Background(), lockKey); err != nil {
				cr.log.Error().Err(err).Msg("cron: unlock failed")
			}
		}()
	}
	cr.log.Info().Msg("cron: weekly snapshot")
	res, err := cr.svc.RunWeeklySnapshot(ctx)
	if err != nil {
		cr.log.Error().Err(err).Msg("cron: snapshot failed")
		return
	}
	cr.log.Info().Int("epics", res.EpicsComputed).Int("messages", res.MessagesSent).Msg("cron: snapshot done")
}
