package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

type fakeSvc struct{ runs atomic.Int32 }

func (f *fakeSvc) RunWeeklySnapshot(context.Context) (domain.JobResult, error) {
	f.runs.Add(1)
	return domain.JobResult{Success: true}, nil
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
}

func (l *fakeLock) TryAdvisoryLock(_ context.Context, key int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if key != lockKey || l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLock) AdvisoryUnlock(context.Context, int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.unlocked++
	return nil
}

func testCfg() config.Config {
	return config.Config{TZ: "UTC", DigestCron: "0 10 * * MON"}
}

func TestNewCron_RejectsBadSpec(t *testing.T) {
	cfg := testCfg()
	cfg.DigestCron = "every monday"

	_, err := NewCron(cfg, zerolog.Nop(), &fakeSvc{}, nil)

	require.Error(t, err)
}

func TestWeekly_TakesAndReleasesLock(t *testing.T) {
	svc := &fakeSvc{}
	lock := &fakeLock{}
	cr, err := NewCron(testCfg(), zerolog.Nop(), svc, lock)
	require.NoError(t, err)

	cr.weekly(context.Background())

	assert.EqualValues(t, 1, svc.runs.Load())
	assert.Equal(t, 1, lock.unlocked)
	assert.False(t, lock.held)
}

func TestWeekly_SkipsWhenLockHeld(t *testing.T) {
	svc := &fakeSvc{}
	lock := &fakeLock{held: true}
	cr, err := NewCron(testCfg(), zerolog.Nop(), svc, lock)
	require.NoError(t, err)

	cr.weekly(context.Background())

	assert.Zero(t, svc.runs.Load())
	assert.Zero(t, lock.unlocked)
}

func TestWeekly_SkipsOnLockError(t *testing.T) {
	svc := &fakeSvc{}
	cr, err := NewCron(testCfg(), zerolog.Nop(), svc, &fakeLock{err: errors.New("db down")})
	require.NoError(t, err)

	cr.weekly(context.Background())

	assert.Zero(t, svc.runs.Load())
}

func TestRunNow_WithoutLock(t *testing.T) {
	svc := &fakeSvc{}
	cr, err := NewCron(testCfg(), zerolog.Nop(), svc, nil)
	require.NoError(t, err)

	cr.RunNow()
	cr.Stop()

	assert.EqualValues(t, 1, svc.runs.Load())
}
