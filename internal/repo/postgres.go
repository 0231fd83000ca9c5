package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects to cfg.DBDSN and pings within 10 seconds.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &DB{Pool: pool, log: log}, nil
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
	db  *DB
	log zerolog.Logger

	// advisory locks belong to a session; each held lock pins its connection
	mu    sync.Mutex
	locks map[int64]*pgxpool.Conn
}

func NewRepository(d *DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:    d,
		log:   log.With().Str("component", "repo").Logger(),
		locks: map[int64]*pgxpool.Conn{},
	}
}

// TryAdvisoryLock takes a session advisory lock on a connection that stays
// out of the pool until AdvisoryUnlock.
func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.locks[key]; held {
		return false, nil
	}
	conn, err := r.db.Pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("advisory lock %d: %w", key, err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return false, err
	}
	if !ok {
		conn.Release()
		return false, nil
	}
	r.locks[key] = conn
	return true, nil
}

// AdvisoryUnlock releases key on the connection that took it.
func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
	r.mu.Lock()
	conn, held := r.locks[key]
	delete(r.locks, key)
	r.mu.Unlock()
	if !held {
		return fmt.Errorf("advisory unlock %d: not held", key)
	}

	var ok bool
	err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
	if err != nil {
		// the session may still hold the lock; dropping the connection frees it
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		return err
	}
	conn.Release()
	if !ok {
		return errors.New("advisory unlock returned false")
	}
	return nil
}

func (r *Repository) StartJobRun(ctx context.Context, runID uuid.UUID, epics []string) (int64, error) {
	if epics == nil {
		epics = []string{}
	}
	epicsJSON, err := json.Marshal(epics)
	if err != nil {
		return 0, err
	}
	const q = `INSERT INTO job_runs(run_id, started_at, epics, success) VALUES($1::uuid, now(), $2::jsonb, false) RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, runID.String(), string(epicsJSON)).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) FinishJobRun(ctx context.Context, id int64, res domain.JobResult) error {
	const q = `UPDATE job_runs SET finished_at=now(), epics_computed=$2, snapshots_saved=$3,
		messages_sent=$4, success=$5, error=$6 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, res.EpicsComputed, res.SnapshotsSaved, res.MessagesSent, res.Success, res.Error)
	return err
}

// GetLastRun returns the newest job run or domain.ErrNotFound.
func (r *Repository) GetLastRun(ctx context.Context) (*domain.JobRun, error) {
	const q = `SELECT id, run_id::text, started_at, finished_at, epics::text,
		coalesce(epics_computed,0), coalesce(snapshots_saved,0), coalesce(messages_sent,0),
		coalesce(success,false), coalesce(error,'')
		FROM job_runs ORDER BY id DESC LIMIT 1`
	lr := &domain.JobRun{}
	var epics string
	err := r.db.Pool.QueryRow(ctx, q).Scan(&lr.ID, &lr.RunID, &lr.StartedAt, &lr.FinishedAt, &epics,
		&lr.EpicsComputed, &lr.SnapshotsSaved, &lr.MessagesSent, &lr.Success, &lr.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no job run recorded", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(epics), &lr.Epics); err != nil {
		return nil, fmt.Errorf("job run %d epics: %w", lr.ID, err)
	}
	return lr, nil
}

// SaveBurnDowns stores one snapshot per burn-down, all stamped takenAt.
// A repeated (epic, takenAt) pair replaces the earlier bars.
func (r *Repository) SaveBurnDowns(ctx context.Context, takenAt time.Time, bds []domain.BurnDown) error {
	if len(bds) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const q = `INSERT INTO burndown_snapshots(epic_key, taken_at, scale, bars) VALUES($1,$2,$3,$4::jsonb)
		ON CONFLICT (epic_key, taken_at) DO UPDATE SET scale=EXCLUDED.scale, bars=EXCLUDED.bars`
	for _, bd := range bds {
		bars, err := json.Marshal(bd.Bars)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", bd.ID, err)
		}
		batch.Queue(q, bd.ID, takenAt.UTC(), bd.Scale, string(bars))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range bds {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) SaveBurnDown(ctx context.Context, takenAt time.Time, bd domain.BurnDown) error {
	return r.SaveBurnDowns(ctx, takenAt, []domain.BurnDown{bd})
}

// LatestBurnDown returns the newest snapshot of epicKey or domain.ErrNotFound.
func (r *Repository) LatestBurnDown(ctx context.Context, epicKey string) (*domain.Snapshot, error) {
	const q = `SELECT taken_at, scale, bars::text FROM burndown_snapshots
		WHERE epic_key=$1 ORDER BY taken_at DESC LIMIT 1`
	s := &domain.Snapshot{EpicKey: epicKey, BurnDown: domain.BurnDown{ID: epicKey}}
	var bars string
	err := r.db.Pool.QueryRow(ctx, q, epicKey).Scan(&s.TakenAt, &s.BurnDown.Scale, &bars)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshot of %s", domain.ErrNotFound, epicKey)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bars), &s.BurnDown.Bars); err != nil {
		return nil, fmt.Errorf("snapshot %s bars: %w", epicKey, err)
	}
	return s, nil
}
