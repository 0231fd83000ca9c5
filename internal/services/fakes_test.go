package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

type fakeJira struct {
	mu   sync.Mutex
	jqls []string

	issues     map[string]domain.Issue
	search     map[string][]domain.Issue
	epicIssues map[string][]domain.Issue
	board      map[string][]domain.Issue // by epic id
	projects   []domain.Project
	groups     map[string][]domain.User
	versions   map[string][]domain.Version
	version    map[string]domain.Version
	fail       map[string]error // by issue key or jql
}

func (f *fakeJira) record(jql string) {
	f.mu.Lock()
	f.jqls = append(f.jqls, jql)
	f.mu.Unlock()
}

func (f *fakeJira) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.jqls...)
}

func (f *fakeJira) SearchAll(_ context.Context, jql string) ([]domain.Issue, error) {
	f.record(jql)
	if err := f.fail[jql]; err != nil {
		return nil, err
	}
	return f.search[jql], nil
}

func (f *fakeJira) Issue(_ context.Context, key string) (domain.Issue, error) {
	if err := f.fail[key]; err != nil {
		return domain.Issue{}, err
	}
	is, ok := f.issues[key]
	if !ok {
		return domain.Issue{}, fmt.Errorf("issue %s: %w", key, domain.ErrNotFound)
	}
	return is, nil
}

func (f *fakeJira) EpicIssues(_ context.Context, epicKey string) ([]domain.Issue, error) {
	return f.epicIssues[epicKey], nil
}

func (f *fakeJira) BoardEpicIssues(_ context.Context, _ int64, epicID string) ([]domain.Issue, error) {
	return f.board[epicID], nil
}

func (f *fakeJira) Projects(context.Context) ([]domain.Project, error) { return f.projects, nil }

func (f *fakeJira) Project(_ context.Context, key string) (domain.Project, error) {
	for _, p := range f.projects {
		if p.Key == key || p.ID == key {
			return p, nil
		}
	}
	return domain.Project{}, domain.ErrNotFound
}

func (f *fakeJira) GroupMembers(_ context.Context, group string) ([]domain.User, error) {
	return f.groups[group], nil
}

func (f *fakeJira) ProjectVersions(_ context.Context, key string) ([]domain.Version, error) {
	return f.versions[key], nil
}

func (f *fakeJira) Version(_ context.Context, id string) (domain.Version, error) {
	v, ok := f.version[id]
	if !ok {
		return domain.Version{}, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeJira) NavURL(jql string) string     { return "nav:" + jql }
func (f *fakeJira) BrowseURL(key string) string  { return "browse:" + key }
func (f *fakeJira) ProjectURL(key string) string { return "project:" + key }

type fakeStore struct {
	mu       sync.Mutex
	started  []uuid.UUID
	finished []domain.JobResult
	saved    []domain.BurnDown
	takenAt  time.Time
}

func (s *fakeStore) StartJobRun(_ context.Context, runID uuid.UUID, _ []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, runID)
	return int64(len(s.started)), nil
}

func (s *fakeStore) FinishJobRun(_ context.Context, _ int64, res domain.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, res)
	return nil
}

func (s *fakeStore) GetLastRun(context.Context) (*domain.JobRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.finished) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.JobRun{ID: int64(len(s.finished)), JobResult: s.finished[len(s.finished)-1]}, nil
}

func (s *fakeStore) SaveBurnDowns(_ context.Context, takenAt time.Time, bds []domain.BurnDown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.takenAt = takenAt
	s.saved = append(s.saved, bds...)
	return nil
}

func (s *fakeStore) LatestBurnDown(_ context.Context, epicKey string) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.saved) - 1; i >= 0; i-- {
		if s.saved[i].ID == epicKey {
			return &domain.Snapshot{EpicKey: epicKey, TakenAt: s.takenAt, BurnDown: s.saved[i]}, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeLLM struct {
	payload any
	text    string
	err     error
}

func (l *fakeLLM) Enabled() bool { return true }

func (l *fakeLLM) SummarizeBurnDowns(_ context.Context, payload any) (string, error) {
	l.payload = payload
	return l.text, l.err
}

type fakeNotifier struct {
	chats []int64
	sent  map[int64][]string
}

func (n *fakeNotifier) Enabled() bool    { return true }
func (n *fakeNotifier) ChatIDs() []int64 { return n.chats }

func (n *fakeNotifier) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	return n.SendMarkdownV2(ctx, chatID, text)
}

func (n *fakeNotifier) SendMarkdownV2(_ context.Context, chatID int64, text string) error {
	if n.sent == nil {
		n.sent = map[int64][]string{}
	}
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

type countingRecorder struct {
	mu       sync.Mutex
	ok, fail int
}

func (r *countingRecorder) BurnDown(err error, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.fail++
		return
	}
	r.ok++
}

func testConfig() config.Config {
	return config.Config{
		JiraBoardID:          211,
		JiraEpicProject:      "LAB",
		FieldStoryPointsName: "Story Points",
		FieldRank:            "customfield_10200",
		ChapterKeys:          []string{"BSF", "UIX"},
		ChapterGroups:        map[string]string{},
		ReleaseHistoryDays:   60,
		BurnDownPeriod:       "week",
		WorkersJira:          4,
	}
}

func newTestService(t *testing.T, cfg config.Config, jira JiraClient, store Store, llm LLM, tg Notifier, rec Recorder) *Service {
	t.Helper()
	s, err := New(cfg, zerolog.Nop(), jira, store, llm, tg, rec)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	return s
}

func ts(t *testing.T, s string) *time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return &v
}

func pts(v float64) *float64 { return &v }

func testLogger() zerolog.Logger { return zerolog.Nop() }
