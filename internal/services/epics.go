package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// defaultRank sorts epics without a rank value.
const defaultRank = "0000000"

type EpicQuery struct {
	Chapter        string   // project holding the epics; the epic project when empty
	Statuses       []string // workflow status names, any of
	IncludeDigests bool
}

func (q EpicQuery) jql(epicProject, rankField string) string {
	project := q.Chapter
	if project == "" {
		project = epicProject
	}
	var b strings.Builder
	b.WriteString("type = Epic AND resolution is EMPTY AND project = ")
	b.WriteString(quote(project))
	if len(q.Statuses) > 0 {
		quoted := make([]string, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			quoted = append(quoted, quote(st))
		}
		b.WriteString(" AND status in ")
		b.WriteString(keyList(quoted))
	}
	b.WriteString(rankOrder(rankField))
	return b.String()
}

// Epics lists unresolved epics in rank order.
func (s *Service) Epics(ctx context.Context, q EpicQuery) ([]domain.Epic, error) {
	issues, err := s.jira.SearchAll(ctx, q.jql(s.cfg.JiraEpicProject, s.cfg.FieldRank))
	if err != nil {
		return nil, fmt.Errorf("list epics: %w", err)
	}
	return s.buildEpics(ctx, issues, q.IncludeDigests)
}

// EpicByKey returns one epic with its issue digests.
func (s *Service) EpicByKey(ctx context.Context, key string) (domain.Epic, error) {
	is, err := s.jira.Issue(ctx, key)
	if err != nil {
		return domain.Epic{}, fmt.Errorf("epic %s: %w", key, err)
	}
	return s.buildEpic(ctx, is, true)
}

func (s *Service) buildEpics(ctx context.Context, issues []domain.Issue, withDigests bool) ([]domain.Epic, error) {
	out := make([]domain.Epic, len(issues))
	err := parallel(ctx, s.workers(), len(issues), func(ctx context.Context, i int) error {
		e, err := s.buildEpic(ctx, issues[i], withDigests)
		out[i] = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) buildEpic(ctx context.Context, is domain.Issue, withDigests bool) (domain.Epic, error) {
	e := domain.Epic{
		ID:           is.Key,
		JiraID:       is.ID,
		Summary:      is.Summary,
		Description:  is.Description,
		Created:      is.CreatedAt,
		DueDate:      is.DueAt,
		Assignee:     domain.Unassigned,
		Priority:     is.Priority,
		Status:       is.Status,
		Rank:         is.Rank,
		URL:          s.jira.BrowseURL(is.Key),
		IssueDigests: []domain.IssueDigest{},
	}
	if is.Assignee != nil {
		e.Assignee = *is.Assignee
	}
	if e.Rank == "" {
		e.Rank = defaultRank
	}
	if !withDigests {
		return e, nil
	}
	children, err := s.jira.EpicIssues(ctx, is.Key)
	if err != nil {
		return domain.Epic{}, fmt.Errorf("epic %s issues: %w", is.Key, err)
	}
	e.IssueDigests = BuildIssueDigests(children, s.jira.NavURL)
	return e, nil
}

// EpicStatusSummary counts epics by status. "Scoped and Ready for Commit"
// is reported as "Scoped and ready"; "To Do" and "To Scope" fold into
// "Backlog", which is always present.
func EpicStatusSummary(epics []domain.Epic) map[string]int {
	out := map[string]int{"Backlog": 0}
	for _, e := range epics {
		switch e.Status {
		case "Scoped and Ready for Commit":
			out["Scoped and ready"]++
		case "To Do", "To Scope":
			out["Backlog"]++
		default:
			out[e.Status]++
		}
	}
	return out
}

// EpicStatusCounts summarises the unresolved epics of the epic project.
func (s *Service) EpicStatusCounts(ctx context.Context) (map[string]int, error) {
	epics, err := s.Epics(ctx, EpicQuery{})
	if err != nil {
		return nil, err
	}
	return EpicStatusSummary(epics), nil
}
