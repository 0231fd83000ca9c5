package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

type userFilter struct {
	domain.UserFilter
	// users lists who the filter hides; an empty chapter means all chapters
	users func(s *Service, ctx context.Context, chapter string) ([]domain.User, error)
}

var userFilters = []userFilter{
	{
		UserFilter: domain.UserFilter{ID: "uf-squad", Summary: "Hide Squad Engineers",
			Description: "Hide any engineers with open tickets under an active portfolio epic"},
		users: (*Service).usersInSquad,
	},
	{
		UserFilter: domain.UserFilter{ID: "uf-chapter-in-prog", Summary: "Hide Chapter In-Progress Engineers",
			Description: "Hide any engineer currently working on a ticket marked In-Progress"},
		users: (*Service).usersInChapterWork,
	},
	{
		UserFilter: domain.UserFilter{ID: "uf-chapter-in-sprint", Summary: "Hide Chapter Sprint Engineers",
			Description: "Hide any engineer with open tickets in an active sprint"},
		users: (*Service).usersInActiveSprint,
	},
	{
		UserFilter: domain.UserFilter{ID: "uf-arch-poc", Summary: "Hide Engineers currently working on an Arch PoC",
			Description: "Hide any engineer currently on loan to an Arch PoC project"},
		users: func(*Service, context.Context, string) ([]domain.User, error) { return nil, nil },
	},
	{
		UserFilter: domain.UserFilter{ID: "uf-nondevs", Summary: "Hide Non-developers",
			Description: "Hide any user who is not a developer"},
		users: (*Service).nonDevelopers,
	},
}

func (s *Service) UserFilters() []domain.UserFilter {
	out := make([]domain.UserFilter, 0, len(userFilters))
	for _, f := range userFilters {
		out = append(out, f.UserFilter)
	}
	return out
}

func lookupFilter(id string) (userFilter, bool) {
	for _, f := range userFilters {
		if f.ID == id {
			return f, true
		}
	}
	return userFilter{}, false
}

// hiddenUsers resolves every filter in ids for chapter and returns the
// union of the users they hide, keyed by id.
func (s *Service) hiddenUsers(ctx context.Context, chapter string, ids []string) (map[string]struct{}, error) {
	filters := make([]userFilter, 0, len(ids))
	for _, id := range ids {
		f, ok := lookupFilter(strings.TrimSpace(id))
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownUserFilter, id)
		}
		filters = append(filters, f)
	}

	hidden := map[string]struct{}{}
	for _, f := range filters {
		users, err := f.users(s, ctx, chapter)
		if err != nil {
			return nil, fmt.Errorf("user filter %s: %w", f.ID, err)
		}
		for _, u := range users {
			hidden[u.ID] = struct{}{}
		}
	}
	return hidden, nil
}

// usersInSquad finds assignees of in-progress chapter work that belongs to
// an in-progress portfolio epic.
func (s *Service) usersInSquad(ctx context.Context, chapter string) ([]domain.User, error) {
	epics, err := s.jira.SearchAll(ctx, "project = "+quote(s.cfg.JiraEpicProject)+
		" AND type = Epic AND statusCategory = \"In Progress\"")
	if err != nil {
		return nil, err
	}
	if len(epics) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(epics))
	for _, e := range epics {
		keys = append(keys, e.Key)
	}

	jql := "\"Epic Link\" in " + keyList(keys) + " AND type != Epic AND statusCategory = \"In Progress\""
	if chapter != "" {
		jql = "project = " + quote(chapter) + " AND " + jql
	}
	issues, err := s.jira.SearchAll(ctx, jql)
	if err != nil {
		return nil, err
	}
	return assignees(issues, false), nil
}

func (s *Service) usersInChapterWork(ctx context.Context, chapter string) ([]domain.User, error) {
	scope := "project = " + quote(chapter)
	if chapter == "" {
		if len(s.cfg.ChapterKeys) == 0 {
			return nil, nil
		}
		quoted := make([]string, 0, len(s.cfg.ChapterKeys))
		for _, k := range s.cfg.ChapterKeys {
			quoted = append(quoted, quote(k))
		}
		scope = "project in " + keyList(quoted)
	}
	issues, err := s.jira.SearchAll(ctx, scope+" AND type != Epic AND statusCategory = \"In Progress\"")
	if err != nil {
		return nil, err
	}
	return assignees(issues, false), nil
}

func (s *Service) usersInActiveSprint(ctx context.Context, chapter string) ([]domain.User, error) {
	jql := "Sprint in openSprints() AND statusCategory = \"In Progress\""
	if chapter != "" {
		jql += " AND project = " + quote(chapter)
	}
	issues, err := s.jira.SearchAll(ctx, jql)
	if err != nil {
		return nil, err
	}
	return assignees(issues, false), nil
}

func (s *Service) nonDevelopers(context.Context, string) ([]domain.User, error) {
	out := make([]domain.User, 0, len(s.cfg.NonDevUsers))
	for _, id := range s.cfg.NonDevUsers {
		out = append(out, domain.User{ID: id, DisplayName: id})
	}
	return out, nil
}
