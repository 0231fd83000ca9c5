package services

import (
	"math"
	"sort"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// BuildIssueDigests groups issues by (project, epic) and totals them. An
// issue without story points, or with zero, counts as unestimated. navURL
// turns a JQL query into a link; nil leaves the links empty.
func BuildIssueDigests(issues []domain.Issue, navURL func(jql string) string) []domain.IssueDigest {
	type acc struct {
		digest domain.IssueDigest
		users  map[string]domain.User
	}
	groups := map[string]*acc{}
	for _, is := range issues {
		key := is.Project + ":" + is.EpicKey
		g, ok := groups[key]
		if !ok {
			g = &acc{
				digest: domain.IssueDigest{
					ID:         is.EpicKey + ":" + is.Project,
					ChapterKey: is.Project,
					EpicKey:    is.EpicKey,
				},
				users: map[string]domain.User{},
			}
			if navURL != nil {
				jql := "project = " + quote(is.Project) + " AND \"Epic Link\" = " + quote(is.EpicKey)
				g.digest.NavURL = navURL(jql)
			}
			groups[key] = g
		}

		g.digest.TotalIssues++
		if is.StoryPoints == nil || *is.StoryPoints == 0 {
			g.digest.UnestimatedIssues++
		} else {
			g.digest.TotalStoryPoints += int(math.Round(*is.StoryPoints))
		}
		if is.Assignee != nil && is.Assignee.ID != "" {
			g.users[is.Assignee.ID] = *is.Assignee
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.IssueDigest, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		g.digest.Users = sortedUsers(g.users)
		out = append(out, g.digest)
	}
	return out
}
