package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// quote renders s as a JQL string literal.
func quote(s string) string {
	return strconv.Quote(s)
}

// keyList renders keys for a JQL in (...) clause.
func keyList(keys []string) string {
	return "(" + strings.Join(keys, ",") + ")"
}

// rankOrder turns a rank field id such as customfield_10200 into its JQL
// sort clause.
func rankOrder(field string) string {
	if id, ok := strings.CutPrefix(field, "customfield_"); ok && id != "" {
		return " ORDER BY cf[" + id + "] ASC"
	}
	return " ORDER BY Rank ASC"
}

// assignees returns the distinct assignees of issues, by id.
func assignees(issues []domain.Issue, activeOnly bool) []domain.User {
	seen := map[string]domain.User{}
	for _, is := range issues {
		if is.Assignee == nil || is.Assignee.ID == "" {
			continue
		}
		if activeOnly && !is.Assignee.Active {
			continue
		}
		seen[is.Assignee.ID] = *is.Assignee
	}
	return sortedUsers(seen)
}

func sortedUsers(m map[string]domain.User) []domain.User {
	out := make([]domain.User, 0, len(m))
	for _, u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
