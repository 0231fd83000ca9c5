package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// Jira stamps like 2016-11-08T11:30:35.326-0700; the zone offset is kept.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	"2006-01-02",
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (c *Client) toIssue(ri rawIssue) (domain.Issue, error) {
	is := domain.Issue{ID: ri.ID, Key: ri.Key}
	if len(ri.Fields) == 0 || bytes.Equal(ri.Fields, []byte("null")) {
		is.History = toHistory(ri.Changelog)
		return is, nil
	}

	var f rawFields
	if err := json.Unmarshal(ri.Fields, &f); err != nil {
		return domain.Issue{}, fmt.Errorf("jira: issue %s fields: %w", ri.Key, err)
	}
	var custom map[string]json.RawMessage
	if err := json.Unmarshal(ri.Fields, &custom); err != nil {
		return domain.Issue{}, fmt.Errorf("jira: issue %s fields: %w", ri.Key, err)
	}

	is.Summary = f.Summary
	is.Description = plainText(f.Description)
	if f.IssueType != nil {
		is.Type = f.IssueType.Name
	}
	if f.Priority != nil {
		is.Priority = f.Priority.Name
	}
	if f.Status != nil {
		is.Status = f.Status.Name
		is.StatusCategory = toCategory(f.Status)
	}
	if f.Assignee != nil {
		u := toUser(*f.Assignee)
		is.Assignee = &u
	}
	if f.Project != nil {
		is.Project = f.Project.Key
	}
	is.CreatedAt = parseTime(f.Created)
	is.ResolvedAt = parseTime(f.Resolution)
	is.DueAt = parseTime(f.DueDate)
	for _, v := range f.FixVersions {
		is.FixVersions = append(is.FixVersions, toVersion(v))
	}

	is.StoryPoints = number(custom[c.fields.StoryPoints])
	is.EpicKey = text(custom[c.fields.EpicLink])
	is.Rank = text(custom[c.fields.Rank])
	is.History = toHistory(ri.Changelog)
	return is, nil
}

func (c *Client) toIssues(raw []rawIssue) ([]domain.Issue, error) {
	out := make([]domain.Issue, 0, len(raw))
	for _, ri := range raw {
		is, err := c.toIssue(ri)
		if err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, nil
}

func toCategory(s *rawStatus) domain.StatusCategory {
	switch s.Category.Key {
	case "new":
		return domain.StatusToDo
	case "indeterminate":
		return domain.StatusInProgress
	case "done":
		return domain.StatusDone
	}
	return domain.StatusCategory(s.Category.Name)
}

func toUser(u rawUser) domain.User {
	id := u.Key
	if id == "" {
		id = u.Name
	}
	if id == "" {
		id = u.AccountID
	}
	return domain.User{ID: id, DisplayName: u.DisplayName, Email: u.Email, Active: u.Active}
}

func toVersion(v rawVersion) domain.Version {
	projectID := strings.Trim(string(v.ProjectID), `"`)
	if projectID == "null" {
		projectID = ""
	}
	return domain.Version{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		ProjectID:   projectID,
		ReleaseDate: parseTime(v.ReleaseDate),
		Released:    v.Released,
		Archived:    v.Archived,
		URL:         v.Self,
	}
}

// toHistory returns the changelog newest first, whatever order Jira sent.
func toHistory(cl *rawChangelog) []domain.HistoryEntry {
	if cl == nil || len(cl.Histories) == 0 {
		return nil
	}
	out := make([]domain.HistoryEntry, 0, len(cl.Histories))
	for _, h := range cl.Histories {
		at := parseTime(h.Created)
		if at == nil {
			continue
		}
		e := domain.HistoryEntry{At: *at}
		for _, it := range h.Items {
			e.Items = append(e.Items, domain.FieldChange{Field: it.Field, From: it.FromString, To: it.ToString})
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

// number reads a numeric custom field; Jira sends a number, null or
// occasionally a string.
func number(raw json.RawMessage) *float64 {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// plainText flattens a v2 string or a v3 document into text.
func plainText(raw json.RawMessage) string {
	if s := text(raw); s != "" {
		return s
	}
	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var b strings.Builder
	doc.write(&b)
	return strings.TrimSpace(b.String())
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

func (n adfNode) write(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Content {
		c.write(b)
	}
	if n.Type == "paragraph" || n.Type == "heading" {
		b.WriteString("\n")
	}
}
