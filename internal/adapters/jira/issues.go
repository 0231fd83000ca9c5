/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// SearchPage is one page of a JQL search.
type SearchPage struct {
	StartAt    int
	MaxResults int
	Total      int
	Issues     []domain.Issue
}

// Search runs one page of jql. API v2 uses GET, later versions POST.
func (c *Client) Search(ctx context.Context, jql string, startAt, max int) (SearchPage, error) {
	if strings.TrimSpace(jql) == "" {
		return SearchPage{}, errors.New("jira: empty jql")
	}
	var raw rawPage
	var err error
	if c.apiVer == "2" {
		q := url.Values{}
		q.Set("jql", jql)
		if startAt > 0 {
			q.Set("startAt", strconv.Itoa(startAt))
		}
		if max > 0 {
			q.Set("maxResults", strconv.Itoa(max))
		}
		q.Set("fields", "*all")
		err = c.doJSON(ctx, http.MethodGet, c.restURL("/search", q), nil, &raw)
	} else {
		body := map[string]any{"jql": jql, "startAt": startAt, "maxResults": max, "fields": []string{"*all"}}
		err = c.doJSON(ctx, http.MethodPost, c.restURL("/search", nil), body, &raw)
	}
	if err != nil {
		return SearchPage{}, err
	}
	issues, err := c.toIssues(raw.Issues)
	if err != nil {
		return SearchPage{}, err
	}
	return SearchPage{StartAt: raw.StartAt, MaxResults: raw.MaxResults, Total: raw.Total, Issues: issues}, nil
}

// SearchAll follows startAt pagination until every match is read.
func (c *Client) SearchAll(ctx context.Context, jql string) ([]domain.Issue, error) {
	var out []domain.Issue
	for startAt := 0; ; {
		page, err := c.Search(ctx, jql, startAt, pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Issues...)
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			return out, nil
		}
	}
}

// Issue fetches one issue with all fields and its changelog.
func (c *Client) Issue(ctx context.Context, key string) (domain.Issue, error) {
	if strings.TrimSpace(key) == "" {
		return domain.Issue{}, errors.New("jira: empty issue key")
	}
	q := url.Values{}
	q.Set("fields", "*all")
	q.Set("expand", "changelog")
	var raw rawIssue
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("/issue/"+url.PathEscape(key), q), nil, &raw); err != nil {
		return domain.Issue{}, err
	}
	return c.toIssue(raw)
}

// EpicIssues lists the child issues of an epic through the Agile API.
func (c *Client) EpicIssues(ctx context.Context, epicKey string) ([]domain.Issue, error) {
	if strings.TrimSpace(epicKey) == "" {
		return nil, errors.New("jira: empty epic key")
	}
	return c.agilePages(ctx, "/epic/"+url.PathEscape(epicKey)+"/issue", url.Values{})
}

// BoardEpicIssues lists the issues of an epic on a board with the fields a
// burn-down needs and their changelogs, newest change first.
func (c *Client) BoardEpicIssues(ctx context.Context, boardID int64, epicID string) ([]domain.Issue, error) {
	if boardID <= 0 {
		return nil, errors.New("jira: invalid board id")
	}
	if strings.TrimSpace(epicID) == "" {
		return nil, errors.New("jira: empty epic id")
	}
	q := url.Values{}
	q.Set("expand", "changelog")
	q.Set("fields", strings.Join([]string{"key", c.fields.StoryPoints, "sprint", "status", "resolutiondate", "created", "project"}, ","))
	path := "/board/" + strconv.FormatInt(boardID, 10) + "/epic/" + url.PathEscape(epicID) + "/issue"
	return c.agilePages(ctx, path, q)
}

func (c *Client) agilePages(ctx context.Context, path string, q url.Values) ([]domain.Issue, error) {
	var out []domain.Issue
	for startAt := 0; ; {
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(pageSize))
		var raw rawPage
		if err := c.doJSON(ctx, http.MethodGet, c.agileURL(path, q), nil, &raw); err != nil {
			return nil, err
		}
		for _, ri := range raw.Issues {
			is, err := c.toIssue(ri)
			if err != nil {
				return nil, err
			}
			if truncated(ri.Changelog) {
				if is, err = c.fullHistory(ctx, is); err != nil {
					return nil, err
				}
			}
			out = append(out, is)
		}
		startAt += len(raw.Issues)
		if len(raw.Issues) == 0 || startAt >= raw.Total {
			return out, nil
		}
	}
}

// Embedded changelogs stop at a server limit; the issue endpoint has them all.
func truncated(cl *rawChangelog) bool {
	return cl != nil && cl.Total > len(cl.Histories)
}

func (c *Client) fullHistory(ctx context.Context, is domain.Issue) (domain.Issue, error) {
	full, err := c.Issue(ctx, is.Key)
	if err != nil {
		return is, fmt.Errorf("jira: changelog of %s: %w", is.Key, err)
	}
	is.History = full.History
	return is, nil
}
