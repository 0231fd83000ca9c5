package jira

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var raw []rawProject
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("/project", nil), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Project{ID: p.ID, Key: p.Key, Name: p.Name})
	}
	return out, nil
}

// Project accepts a project key or numeric id.
func (c *Client) Project(ctx context.Context, key string) (domain.Project, error) {
	if strings.TrimSpace(key) == "" {
		return domain.Project{}, errors.New("jira: empty project key")
	}
	var p rawProject
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("/project/"+url.PathEscape(key), nil), nil, &p); err != nil {
		return domain.Project{}, err
	}
	return domain.Project{ID: p.ID, Key: p.Key, Name: p.Name}, nil
}

// GroupMembers pages through the members of a Jira group.
func (c *Client) GroupMembers(ctx context.Context, group string) ([]domain.User, error) {
	if strings.TrimSpace(group) == "" {
		return nil, errors.New("jira: empty group name")
	}
	var out []domain.User
	for startAt := 0; ; {
		q := url.Values{}
		q.Set("groupname", group)
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(pageSize))
		var raw rawMembers
		if err := c.doJSON(ctx, http.MethodGet, c.restURL("/group/member", q), nil, &raw); err != nil {
			return nil, err
		}
		for _, u := range raw.Values {
			out = append(out, toUser(u))
		}
		startAt += len(raw.Values)
		if raw.IsLast || len(raw.Values) == 0 || startAt >= raw.Total {
			return out, nil
		}
	}
}

func (c *Client) ProjectVersions(ctx context.Context, key string) ([]domain.Version, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("jira: empty project key")
	}
	var raw []rawVersion
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("/project/"+url.PathEscape(key)+"/versions", nil), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Version, 0, len(raw))
	for _, v := range raw {
		out = append(out, toVersion(v))
	}
	return out, nil
}

func (c *Client) Version(ctx context.Context, id string) (domain.Version, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Version{}, errors.New("jira: empty version id")
	}
	var v rawVersion
	if err := c.doJSON(ctx, http.MethodGet, c.restURL("/version/"+url.PathEscape(id), nil), nil, &v); err != nil {
		return domain.Version{}, err
	}
	return toVersion(v), nil
}
