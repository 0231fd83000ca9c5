/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

const (
	maxAttempts = 3
	pageSize    = 100
)

// APIError is a non-2xx answer from Jira.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira api status=%d body=%s", e.Status, e.Body)
}

// Is lets errors.Is(err, domain.ErrNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Status == http.StatusNotFound
}

// Fields names the instance specific custom fields.
type Fields struct {
	StoryPoints string
	EpicLink    string
	Rank        string
}

type Client struct {
	baseURL string
	token   string
	basic   string
	user    string
	pass    string
	http    *http.Client
	log     zerolog.Logger
	apiVer  string
	fields  Fields
	backoff time.Duration
	observe func(outcome string)
}

type Option func(*Client)

// WithObserver reports the outcome of every HTTP attempt: ok, retry or error.
func WithObserver(fn func(outcome string)) Option {
	return func(c *Client) { c.observe = fn }
}

// WithHTTPClient replaces the default client built from HTTP_TIMEOUT.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.Config, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.JiraBaseURL, "/"),
		token:   cfg.JiraPAT,
		basic:   getenvBasic(),
		user:    cfg.JiraUsername,
		pass:    cfg.JiraPassword,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log.With().Str("adapter", "jira").Logger(),
		apiVer:  cfg.JiraAPIVersion,
		fields: Fields{
			StoryPoints: cfg.FieldStoryPoints,
			EpicLink:    cfg.FieldEpicLink,
			Rank:        cfg.FieldRank,
		},
		backoff: 300 * time.Millisecond,
		observe: func(string) {},
	}
	if c.apiVer == "" {
		c.apiVer = "2"
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// getenvBasic reads JIRA_BASIC_AUTH from environment if present (format: user:pass base64), optional
func getenvBasic() string {
	return strings.TrimSpace(os.Getenv("JIRA_BASIC_AUTH"))
}

func (c *Client) apiURL(path string, q url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

// restURL addresses the platform REST API of the configured version.
func (c *Client) restURL(path string, q url.Values) string {
	return c.apiURL("/rest/api/"+c.apiVer+path, q)
}

func (c *Client) agileURL(path string, q url.Values) string {
	return c.apiURL("/rest/agile/1.0"+path, q)
}

func (c *Client) authorize(req *http.Request) {
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.user != "" && c.pass != "":
		req.SetBasicAuth(c.user, c.pass)
	case c.basic != "":
		req.Header.Set("Authorization", "Basic "+c.basic)
	}
}

// doJSON sends the request and decodes the answer into out. Transport
// errors, 429 and 5xx are retried with exponential backoff.
func (c *Client) doJSON(ctx context.Context, method, u string, body, out any) error {
	if c.baseURL == "" {
		return errors.New("jira: empty baseURL")
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		retry, err := c.send(ctx, method, u, payload, out)
		if err == nil {
			c.observe("ok")
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil || attempt == maxAttempts-1 {
			c.observe("error")
			return err
		}
		c.observe("retry")
		c.log.Warn().Err(err).Int("attempt", attempt+1).Str("url", u).Msg("jira request failed, retrying")
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, u string, payload []byte, out any) (retry bool, err error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		apiErr := &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, apiErr
	}
	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("jira: decode %s: %w", u, err)
	}
	return false, nil
}

// NavURL links to the Jira issue navigator for jql.
func (c *Client) NavURL(jql string) string {
	return c.baseURL + "/issues/?jql=" + url.QueryEscape(jql)
}

func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + url.PathEscape(key)
}

func (c *Client) ProjectURL(key string) string {
	return c.baseURL + "/projects/" + url.PathEscape(key) + "/issues/"
}
