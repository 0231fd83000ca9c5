/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/adapters/jira"
	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/magicronn/jira-scg-utils/internal/domain"
	"github.com/magicronn/jira-scg-utils/internal/services"
)

const apiVersion = "jira-scg-utils api v1.0"

type Service interface {
	UserFilters() []domain.UserFilter
	Epics(ctx context.Context, q services.EpicQuery) ([]domain.Epic, error)
	EpicByKey(ctx context.Context, key string) (domain.Epic, error)
	BurnDown(ctx context.Context, epicKey string) (domain.BurnDown, error)
	BurnDowns(ctx context.Context, epicKeys []string) ([]domain.BurnDown, error)
	LatestSnapshot(ctx context.Context, epicKey string) (*domain.Snapshot, error)
	Chapters(ctx context.Context) ([]domain.Chapter, error)
	ChapterByKey(ctx context.Context, key string, filterIDs []string) (domain.Chapter, error)
	ChapterReleases(ctx context.Context, key string) ([]domain.Release, error)
	ReleaseByID(ctx context.Context, id string) (domain.Release, error)
	ReleaseMatrix(ctx context.Context, epicKeys []string) (services.ReleaseMatrix, error)
	EpicStatusCounts(ctx context.Context) (map[string]int, error)
	GetLastRun(ctx context.Context) (*domain.JobRun, error)
}

// Runner starts a weekly snapshot outside the schedule.
type Runner interface {
	RunNow()
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc Service
	run Runner
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc Service, run Runner) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc, run: run}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Version(c *gin.Context) {
	c.String(http.StatusOK, apiVersion)
}

func (h *Handlers) UserFilters(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.UserFilters())
}

func (h *Handlers) Epics(c *gin.Context) {
	q := services.EpicQuery{
		Chapter:        strings.ToUpper(strings.TrimSpace(c.Query("chapter"))),
		Statuses:       listParam(c, "status"),
		IncludeDigests: true,
	}
	epics, err := h.svc.Epics(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, epics)
}

func (h *Handlers) Epic(c *gin.Context) {
	e, err := h.svc.EpicByKey(c.Request.Context(), issueKey(c.Param("key")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handlers) BurnDown(c *gin.Context) {
	bd, err := h.svc.BurnDown(c.Request.Context(), issueKey(c.Param("key")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bd)
}

func (h *Handlers) Snapshot(c *gin.Context) {
	snap, err := h.svc.LatestSnapshot(c.Request.Context(), issueKey(c.Param("key")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handlers) Chapters(c *gin.Context) {
	chapters, err := h.svc.Chapters(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *Handlers) Chapter(c *gin.Context) {
	ch, err := h.svc.ChapterByKey(c.Request.Context(), issueKey(c.Param("key")), listParam(c, "userfilter"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handlers) ChapterReleases(c *gin.Context) {
	rs, err := h.svc.ChapterReleases(c.Request.Context(), issueKey(c.Param("key")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handlers) Release(c *gin.Context) {
	r, err := h.svc.ReleaseByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) BurnDowns(c *gin.Context) {
	keys := csvIssues(c.Query("csv-issues"))
	if len(keys) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "csv-issues is required"})
		return
	}
	bds, err := h.svc.BurnDowns(c.Request.Context(), keys)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bds)
}

func (h *Handlers) ReleaseMatrix(c *gin.Context) {
	m, err := h.svc.ReleaseMatrix(c.Request.Context(), csvIssues(c.Query("csv-issues")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handlers) EpicStatus(c *gin.Context) {
	counts, err := h.svc.EpicStatusCounts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handlers) LastRun(c *gin.Context) {
	lr, err := h.svc.GetLastRun(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RunNow(c *gin.Context) {
	if h.run == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler disabled"})
		return
	}
	h.run.RunNow()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// fail maps service errors to a status and a JSON body.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var apiErr *jira.APIError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownUserFilter):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedIssue):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// csvIssues splits a list of issue keys on commas and whitespace.
func csvIssues(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}

func issueKey(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// listParam reads a repeatable query parameter; each value may itself be a
// comma separated list.
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
