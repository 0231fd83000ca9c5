/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/config"
)

// Metrics is the instrumentation the router needs.
type Metrics interface {
	Handler() http.Handler
	ObserveHTTP(method, route string, status int, took time.Duration)
}

func NewRouter(cfg config.Config, log zerolog.Logger, svc Service, run Runner, m Metrics) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(log, m))

	h := NewHandlers(cfg, log, svc, run)

	r.GET("/healthz", h.Healthz)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api/v1")
	api.GET("/", h.Version)
	api.GET("/userfilters", h.UserFilters)
	api.GET("/epics", h.Epics)
	api.GET("/epics/:key", h.Epic)
	api.GET("/epics/:key/burndown", h.BurnDown)
	api.GET("/epics/:key/snapshot", h.Snapshot)
	api.GET("/chapters", h.Chapters)
	api.GET("/chapters/:key", h.Chapter)
	api.GET("/chapters/:key/releases", h.ChapterReleases)
	api.GET("/releases/:id", h.Release)
	api.GET("/reports/burndowns", h.BurnDowns)
	api.GET("/reports/releases", h.ReleaseMatrix)
	api.GET("/reports/epic-status", h.EpicStatus)

	r.GET("/admin/last-run", h.LastRun)
	r.POST("/admin/run", h.RunNow)

	return r
}
