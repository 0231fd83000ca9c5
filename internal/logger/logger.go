/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package logger

import (
	"io"
	"os"
	"time"

	"github.com/magicronn/jira-scg-utils/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const service = "jira-scg"

// New builds the process logger, sets the global level from cfg.LogLevel
// and installs the result as zerolog/log.Logger.
func New(cfg config.Config) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(level(cfg.LogLevel))

	w := out
	if cfg.AppEnv == "dev" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}
	logger := zerolog.New(w).With().Timestamp().Str("svc", service).Logger()
	log.Logger = logger
	return logger
}

// level parses a zerolog level name; empty or unknown names give info.
func level(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
