/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/magicronn/jira-scg-utils/internal/burndown"
)

type Config struct {
	AppEnv   string
	LogLevel string
	TZ       string
	HTTPAddr string

	DBDSN string

	JiraBaseURL     string
	JiraPAT         string
	JiraUsername    string
	JiraPassword    string
	JiraAPIVersion  string
	JiraBoardID     int64
	JiraEpicProject string

	// Jira custom field ids; names differ per instance
	FieldStoryPoints     string
	FieldStoryPointsName string
	FieldEpicLink        string
	FieldRank            string

	ChapterKeys        []string
	ChapterGroups      map[string]string // chapter key -> Jira group
	NonDevUsers        []string
	ReleaseHistoryDays int

	BurnDownPeriod string
	TrackedEpics   []string

	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout time.Duration

	TelegramToken   string
	TelegramChatIDs []int64

	DigestCron  string
	HTTPTimeout time.Duration
	WorkersJira int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func atoi64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt64s(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseStrings(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// parsePairs reads "K1=V1,K2=V2". Entries without '=' are dropped.
func parsePairs(csv string) map[string]string {
	out := map[string]string{}
	for _, p := range parseStrings(csv) {
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

const defaultChapterGroups = "UIX=UIX Chapter,DPL=DAT Chapter,CTL=CTL Chapter,ECM=ECM-Core Team,EO=EngOps,BSF=BSF Team,DS=ECM-App Team,HAR=HW Team"

func Load() Config {
	// .env never overrides variables that are already set
	envFile := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: cannot read %s: %v", envFile, err)
	}

	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBDSN: getenv("DB_DSN", ""),

		JiraBaseURL:     getenv("JIRA_BASE_URL", ""),
		JiraPAT:         getenv("JIRA_PAT", ""),
		JiraUsername:    getenv("JIRA_USERNAME", ""),
		JiraPassword:    getenv("JIRA_PASSWORD", ""),
		JiraAPIVersion:  getenv("JIRA_API_VERSION", "2"),
		JiraBoardID:     atoi64("JIRA_BOARD_ID", 211),
		JiraEpicProject: getenv("JIRA_EPIC_PROJECT", "LAB"),

		FieldStoryPoints:     getenv("JIRA_FIELD_STORY_POINTS", "customfield_10004"),
		FieldStoryPointsName: getenv("JIRA_FIELD_STORY_POINTS_NAME", "Story Points"),
		FieldEpicLink:        getenv("JIRA_FIELD_EPIC_LINK", "customfield_10008"),
		FieldRank:            getenv("JIRA_FIELD_RANK", "customfield_10200"),

		ChapterKeys:        parseStrings(getenv("CHAPTER_KEYS", "BSF,SSO,ECM,UIX,CTL")),
		ChapterGroups:      parsePairs(getenv("CHAPTER_GROUPS", defaultChapterGroups)),
		NonDevUsers:        parseStrings(getenv("NONDEV_USERS", "")),
		ReleaseHistoryDays: atoi("RELEASE_HISTORY_DAYS", 60),

		BurnDownPeriod: strings.ToLower(getenv("BURNDOWN_PERIOD", "week")),
		TrackedEpics:   parseStrings(getenv("TRACKED_EPICS", "")),

		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAITimeout: dur("OPENAI_TIMEOUT", 15*time.Second),

		TelegramToken:   getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs: parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),

		DigestCron:  getenv("CRON_SPEC", "0 10 * * MON"),
		HTTPTimeout: dur("HTTP_TIMEOUT", 15*time.Second),
		WorkersJira: atoi("WORKERS_JIRA", 6),
	}

	// set global timezone if available
	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	} else {
		log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
	}
	return cfg
}

// Validate reports settings the service cannot run with.
func (c Config) Validate() error {
	if _, err := burndown.ParsePeriod(c.BurnDownPeriod); err != nil {
		return fmt.Errorf("config: BURNDOWN_PERIOD: %w", err)
	}
	if c.AppEnv != "dev" && strings.TrimSpace(c.JiraBaseURL) == "" {
		return errors.New("config: JIRA_BASE_URL is required")
	}
	if c.WorkersJira <= 0 {
		return errors.New("config: WORKERS_JIRA must be positive")
	}
	return nil
}

// PersistenceEnabled is false when no database is configured.
func (c Config) PersistenceEnabled() bool { return strings.TrimSpace(c.DBDSN) != "" }
