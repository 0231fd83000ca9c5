package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CHAPTER_KEYS", "")
	t.Setenv("BURNDOWN_PERIOD", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("JIRA_BOARD_ID", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(211), cfg.JiraBoardID)
	assert.Equal(t, "customfield_10004", cfg.FieldStoryPoints)
	assert.Equal(t, "Story Points", cfg.FieldStoryPointsName)
	assert.Equal(t, []string{"BSF", "SSO", "ECM", "UIX", "CTL"}, cfg.ChapterKeys)
	assert.Equal(t, "UIX Chapter", cfg.ChapterGroups["UIX"])
	assert.Equal(t, "week", cfg.BurnDownPeriod)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.PersistenceEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JIRA_BOARD_ID", "42")
	t.Setenv("TRACKED_EPICS", "LAB-1, LAB-2 ,")
	t.Setenv("TELEGRAM_CHAT_IDS", "100,abc,-200")
	t.Setenv("BURNDOWN_PERIOD", "DAY")
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("DB_DSN", "postgres://localhost/x")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	assert.Equal(t, int64(42), cfg.JiraBoardID)
	assert.Equal(t, []string{"LAB-1", "LAB-2"}, cfg.TrackedEpics)
	assert.Equal(t, []int64{100, -200}, cfg.TelegramChatIDs)
	assert.Equal(t, "day", cfg.BurnDownPeriod)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.PersistenceEnabled())
}

func TestParsePairs(t *testing.T) {
	got := parsePairs("UIX=UIX Chapter, bad ,=x,EO= EngOps ,HAR=")
	assert.Equal(t, map[string]string{"UIX": "UIX Chapter", "EO": "EngOps"}, got)
}

func TestValidate(t *testing.T) {
	base := Config{AppEnv: "dev", BurnDownPeriod: "week", WorkersJira: 1}
	require.NoError(t, base.Validate())

	for _, p := range []string{"weekly", "day", "daily"} {
		ok := base
		ok.BurnDownPeriod = p
		assert.NoError(t, ok.Validate(), p)
	}

	bad := base
	bad.BurnDownPeriod = "month"
	assert.Error(t, bad.Validate())

	prod := base
	prod.AppEnv = "prod"
	assert.Error(t, prod.Validate())
	prod.JiraBaseURL = "https://jira.example.com"
	assert.NoError(t, prod.Validate())

	noWorkers := base
	noWorkers.WorkersJira = 0
	assert.Error(t, noWorkers.Validate())
}
