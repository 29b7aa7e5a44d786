package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// No config.yaml in a fresh temp dir
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())

	a := cfg.Archive
	assert.Equal(t, "https://dc.library.okstate.edu", a.BaseURL)
	assert.Equal(t, "/digital/bl/dmwebservices/index.php", a.APIPath)
	assert.Equal(t, "kapplers", a.Collection)
	assert.Equal(t, "29743", a.IndexPointer)
	assert.Equal(t, "kappler", a.SourceID)
	assert.Equal(t, "kappler", a.SourceType)
	assert.InDelta(t, 0.98, a.Reliability, 0.0001)
	assert.Equal(t, 2, a.Volume)
	assert.Equal(t, "Windwalker/0.1.0 (Native Treaty Mapping Initiative)", a.UserAgent)
	assert.Equal(t, 500*time.Millisecond, a.MinDelay())
	assert.Equal(t, 30*time.Second, a.Timeout())
	assert.True(t, a.InsecureSkipVerify)
	assert.False(t, a.FetchItemInfo)

	assert.Equal(t, 24*time.Hour, cfg.Boundaries.TTL())
	assert.Equal(t, 6, cfg.Boundaries.RefreshPerMinute)
	assert.Contains(t, cfg.Boundaries.URL, "treaties.geojson")
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: ./treaties.db
log:
  level: debug
  format: console
server:
  port: 9090
archive:
  fetch_item_info: true
  min_delay_ms: 1000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "./treaties.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Archive.FetchItemInfo)
	assert.Equal(t, time.Second, cfg.Archive.MinDelay())
	// Defaults still apply for unset values
	assert.Equal(t, "kapplers", cfg.Archive.Collection)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("WINDWALKER_STORE_DRIVER", "postgres")
	t.Setenv("WINDWALKER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDatabaseURL(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/windwalker")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/windwalker", cfg.Store.DatabaseURL)

	// The prefixed variable wins when both are set.
	t.Setenv("WINDWALKER_STORE_DATABASE_URL", "postgres://localhost/other")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/other", cfg.Store.DatabaseURL)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("WINDWALKER_SERVER_PORT", "3000")
	t.Setenv("WINDWALKER_ARCHIVE_INSECURE_SKIP_VERIFY", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.Archive.InsecureSkipVerify)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.Archive = ArchiveConfig{
		BaseURL:      "https://dc.library.okstate.edu",
		Collection:   "kapplers",
		IndexPointer: "29743",
		SourceID:     "kappler",
		Reliability:  0.98,
		MinDelayMs:   500,
		TimeoutSecs:  30,
	}
	cfg.Server.Port = 8000
	cfg.Boundaries.TTLHours = 24
	cfg.Boundaries.RefreshPerMinute = 6
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"ingest", "serve", "read"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("ingest")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("read")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql"`)
}

func TestValidateIngest_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Archive.SourceID = ""
	cfg.Archive.Reliability = 1.5
	cfg.Archive.TimeoutSecs = 0

	err := cfg.Validate("ingest")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "archive.source_id is required")
	assert.Contains(t, err.Error(), "archive.reliability must be between 0 and 1")
	assert.Contains(t, err.Error(), "archive.timeout_secs must be > 0")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_BoundariesTTL(t *testing.T) {
	cfg := validDefaults()
	cfg.Boundaries.TTLHours = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boundaries.ttl_hours")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_SQLiteWithoutPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = ""

	assert.NoError(t, cfg.Validate("ingest"))
}
