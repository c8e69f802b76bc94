package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/ParfinovichOlga/spimex-trading-microservice/spimex"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "spimex-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	// No config.yaml lives here, so only env and defaults apply
	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	suite.T().Setenv("CACHE_STORAGE_TIME", "51060")

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "DEV", cfg.Mode)
	assert.Equal(suite.T(), internal.DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(suite.T(), internal.DefaultDatabaseURL, cfg.Database.URL)
	assert.Equal(suite.T(), internal.DefaultRedisHost, cfg.Redis.Host)
	assert.Equal(suite.T(), internal.DefaultRedisPort, cfg.Redis.Port)
	assert.Equal(suite.T(), 51060, cfg.Cache.StorageTime)
	assert.True(suite.T(), cfg.Cache.Enabled)
	assert.Equal(suite.T(), "redis", cfg.Cache.Backend)
	assert.Equal(suite.T(), 4, cfg.Cache.Workers)
	assert.Equal(suite.T(), 2*time.Second, cfg.Cache.WriteTimeout)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigFromEnv() {
	suite.T().Setenv("CACHE_STORAGE_TIME", "60")
	suite.T().Setenv("REDIS_HOST", "cache.internal")
	suite.T().Setenv("REDIS_PORT", "6380")
	suite.T().Setenv("MODE", "TEST")
	suite.T().Setenv("DATABASE_URL", "file:/tmp/trades.db")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 60, cfg.Cache.StorageTime)
	assert.Equal(suite.T(), "cache.internal:6380", cfg.Redis.Addr())
	assert.Equal(suite.T(), "TEST", cfg.Mode)
	assert.Equal(suite.T(), "file:/tmp/trades.db", cfg.Database.URL)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
mode: PROD
http:
  addr: ":9000"
redis:
  host: "redis"
  port: 6390
cache:
  storage_time: 51060
  backend: memory
  timezone: UTC
  workers: 2
`
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "PROD", cfg.Mode)
	assert.Equal(suite.T(), ":9000", cfg.HTTP.Addr)
	assert.Equal(suite.T(), "redis:6390", cfg.Redis.Addr())
	assert.Equal(suite.T(), 51060, cfg.Cache.StorageTime)
	assert.Equal(suite.T(), "memory", cfg.Cache.Backend)
	assert.Equal(suite.T(), 2, cfg.Cache.Workers)

	loc, err := cfg.Cache.Location()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), time.UTC, loc)
}

func (suite *ConfigTestSuite) TestEnvOverridesFile() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte("cache:\n  storage_time: 100\n"), 0o644)
	require.NoError(suite.T(), err)
	suite.T().Setenv("CACHE_STORAGE_TIME", "200")

	cfg, err := LoadConfig(configFile)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 200, cfg.Cache.StorageTime)
}

func (suite *ConfigTestSuite) TestMissingCutoffIsFatal() {
	suite.T().Setenv("CACHE_STORAGE_TIME", "")

	cfg, err := LoadConfig("")

	assert.ErrorIs(suite.T(), err, ErrMissingCutoff)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestMalformedCutoff() {
	for _, raw := range []string{"14:61", "abc", "-1", "86400", "24:00"} {
		suite.T().Setenv("CACHE_STORAGE_TIME", raw)

		cfg, err := LoadConfig("")
		assert.Error(suite.T(), err, raw)
		assert.Nil(suite.T(), cfg, raw)
	}
}

func (suite *ConfigTestSuite) TestCutoffAsClock() {
	suite.T().Setenv("CACHE_STORAGE_TIME", "14:11")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 51060, cfg.Cache.StorageTime)
}

func (suite *ConfigTestSuite) TestInvalidTimezone() {
	suite.T().Setenv("CACHE_STORAGE_TIME", "51060")
	suite.T().Setenv("CACHE_TIMEZONE", "Mars/Olympus")

	cfg, err := LoadConfig("")
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	suite.T().Setenv("CACHE_STORAGE_TIME", "51060")

	// An explicit path that does not exist is an error, unlike the search path
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
cache:
  storage_time: 51060
  invalid_yaml: [unclosed bracket
`
	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	err := os.WriteFile(configFile, []byte(malformedContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"test"`)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "nonsense"}, &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	b.Setenv("CACHE_STORAGE_TIME", "51060")
	for b.Loop() {
		cfg, err := LoadConfig("")
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}
