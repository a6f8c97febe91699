package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negneg-eq-submitter/internal/domain"
)

// isolate runs the test from an empty directory so no stray config.yaml is read
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestNewManager_Defaults(t *testing.T) {
	isolate(t)

	m, err := NewManager("")
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, LiveBaseURL, cfg.CIPAPI.BaseURL)
	assert.Equal(t, BetaBaseURL, cfg.CIPAPI.BetaBaseURL)
	assert.False(t, cfg.CIPAPI.Testing)
	assert.True(t, cfg.CIPAPI.ReportsV6)
	assert.Equal(t, 60*time.Second, cfg.CIPAPI.Timeout)
	assert.Equal(t, 5, cfg.CIPAPI.RateLimit)
	assert.Equal(t, domain.ExpectedStatusConfig{
		Token:                 200,
		InterpretationRequest: 200,
		ClinicalReport:        201,
		ExitQuestionnaire:     200,
	}, cfg.CIPAPI.Expected)
	assert.Equal(t, uint32(3), cfg.CIPAPI.CircuitBreaker.FailureThreshold)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TokenTTL)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, filepath.Join(DefaultDataDir(), "ledger.db"), cfg.Ledger.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "production", cfg.Environment)
	assert.Empty(t, m.ConfigFileUsed())

	assert.NoError(t, m.Validate())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("NEGNEG_EQ_AUTH_USERNAME", "jbloggs")
	t.Setenv("NEGNEG_EQ_AUTH_PASSWORD", "secret")
	t.Setenv("NEGNEG_EQ_CIPAPI_EXPECTED_STATUS_CLINICAL_REPORT", "200")
	t.Setenv("NEGNEG_EQ_CACHE_BACKEND", "none")
	t.Setenv("NEGNEG_EQ_ENVIRONMENT", "development")

	m, err := NewManager("")
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "jbloggs", cfg.Auth.Username)
	assert.Equal(t, "secret", cfg.Auth.Password)
	assert.Equal(t, 200, cfg.CIPAPI.Expected.ClinicalReport)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, m.Validate())
}

func TestNewManager_DevelopmentKeepsExplicitLevel(t *testing.T) {
	isolate(t)
	t.Setenv("NEGNEG_EQ_ENVIRONMENT", "dev")
	t.Setenv("NEGNEG_EQ_LOGGING_LEVEL", "warn")

	m, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, "warn", m.GetConfig().Logging.Level)
}

func TestNewManager_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "negneg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cipapi:
  timeout: 5s
  rate_limit: 2
ledger:
  driver: postgres
  dsn: postgres://negneg@localhost/negneg?sslmode=disable
logging:
  level: debug
  format: json
`), 0o600))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 5*time.Second, cfg.CIPAPI.Timeout)
	assert.Equal(t, 2, cfg.CIPAPI.RateLimit)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, path, m.ConfigFileUsed())
	assert.NoError(t, m.Validate())
}

func TestNewManager_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, domain.KindConfig, domain.KindOf(err))
}

func TestNewManager_FlagBindings(t *testing.T) {
	isolate(t)

	flags := pflag.NewFlagSet("submit", pflag.ContinueOnError)
	flags.BoolP("testing", "t", false, "")
	flags.Bool("dry-run", false, "")
	require.NoError(t, flags.Parse([]string{"-t"}))

	m, err := NewManager("",
		FlagBinding{Key: "cipapi.testing", Flag: flags.Lookup("testing")},
		FlagBinding{Key: "submission.dry_run", Flag: flags.Lookup("dry-run")},
	)
	require.NoError(t, err)

	assert.True(t, m.GetConfig().CIPAPI.Testing)
	assert.Equal(t, BetaBaseURL, m.GetConfig().CIPAPI.ActiveBaseURL())
	assert.False(t, m.GetConfig().Submission.DryRun)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{"unknown environment", func(c *domain.Config) { c.Environment = "staging" }},
		{"bad base url", func(c *domain.Config) { c.CIPAPI.BaseURL = "cipapi" }},
		{"ftp beta url", func(c *domain.Config) { c.CIPAPI.BetaBaseURL = "ftp://cipapi/api/2/" }},
		{"zero timeout", func(c *domain.Config) { c.CIPAPI.Timeout = 0 }},
		{"bad status", func(c *domain.Config) { c.CIPAPI.Expected.ExitQuestionnaire = 42 }},
		{"unknown cache", func(c *domain.Config) { c.Cache.Backend = "memcached" }},
		{"redis without url", func(c *domain.Config) { c.Cache.Backend = "redis"; c.Cache.RedisURL = "" }},
		{"unknown driver", func(c *domain.Config) { c.Ledger.Driver = "mysql" }},
		{"postgres without dsn", func(c *domain.Config) { c.Ledger.Driver = "pgx" }},
		{"bad log level", func(c *domain.Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager("")
			require.NoError(t, err)

			tt.mutate(m.GetConfig())
			err = m.Validate()
			require.Error(t, err)
			assert.Equal(t, domain.KindConfig, domain.KindOf(err))
		})
	}
}

