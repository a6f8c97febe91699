package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string        `mapstructure:"environment"`
	CIPAPI      CIPAPIConfig  `mapstructure:"cipapi"`
	Auth        AuthConfig    `mapstructure:"auth"`
	Cache       CacheConfig   `mapstructure:"cache"`
	Ledger      LedgerConfig  `mapstructure:"ledger"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Submission  SubmitConfig  `mapstructure:"submission"`
}

// CIPAPIConfig represents CIP-API client configuration
type CIPAPIConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	BetaBaseURL    string               `mapstructure:"beta_base_url"`
	Testing        bool                 `mapstructure:"testing"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RateLimit      int                  `mapstructure:"rate_limit"` // requests per second
	ReportsV6      bool                 `mapstructure:"reports_v6"`
	Expected       ExpectedStatusConfig `mapstructure:"expected_status"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// ActiveBaseURL returns the beta URL when testing is on, otherwise the live one
func (c CIPAPIConfig) ActiveBaseURL() string {
	if c.Testing {
		return c.BetaBaseURL
	}
	return c.BaseURL
}

// ExpectedStatusConfig holds the HTTP status each step must return.
// Schema revisions disagree between 200 and 201, so these are settable.
type ExpectedStatusConfig struct {
	Token                 int `mapstructure:"token"`
	InterpretationRequest int `mapstructure:"interpretation_request"`
	ClinicalReport        int `mapstructure:"clinical_report"`
	ExitQuestionnaire     int `mapstructure:"exit_questionnaire"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// AuthConfig holds the credentials exchanged for a session token
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig represents token cache configuration
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"` // "memory", "redis", "none"
	RedisURL string        `mapstructure:"redis_url"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	MaxItems int           `mapstructure:"max_items"`
}

// LedgerConfig represents submission ledger configuration
type LedgerConfig struct {
	Driver        string `mapstructure:"driver"` // "sqlite", "postgres", "pgx", "none"
	Path          string `mapstructure:"path"`
	DSN           string `mapstructure:"dsn"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SubmitConfig controls the submission workflow
type SubmitConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}
