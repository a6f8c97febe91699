package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/negneg-eq-submitter/internal/domain"
)

// Base URLs of the CIP-API deployments
const (
	LiveBaseURL = "https://cipapi.genomicsengland.nhs.uk/api/2/"
	BetaBaseURL = "https://cipapi-beta.genomicsengland.co.uk/api/2/"
)

// EnvPrefix is prepended to every environment override, e.g. NEGNEG_EQ_AUTH_PASSWORD
const EnvPrefix = "NEGNEG_EQ"

// FlagBinding maps a command-line flag onto a configuration key
type FlagBinding struct {
	Key  string
	Flag *pflag.Flag
}

// Manager loads and validates configuration using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	bindings   []FlagBinding
	config     *domain.Config
}

// NewManager loads configuration from defaults, an optional config file,
// environment variables and any bound flags, in increasing precedence.
// An empty configFile searches the standard locations.
func NewManager(configFile string, bindings ...FlagBinding) (*Manager, error) {
	m := &Manager{configFile: configFile, bindings: bindings}
	if err := m.loadConfig(); err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	v := viper.New()

	// Set config file or search paths
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/negneg-eq/")
	}

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Config file is optional unless one was named explicitly
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Development runs log at debug unless a level is given
	if isDevelopment(v.GetString("environment")) {
		v.SetDefault("logging.level", "debug")
	}

	// Flags override everything else
	for _, b := range m.bindings {
		if b.Flag == nil {
			continue
		}
		if err := v.BindPFlag(b.Key, b.Flag); err != nil {
			return fmt.Errorf("error binding flag %s: %w", b.Flag.Name, err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")

	// CIP-API defaults
	v.SetDefault("cipapi.base_url", LiveBaseURL)
	v.SetDefault("cipapi.beta_base_url", BetaBaseURL)
	v.SetDefault("cipapi.testing", false)
	v.SetDefault("cipapi.timeout", "60s")
	v.SetDefault("cipapi.rate_limit", 5)
	v.SetDefault("cipapi.reports_v6", true)
	v.SetDefault("cipapi.expected_status.token", 200)
	v.SetDefault("cipapi.expected_status.interpretation_request", 200)
	v.SetDefault("cipapi.expected_status.clinical_report", 201)
	v.SetDefault("cipapi.expected_status.exit_questionnaire", 200)
	v.SetDefault("cipapi.circuit_breaker.max_requests", 1)
	v.SetDefault("cipapi.circuit_breaker.interval", "60s")
	v.SetDefault("cipapi.circuit_breaker.timeout", "30s")
	v.SetDefault("cipapi.circuit_breaker.failure_threshold", 3)

	// Credentials normally come from the environment
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	// Cache defaults; memory reuses one token across the requests of a batch
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.token_ttl", "30m")
	v.SetDefault("cache.max_items", 16)

	// Ledger defaults
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.path", filepath.Join(DefaultDataDir(), "ledger.db"))
	v.SetDefault("ledger.dsn", "")
	v.SetDefault("ledger.run_migrations", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("submission.dry_run", false)
}

// DefaultDataDir is where local state such as the SQLite ledger lives
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".negneg-eq"
	}
	return filepath.Join(homeDir, ".negneg-eq")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// ConfigFileUsed returns the path of the config file read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	switch strings.ToLower(config.Environment) {
	case "production", "development", "dev":
	default:
		return domain.NewConfigError(fmt.Sprintf("invalid environment: %s", config.Environment), nil)
	}

	// Validate CIP-API endpoints and limits
	if err := validateBaseURL("cipapi.base_url", config.CIPAPI.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("cipapi.beta_base_url", config.CIPAPI.BetaBaseURL); err != nil {
		return err
	}
	if config.CIPAPI.Timeout <= 0 {
		return domain.NewConfigError(fmt.Sprintf("invalid cipapi.timeout: %s", config.CIPAPI.Timeout), nil)
	}
	if config.CIPAPI.RateLimit <= 0 {
		return domain.NewConfigError(fmt.Sprintf("invalid cipapi.rate_limit: %d", config.CIPAPI.RateLimit), nil)
	}

	statuses := map[string]int{
		"token":                  config.CIPAPI.Expected.Token,
		"interpretation_request": config.CIPAPI.Expected.InterpretationRequest,
		"clinical_report":        config.CIPAPI.Expected.ClinicalReport,
		"exit_questionnaire":     config.CIPAPI.Expected.ExitQuestionnaire,
	}
	for name, code := range statuses {
		if code < 100 || code > 599 {
			return domain.NewConfigError(fmt.Sprintf("invalid cipapi.expected_status.%s: %d", name, code), nil)
		}
	}

	// Validate cache and ledger backends
	switch config.Cache.Backend {
	case "memory", "none", "":
	case "redis":
		if config.Cache.RedisURL == "" {
			return domain.NewConfigError("cache.redis_url is required for the redis backend", nil)
		}
	default:
		return domain.NewConfigError(fmt.Sprintf("invalid cache.backend: %s", config.Cache.Backend), nil)
	}

	switch config.Ledger.Driver {
	case "none":
	case "sqlite":
		if config.Ledger.Path == "" {
			return domain.NewConfigError("ledger.path is required for the sqlite driver", nil)
		}
	case "postgres", "pgx":
		if config.Ledger.DSN == "" {
			return domain.NewConfigError(fmt.Sprintf("ledger.dsn is required for the %s driver", config.Ledger.Driver), nil)
		}
	default:
		return domain.NewConfigError(fmt.Sprintf("invalid ledger.driver: %s", config.Ledger.Driver), nil)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return domain.NewConfigError(fmt.Sprintf("invalid log level: %s", config.Logging.Level), nil)
	}

	return nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return domain.NewConfigError(fmt.Sprintf("invalid %s: %q", key, raw), err)
	}
	return nil
}

func isDevelopment(env string) bool {
	env = strings.ToLower(env)
	return env == "development" || env == "dev"
}
