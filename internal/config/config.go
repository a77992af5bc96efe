package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Environment selects which secret set is active. In the test environment
// every variable may be overridden by a _TEST-suffixed variant; prod reads
// the plain names.
type Environment string

const (
	EnvProd Environment = "prod"
	EnvTest Environment = "test"

	// testSuffix is appended to variable names in the test environment.
	testSuffix = "_TEST"
)

// ParseEnvironment validates an environment selector string.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvProd, EnvTest:
		return Environment(s), nil
	case "":
		return EnvProd, nil
	}
	return "", fmt.Errorf("invalid environment %q (must be %q or %q)", s, EnvTest, EnvProd)
}

// Config holds all runtime configuration for a sync run.
type Config struct {
	// GmailToken is the base64-encoded OAuth authorized-user JSON document.
	GmailToken string `env:"GMAIL_TOKEN"`

	// Primary Notion destination (required).
	NotionToken      string `env:"NOTION_API_TOKEN"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID"`

	// Optional secondary mirror. Both values must be set for the mirror
	// to be active.
	NotionToken2      string `env:"NOTION_API_TOKEN_2"`
	NotionDatabaseID2 string `env:"NOTION_DATABASE_ID_2"`

	// DeepSeek enrichment credential. Empty disables enrichment.
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`

	// EnableTranslation gates the enrichment stage.
	EnableTranslation bool `env:"ENABLE_TRANSLATION" envDefault:"true"`

	// MaxEmails caps how many messages are fetched per run.
	MaxEmails int `env:"MAX_EMAIL_LIMIT" envDefault:"50"`

	// Environment records which secret set was loaded.
	Environment Environment `env:"-"`
}

// Load reads configuration from the process environment for the given
// environment selector. A .env file in the working directory is loaded
// first if present (never overriding real environment variables).
func Load(environment string) (*Config, error) {
	// Ignore a missing .env; it is a local development convenience.
	_ = godotenv.Load()

	e, err := ParseEnvironment(environment)
	if err != nil {
		return nil, err
	}

	vars := environMap()
	if e == EnvTest {
		applyTestOverrides(vars)
	}

	cfg := &Config{Environment: e}
	if err := env.Parse(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports all missing required fields at once so a broken
// deployment can be fixed in a single pass.
func (c *Config) Validate() error {
	var missing []string
	if c.GmailToken == "" {
		missing = append(missing, "GMAIL_TOKEN")
	}
	if c.NotionToken == "" {
		missing = append(missing, "NOTION_API_TOKEN")
	}
	if c.NotionDatabaseID == "" {
		missing = append(missing, "NOTION_DATABASE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.MaxEmails <= 0 {
		return fmt.Errorf("MAX_EMAIL_LIMIT must be positive, got %d", c.MaxEmails)
	}
	return nil
}

// GmailCredentialJSON decodes the base64-encoded OAuth token document.
func (c *Config) GmailCredentialJSON() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.GmailToken))
	if err != nil {
		return nil, fmt.Errorf("failed to decode GMAIL_TOKEN: %w", err)
	}
	return data, nil
}

// MirrorEnabled reports whether the secondary database is fully configured.
func (c *Config) MirrorEnabled() bool {
	return c.NotionToken2 != "" && c.NotionDatabaseID2 != ""
}

// TranslationEnabled reports whether the enrichment stage should run.
func (c *Config) TranslationEnabled() bool {
	return c.EnableTranslation && c.DeepSeekAPIKey != ""
}

// environMap snapshots the process environment as a map.
func environMap() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}
	return vars
}

// applyTestOverrides replaces each variable with its _TEST-suffixed
// variant where one is set.
func applyTestOverrides(vars map[string]string) {
	for k, v := range vars {
		if base, ok := strings.CutSuffix(k, testSuffix); ok && v != "" {
			vars[base] = v
		}
	}
}
