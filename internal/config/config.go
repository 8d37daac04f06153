// Package config loads process configuration from the environment and
// optional .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formset/internal/logging"
)

// DefaultEnvFiles are tried in order; later files do not override earlier
// ones or variables already present in the environment.
var DefaultEnvFiles = []string{".env", ".env.local"}

type ServerOptions struct {
	Host        string `env:"FORMSET_HOST" envDefault:"localhost"`
	Port        int    `env:"FORMSET_PORT" envDefault:"3200"`
	BasePath    string `env:"FORMSET_BASE_PATH" envDefault:"/"`
	MetricsPath string `env:"FORMSET_METRICS_PATH" envDefault:"/metrics"`
}

type LogOptions struct {
	Level  string `env:"FORMSET_LOG_LEVEL" envDefault:"error"`
	Format string `env:"FORMSET_LOG_FORMAT" envDefault:"text"`
}

type DataOptions struct {
	// SourceFile is a YAML file of participants and tags for autocomplete.
	SourceFile string `env:"FORMSET_SOURCE_FILE"`
	// BindingsDir holds widget binding files (.json, .yaml, .yml).
	BindingsDir string `env:"FORMSET_BINDINGS_DIR"`
	// RowTemplate is a pongo2 template rendering one formset row.
	RowTemplate string `env:"FORMSET_ROW_TEMPLATE"`
	// MatchMode selects autocomplete matching: prefix or fuzzy.
	MatchMode string `env:"FORMSET_MATCH_MODE" envDefault:"prefix"`
}

type Configuration struct {
	Server      ServerOptions
	Log         LogOptions
	Data        DataOptions
	AdminPrefix string `env:"FORMSET_ADMIN_PREFIX" envDefault:"/dpadmin"`
	MaxForms    int    `env:"FORMSET_MAX_FORMS" envDefault:"1000"`
}

// LoadEnv loads the env files that exist and returns how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		existing = append(existing, file)
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads env files then parses the environment into a Configuration.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}
	cfg := &Configuration{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid FORMSET_PORT=%d", c.Server.Port))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid FORMSET_LOG_FORMAT=%q (expected text|json)", c.Log.Format))
	}
	switch strings.ToLower(strings.TrimSpace(c.Data.MatchMode)) {
	case "", "prefix", "fuzzy":
		c.Data.MatchMode = strings.ToLower(strings.TrimSpace(c.Data.MatchMode))
	default:
		errs = append(errs, fmt.Errorf("invalid FORMSET_MATCH_MODE=%q (expected prefix|fuzzy)", c.Data.MatchMode))
	}
	if c.MaxForms < 0 {
		errs = append(errs, fmt.Errorf("invalid FORMSET_MAX_FORMS=%d", c.MaxForms))
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		c.Server.BasePath = "/" + c.Server.BasePath
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Configuration) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Configuration) Logger() *logrus.Logger {
	return logging.New(c.Log.Level, c.Log.Format, os.Stderr)
}
