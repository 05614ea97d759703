// Package config loads catleg settings from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/catleg"
	"github.com/fwojciec/catleg/legifrance"
	"gopkg.in/yaml.v3"
)

// Configuration files, looked up in the working directory. Both are
// optional; secrets are kept apart so that the settings file can be
// committed.
const (
	SettingsFile = ".catleg.yaml"
	SecretsFile  = ".catleg_secrets.yaml"
)

// EnvPrefix prefixes the environment variables overriding file settings,
// e.g. CATLEG_LF_CLIENT_ID for lf_client_id.
const EnvPrefix = "CATLEG_"

// DefaultLogLevel is the log level when none is configured.
const DefaultLogLevel = "warn"

// Config is the catleg configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	ClientID          string        `yaml:"lf_client_id"`
	ClientSecret      string        `yaml:"lf_client_secret"`
	APIURL            string        `yaml:"lf_api_url"`
	TokenURL          string        `yaml:"lf_token_url"`
	MaxConcurrency    int           `yaml:"lf_max_concurrency"`
	RequestsPerSecond float64       `yaml:"lf_requests_per_second"`
	Timeout           time.Duration `yaml:"lf_timeout"`
}

// Load reads the configuration files of dir, then applies environment
// overrides read with getenv. Missing files are skipped.
func Load(dir string, getenv func(string) string) (*Config, error) {
	var cfg Config
	for _, name := range []string{SettingsFile, SecretsFile} {
		if err := cfg.loadFile(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return catleg.Errorf(catleg.EINVALID, "parse config %s: %v", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(key string) (string, bool) {
		v := strings.TrimSpace(getenv(EnvPrefix + key))
		return v, v != ""
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := env("LF_CLIENT_ID"); ok {
		c.ClientID = v
	}
	if v, ok := env("LF_CLIENT_SECRET"); ok {
		c.ClientSecret = v
	}
	if v, ok := env("LF_API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := env("LF_TOKEN_URL"); ok {
		c.TokenURL = v
	}
	if v, ok := env("LF_MAX_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return catleg.Errorf(catleg.EINVALID, "%sLF_MAX_CONCURRENCY: %v", EnvPrefix, err)
		}
		c.MaxConcurrency = n
	}
	if v, ok := env("LF_REQUESTS_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return catleg.Errorf(catleg.EINVALID, "%sLF_REQUESTS_PER_SECOND: %v", EnvPrefix, err)
		}
		c.RequestsPerSecond = f
	}
	if v, ok := env("LF_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return catleg.Errorf(catleg.EINVALID, "%sLF_TIMEOUT: %v", EnvPrefix, err)
		}
		c.Timeout = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	// Credentials that do not look like PISTE credentials are ignored, so
	// that placeholders in example files read as missing.
	if !legifrance.ValidCredential(c.ClientID) {
		c.ClientID = ""
	}
	if !legifrance.ValidCredential(c.ClientSecret) {
		c.ClientSecret = ""
	}
}

// Level returns the configured log level. Unknown levels fall back to warn.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// Legifrance returns the Legifrance client configuration, with defaults
// for the settings left unset.
func (c *Config) Legifrance() legifrance.Config {
	return legifrance.Config{
		ClientID:          c.ClientID,
		ClientSecret:      c.ClientSecret,
		APIURL:            c.APIURL,
		TokenURL:          c.TokenURL,
		MaxConcurrency:    c.MaxConcurrency,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           c.Timeout,
	}.WithDefaults()
}
