// Package config loads invoker settings from defaults, an optional TOML or
// YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ghetzel/go-stockutil/fileutil"
	"gopkg.in/yaml.v2"

	"github.com/jdziat/simple-function-invoker/pkg/logging"
	"github.com/jdziat/simple-function-invoker/pkg/security"
)

// Environment variables.
const (
	EnvFunctionURI      = "FUNCTION_URI"
	EnvConfig           = "INVOKER_CONFIG"
	EnvWorkDir          = "INVOKER_WORKDIR"
	EnvLogLevel         = "INVOKER_LOG_LEVEL"
	EnvLogFormat        = "INVOKER_LOG_FORMAT"
	EnvMaxLineBytes     = "INVOKER_MAX_LINE_BYTES"
	EnvJournalDriver    = "INVOKER_JOURNAL_DRIVER"
	EnvJournalDSN       = "INVOKER_JOURNAL_DSN"
	EnvJournalRetention = "INVOKER_JOURNAL_RETENTION"
	EnvJournalPrune     = "INVOKER_JOURNAL_PRUNE"
)

// ErrInvalidConfig wraps every load and validation failure.
var ErrInvalidConfig = errors.New("invoker: invalid configuration")

// JournalConfig enables the invocation journal when Driver is set.
type JournalConfig struct {
	Driver        string
	DSN           string
	Retention     time.Duration
	PruneSchedule string
}

// Enabled reports whether a journal should be opened.
func (j JournalConfig) Enabled() bool {
	return j.Driver != ""
}

// Config holds the invoker settings.
type Config struct {
	// FunctionURI is the handler locator. It is checked by the resolver,
	// not by Validate.
	FunctionURI string
	// WorkDir receives staged artifacts. Empty means the current directory.
	WorkDir      string
	LogLevel     string
	LogFormat    string
	MaxLineBytes int
	Journal      JournalConfig
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    logging.FormatText,
		MaxLineBytes: security.DefaultMaxLineBytes,
		Journal: JournalConfig{
			Retention:     7 * 24 * time.Hour,
			PruneSchedule: "@every 1h",
		},
	}
}

// Logging returns the logger settings.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat, Timestamp: true}
}

// Load layers the config file at path (or the one named by INVOKER_CONFIG
// when path is empty) and the environment over the defaults. getenv is
// usually os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(getenv(EnvConfig))
	}
	if path != "" {
		if err := loadFile(&cfg, fileutil.MustExpandUser(path)); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that can never work.
func (c Config) Validate() error {
	if c.LogLevel != "" {
		if _, _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
		}
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxLineBytes < 0 || c.MaxLineBytes > security.MaxLineBytes {
		return fmt.Errorf("%w: max line bytes %d out of range", ErrInvalidConfig, c.MaxLineBytes)
	}

	j := c.Journal
	switch strings.ToLower(j.Driver) {
	case "":
	case "sqlite", "sqlite3", "postgres", "postgresql":
		if j.DSN == "" {
			return fmt.Errorf("%w: journal driver %q requires a dsn", ErrInvalidConfig, j.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown journal driver %q", ErrInvalidConfig, j.Driver)
	}
	if j.Retention < 0 {
		return fmt.Errorf("%w: negative journal retention", ErrInvalidConfig)
	}
	return nil
}

type fileConfig struct {
	FunctionURI  string `toml:"function_uri" yaml:"function_uri"`
	WorkDir      string `toml:"workdir" yaml:"workdir"`
	LogLevel     string `toml:"log_level" yaml:"log_level"`
	LogFormat    string `toml:"log_format" yaml:"log_format"`
	MaxLineBytes int    `toml:"max_line_bytes" yaml:"max_line_bytes"`
	Journal      struct {
		Driver        string `toml:"driver" yaml:"driver"`
		DSN           string `toml:"dsn" yaml:"dsn"`
		Retention     string `toml:"retention" yaml:"retention"`
		PruneSchedule string `toml:"prune_schedule" yaml:"prune_schedule"`
	} `toml:"journal" yaml:"journal"`
}

// isDefined reports whether a key path was present in the file.
type isDefined func(keys ...string) bool

func loadFile(cfg *Config, path string) error {
	var raw fileConfig
	var defined isDefined

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, path, err)
		}
		defined = meta.IsDefined
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, path, err)
		}
		if err := yaml.UnmarshalStrict(data, &raw); err != nil {
			return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, path, err)
		}
		var tree map[interface{}]interface{}
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, path, err)
		}
		defined = yamlDefined(tree)
	default:
		return fmt.Errorf("%w: unsupported config file type %q", ErrInvalidConfig, ext)
	}

	if defined("function_uri") {
		cfg.FunctionURI = strings.TrimSpace(raw.FunctionURI)
	}
	if defined("workdir") {
		cfg.WorkDir = strings.TrimSpace(raw.WorkDir)
	}
	if defined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if defined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if defined("max_line_bytes") {
		cfg.MaxLineBytes = raw.MaxLineBytes
	}
	if defined("journal", "driver") {
		cfg.Journal.Driver = strings.TrimSpace(raw.Journal.Driver)
	}
	if defined("journal", "dsn") {
		cfg.Journal.DSN = strings.TrimSpace(raw.Journal.DSN)
	}
	if defined("journal", "retention") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Journal.Retention))
		if err != nil {
			return fmt.Errorf("%w: parse journal.retention: %v", ErrInvalidConfig, err)
		}
		cfg.Journal.Retention = d
	}
	if defined("journal", "prune_schedule") {
		cfg.Journal.PruneSchedule = strings.TrimSpace(raw.Journal.PruneSchedule)
	}
	return nil
}

func yamlDefined(tree map[interface{}]interface{}) isDefined {
	return func(keys ...string) bool {
		node := tree
		for i, key := range keys {
			v, ok := node[key]
			if !ok {
				return false
			}
			if i == len(keys)-1 {
				return true
			}
			if node, ok = v.(map[interface{}]interface{}); !ok {
				return false
			}
		}
		return false
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	// The locator is taken verbatim so the resolver sees exactly what was set.
	if v := getenv(EnvFunctionURI); v != "" {
		cfg.FunctionURI = v
	}
	str(EnvWorkDir, &cfg.WorkDir)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvLogFormat, &cfg.LogFormat)
	str(EnvJournalDriver, &cfg.Journal.Driver)
	str(EnvJournalDSN, &cfg.Journal.DSN)
	str(EnvJournalPrune, &cfg.Journal.PruneSchedule)

	if v := strings.TrimSpace(getenv(EnvMaxLineBytes)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, EnvMaxLineBytes, err)
		}
		cfg.MaxLineBytes = n
	}
	if v := strings.TrimSpace(getenv(EnvJournalRetention)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, EnvJournalRetention, err)
		}
		cfg.Journal.Retention = d
	}
	return nil
}
