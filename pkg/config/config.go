// Package config loads service and CLI settings from a YAML file, then
// applies SETTINGSTEXT_* environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-settingstext/pkg/eval"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

// ErrInvalidConfig is returned when a configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override
const EnvPrefix = "SETTINGSTEXT_"

// Export sink kinds
const (
	ExportNone = "none"
	ExportFile = "file"
	ExportS3   = "s3"
)

// Config is the complete configuration
type Config struct {
	LogLevel   string `yaml:"log_level"`
	Mode       string `yaml:"mode"`
	MatchMode  string `yaml:"match_mode"`
	SchemaPath string `yaml:"schema_path"`

	HTTP   HTTPConfig   `yaml:"http"`
	NNG    NNGConfig    `yaml:"nng"`
	Watch  WatchConfig  `yaml:"watch"`
	Export ExportConfig `yaml:"export"`
}

// HTTPConfig configures the HTTP API
type HTTPConfig struct {
	Listen          string        `yaml:"listen" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"gt=0"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// NNGConfig configures the message socket service. Empty Listen disables it.
type NNGConfig struct {
	Listen  string        `yaml:"listen"`
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig configures file watching
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// ExportConfig configures the report sink
type ExportConfig struct {
	Kind            string `yaml:"kind"`
	Dir             string `yaml:"dir"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Compress        bool   `yaml:"compress"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		Mode:      string(report.ModeGrouped),
		MatchMode: eval.MatchSubstring.String(),
		HTTP: HTTPConfig{
			Listen:          ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		NNG: NNGConfig{
			Timeout: 5 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Export: ExportConfig{
			Kind:   ExportNone,
			Prefix: "settingstext/",
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. LOG_LEVEL is honoured
// as well as SETTINGSTEXT_LOG_LEVEL, the latter winning.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}

	strs := map[string]*string{
		"LOG_LEVEL":                &c.LogLevel,
		"MODE":                     &c.Mode,
		"MATCH_MODE":               &c.MatchMode,
		"SCHEMA_PATH":              &c.SchemaPath,
		"HTTP_LISTEN":              &c.HTTP.Listen,
		"NNG_LISTEN":               &c.NNG.Listen,
		"EXPORT_KIND":              &c.Export.Kind,
		"EXPORT_DIR":               &c.Export.Dir,
		"EXPORT_BUCKET":            &c.Export.Bucket,
		"EXPORT_PREFIX":            &c.Export.Prefix,
		"EXPORT_REGION":            &c.Export.Region,
		"EXPORT_ENDPOINT":          &c.Export.Endpoint,
		"EXPORT_ACCESS_KEY_ID":     &c.Export.AccessKeyID,
		"EXPORT_SECRET_ACCESS_KEY": &c.Export.SecretAccessKey,
	}
	for key, field := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*field = strings.TrimSpace(v)
		}
	}

	durations := map[string]*time.Duration{
		"HTTP_READ_TIMEOUT":     &c.HTTP.ReadTimeout,
		"HTTP_WRITE_TIMEOUT":    &c.HTTP.WriteTimeout,
		"HTTP_SHUTDOWN_TIMEOUT": &c.HTTP.ShutdownTimeout,
		"NNG_TIMEOUT":           &c.NNG.Timeout,
		"WATCH_DEBOUNCE":        &c.Watch.Debounce,
	}
	for key, field := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
		}
		*field = d
	}

	if v, ok := lookup(EnvPrefix + "HTTP_CORS_ORIGINS"); ok {
		c.HTTP.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.HTTP.CORSOrigins = append(c.HTTP.CORSOrigins, o)
			}
		}
	}

	if v, ok := lookup(EnvPrefix + "EXPORT_COMPRESS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sEXPORT_COMPRESS: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Export.Compress = b
	}
	return nil
}

// Validate checks every section and returns all failures joined
func (c *Config) Validate() error {
	modes := make([]string, len(report.Modes))
	for i, m := range report.Modes {
		modes[i] = string(m)
	}

	cv := validation.NewConfigValidator("config").
		OneOf("log_level", strings.ToLower(c.LogLevel), []string{"debug", "info", "warn", "error"}).
		OneOf("mode", c.Mode, modes).
		OneOf("match_mode", c.MatchMode, []string{eval.MatchSubstring.String(), eval.MatchExact.String()}).
		Struct(c.HTTP).
		HostPort("http.listen", c.HTTP.Listen).
		MinDuration("http.shutdown_timeout", c.HTTP.ShutdownTimeout, 0).
		MinDuration("watch.debounce", c.Watch.Debounce, 10*time.Millisecond).
		When(c.NNG.Listen != "", func(cv *validation.ConfigValidator) {
			cv.SocketURL("nng.listen", c.NNG.Listen).
				MinDuration("nng.timeout", c.NNG.Timeout, time.Millisecond)
		}).
		OneOf("export.kind", c.Export.Kind, []string{ExportNone, ExportFile, ExportS3}).
		When(c.Export.Kind == ExportFile, func(cv *validation.ConfigValidator) {
			cv.Required("export.dir", c.Export.Dir)
		}).
		When(c.Export.Kind == ExportS3, func(cv *validation.ConfigValidator) {
			cv.Required("export.bucket", c.Export.Bucket)
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
