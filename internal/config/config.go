// Package config loads interpreter settings from TOML or YAML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/naoina/toml"
	"gopkg.in/yaml.v3"
)

// Color modes for diagnostic output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the driver settings. TOML keys are the field names; YAML keys
// are the snake_case tags.
type Config struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	Color       string `yaml:"color"`
	LogLevel    string `yaml:"log_level"`
	CacheSize   int    `yaml:"cache_size"`
	WarnUnused  bool   `yaml:"warn_unused"`
}

// Defaults returns the settings used when no file is given.
func Defaults() Config {
	return Config{
		Prompt:    "> ",
		Color:     ColorAuto,
		LogLevel:  "warn",
		CacheSize: 64,
	}
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Load reads path on top of Defaults. The format is chosen by extension:
// .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, errors.New("config: empty path")
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
		// Add file name to errors that have a line number.
		if _, ok := err.(*toml.LineError); ok {
			err = errors.New(path + ", " + err.Error())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%s is empty", path)
		}
	default:
		return cfg, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Validate checks field values. It returns a *ValidationError or nil.
func (c Config) Validate() error {
	var errs ValidationError
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("color must be auto, always or never, got %q", c.Color))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs.Issues = append(errs.Issues, err.Error())
	}
	if c.CacheSize < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("cache size must not be negative, got %d", c.CacheSize))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// MarshalTOML renders c in the format Load reads back.
func (c Config) MarshalTOML() ([]byte, error) {
	return tomlSettings.Marshal(&c)
}
