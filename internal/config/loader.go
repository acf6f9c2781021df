package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ollamactl/internal/common/fsutil"
)

// Config holds runtime parameters for the CLI and gateway.
// Zero values mean "unspecified" and are replaced by client defaults.
type Config struct {
	Host                  string   `json:"host" yaml:"host" toml:"host"`
	Port                  int      `json:"port" yaml:"port" toml:"port"`
	DefaultModel          string   `json:"default_model" yaml:"default_model" toml:"default_model"`
	Launch                *bool    `json:"launch,omitempty" yaml:"launch,omitempty" toml:"launch,omitempty"`
	ServerBin             string   `json:"server_bin" yaml:"server_bin" toml:"server_bin"`
	ServerArgs            []string `json:"server_args" yaml:"server_args" toml:"server_args"`
	Transport             string   `json:"transport" yaml:"transport" toml:"transport"`
	DialTimeoutSeconds    int      `json:"dial_timeout_seconds" yaml:"dial_timeout_seconds" toml:"dial_timeout_seconds"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat             string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	GatewayAddr           string   `json:"gateway_addr" yaml:"gateway_addr" toml:"gateway_addr"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	SentryDSN             string   `json:"sentry_dsn" yaml:"sentry_dsn" toml:"sentry_dsn"`
}

// LaunchEnabled reports whether the server should be launched; unset means yes.
func (c Config) LaunchEnabled() bool { return c.Launch == nil || *c.Launch }

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or fsutil.ConfigFile() when path is empty. A missing
// default file yields an empty Config; a missing explicit file is an error.
func LoadOrDefault(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	p := fsutil.ConfigFile()
	if !fsutil.PathExists(p) {
		return Config{}, nil
	}
	cfg, err := Load(p)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// ApplyEnv overlays OLLAMACTL_* environment variables onto cfg.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("OLLAMACTL_HOST"); v != "" {
		cfg.Host = v
	}
	if v := getenv("OLLAMACTL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := getenv("OLLAMACTL_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := strings.ToLower(getenv("OLLAMACTL_NO_LAUNCH")); v == "1" || v == "true" || v == "yes" {
		f := false
		cfg.Launch = &f
	}
	if v := getenv("OLLAMACTL_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	return cfg
}

// splitCSV splits a comma-separated list, trimming spaces and dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
