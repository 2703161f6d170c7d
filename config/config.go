// Package config loads kvhub-server's configuration from an optional
// YAML file, with command-line flags taking precedence over whatever
// the file specifies — the same override order the teacher's example
// binaries apply with flag.StringVar defaults, generalized to a real
// config file for production deployments.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a running server.
type Config struct {
	Network   string `yaml:"network"`
	Addr      string `yaml:"addr"`
	Multicore bool   `yaml:"multicore"`
	ReusePort bool   `yaml:"reuse_port"`

	MaxConnections int `yaml:"max_connections"`

	TLS TLSConfig `yaml:"tls"`

	Log LogConfig `yaml:"log"`
}

// TLSConfig configures the optional TLS listener.
type TLSConfig struct {
	Enable   bool   `yaml:"enable"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	Addr     string `yaml:"addr"`
}

// LogConfig configures structured logging and its rotating file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration a server boots with when no file
// and no flag overrides anything.
func Default() Config {
	return Config{
		Network:        "tcp",
		Addr:           "127.0.0.1:9876",
		Multicore:      true,
		MaxConnections: 0,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path as YAML and overlays it onto Default(). An empty
// path returns Default() unchanged; this lets callers pass a
// possibly-unset -config flag straight through.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ProtoAddr joins Network and Addr into the "scheme://host:port" form
// the server's ListenAndServe expects.
func (c Config) ProtoAddr() string {
	return c.Network + "://" + c.Addr
}

// LogMaxAge converts MaxAgeDays to a time.Duration for callers that
// want it, mirroring how lumberjack itself only accepts days as an int.
func (l LogConfig) LogMaxAge() time.Duration {
	return time.Duration(l.MaxAgeDays) * 24 * time.Hour
}
