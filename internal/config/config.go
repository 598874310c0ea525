// Package config provides YAML configuration loading and validation.
// It handles environment variable expansion, default values and the
// command-line flags that override file settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/gavel/internal/rpc"
)

// ErrInvalidConfig is matched by every load and validation failure.
var ErrInvalidConfig = goerrors.New("invalid configuration")

// Output formats.
const (
	FormatJSON     = "json"
	FormatTerminal = "terminal"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Timeout        time.Duration `yaml:"timeout"`         // Wait for one response (e.g., "30s")
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // Dial + TLS + websocket upgrade
	Insecure       bool          `yaml:"insecure"`        // Skip TLS certificate verification
	Format         string        `yaml:"format"`          // "json" or "terminal"
	ReportDir      string        `yaml:"report_dir"`      // Where --save writes reports
	Methods        rpc.Methods   `yaml:"methods"`         // Node API method names
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		Format:         FormatJSON,
		ReportDir:      "reports",
		Methods:        rpc.DefaultMethods(),
	}
}

// Validate checks the configuration and returns the first problem found.
// Suspicious but legal values are reported by Warnings instead.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return invalid("timeout must be > 0")
	}
	if c.ConnectTimeout <= 0 {
		return invalid("connect_timeout must be > 0")
	}
	if c.Format != FormatJSON && c.Format != FormatTerminal {
		return invalid("format %q (expected %s or %s)", c.Format, FormatJSON, FormatTerminal)
	}
	if strings.TrimSpace(c.ReportDir) == "" {
		return invalid("report_dir must not be empty")
	}

	methods := []struct{ key, name string }{
		{"methods.head", c.Methods.Head},
		{"methods.block_hash", c.Methods.BlockHash},
		{"methods.block", c.Methods.Block},
		{"methods.header", c.Methods.Header},
		{"methods.mmr_proof", c.Methods.MMRProof},
	}
	for _, m := range methods {
		if strings.TrimSpace(m.name) == "" {
			return invalid("%s must not be empty", m.key)
		}
		if strings.ContainsAny(m.name, " \t\n") {
			return invalid("%s %q contains whitespace", m.key, m.name)
		}
	}
	return nil
}

// Warnings lists legal values that are likely mistakes, such as timeouts
// too short for normal network jitter. The CLI prints them as
// "Warning: ..." lines.
func (c *Config) Warnings() []string {
	const (
		low  = 500 * time.Millisecond
		high = 5 * time.Minute
	)

	var warnings []string
	check := func(key string, d time.Duration) {
		if d < low {
			warnings = append(warnings, fmt.Sprintf("%s is very low (%s); requests may fail under normal network jitter", key, d))
		}
		if d > high {
			warnings = append(warnings, fmt.Sprintf("%s is very high (%s); failures may take a long time to surface", key, d))
		}
	}
	check("timeout", c.Timeout)
	check("connect_timeout", c.ConnectTimeout)
	return warnings
}

// Load reads a YAML configuration file on top of Default, expanding ${VAR}
// references, and validates the result. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, invalid("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, invalid("failed to parse config: %w", err)
	}
	return cfg, nil
}

// invalid builds an ErrInvalidConfig error carrying the caller's stack.
func invalid(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	return goerrors.Wrap(err, 1)
}
