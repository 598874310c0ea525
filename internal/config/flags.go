package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by every command.
const (
	FlagConfig         = "config"
	FlagTimeout        = "timeout"
	FlagConnectTimeout = "connect-timeout"
	FlagInsecure       = "insecure"
	FlagFormat         = "format"
	FlagReportDir      = "report-dir"
)

// RegisterFlags adds the configuration flags to fs. Their defaults mirror
// Default so that help output shows the effective values.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagConfig, "", "Path to a YAML config file (optional)")
	fs.Duration(FlagTimeout, def.Timeout, "Time to wait for each response")
	fs.Duration(FlagConnectTimeout, def.ConnectTimeout, "Time allowed for connect, TLS and websocket handshake")
	fs.Bool(FlagInsecure, def.Insecure, "Skip TLS certificate verification (self-signed nodes)")
	fs.String(FlagFormat, def.Format, "Output format: json|terminal")
	fs.String(FlagReportDir, def.ReportDir, "Directory for reports written with --save")
}

// FromFlags loads the file named by --config (or the defaults), applies
// every flag the user set explicitly on top of it and validates the result
// once.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, invalid("%w", err)
	}
	if path != "" {
		if cfg, err = load(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyFlags(fs); err != nil {
		return nil, invalid("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagTimeout) {
		if c.Timeout, err = fs.GetDuration(FlagTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagConnectTimeout) {
		if c.ConnectTimeout, err = fs.GetDuration(FlagConnectTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagInsecure) {
		if c.Insecure, err = fs.GetBool(FlagInsecure); err != nil {
			return err
		}
	}
	if fs.Changed(FlagFormat) {
		if c.Format, err = fs.GetString(FlagFormat); err != nil {
			return err
		}
	}
	if fs.Changed(FlagReportDir) {
		if c.ReportDir, err = fs.GetString(FlagReportDir); err != nil {
			return err
		}
	}
	return nil
}
