package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gavel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "chain_getHead", cfg.Methods.Head)
	assert.Equal(t, "mmr_generateProof", cfg.Methods.MMRProof)
	assert.Equal(t, FormatJSON, cfg.Format)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
timeout: 5s
format: terminal
methods:
  mmr_proof: mmr_generateBatchProof
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, FormatTerminal, cfg.Format)
	assert.Equal(t, "mmr_generateBatchProof", cfg.Methods.MMRProof)
	assert.Equal(t, "chain_getBlock", cfg.Methods.Block)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("GAVEL_TEST_HEAD", "custom_getHead")
	path := writeConfig(t, "methods:\n  head: ${GAVEL_TEST_HEAD}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom_getHead", cfg.Methods.Head)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero timeout", "timeout: 0s\n"},
		{"negative connect timeout", "connect_timeout: -1s\n"},
		{"bad format", "format: xml\n"},
		{"empty method", "methods:\n  block: \"\"\n"},
		{"method with space", "methods:\n  block: chain get\n"},
		{"bad yaml", "timeout: [\n"},
		{"bad duration", "timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromFlagsDefaults(t *testing.T) {
	cfg, err := FromFlags(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "timeout: 5s\nformat: terminal\n")
	fs := newFlagSet(t, "--config", path, "--timeout", "2s", "--insecure")

	cfg, err := FromFlags(fs)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.True(t, cfg.Insecure)
	// Not set on the command line, so the file wins.
	assert.Equal(t, FormatTerminal, cfg.Format)
}

func TestFromFlagsInvalid(t *testing.T) {
	_, err := FromFlags(newFlagSet(t, "--format", "yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "gavel.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromFlagsValidatesMergedResult(t *testing.T) {
	// The file alone is invalid; the flag repairs it before validation.
	path := writeConfig(t, "timeout: 0s\n")

	cfg, err := FromFlags(newFlagSet(t, "--config", path, "--timeout", "3s"))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		expects []string
	}{
		{"defaults", func(*Config) {}, nil},
		{"low timeout", func(c *Config) { c.Timeout = 100 * time.Millisecond }, []string{"timeout is very low"}},
		{"high connect timeout", func(c *Config) { c.ConnectTimeout = 10 * time.Minute }, []string{"connect_timeout is very high"}},
		{
			"both",
			func(c *Config) {
				c.Timeout = time.Millisecond
				c.ConnectTimeout = time.Hour
			},
			[]string{"timeout is very low", "connect_timeout is very high"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.NoError(t, cfg.Validate())

			warnings := cfg.Warnings()
			require.Len(t, warnings, len(tt.expects))
			for i, want := range tt.expects {
				assert.Contains(t, warnings[i], want)
			}
		})
	}
}

func TestValidateErrorCarriesCallStack(t *testing.T) {
	cfg := Default()
	cfg.Format = "xml"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	var ge *goerrors.Error
	require.ErrorAs(t, err, &ge)
	frames := ge.StackFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, "(*Config).Validate", frames[0].Name)
}
