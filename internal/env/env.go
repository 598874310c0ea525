// Package env loads KEY=VALUE pairs from a .env file into the process
// environment so that config files can reference node URLs and tokens
// through ${VAR} without committing them.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFile is the file read by the CLI before loading configuration.
const DefaultFile = ".env"

// Load reads path and sets every variable it defines that is not already
// present in the environment.
//
// File format:
//   - KEY=VALUE per line, optionally prefixed with "export "
//   - empty lines and lines starting with # are ignored
//   - matching single or double quotes around VALUE are stripped
//
// Example .env file:
//
//	NODE_URL=wss://rpc.example.org
//	export GAVEL_MMR_METHOD="mmr_generateProof"
//	# This is a comment
//
// Parameters:
//   - path: File to read, usually DefaultFile in the working directory
//
// Returns:
//   - error: Read failure or a malformed line, reported as path:line
//
// Behavior:
//   - If the file doesn't exist, Load returns nil
//   - Variables already set in the environment win over the file
//   - Lines before a malformed one have already been applied
func Load(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("%s:%d: expected KEY=VALUE", path, n+1)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%s:%d: empty key", path, n+1)
		}

		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, unquote(strings.TrimSpace(value))); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n+1, err)
		}
	}
	return nil
}

// unquote strips one pair of matching single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
