// Package report writes the timestamped JSON report saved by --save.
//
// Reports land in the configured report directory as
// {command}-{YYYYMMDD-HHMMSS}.json so that repeated runs against the same
// node can be compared over time.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmagro/gavel/internal/stats"
)

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

// MarshalJSON writes the duration truncated to whole milliseconds.
func (d MillisDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// Latency is the JSON form of a stats.Summary.
type Latency struct {
	Calls   int            `json:"calls"`
	TotalMS MillisDuration `json:"total_ms"`
	P50MS   MillisDuration `json:"p50_ms"`
	P95MS   MillisDuration `json:"p95_ms"`
	MaxMS   MillisDuration `json:"max_ms"`
}

// Block is one fetched block. Height is nil when the header number could not
// be decoded; the field is then left out of the report.
type Block struct {
	Ref    string          `json:"ref"`
	Hash   string          `json:"hash"`
	Height *uint64         `json:"height,omitempty"`
	Block  json.RawMessage `json:"block"`
}

// Proof is one generated MMR proof.
type Proof struct {
	Ref    string          `json:"ref"`
	Height uint64          `json:"height"`
	Proof  json.RawMessage `json:"proof"`
}

// Report is the document written to disk. Exactly one of Block or Proofs is
// set, depending on Command.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Endpoint  string    `json:"endpoint"`
	Target    string    `json:"target"`
	Latency   Latency   `json:"latency"`

	Block  *Block  `json:"block,omitempty"`
	Proofs []Proof `json:"proofs,omitempty"`
}

// New starts a report for one command run. The caller fills in Block or
// Proofs before writing it.
//
// Parameters:
//   - command: "fetch" or "mmr"
//   - endpoint: Endpoint URL as given on the command line
//   - target: Address actually dialed (differs from the URL host with -r)
//   - latency: Per-call latency summary of the session
//
// Returns:
//   - *Report: Report stamped with the current UTC time
func New(command, endpoint, target string, latency stats.Summary) *Report {
	return &Report{
		Timestamp: time.Now().UTC(),
		Command:   command,
		Endpoint:  endpoint,
		Target:    target,
		Latency: Latency{
			Calls:   latency.Count,
			TotalMS: MillisDuration(latency.Total),
			P50MS:   MillisDuration(latency.P50),
			P95MS:   MillisDuration(latency.P95),
			MaxMS:   MillisDuration(latency.Max),
		},
	}
}

// WriteJSON saves data as an indented JSON file in dir.
//
// Parameters:
//   - dir: Report directory, created with its parents if missing
//   - data: Any JSON-marshalable value, usually a *Report
//   - prefix: File name prefix ("report" when empty)
//
// Returns:
//   - string: Path of the written file, dir/{prefix}-{YYYYMMDD-HHMMSS}.json
//   - error: Directory creation, marshaling or write failure
//
// Behavior:
//   - The timestamp in the file name is UTC
//   - A second run within the same second overwrites the first file
func WriteJSON(dir string, data any, prefix string) (string, error) {
	if prefix == "" {
		prefix = "report"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, ts))

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	b = append(b, '\n')

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
