// Package output renders command results either as JSON (the node's result,
// pretty printed but otherwise untouched) or as a colored terminal summary.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/dmagro/gavel/internal/stats"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

const rule = "═══════════════════════════════════════════════════════"

// DisableColors turns off ANSI colors for every renderer.
func DisableColors() {
	color.NoColor = true
}

// writeIndented pretty prints raw JSON. Input that is not valid JSON is
// written as is.
func writeIndented(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func colorLatency(d time.Duration) string {
	ms := d.Milliseconds()
	s := fmt.Sprintf("%dms", ms)
	switch {
	case ms < 100:
		return green(s)
	case ms < 300:
		return yellow(s)
	default:
		return red(s)
	}
}

func renderLatency(w io.Writer, target string, s stats.Summary) {
	fmt.Fprintf(w, "  %s    %s (%d calls, p50 %s, p95 %s, max %s)\n",
		cyan("Fetched via:"), target, s.Count,
		colorLatency(s.P50), colorLatency(s.P95), colorLatency(s.Max))
}

// formatNumber inserts thousands separators: 24277510 -> "24,277,510".
func formatNumber(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	var out []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, byte(c))
	}
	return string(out)
}

// shorten keeps the head and tail of long hex strings.
func shorten(s string, keep int) string {
	if len(s) <= 2*keep+3 {
		return s
	}
	return s[:keep] + "…" + s[len(s)-keep:]
}

// hexBytes returns the byte length of a 0x-prefixed hex string.
func hexBytes(s string) int {
	if len(s) < 2 {
		return 0
	}
	return (len(s) - 2) / 2
}
