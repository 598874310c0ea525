package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/gavel/internal/stats"
)

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	r := New("mmr", "wss://rpc.example.org", "203.0.113.7:443", stats.Summary{
		Count: 2, Total: 30 * time.Millisecond, P50: 10 * time.Millisecond, P95: 20 * time.Millisecond, Max: 20 * time.Millisecond,
	})
	r.Proofs = []Proof{{Ref: "10", Height: 10, Proof: json.RawMessage(`{"proof":"0x0c"}`)}}

	path, err := WriteJSON(dir, r, "mmr")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "mmr-"))
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "mmr", got["command"])
	assert.Equal(t, "203.0.113.7:443", got["target"])
	assert.NotContains(t, got, "block")

	latency := got["latency"].(map[string]any)
	assert.Equal(t, float64(2), latency["calls"])
	assert.Equal(t, float64(30), latency["total_ms"])

	proofs := got["proofs"].([]any)
	require.Len(t, proofs, 1)
	assert.Equal(t, "0x0c", proofs[0].(map[string]any)["proof"].(map[string]any)["proof"])
}

func TestWriteJSONDefaultPrefix(t *testing.T) {
	path, err := WriteJSON(t.TempDir(), map[string]int{"a": 1}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "report-"))
}

func TestWriteJSONBlockHeight(t *testing.T) {
	height := uint64(500)

	tests := []struct {
		name   string
		height *uint64
		want   any
	}{
		{"decoded", &height, float64(500)},
		{"unknown", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("fetch", "ws://127.0.0.1:9944", "127.0.0.1:9944", stats.Summary{})
			r.Block = &Block{Ref: "latest", Hash: "0x11", Height: tt.height, Block: json.RawMessage(`{"block":{}}`)}

			path, err := WriteJSON(t.TempDir(), r, "fetch")
			require.NoError(t, err)
			data, err := os.ReadFile(path)
			require.NoError(t, err)

			var got struct {
				Block map[string]any `json:"block"`
			}
			require.NoError(t, json.Unmarshal(data, &got))
			h, ok := got.Block["height"]
			if tt.want == nil {
				assert.False(t, ok, "height should be omitted")
				return
			}
			assert.Equal(t, tt.want, h)
		})
	}
}
