package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/gavel/internal/commands"
	"github.com/dmagro/gavel/internal/stats"
)

type proofJSON struct {
	Block  string          `json:"block"`
	Height uint64          `json:"height"`
	Proof  json.RawMessage `json:"proof"`
}

// RenderProofsJSON writes one {block, height, proof} object per reference,
// in request order. proof is the node's result, untouched.
func RenderProofsJSON(w io.Writer, results []commands.ProofResult) error {
	out := make([]proofJSON, len(results))
	for i, r := range results {
		out[i] = proofJSON{Block: r.Ref.String(), Height: r.Height, Proof: r.Proof.Raw}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// RenderProofsTerminal writes a table of the proofs, in request order.
func RenderProofsTerminal(w io.Writer, results []commands.ProofResult, target string, latency stats.Summary) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold(fmt.Sprintf("MMR proofs (%d)", len(results))))
	fmt.Fprintln(w, rule)

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Block", "Height", "At block", "Leaves", "Proof")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, r := range results {
		tbl.AddRow(
			r.Ref.String(),
			formatNumber(r.Height),
			shorten(r.Proof.BlockHash, 8),
			fmt.Sprintf("%d bytes", hexBytes(r.Proof.Leaves)),
			fmt.Sprintf("%d bytes", hexBytes(r.Proof.Proof)),
		)
	}
	tbl.Print()

	fmt.Fprintln(w)
	renderLatency(w, target, latency)
	_, err := fmt.Fprintln(w)
	return err
}
