package output

import (
	"fmt"
	"io"

	"github.com/dmagro/gavel/internal/blockref"
	"github.com/dmagro/gavel/internal/commands"
	"github.com/dmagro/gavel/internal/stats"
)

// RenderBlockJSON writes the block exactly as the node returned it.
func RenderBlockJSON(w io.Writer, res *commands.BlockResult) error {
	return writeIndented(w, res.Block.Raw)
}

// RenderBlockTerminal writes a human readable summary of the block.
func RenderBlockTerminal(w io.Writer, res *commands.BlockResult, target string, latency stats.Summary) error {
	header := res.Block.Block.Header

	title := "Block"
	if height, err := header.Height(); err == nil {
		title = fmt.Sprintf("Block #%s", formatNumber(height))
	}
	if res.Ref.Kind == blockref.Latest {
		title += " " + dim("(latest)")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold(title))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s           %s\n", cyan("Hash:"), res.Hash)
	fmt.Fprintf(w, "  %s         %s\n", cyan("Parent:"), header.ParentHash)
	fmt.Fprintf(w, "  %s     %s\n", cyan("State root:"), header.StateRoot)
	fmt.Fprintf(w, "  %s %s\n", cyan("Extrinsics root:"), header.ExtrinsicsRoot)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s     %d\n", cyan("Extrinsics:"), len(res.Block.Block.Extrinsics))
	fmt.Fprintf(w, "  %s    %d\n", cyan("Digest logs:"), len(header.Digest.Logs))
	fmt.Fprintf(w, "  %s %s\n", cyan("Justifications:"), justifications(res))
	fmt.Fprintln(w)
	renderLatency(w, target, latency)
	_, err := fmt.Fprintln(w)
	return err
}

func justifications(res *commands.BlockResult) string {
	raw := string(res.Block.Justifications)
	if raw == "" || raw == "null" {
		return dim("none")
	}
	return green("present")
}
