package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmagro/gavel/internal/blockref"
	"github.com/dmagro/gavel/internal/commands"
	"github.com/dmagro/gavel/internal/config"
	"github.com/dmagro/gavel/internal/endpoint"
	"github.com/dmagro/gavel/internal/output"
	"github.com/dmagro/gavel/internal/report"
	"github.com/dmagro/gavel/internal/stats"
)

func (a *app) mmrCmd() *cobra.Command {
	var resolve string

	cmd := &cobra.Command{
		Use:   "mmr ENDPOINT [BLOCK_NUMBERS]",
		Short: "Request MMR inclusion proofs for one or more blocks",
		Long: `Request an MMR inclusion proof from the node for every listed block.

BLOCK_NUMBERS is a comma separated list of heights, hashes or "latest";
without it the proof for the best block is requested. The whole list is
validated before connecting. Proofs are requested one at a time over the
same connection, and the first failure aborts the batch without output.

Examples:
  gavel mmr ws://127.0.0.1:9944
  gavel mmr ws://127.0.0.1:9944 10,20,30
  gavel mmr -r 203.0.113.7 wss://rpc.example.org 0x3e8 --format terminal`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMMR(cmd.Context(), args[0], resolve, args[1:])
		},
	}
	addResolveFlag(cmd, &resolve)
	return cmd
}

func (a *app) runMMR(ctx context.Context, rawURL, resolve string, blockArgs []string) error {
	// "10,20" and "10, 20" (split by the shell) mean the same list.
	var refs []blockref.Ref
	if len(blockArgs) > 0 {
		var err error
		refs, err = blockref.ParseList(strings.Join(blockArgs, ","))
		if err != nil {
			return err
		}
	}

	ep, err := endpoint.Resolve(rawURL, resolve)
	if err != nil {
		return err
	}

	var (
		results []commands.ProofResult
		latency stats.Summary
	)
	err = commands.Run(ctx, ep, a.rpcOptions(), a.cfg.Methods, func(ctx context.Context, s *commands.Session) error {
		var err error
		results, err = commands.MMR(ctx, s.API, refs)
		latency = stats.Summarize(s.Latencies())
		return err
	})
	if err != nil {
		return err
	}
	a.logger.Debug("Generated proofs", "count", len(results), "calls", latency.Count)

	if a.cfg.Format == config.FormatTerminal {
		err = output.RenderProofsTerminal(a.stdout, results, ep.Target(), latency)
	} else {
		err = output.RenderProofsJSON(a.stdout, results)
	}
	if err != nil {
		return err
	}

	if !a.save {
		return nil
	}
	r := report.New("mmr", ep.String(), ep.Target(), latency)
	for _, res := range results {
		r.Proofs = append(r.Proofs, report.Proof{Ref: res.Ref.String(), Height: res.Height, Proof: res.Proof.Raw})
	}
	return a.writeReport(r, "mmr")
}
