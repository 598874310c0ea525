package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dmagro/gavel/internal/blockref"
	"github.com/dmagro/gavel/internal/commands"
	"github.com/dmagro/gavel/internal/config"
	"github.com/dmagro/gavel/internal/endpoint"
	"github.com/dmagro/gavel/internal/output"
	"github.com/dmagro/gavel/internal/report"
	"github.com/dmagro/gavel/internal/stats"
)

func (a *app) fetchCmd() *cobra.Command {
	var resolve string

	cmd := &cobra.Command{
		Use:   "fetch ENDPOINT [BLOCK_NUMBER]",
		Short: "Fetch a block by height, hash or latest",
		Long: `Fetch a block and print it as the node returned it.

BLOCK_NUMBER may be decimal (1000), hex (0x3e8), a block hash (0x + 64 hex
digits) or "latest". Without it the node's best block is fetched.

Examples:
  gavel fetch wss://rpc.example.org
  gavel fetch wss://rpc.example.org 1000
  gavel fetch -r 203.0.113.7 wss://rpc.example.org 0x3e8`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var blockArg *string
			if len(args) == 2 {
				blockArg = &args[1]
			}
			return a.runFetch(cmd.Context(), args[0], resolve, blockArg)
		},
	}
	addResolveFlag(cmd, &resolve)
	return cmd
}

func (a *app) runFetch(ctx context.Context, rawURL, resolve string, blockArg *string) error {
	ref, err := blockref.ParseOptional(blockArg)
	if err != nil {
		return err
	}
	ep, err := endpoint.Resolve(rawURL, resolve)
	if err != nil {
		return err
	}

	var (
		res     *commands.BlockResult
		latency stats.Summary
	)
	err = commands.Run(ctx, ep, a.rpcOptions(), a.cfg.Methods, func(ctx context.Context, s *commands.Session) error {
		var err error
		res, err = commands.Fetch(ctx, s.API, ref)
		latency = stats.Summarize(s.Latencies())
		return err
	})
	if err != nil {
		return err
	}
	a.logger.Debug("Fetched block", "ref", ref.String(), "hash", res.Hash, "calls", latency.Count)

	if a.cfg.Format == config.FormatTerminal {
		err = output.RenderBlockTerminal(a.stdout, res, ep.Target(), latency)
	} else {
		err = output.RenderBlockJSON(a.stdout, res)
	}
	if err != nil {
		return err
	}

	if !a.save {
		return nil
	}
	r := report.New("fetch", ep.String(), ep.Target(), latency)
	r.Block = &report.Block{Ref: ref.String(), Hash: res.Hash, Block: res.Block.Raw}
	if height, err := res.Block.Block.Header.Height(); err == nil {
		r.Block.Height = &height
	} else {
		a.logger.Debug("Block height left out of report", "hash", res.Hash, "error", err)
	}
	return a.writeReport(r, "fetch")
}

func (a *app) writeReport(r *report.Report, prefix string) error {
	path, err := report.WriteJSON(a.cfg.ReportDir, r, prefix)
	if err != nil {
		return err
	}
	a.logger.Info("Report saved", "path", path)
	return nil
}
