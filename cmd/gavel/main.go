// Command gavel queries a Substrate-style node over WebSocket JSON-RPC for
// blocks and MMR inclusion proofs.
//
// Usage:
//
//	gavel fetch [-r IPV4] ENDPOINT [BLOCK_NUMBER]
//	gavel mmr   [-r IPV4] ENDPOINT [BLOCK_NUMBERS]
//
// BLOCK_NUMBER is decimal, 0x-prefixed hex, a 0x-prefixed 32-byte hash or
// "latest" (the default). BLOCK_NUMBERS is a comma separated list of the
// same. The exit status tells failure classes apart; see exit.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/dmagro/gavel/internal/config"
	"github.com/dmagro/gavel/internal/env"
	"github.com/dmagro/gavel/internal/output"
	"github.com/dmagro/gavel/internal/rpc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what the subcommands share once the root command has parsed
// its persistent flags.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger

	verbose bool
	noColor bool
	save    bool
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	code := exitCode(ctx, err)
	if code == exitInterrupted {
		fmt.Fprintln(stderr, "Interrupted")
		return code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if code == exitUsage && errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.Name())
	}

	if a.verbose {
		if ge := failureStack(err); ge != nil {
			fmt.Fprint(stderr, ge.ErrorStack())
		}
	}
	return code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gavel",
		Short: "Fetch blocks and MMR proofs from a node over WebSocket JSON-RPC",
		Long: `gavel talks to a Substrate-style node over a single WebSocket connection.

Examples:
  gavel fetch wss://rpc.example.org
  gavel fetch wss://rpc.example.org 1000
  gavel fetch -r 203.0.113.7 wss://rpc.example.org 0x3e8
  gavel mmr ws://127.0.0.1:9944 10,20,30
  gavel mmr ws://127.0.0.1:9944 --format terminal`,
		Args:              usageArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return goerrors.Wrap(usageError{err}, 0)
	})

	pf := root.PersistentFlags()
	config.RegisterFlags(pf)
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log connection and frame details to stderr")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&a.save, "save", false, "Also write a timestamped JSON report")

	root.AddCommand(a.fetchCmd(), a.mmrCmd())
	return root
}

// setup loads .env, the config file and flag overrides, and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := env.Load(env.DefaultFile); err != nil {
		return goerrors.Wrap(fmt.Errorf("%w: %w", config.ErrInvalidConfig, err), 0)
	}

	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(a.stderr, "Warning: %s\n", w)
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if a.noColor {
		output.DisableColors()
	}
	return nil
}

func (a *app) rpcOptions() rpc.Options {
	return rpc.Options{
		ConnectTimeout:     a.cfg.ConnectTimeout,
		RequestTimeout:     a.cfg.Timeout,
		InsecureSkipVerify: a.cfg.Insecure,
		Logger:             a.logger,
	}
}

// addResolveFlag registers -r/--resolve on a subcommand.
func addResolveFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "resolve", "r", "",
		"Connect to this IPv4 address instead of resolving the endpoint host (TLS and Host header keep the hostname)")
}
