package main

import (
	"context"
	"errors"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/dmagro/gavel/internal/blockref"
	"github.com/dmagro/gavel/internal/commands"
	"github.com/dmagro/gavel/internal/config"
	"github.com/dmagro/gavel/internal/endpoint"
	"github.com/dmagro/gavel/internal/rpc"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitUsage         = 2 // bad arguments, endpoint, address, block number or config
	exitConnection    = 3
	exitRequestFailed = 4
	exitTimeout       = 5
	exitNotFound      = 6
	exitRemote        = 7
	exitPartialBatch  = 8
	exitInterrupted   = 130
)

var errUsage = goerrors.New("usage error")

// usageError marks command line mistakes reported by cobra.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() []error { return []error{errUsage, e.err} }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return goerrors.Wrap(usageError{err}, 0)
		}
		return nil
	}
}

// exitCode maps an error returned by a command to the process exit code.
// ctx is the process context; once it is cancelled every failure counts as
// an interrupt.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case ctx.Err() != nil:
		return exitInterrupted
	case errors.Is(err, errUsage),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, endpoint.ErrInvalidEndpoint),
		errors.Is(err, endpoint.ErrInvalidAddress),
		errors.Is(err, blockref.ErrInvalidBlockNumber):
		return exitUsage
	// A batch error also matches its cause, so it is checked first.
	case errors.Is(err, commands.ErrPartialBatch):
		return exitPartialBatch
	case errors.Is(err, rpc.ErrBlockNotFound):
		return exitNotFound
	case errors.Is(err, rpc.ErrRemote):
		return exitRemote
	case errors.Is(err, rpc.ErrTimeout):
		return exitTimeout
	case errors.Is(err, rpc.ErrConnection):
		return exitConnection
	case errors.Is(err, rpc.ErrRequestFailed):
		return exitRequestFailed
	default:
		return exitFailure
	}
}

// sentinels are the package level errors the failure classes are matched
// against. Their stacks point at package initialisation, not at a failure.
var sentinels = []error{
	errUsage,
	config.ErrInvalidConfig,
	endpoint.ErrInvalidEndpoint,
	endpoint.ErrInvalidAddress,
	blockref.ErrInvalidBlockNumber,
	commands.ErrPartialBatch,
	rpc.ErrConnection,
	rpc.ErrRequestFailed,
	rpc.ErrTimeout,
	rpc.ErrRemote,
	rpc.ErrBlockNotFound,
}

// failureStack returns the first stack-carrying error in err's tree that is
// not one of the sentinels, searching depth first in Unwrap order.
func failureStack(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*goerrors.Error); ok && !isSentinel(ge) {
		return ge
	}

	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return failureStack(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if ge := failureStack(e); ge != nil {
				return ge
			}
		}
	}
	return nil
}

func isSentinel(err error) bool {
	for _, s := range sentinels {
		if err == s {
			return true
		}
	}
	return false
}
