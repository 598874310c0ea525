package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	goerrors "github.com/go-errors/errors"
)

// Failure classes surfaced by the transport. Every error returned by Dial and
// Client.Call matches exactly one of them with errors.Is.
var (
	ErrConnection    = goerrors.New("connection failed")
	ErrRequestFailed = goerrors.New("request failed")
	ErrTimeout       = goerrors.New("timed out waiting for response")
	ErrRemote        = goerrors.New("node returned an error")
	ErrBlockNotFound = goerrors.New("no such block")
)

// fail tags cause with a failure class and records the call stack, which the
// CLI prints in verbose mode.
func fail(class error, cause error) error {
	return goerrors.Wrap(fmt.Errorf("%w: %w", class, cause), 1)
}

// stacked records the caller's stack on err without changing its class.
func stacked(err error) error {
	return goerrors.Wrap(err, 1)
}

// classify picks the failure class for an I/O error seen while a request was
// in flight.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded {
			return ErrTimeout
		}
		return ErrRequestFailed
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return ErrRequestFailed
}
