// Package commands implements the fetch and mmr operations on top of a
// single node connection.
package commands

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmagro/gavel/internal/endpoint"
	"github.com/dmagro/gavel/internal/rpc"
)

// Session is one connection to a node plus the typed API over it.
type Session struct {
	API *rpc.API

	client *rpc.Client
}

// Latencies returns the duration of every successful call made so far.
func (s *Session) Latencies() []time.Duration {
	return s.client.Latencies()
}

// Run dials ep, hands the session to fn and closes the connection on every
// exit path. Cancelling ctx closes the socket immediately so that a blocked
// read or write returns.
func Run(ctx context.Context, ep *endpoint.Endpoint, opts rpc.Options, methods rpc.Methods, fn func(context.Context, *Session) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := rpc.Dial(ctx, ep, opts)
	if err != nil {
		return err
	}
	defer client.Close()

	s := &Session{API: rpc.NewAPI(client, methods), client: client}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			logger.Debug("session cancelled, closing connection", "endpoint", ep.String())
			_ = client.Close()
		case <-done:
		}
		return nil
	})

	g.Go(func() error {
		defer close(done)
		return fn(gctx, s)
	})

	return g.Wait()
}
