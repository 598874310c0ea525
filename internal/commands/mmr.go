package commands

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"

	"github.com/dmagro/gavel/internal/blockref"
	"github.com/dmagro/gavel/internal/rpc"
)

// ErrPartialBatch is matched by the error of an mmr batch that failed part way.
var ErrPartialBatch = goerrors.New("mmr batch aborted")

// BatchError reports which reference of a batch failed. It matches both
// ErrPartialBatch and the underlying cause.
type BatchError struct {
	Index int // zero based
	Total int
	Ref   blockref.Ref
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("block %s (%d of %d): %v", e.Ref, e.Index+1, e.Total, e.Err)
}

// Unwrap lists the cause first so that its recorded stack is found before
// the ErrPartialBatch sentinel.
func (e *BatchError) Unwrap() []error {
	return []error{e.Err, ErrPartialBatch}
}

// ProofResult pairs a reference with the proof the node generated for it.
type ProofResult struct {
	Ref    blockref.Ref
	Height uint64
	Proof  *rpc.Proof
}

// MMR requests one proof per reference, in order, over the same connection.
// The first failure stops the batch; results gathered before it are dropped.
// A single-reference batch returns the cause unwrapped.
func MMR(ctx context.Context, api *rpc.API, refs []blockref.Ref) ([]ProofResult, error) {
	if len(refs) == 0 {
		refs = []blockref.Ref{blockref.LatestRef()}
	}

	results := make([]ProofResult, 0, len(refs))
	for i, ref := range refs {
		res, err := proveOne(ctx, api, ref)
		if err != nil {
			if len(refs) == 1 {
				return nil, err
			}
			return nil, &BatchError{Index: i, Total: len(refs), Ref: ref, Err: err}
		}
		results = append(results, *res)
	}
	return results, nil
}

func proveOne(ctx context.Context, api *rpc.API, ref blockref.Ref) (*ProofResult, error) {
	height, err := resolveHeight(ctx, api, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve block %s: %w", ref, err)
	}

	proof, err := api.GenerateProof(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("generate proof for block %d: %w", height, err)
	}
	return &ProofResult{Ref: ref, Height: height, Proof: proof}, nil
}

// resolveHeight turns any reference into a block number, since proofs are
// requested by number.
func resolveHeight(ctx context.Context, api *rpc.API, ref blockref.Ref) (uint64, error) {
	var hash string
	switch ref.Kind {
	case blockref.Height:
		return ref.Number, nil
	case blockref.Latest:
		head, err := api.Head(ctx)
		if err != nil {
			return 0, err
		}
		hash = head
	case blockref.Hash:
		hash = ref.HashHex()
	default:
		return 0, goerrors.Errorf("unsupported block reference kind %s", ref.Kind)
	}

	header, err := api.Header(ctx, hash)
	if err != nil {
		return 0, err
	}
	height, err := header.Height()
	if err != nil {
		return 0, goerrors.Wrap(fmt.Errorf("header %s: %w", hash, err), 0)
	}
	return height, nil
}
