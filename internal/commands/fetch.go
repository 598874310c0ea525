package commands

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"

	"github.com/dmagro/gavel/internal/blockref"
	"github.com/dmagro/gavel/internal/rpc"
)

// BlockResult is the outcome of Fetch.
type BlockResult struct {
	Ref   blockref.Ref
	Hash  string
	Block *rpc.SignedBlock
}

// Fetch retrieves the block ref points at. A height is first resolved to its
// canonical hash; the latest reference uses the node's best block.
func Fetch(ctx context.Context, api *rpc.API, ref blockref.Ref) (*BlockResult, error) {
	var (
		hash string
		err  error
	)

	switch ref.Kind {
	case blockref.Latest:
		hash, err = api.Head(ctx)
	case blockref.Height:
		hash, err = api.BlockHash(ctx, ref.Number)
	case blockref.Hash:
		hash = ref.HashHex()
	default:
		return nil, goerrors.Errorf("unsupported block reference kind %s", ref.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve block %s: %w", ref, err)
	}

	block, err := api.Block(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch block %s: %w", ref, err)
	}

	return &BlockResult{Ref: ref, Hash: hash, Block: block}, nil
}
