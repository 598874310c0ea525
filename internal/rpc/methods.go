package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Methods names the node API calls gavel relies on. They are defined by the
// node, not by gavel, so they are configurable.
type Methods struct {
	Head      string `yaml:"head"`       // () -> hash of the best block
	BlockHash string `yaml:"block_hash"` // (height) -> hash | null
	Block     string `yaml:"block"`      // (hash) -> signed block | null
	Header    string `yaml:"header"`     // (hash) -> header | null
	MMRProof  string `yaml:"mmr_proof"`  // ([heights]) -> proof
}

// DefaultMethods returns the Substrate method names.
func DefaultMethods() Methods {
	return Methods{
		Head:      "chain_getHead",
		BlockHash: "chain_getBlockHash",
		Block:     "chain_getBlock",
		Header:    "chain_getHeader",
		MMRProof:  "mmr_generateProof",
	}
}

// Caller issues a single JSON-RPC call. *Client implements it.
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Header is the subset of a block header gavel reads.
type Header struct {
	ParentHash     string `json:"parentHash"`
	Number         string `json:"number"` // hex
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
	Digest         struct {
		Logs []string `json:"logs"`
	} `json:"digest"`
}

// Height decodes the hex block number.
func (h *Header) Height() (uint64, error) {
	return ParseHexUint64(h.Number)
}

// SignedBlock is a chain_getBlock result. Raw holds the result exactly as
// the node sent it.
type SignedBlock struct {
	Block struct {
		Header     Header            `json:"header"`
		Extrinsics []json.RawMessage `json:"extrinsics"`
	} `json:"block"`
	Justifications json.RawMessage `json:"justifications"`

	Raw json.RawMessage `json:"-"`
}

// Proof is an mmr_generateProof result. Leaves and Proof are SCALE encoded
// hex blobs, relayed untouched.
type Proof struct {
	BlockHash string `json:"blockHash"`
	Leaves    string `json:"leaves"`
	Proof     string `json:"proof"`

	Raw json.RawMessage `json:"-"`
}

// API wraps a Caller with typed node calls.
type API struct {
	caller  Caller
	methods Methods
}

func NewAPI(caller Caller, methods Methods) *API {
	return &API{caller: caller, methods: methods}
}

// Head returns the hash of the node's best block.
func (a *API) Head(ctx context.Context) (string, error) {
	raw, err := a.caller.Call(ctx, a.methods.Head)
	if err != nil {
		return "", err
	}
	return decodeHash(a.methods.Head, raw)
}

// BlockHash returns the canonical hash at height, or ErrBlockNotFound.
func (a *API) BlockHash(ctx context.Context, height uint64) (string, error) {
	raw, err := a.caller.Call(ctx, a.methods.BlockHash, Uint64ToHex(height))
	if err != nil {
		return "", err
	}
	if isNull(raw) {
		return "", stacked(fmt.Errorf("%w: height %d", ErrBlockNotFound, height))
	}
	return decodeHash(a.methods.BlockHash, raw)
}

// Block fetches the block with the given hash, or ErrBlockNotFound.
func (a *API) Block(ctx context.Context, hash string) (*SignedBlock, error) {
	raw, err := a.caller.Call(ctx, a.methods.Block, hash)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, stacked(fmt.Errorf("%w: hash %s", ErrBlockNotFound, hash))
	}

	var block SignedBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, stacked(fmt.Errorf("%s: failed to parse block: %w", a.methods.Block, err))
	}
	block.Raw = raw
	return &block, nil
}

// Header fetches the header with the given hash, or ErrBlockNotFound.
func (a *API) Header(ctx context.Context, hash string) (*Header, error) {
	raw, err := a.caller.Call(ctx, a.methods.Header, hash)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, stacked(fmt.Errorf("%w: hash %s", ErrBlockNotFound, hash))
	}

	var header Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, stacked(fmt.Errorf("%s: failed to parse header: %w", a.methods.Header, err))
	}
	return &header, nil
}

// GenerateProof asks the node for the MMR inclusion proof of one block.
func (a *API) GenerateProof(ctx context.Context, height uint64) (*Proof, error) {
	raw, err := a.caller.Call(ctx, a.methods.MMRProof, []uint64{height})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, stacked(fmt.Errorf("%w: no proof for height %d", ErrBlockNotFound, height))
	}

	var proof Proof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, stacked(fmt.Errorf("%s: failed to parse proof: %w", a.methods.MMRProof, err))
	}
	proof.Raw = raw
	return &proof, nil
}

func decodeHash(method string, raw json.RawMessage) (string, error) {
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", stacked(fmt.Errorf("%s: expected block hash string, got %s", method, truncate(string(raw), 64)))
	}
	return hash, nil
}

// ParseHexUint64 converts a 0x-prefixed hex string to uint64.
func ParseHexUint64(hex string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if digits == "" {
		return 0, fmt.Errorf("invalid hex: %q", hex)
	}
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex: %q", hex)
	}
	return n, nil
}

// Uint64ToHex converts a uint64 to a hex string with 0x prefix for RPC calls.
func Uint64ToHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
