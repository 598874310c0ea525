// Package blockref parses user supplied block identifiers.
//
// A block is referenced either by height (decimal, or hexadecimal with a 0x
// prefix), by a 32-byte hash (0x followed by 64 hex digits), or implicitly as
// the latest block when no identifier is given.
package blockref

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// ErrInvalidBlockNumber is matched by every parse failure.
var ErrInvalidBlockNumber = errors.New("invalid block number")

// HashLength is the byte length of a block hash.
const HashLength = 32

// Kind selects which field of a Ref is meaningful.
type Kind int

const (
	Latest Kind = iota
	Height
	Hash
)

func (k Kind) String() string {
	switch k {
	case Latest:
		return "latest"
	case Height:
		return "height"
	case Hash:
		return "hash"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ref is a normalized block reference.
type Ref struct {
	Kind   Kind
	Number uint64
	Digest [HashLength]byte
	// Raw is the input the reference was parsed from ("" for an implicit latest).
	Raw string
}

// LatestRef is the reference used when no block identifier is given.
func LatestRef() Ref {
	return Ref{Kind: Latest}
}

// HashHex returns the 0x-prefixed hash. Only meaningful for Kind == Hash.
func (r Ref) HashHex() string {
	return "0x" + hex.EncodeToString(r.Digest[:])
}

// HeightHex returns the height as 0x-prefixed hex, the form the node expects.
func (r Ref) HeightHex() string {
	return fmt.Sprintf("0x%x", r.Number)
}

func (r Ref) String() string {
	switch r.Kind {
	case Height:
		return strconv.FormatUint(r.Number, 10)
	case Hash:
		return r.HashHex()
	default:
		return "latest"
	}
}

// ParseError reports the offending input of a failed parse.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid block number %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidBlockNumber }

// ParseOptional parses an optional argument. A nil argument means latest.
func ParseOptional(arg *string) (Ref, error) {
	if arg == nil {
		return LatestRef(), nil
	}
	return Parse(*arg)
}

// Parse converts a single identifier. Decimal input is a height, 0x input is
// a hash when it carries exactly 64 hex digits and a height otherwise. The
// "latest" tag is accepted as well.
//
// Failures wrap a *ParseError and carry the stack of the call.
func Parse(arg string) (Ref, error) {
	ref, perr := parse(arg)
	if perr != nil {
		return Ref{}, errors.Wrap(perr, 0)
	}
	return ref, nil
}

func parse(arg string) (Ref, *ParseError) {
	s := strings.TrimSpace(arg)
	if s == "" {
		return Ref{}, &ParseError{Input: arg, Reason: "empty value"}
	}
	if strings.EqualFold(s, "latest") {
		return Ref{Kind: Latest, Raw: s}, nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return Ref{}, &ParseError{Input: arg, Reason: "missing hex digits after 0x"}
		}
		if len(digits) == 2*HashLength {
			b, err := hex.DecodeString(digits)
			if err != nil {
				return Ref{}, &ParseError{Input: arg, Reason: "not a hex string"}
			}
			ref := Ref{Kind: Hash, Raw: s}
			copy(ref.Digest[:], b)
			return ref, nil
		}
		n, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return Ref{}, &ParseError{Input: arg, Reason: numError(err, "not a hex number")}
		}
		return Ref{Kind: Height, Number: n, Raw: s}, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Ref{}, &ParseError{Input: arg, Reason: numError(err, "not a decimal number (use 0x for hex)")}
	}
	return Ref{Kind: Height, Number: n, Raw: s}, nil
}

// ParseList parses a comma separated list. Every element must parse; the
// first bad element fails the whole list.
func ParseList(arg string) ([]Ref, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, errors.Wrap(&ParseError{Input: arg, Reason: "empty list"}, 0)
	}

	parts := strings.Split(arg, ",")
	refs := make([]Ref, 0, len(parts))
	for _, part := range parts {
		ref, err := Parse(part)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func numError(err error, fallback string) string {
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return "value overflows uint64"
	}
	return fallback
}
