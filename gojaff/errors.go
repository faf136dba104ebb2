package gojaff

import "github.com/pkg/errors"

var (
	ErrUnknownProperty  = errors.New("unknown property")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrArityMismatch    = errors.New("index arity mismatch")
	ErrLengthMismatch   = errors.New("collection length mismatch")
	ErrNotInteger       = errors.New("arithmetic on non-integer value")
	ErrMalformedBlock   = errors.New("malformed directive")
	ErrInvalidReplace   = errors.New("invalid replace directive")
	ErrUnterminated     = errors.New("unterminated block")
	ErrNoDeclaration    = errors.New("no prior cse declaration")
	ErrUnsupportedLang  = errors.New("unsupported template language")
	ErrUnknownAtom      = errors.New("unknown atom in species name")
	ErrBadNetworkFormat = errors.New("unrecognized network line format")
	ErrBadCatalogParam  = errors.New("invalid catalog parameter")
)
