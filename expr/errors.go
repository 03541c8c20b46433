package expr

import "errors"

// Build-time checking errors. All are detected at construction, before
// any SQL text leaves the builder.
var (
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrAmbiguousColumn = errors.New("ambiguous column")
	ErrParamIndex      = errors.New("parameter index out of range")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrBadCast         = errors.New("cast not permitted")
	ErrScopeMismatch   = errors.New("operands belong to different scopes")
)
