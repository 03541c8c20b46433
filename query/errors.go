package query

import "errors"

// Build-time checking errors for statement construction.
var (
	ErrUnknownRelation   = errors.New("unknown relation")
	ErrNotATable         = errors.New("relation is not a table")
	ErrNotBoolean        = errors.New("predicate is not boolean")
	ErrRequiredColumn    = errors.New("required column not assigned")
	ErrDefaultNotAllowed = errors.New("column has no default")
	ErrEmptyUpdate       = errors.New("update assigns no columns")
	ErrDuplicateAlias    = errors.New("duplicate output alias")
	ErrAssignMismatch    = errors.New("assignment type mismatch")
	ErrForeignScope      = errors.New("expression built against another scope")
)
