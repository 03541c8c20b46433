// Package expr builds typed scalar SQL expressions. Every constructor
// validates its operands against the scope and operand types it is
// given and fails before any text is rendered; an Expr value that
// exists is known well-formed.
package expr

import (
	"fmt"
	"strings"

	"github.com/quelgo/quel/catalog"
)

// Expr is an immutable, checked scalar expression: its rendered SQL
// fragment, its result type, and the scope its column and parameter
// references were resolved against. Literals are scope-free.
type Expr struct {
	sql   string
	typ   catalog.Type
	scope *Scope
}

// SQL returns the rendered fragment. Rendering never fails; all
// validation happened at construction.
func (e Expr) SQL() string { return e.sql }

// Type returns the expression's result type.
func (e Expr) Type() catalog.Type { return e.typ }

// BoundTo reports whether the expression may appear in a statement
// checked against s: it must be scope-free or built from that exact
// scope value.
func (e Expr) BoundTo(s *Scope) bool {
	return e.scope == nil || e.scope == s
}

// mergeScopes combines the scopes of two operands. Scope-free operands
// adopt the other side's scope; two distinct scopes cannot mix.
func mergeScopes(a, b *Scope) (*Scope, error) {
	if a == nil {
		return b, nil
	}
	if b == nil || a == b {
		return a, nil
	}
	return nil, fmt.Errorf("expr: %w", ErrScopeMismatch)
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func binary(op string, a, b Expr, result catalog.Type, scope *Scope) Expr {
	return Expr{sql: "(" + a.sql + " " + op + " " + b.sql + ")", typ: result, scope: scope}
}

func comparison(op string, a, b Expr) (Expr, error) {
	scope, err := mergeScopes(a.scope, b.scope)
	if err != nil {
		return Expr{}, err
	}
	if a.typ.Kind != b.typ.Kind {
		return Expr{}, fmt.Errorf("expr: %w: cannot compare %s with %s", ErrTypeMismatch, a.typ.Kind, b.typ.Kind)
	}
	return binary(op, a, b, catalog.Type{Kind: catalog.KindBool, Null: a.typ.Null || b.typ.Null}, scope), nil
}

// Eq builds a = b. Operands must share a scalar kind.
func Eq(a, b Expr) (Expr, error) { return comparison("=", a, b) }

// Ne builds a <> b.
func Ne(a, b Expr) (Expr, error) { return comparison("<>", a, b) }

// Lt builds a < b.
func Lt(a, b Expr) (Expr, error) { return comparison("<", a, b) }

// Le builds a <= b.
func Le(a, b Expr) (Expr, error) { return comparison("<=", a, b) }

// Gt builds a > b.
func Gt(a, b Expr) (Expr, error) { return comparison(">", a, b) }

// Ge builds a >= b.
func Ge(a, b Expr) (Expr, error) { return comparison(">=", a, b) }

func arithmetic(op string, a, b Expr) (Expr, error) {
	scope, err := mergeScopes(a.scope, b.scope)
	if err != nil {
		return Expr{}, err
	}
	if a.typ.Kind != b.typ.Kind || !a.typ.Kind.IsNumeric() {
		return Expr{}, fmt.Errorf("expr: %w: %s %s %s", ErrTypeMismatch, a.typ.Kind, op, b.typ.Kind)
	}
	return binary(op, a, b, catalog.Type{Kind: a.typ.Kind, Null: a.typ.Null || b.typ.Null}, scope), nil
}

// Add builds a + b over a shared numeric kind.
func Add(a, b Expr) (Expr, error) { return arithmetic("+", a, b) }

// Sub builds a - b.
func Sub(a, b Expr) (Expr, error) { return arithmetic("-", a, b) }

// Mul builds a * b.
func Mul(a, b Expr) (Expr, error) { return arithmetic("*", a, b) }

// Div builds a / b.
func Div(a, b Expr) (Expr, error) { return arithmetic("/", a, b) }

func boolean(op string, a, b Expr) (Expr, error) {
	scope, err := mergeScopes(a.scope, b.scope)
	if err != nil {
		return Expr{}, err
	}
	if a.typ.Kind != catalog.KindBool || b.typ.Kind != catalog.KindBool {
		return Expr{}, fmt.Errorf("expr: %w: %s wants bool operands, got %s and %s", ErrTypeMismatch, op, a.typ.Kind, b.typ.Kind)
	}
	return binary(op, a, b, catalog.Type{Kind: catalog.KindBool, Null: a.typ.Null || b.typ.Null}, scope), nil
}

// And builds a AND b.
func And(a, b Expr) (Expr, error) { return boolean("AND", a, b) }

// Or builds a OR b.
func Or(a, b Expr) (Expr, error) { return boolean("OR", a, b) }

// Not builds NOT a.
func Not(a Expr) (Expr, error) {
	if a.typ.Kind != catalog.KindBool {
		return Expr{}, fmt.Errorf("expr: %w: NOT wants a bool operand, got %s", ErrTypeMismatch, a.typ.Kind)
	}
	return Expr{sql: "(NOT " + a.sql + ")", typ: a.typ, scope: a.scope}, nil
}

// Coalesce takes any number of nullable operands and one non-null
// fallback, all of the same kind, and is typed non-null.
func Coalesce(fallback Expr, operands ...Expr) (Expr, error) {
	if fallback.typ.Null {
		return Expr{}, fmt.Errorf("expr: %w: COALESCE fallback must be non-null", ErrTypeMismatch)
	}
	scope := fallback.scope
	parts := make([]string, 0, len(operands)+1)
	for _, op := range operands {
		var err error
		if scope, err = mergeScopes(scope, op.scope); err != nil {
			return Expr{}, err
		}
		if op.typ.Kind != fallback.typ.Kind {
			return Expr{}, fmt.Errorf("expr: %w: COALESCE operand %s does not match %s", ErrTypeMismatch, op.typ.Kind, fallback.typ.Kind)
		}
		parts = append(parts, op.sql)
	}
	parts = append(parts, fallback.sql)
	return Expr{
		sql:   "COALESCE(" + strings.Join(parts, ", ") + ")",
		typ:   catalog.NotNull(fallback.typ.Kind),
		scope: scope,
	}, nil
}

// When is one WHEN condition THEN result arm of a CASE expression.
type When struct {
	Cond Expr
	Then Expr
}

// Case builds CASE WHEN ... THEN ... ELSE ... END. Every branch result,
// including the ELSE, must share one kind; the result is nullable if
// any branch is.
func Case(arms []When, els Expr) (Expr, error) {
	if len(arms) == 0 {
		return Expr{}, fmt.Errorf("expr: CASE needs at least one WHEN arm")
	}
	var b strings.Builder
	b.WriteString("CASE")
	null := els.typ.Null
	scope := els.scope
	for _, arm := range arms {
		var err error
		if scope, err = mergeScopes(scope, arm.Cond.scope); err != nil {
			return Expr{}, err
		}
		if scope, err = mergeScopes(scope, arm.Then.scope); err != nil {
			return Expr{}, err
		}
		if arm.Cond.typ.Kind != catalog.KindBool {
			return Expr{}, fmt.Errorf("expr: %w: WHEN condition is %s, not bool", ErrTypeMismatch, arm.Cond.typ.Kind)
		}
		if arm.Then.typ.Kind != els.typ.Kind {
			return Expr{}, fmt.Errorf("expr: %w: CASE branch %s does not match %s", ErrTypeMismatch, arm.Then.typ.Kind, els.typ.Kind)
		}
		null = null || arm.Then.typ.Null
		b.WriteString(" WHEN " + arm.Cond.sql + " THEN " + arm.Then.sql)
	}
	b.WriteString(" ELSE " + els.sql + " END")
	return Expr{sql: b.String(), typ: catalog.Type{Kind: els.typ.Kind, Null: null}, scope: scope}, nil
}

// casts is the fixed allow-list of source -> target kinds. There are no
// implicit text conversions.
var casts = map[catalog.Kind][]catalog.Kind{
	catalog.KindInt2:      {catalog.KindInt4, catalog.KindInt8, catalog.KindNumeric, catalog.KindFloat4, catalog.KindFloat8},
	catalog.KindInt4:      {catalog.KindInt8, catalog.KindNumeric, catalog.KindFloat4, catalog.KindFloat8},
	catalog.KindInt8:      {catalog.KindNumeric, catalog.KindFloat8},
	catalog.KindFloat4:    {catalog.KindFloat8},
	catalog.KindNumeric:   {catalog.KindFloat8},
	catalog.KindChar:      {catalog.KindText},
	catalog.KindVarChar:   {catalog.KindText},
	catalog.KindDate:      {catalog.KindTimestamp, catalog.KindTimestampTZ},
	catalog.KindTimestamp: {catalog.KindTimestampTZ},
	catalog.KindJSON:      {catalog.KindJSONB},
	catalog.KindUUID:      {catalog.KindText},
}

// Cast converts an expression to another kind, permitted only along the
// fixed allow-list. Nullability carries over.
func Cast(e Expr, to catalog.Kind) (Expr, error) {
	for _, target := range casts[e.typ.Kind] {
		if target == to {
			return Expr{
				sql:   "CAST(" + e.sql + " AS " + to.String() + ")",
				typ:   catalog.Type{Kind: to, Null: e.typ.Null},
				scope: e.scope,
			}, nil
		}
	}
	return Expr{}, fmt.Errorf("expr: %w: %s to %s", ErrBadCast, e.typ.Kind, to)
}

// Func builds a call to a named SQL function with a caller-asserted
// result type. Arguments must share a scope.
func Func(name string, result catalog.Type, args ...Expr) (Expr, error) {
	var scope *Scope
	parts := make([]string, len(args))
	for i, a := range args {
		var err error
		if scope, err = mergeScopes(scope, a.scope); err != nil {
			return Expr{}, err
		}
		parts[i] = a.sql
	}
	return Expr{sql: name + "(" + strings.Join(parts, ", ") + ")", typ: result, scope: scope}, nil
}

// CountStar builds the COUNT(*) aggregate placeholder.
func CountStar() Expr {
	return Expr{sql: "COUNT(*)", typ: catalog.NotNull(catalog.KindInt8)}
}
