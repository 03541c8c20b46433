package expr

import (
	"fmt"

	"github.com/quelgo/quel/catalog"
)

// ScopeTable is one table visible to an expression, with its columns as
// they appear at that point of the join tree (outer joins may have made
// them nullable).
type ScopeTable struct {
	Alias   string
	Columns []catalog.Column
}

// Scope is the context expressions are checked against: the tables in
// scope left-to-right plus the statement's declared parameter types.
type Scope struct {
	tables []ScopeTable
	params []catalog.Type
}

// NewScope builds a scope from visible tables and declared parameters.
func NewScope(tables []ScopeTable, params []catalog.Type) *Scope {
	return &Scope{tables: tables, params: params}
}

// ParamScope builds a table-less scope, as used by INSERT value lists.
func ParamScope(params ...catalog.Type) *Scope {
	return &Scope{params: params}
}

// Tables returns the visible tables in scope order.
func (s *Scope) Tables() []ScopeTable { return s.tables }

// ParamTypes returns the declared parameter types.
func (s *Scope) ParamTypes() []catalog.Type { return s.params }

// Col references a column of a specific table in scope, rendered
// qualified as "table"."column".
func (s *Scope) Col(table, column string) (Expr, error) {
	for _, t := range s.tables {
		if t.Alias != table {
			continue
		}
		for _, col := range t.Columns {
			if col.Name == column {
				return Expr{
					sql:   QuoteIdent(table) + "." + QuoteIdent(column),
					typ:   col.Type,
					scope: s,
				}, nil
			}
		}
		return Expr{}, fmt.Errorf("expr: %w: %q has no column %q", ErrUnknownColumn, table, column)
	}
	return Expr{}, fmt.Errorf("expr: %w: %q", ErrUnknownTable, table)
}

// C references a column by bare name, rendered unqualified. The column
// must exist in exactly one table in scope.
func (s *Scope) C(column string) (Expr, error) {
	var found *catalog.Column
	for _, t := range s.tables {
		for i, col := range t.Columns {
			if col.Name != column {
				continue
			}
			if found != nil {
				return Expr{}, fmt.Errorf("expr: %w: %q", ErrAmbiguousColumn, column)
			}
			found = &t.Columns[i]
		}
	}
	if found == nil {
		return Expr{}, fmt.Errorf("expr: %w: %q", ErrUnknownColumn, column)
	}
	return Expr{sql: QuoteIdent(column), typ: found.Type, scope: s}, nil
}

// Param references the n-th declared parameter, 1-based to match the
// $n placeholder it renders to.
func (s *Scope) Param(n int) (Expr, error) {
	if n < 1 || n > len(s.params) {
		return Expr{}, fmt.Errorf("expr: %w: $%d of %d declared", ErrParamIndex, n, len(s.params))
	}
	return Expr{sql: fmt.Sprintf("$%d", n), typ: s.params[n-1], scope: s}, nil
}
