package query

import (
	"fmt"
	"strings"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/expr"
)

// Value is one INSERT assignment: an expression, or the DEFAULT marker
// for columns that declare a default.
type Value struct {
	e         expr.Expr
	isDefault bool
}

// V assigns an expression to a column.
func V(e expr.Expr) Value { return Value{e: e} }

// Default assigns the column's declared default.
func Default() Value { return Value{isDefault: true} }

// TableScope builds the single-table scope UPDATE and DELETE predicates
// are checked against.
func TableScope(cat catalog.Catalog, table string, params ...catalog.Type) (*expr.Scope, error) {
	rel, ok := cat.Relation(catalog.Public, table)
	if !ok {
		return nil, fmt.Errorf("query: %w: %q", ErrUnknownRelation, table)
	}
	tables := []expr.ScopeTable{{Alias: table, Columns: rel.Columns}}
	return expr.NewScope(tables, params), nil
}

func targetTable(cat catalog.Catalog, table string) (catalog.Relation, error) {
	rel, ok := cat.Relation(catalog.Public, table)
	if !ok {
		return catalog.Relation{}, fmt.Errorf("query: %w: %q", ErrUnknownRelation, table)
	}
	if rel.Kind != catalog.RelationTable {
		return catalog.Relation{}, fmt.Errorf("query: %w: %q", ErrNotATable, table)
	}
	return rel, nil
}

// assignable checks that an expression may be stored into a column: the
// kinds must match and a nullable expression needs a nullable column.
func assignable(col catalog.Column, e expr.Expr) error {
	if e.Type().Kind != col.Type.Kind {
		return fmt.Errorf("query: %w: %s into column %q of type %s", ErrAssignMismatch, e.Type().Kind, col.Name, col.Type.Kind)
	}
	if e.Type().Null && !col.Type.Null {
		return fmt.Errorf("query: %w: nullable value into non-null column %q", ErrAssignMismatch, col.Name)
	}
	return nil
}

// Insert builds an INSERT over the table. Every assigned column must
// exist; every non-null column without a default must be assigned; the
// DEFAULT marker is only accepted for columns that declare one. The
// value list follows the table's column order. The scope carries the
// declared parameter types and must be table-less; every value
// expression must be built from it, or be scope-free.
func Insert(cat catalog.Catalog, table string, scope *expr.Scope, values map[string]Value) (*Statement, error) {
	rel, err := targetTable(cat, table)
	if err != nil {
		return nil, err
	}
	for name := range values {
		if _, ok := rel.Column(name); !ok {
			return nil, fmt.Errorf("query: %w: %q has no column %q", ErrUnknownRelation, table, name)
		}
	}
	var names, exprs []string
	for _, col := range rel.Columns {
		v, assigned := values[col.Name]
		if !assigned {
			if !col.Type.Null && !col.HasDefault() {
				return nil, fmt.Errorf("query: %w: %q.%q", ErrRequiredColumn, table, col.Name)
			}
			continue
		}
		if v.isDefault {
			if !col.HasDefault() {
				return nil, fmt.Errorf("query: %w: %q.%q", ErrDefaultNotAllowed, table, col.Name)
			}
			names = append(names, expr.QuoteIdent(col.Name))
			exprs = append(exprs, "DEFAULT")
			continue
		}
		if !v.e.BoundTo(scope) {
			return nil, fmt.Errorf("query: %w: value for %q", ErrForeignScope, col.Name)
		}
		if err := assignable(col, v.e); err != nil {
			return nil, err
		}
		names = append(names, expr.QuoteIdent(col.Name))
		exprs = append(exprs, v.e.SQL())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("query: INSERT into %q assigns no columns", table)
	}
	sql := "INSERT INTO " + expr.QuoteIdent(table) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(exprs, ", ") + ");"
	return &Statement{sql: sql, params: scope.ParamTypes(), cat: cat}, nil
}

// Update builds an UPDATE over the table. Columns absent from set are
// left unchanged and omitted from the SET list; a set with no columns
// at all is rejected, since a SET-less UPDATE is not valid SQL. The
// WHERE predicate is mandatory, and it and every assignment must be
// built from the given single-table scope.
func Update(cat catalog.Catalog, table string, scope *expr.Scope, set map[string]expr.Expr, where expr.Expr) (*Statement, error) {
	rel, err := targetTable(cat, table)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("query: %w: %q", ErrEmptyUpdate, table)
	}
	if !where.BoundTo(scope) {
		return nil, fmt.Errorf("query: %w: WHERE predicate", ErrForeignScope)
	}
	if where.Type().Kind != catalog.KindBool {
		return nil, fmt.Errorf("query: %w: got %s", ErrNotBoolean, where.Type().Kind)
	}
	for name := range set {
		if _, ok := rel.Column(name); !ok {
			return nil, fmt.Errorf("query: %w: %q has no column %q", ErrUnknownRelation, table, name)
		}
	}
	var assigns []string
	for _, col := range rel.Columns {
		e, ok := set[col.Name]
		if !ok {
			continue
		}
		if !e.BoundTo(scope) {
			return nil, fmt.Errorf("query: %w: assignment to %q", ErrForeignScope, col.Name)
		}
		if err := assignable(col, e); err != nil {
			return nil, err
		}
		assigns = append(assigns, expr.QuoteIdent(col.Name)+" = "+e.SQL())
	}
	sql := "UPDATE " + expr.QuoteIdent(table) +
		" SET " + strings.Join(assigns, ", ") + " WHERE " + where.SQL() + ";"
	return &Statement{sql: sql, params: scope.ParamTypes(), cat: cat}, nil
}

// Delete builds a DELETE over the table with a mandatory WHERE
// predicate built from the given single-table scope. Deleting every
// row must be spelled out with a TRUE literal.
func Delete(cat catalog.Catalog, table string, scope *expr.Scope, where expr.Expr) (*Statement, error) {
	if _, err := targetTable(cat, table); err != nil {
		return nil, err
	}
	if !where.BoundTo(scope) {
		return nil, fmt.Errorf("query: %w: WHERE predicate", ErrForeignScope)
	}
	if where.Type().Kind != catalog.KindBool {
		return nil, fmt.Errorf("query: %w: got %s", ErrNotBoolean, where.Type().Kind)
	}
	sql := "DELETE FROM " + expr.QuoteIdent(table) + " WHERE " + where.SQL() + ";"
	return &Statement{sql: sql, params: scope.ParamTypes(), cat: cat}, nil
}
