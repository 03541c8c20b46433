package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/expr"
)

// Query is an accumulated FROM/JOIN tree plus its clause set. Values
// are immutable; every method returns a derived copy, so a partially
// built query can be shared and extended in different directions.
type Query struct {
	cat       catalog.Catalog
	tables    []expr.ScopeTable
	params    []catalog.Type
	scope     *expr.Scope
	relations []string
	from      string
	where     []expr.Expr
	limit     *uint64
	offset    uint64
}

// From starts a query over a base table or view in the public schema,
// aliased by its own name. Declared parameter types become $1..$n.
func From(cat catalog.Catalog, table string, params ...catalog.Type) (*Query, error) {
	rel, ok := cat.Relation(catalog.Public, table)
	if !ok {
		return nil, fmt.Errorf("query: %w: %q", ErrUnknownRelation, table)
	}
	tables := []expr.ScopeTable{{Alias: table, Columns: rel.Columns}}
	return &Query{
		cat:       cat,
		tables:    tables,
		params:    params,
		scope:     expr.NewScope(tables, params),
		relations: []string{table},
		from:      expr.QuoteIdent(table) + " AS " + expr.QuoteIdent(table),
	}, nil
}

// FromSelect starts a query over a subselect, visible under the given
// alias. The subselect's parameters become the query's parameters.
func FromSelect(sel *Statement, alias string) (*Query, error) {
	if len(sel.Columns()) == 0 {
		return nil, fmt.Errorf("query: subselect %q has no result columns", alias)
	}
	tables := []expr.ScopeTable{{Alias: alias, Columns: sel.Columns()}}
	return &Query{
		cat:       sel.In(),
		tables:    tables,
		params:    sel.Params(),
		scope:     expr.NewScope(tables, sel.Params()),
		relations: append([]string(nil), sel.Relations()...),
		from:      "(" + sel.body() + ") AS " + expr.QuoteIdent(alias),
	}, nil
}

// Scope exposes the tables currently visible, for building expressions.
// Expressions attached to the query must be built from this scope; it
// is the identity the clause builders check against.
func (q *Query) Scope() *expr.Scope {
	return q.scope
}

func (q *Query) clone() *Query {
	out := *q
	out.tables = append([]expr.ScopeTable(nil), q.tables...)
	out.relations = append([]string(nil), q.relations...)
	out.where = append([]expr.Expr(nil), q.where...)
	return &out
}

// Where adds a predicate. Repeated predicates AND together into a
// single WHERE clause. The predicate must be built from this query's
// scope, or be scope-free.
func (q *Query) Where(p expr.Expr) (*Query, error) {
	if !p.BoundTo(q.scope) {
		return nil, fmt.Errorf("query: %w: WHERE predicate", ErrForeignScope)
	}
	if p.Type().Kind != catalog.KindBool {
		return nil, fmt.Errorf("query: %w: got %s", ErrNotBoolean, p.Type().Kind)
	}
	out := q.clone()
	out.where = append(out.where, p)
	return out, nil
}

// Limit bounds the result size. Applying two limits keeps the minimum.
func (q *Query) Limit(n uint64) *Query {
	out := q.clone()
	if out.limit == nil || n < *out.limit {
		out.limit = &n
	}
	return out
}

// Offset skips leading rows. Applying two offsets sums them.
func (q *Query) Offset(n uint64) *Query {
	out := q.clone()
	out.offset += n
	return out
}

// OnPredicate builds a join condition against the tables in scope at
// that join step: the accumulated left-hand tables plus the newly
// joined one.
type OnPredicate func(s *expr.Scope) (expr.Expr, error)

type joinKind int

const (
	crossJoin joinKind = iota
	innerJoin
	leftJoin
	rightJoin
	fullJoin
)

var joinSQL = map[joinKind]string{
	crossJoin: "CROSS JOIN",
	innerJoin: "INNER JOIN",
	leftJoin:  "LEFT OUTER JOIN",
	rightJoin: "RIGHT OUTER JOIN",
	fullJoin:  "FULL OUTER JOIN",
}

// nullify returns the table with every column made nullable, the
// null-extension an outer join imposes on its outer side.
func nullify(t expr.ScopeTable) expr.ScopeTable {
	cols := make([]catalog.Column, len(t.Columns))
	for i, col := range t.Columns {
		col.Type = col.Type.AsNullable()
		cols[i] = col
	}
	return expr.ScopeTable{Alias: t.Alias, Columns: cols}
}

func (q *Query) join(kind joinKind, table string, on OnPredicate) (*Query, error) {
	rel, ok := q.cat.Relation(catalog.Public, table)
	if !ok {
		return nil, fmt.Errorf("query: %w: %q", ErrUnknownRelation, table)
	}
	for _, t := range q.tables {
		if t.Alias == table {
			return nil, fmt.Errorf("query: table %q is already in scope", table)
		}
	}
	joined := expr.ScopeTable{Alias: table, Columns: rel.Columns}

	out := q.clone()
	out.from += " " + joinSQL[kind] + " " + expr.QuoteIdent(table) + " AS " + expr.QuoteIdent(table)
	if kind != crossJoin {
		// The ON predicate sees the pre-join column types; the
		// nullify rule applies to the join's result, not its
		// condition.
		onScope := expr.NewScope(append(append([]expr.ScopeTable(nil), q.tables...), joined), q.params)
		cond, err := on(onScope)
		if err != nil {
			return nil, err
		}
		if !cond.BoundTo(onScope) {
			return nil, fmt.Errorf("query: %w: join condition", ErrForeignScope)
		}
		if cond.Type().Kind != catalog.KindBool {
			return nil, fmt.Errorf("query: %w: join condition is %s", ErrNotBoolean, cond.Type().Kind)
		}
		out.from += " ON " + cond.SQL()
	}

	switch kind {
	case leftJoin:
		joined = nullify(joined)
	case rightJoin:
		for i, t := range out.tables {
			out.tables[i] = nullify(t)
		}
	case fullJoin:
		for i, t := range out.tables {
			out.tables[i] = nullify(t)
		}
		joined = nullify(joined)
	}
	out.tables = append(out.tables, joined)
	out.relations = append(out.relations, table)
	out.scope = expr.NewScope(out.tables, out.params)
	return out, nil
}

// CrossJoin joins a table with no condition.
func (q *Query) CrossJoin(table string) (*Query, error) {
	return q.join(crossJoin, table, nil)
}

// InnerJoin joins a table on a condition; no columns are nullified.
func (q *Query) InnerJoin(table string, on OnPredicate) (*Query, error) {
	return q.join(innerJoin, table, on)
}

// LeftJoin joins a table on a condition, nullifying the joined table's
// columns in the result.
func (q *Query) LeftJoin(table string, on OnPredicate) (*Query, error) {
	return q.join(leftJoin, table, on)
}

// RightJoin joins a table on a condition, nullifying the accumulated
// left-hand tables' columns in the result.
func (q *Query) RightJoin(table string, on OnPredicate) (*Query, error) {
	return q.join(rightJoin, table, on)
}

// FullJoin joins a table on a condition, nullifying both sides.
func (q *Query) FullJoin(table string, on OnPredicate) (*Query, error) {
	return q.join(fullJoin, table, on)
}

// renderTail writes the WHERE/LIMIT/OFFSET clauses.
func (q *Query) renderTail(b *strings.Builder) {
	if len(q.where) > 0 {
		parts := make([]string, len(q.where))
		for i, p := range q.where {
			parts[i] = p.SQL()
		}
		b.WriteString(" WHERE " + strings.Join(parts, " AND "))
	}
	if q.limit != nil {
		b.WriteString(" LIMIT " + strconv.FormatUint(*q.limit, 10))
	}
	if q.offset > 0 {
		b.WriteString(" OFFSET " + strconv.FormatUint(q.offset, 10))
	}
}
