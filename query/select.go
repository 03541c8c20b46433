package query

import (
	"fmt"
	"strings"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/expr"
)

type selectItemKind int

const (
	itemExpr selectItemKind = iota
	itemStar
	itemTableStar
)

// SelectItem is one entry of a selection list: an aliased expression,
// the whole-row star, or a qualified table star.
type SelectItem struct {
	kind  selectItemKind
	e     expr.Expr
	alias string
	table string
}

// As selects an expression under an output alias.
func As(e expr.Expr, alias string) SelectItem {
	return SelectItem{kind: itemExpr, e: e, alias: alias}
}

// Star selects every column of every table in scope, in scope order.
func Star() SelectItem {
	return SelectItem{kind: itemStar}
}

// TableStar selects every column of one table in scope.
func TableStar(table string) SelectItem {
	return SelectItem{kind: itemTableStar, table: table}
}

// Select builds a SELECT statement over the query's FROM tree. The
// result column list is exactly the selection's aliased output types,
// order-preserving.
func Select(q *Query, items ...SelectItem) (*Statement, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("query: empty selection")
	}
	var cols []catalog.Column
	var parts []string
	seen := map[string]bool{}
	add := func(name string, typ catalog.Type) error {
		if seen[name] {
			return fmt.Errorf("query: %w: %q", ErrDuplicateAlias, name)
		}
		seen[name] = true
		cols = append(cols, catalog.Column{Name: name, Type: typ})
		return nil
	}
	for _, item := range items {
		switch item.kind {
		case itemExpr:
			if !item.e.BoundTo(q.scope) {
				return nil, fmt.Errorf("query: %w: item %q", ErrForeignScope, item.alias)
			}
			if err := add(item.alias, item.e.Type()); err != nil {
				return nil, err
			}
			parts = append(parts, item.e.SQL()+" AS "+expr.QuoteIdent(item.alias))
		case itemStar:
			for _, t := range q.tables {
				for _, col := range t.Columns {
					if err := add(col.Name, col.Type); err != nil {
						return nil, err
					}
				}
			}
			parts = append(parts, "*")
		case itemTableStar:
			var found *expr.ScopeTable
			for i := range q.tables {
				if q.tables[i].Alias == item.table {
					found = &q.tables[i]
					break
				}
			}
			if found == nil {
				return nil, fmt.Errorf("query: %w: %q", ErrUnknownRelation, item.table)
			}
			for _, col := range found.Columns {
				if err := add(col.Name, col.Type); err != nil {
					return nil, err
				}
			}
			parts = append(parts, expr.QuoteIdent(item.table)+".*")
		}
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(parts, ", ") + " FROM " + q.from)
	q.renderTail(&b)
	b.WriteString(";")
	return &Statement{
		sql:       b.String(),
		params:    q.params,
		columns:   cols,
		relations: q.relations,
		cat:       q.cat,
	}, nil
}
