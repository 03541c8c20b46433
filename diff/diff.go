// Package diff computes the DDL statements that take one declared
// catalog to another. Both sides are catalog values; quel never
// inspects a live database to discover schema.
package diff

import (
	"fmt"
	"sort"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/ddl"
)

func tableNames(cat catalog.Catalog) []string {
	var names []string
	for name, rel := range cat[catalog.Public] {
		if rel.Kind == catalog.RelationTable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Catalogs returns the statements that transform current into desired:
// missing tables are created, surplus tables dropped, and shared
// tables reconciled column by column. Each statement is checked
// against the catalog state the preceding statements produce, so the
// result chains end-to-end.
func Catalogs(desired, current catalog.Catalog) ([]*ddl.Statement, error) {
	var stmts []*ddl.Statement
	apply := func(st *ddl.Statement, err error) error {
		if err != nil {
			return err
		}
		stmts = append(stmts, st)
		current = st.Out()
		return nil
	}

	// Surplus tables go first so their foreign keys never dangle.
	// Referencing tables must drop before their targets; retry until
	// the dependency order shakes out.
	var drops []string
	for _, name := range tableNames(current) {
		if _, ok := desired.Relation(catalog.Public, name); !ok {
			drops = append(drops, name)
		}
	}
	for len(drops) > 0 {
		var deferred []string
		var lastErr error
		for _, name := range drops {
			st, err := ddl.DropTable(current, name)
			if err != nil {
				deferred = append(deferred, name)
				lastErr = err
				continue
			}
			stmts = append(stmts, st)
			current = st.Out()
		}
		if len(deferred) == len(drops) {
			return nil, fmt.Errorf("diff: cannot order table drops: %w", lastErr)
		}
		drops = deferred
	}

	// Missing tables, retried until foreign key targets exist.
	var creates []string
	for _, name := range tableNames(desired) {
		if !current.HasRelation(catalog.Public, name) {
			creates = append(creates, name)
		}
	}
	for len(creates) > 0 {
		var deferred []string
		var lastErr error
		for _, name := range creates {
			rel, _ := desired.Relation(catalog.Public, name)
			st, err := ddl.CreateTable(current, name, rel.Columns, rel.Constraints...)
			if err != nil {
				deferred = append(deferred, name)
				lastErr = err
				continue
			}
			stmts = append(stmts, st)
			current = st.Out()
		}
		if len(deferred) == len(creates) {
			return nil, fmt.Errorf("diff: cannot order table creates: %w", lastErr)
		}
		creates = deferred
	}

	// Shared tables: reconcile columns.
	for _, name := range tableNames(desired) {
		want, _ := desired.Relation(catalog.Public, name)
		have, ok := current.Relation(catalog.Public, name)
		if !ok {
			continue
		}
		for _, col := range have.Columns {
			if _, ok := want.Column(col.Name); !ok {
				if err := apply(ddl.DropColumn(current, name, col.Name)); err != nil {
					return nil, err
				}
			}
		}
		for _, col := range want.Columns {
			if _, ok := have.Column(col.Name); !ok {
				if err := apply(ddl.AddColumn(current, name, col)); err != nil {
					return nil, err
				}
			}
		}
	}

	return stmts, nil
}
