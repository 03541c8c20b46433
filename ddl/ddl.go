// Package ddl builds schema-changing statements. Each builder is a
// catalog transform: it takes the catalog the statement must run
// against, checks its precondition there, and carries both the input
// and the resulting output catalog alongside the rendered SQL. A chain
// of DDL statements therefore type-checks end-to-end by catalog
// equality.
package ddl

import (
	"fmt"
	"strings"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/expr"
	"github.com/quelgo/quel/query"
)

// Statement is an immutable, checked DDL statement. It returns no rows
// and declares no parameters; its effect is the In -> Out catalog
// transformation.
type Statement struct {
	sql string
	in  catalog.Catalog
	out catalog.Catalog
}

// SQL returns the rendered statement, terminated by a semicolon.
func (s *Statement) SQL() string { return s.sql }

// Params returns nil; DDL statements take no parameters.
func (s *Statement) Params() []catalog.Type { return nil }

// In returns the catalog the statement applies to.
func (s *Statement) In() catalog.Catalog { return s.in }

// Out returns the catalog after the statement has run.
func (s *Statement) Out() catalog.Catalog { return s.out }

func renderColumn(col catalog.Column) string {
	sql := expr.QuoteIdent(col.Name) + " " + col.Type.SQL()
	if !col.Type.Null {
		sql += " NOT NULL"
	}
	if col.Default != nil {
		sql += " DEFAULT " + *col.Default
	}
	return sql
}

func renderIdentList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = expr.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func renderConstraint(con catalog.Constraint) string {
	switch con.Kind {
	case catalog.PrimaryKey:
		return "PRIMARY KEY (" + renderIdentList(con.Columns) + ")"
	case catalog.Unique:
		return "UNIQUE (" + renderIdentList(con.Columns) + ")"
	case catalog.ForeignKey:
		sql := "FOREIGN KEY (" + renderIdentList(con.Columns) + ") REFERENCES " +
			expr.QuoteIdent(con.RefTable) + " (" + renderIdentList(con.RefColumns) + ")"
		if con.OnDelete != "" {
			sql += " ON DELETE " + string(con.OnDelete)
		}
		if con.OnUpdate != "" {
			sql += " ON UPDATE " + string(con.OnUpdate)
		}
		return sql
	}
	return ""
}

// CreateTable builds CREATE TABLE, adding the relation to the catalog.
// Column, constraint and foreign-key preconditions are checked against
// the input catalog.
func CreateTable(cat catalog.Catalog, name string, columns []catalog.Column, constraints ...catalog.Constraint) (*Statement, error) {
	rel, err := catalog.NewTable(columns, constraints...)
	if err != nil {
		return nil, err
	}
	out, err := cat.CreateRelation(catalog.Public, name, rel)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, len(columns)+len(constraints))
	for _, col := range columns {
		parts = append(parts, renderColumn(col))
	}
	for _, con := range constraints {
		parts = append(parts, renderConstraint(con))
	}
	sql := "CREATE TABLE " + expr.QuoteIdent(name) + " (" + strings.Join(parts, ", ") + ");"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// DropTable builds DROP TABLE. The relation must exist, be a table, and
// not be the target of another table's foreign key or read by a view.
func DropTable(cat catalog.Catalog, name string) (*Statement, error) {
	rel, ok := cat.Relation(catalog.Public, name)
	if !ok {
		return nil, fmt.Errorf("ddl: relation %q does not exist", name)
	}
	if rel.Kind != catalog.RelationTable {
		return nil, fmt.Errorf("ddl: relation %q is not a table", name)
	}
	out, err := cat.DropRelation(catalog.Public, name)
	if err != nil {
		return nil, err
	}
	sql := "DROP TABLE " + expr.QuoteIdent(name) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// RenameTable builds ALTER TABLE ... RENAME TO.
func RenameTable(cat catalog.Catalog, old, new string) (*Statement, error) {
	out, err := cat.RenameRelation(catalog.Public, old, new)
	if err != nil {
		return nil, err
	}
	sql := "ALTER TABLE " + expr.QuoteIdent(old) + " RENAME TO " + expr.QuoteIdent(new) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// AddColumn builds ALTER TABLE ... ADD COLUMN.
func AddColumn(cat catalog.Catalog, table string, col catalog.Column) (*Statement, error) {
	out, err := cat.AlterRelation(catalog.Public, table, func(rel catalog.Relation) (catalog.Relation, error) {
		if rel.Kind != catalog.RelationTable {
			return catalog.Relation{}, fmt.Errorf("ddl: relation %q is not a table", table)
		}
		return catalog.NewTable(append(append([]catalog.Column(nil), rel.Columns...), col), rel.Constraints...)
	})
	if err != nil {
		return nil, err
	}
	sql := "ALTER TABLE " + expr.QuoteIdent(table) + " ADD COLUMN " + renderColumn(col) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// columnConstrained reports whether any constraint in the catalog
// mentions table.column, either locally or as a foreign-key target.
func columnConstrained(cat catalog.Catalog, table, column string) bool {
	for relName, rel := range cat[catalog.Public] {
		for _, con := range rel.Constraints {
			if relName == table {
				for _, c := range con.Columns {
					if c == column {
						return true
					}
				}
			}
			if con.Kind == catalog.ForeignKey && con.RefTable == table {
				for _, c := range con.RefColumns {
					if c == column {
						return true
					}
				}
			}
		}
	}
	return false
}

// DropColumn builds ALTER TABLE ... DROP COLUMN. Columns referenced by
// a constraint cannot be dropped.
func DropColumn(cat catalog.Catalog, table, column string) (*Statement, error) {
	if columnConstrained(cat, table, column) {
		return nil, fmt.Errorf("ddl: column %q.%q is referenced by a constraint", table, column)
	}
	out, err := cat.AlterRelation(catalog.Public, table, func(rel catalog.Relation) (catalog.Relation, error) {
		if rel.Kind != catalog.RelationTable {
			return catalog.Relation{}, fmt.Errorf("ddl: relation %q is not a table", table)
		}
		var cols []catalog.Column
		for _, c := range rel.Columns {
			if c.Name != column {
				cols = append(cols, c)
			}
		}
		if len(cols) == len(rel.Columns) {
			return catalog.Relation{}, fmt.Errorf("ddl: %q has no column %q", table, column)
		}
		return catalog.NewTable(cols, rel.Constraints...)
	})
	if err != nil {
		return nil, err
	}
	sql := "ALTER TABLE " + expr.QuoteIdent(table) + " DROP COLUMN " + expr.QuoteIdent(column) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// RenameColumn builds ALTER TABLE ... RENAME COLUMN. Constrained
// columns cannot be renamed, so constraints never go stale.
func RenameColumn(cat catalog.Catalog, table, old, new string) (*Statement, error) {
	if columnConstrained(cat, table, old) {
		return nil, fmt.Errorf("ddl: column %q.%q is referenced by a constraint", table, old)
	}
	out, err := cat.AlterRelation(catalog.Public, table, func(rel catalog.Relation) (catalog.Relation, error) {
		if rel.Kind != catalog.RelationTable {
			return catalog.Relation{}, fmt.Errorf("ddl: relation %q is not a table", table)
		}
		cols := append([]catalog.Column(nil), rel.Columns...)
		found := false
		for i, c := range cols {
			if c.Name == old {
				cols[i].Name = new
				found = true
			}
		}
		if !found {
			return catalog.Relation{}, fmt.Errorf("ddl: %q has no column %q", table, old)
		}
		return catalog.NewTable(cols, rel.Constraints...)
	})
	if err != nil {
		return nil, err
	}
	sql := "ALTER TABLE " + expr.QuoteIdent(table) + " RENAME COLUMN " +
		expr.QuoteIdent(old) + " TO " + expr.QuoteIdent(new) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

func viewRelation(sel *query.Statement) (catalog.Relation, error) {
	if len(sel.Params()) > 0 {
		return catalog.Relation{}, fmt.Errorf("ddl: view definition cannot take parameters")
	}
	return catalog.NewView(sel.Columns(), sel.Relations()...)
}

// CreateView builds CREATE VIEW from a checked SELECT. The view's
// columns are the select's result columns. The name must be free.
func CreateView(cat catalog.Catalog, name string, sel *query.Statement) (*Statement, error) {
	rel, err := viewRelation(sel)
	if err != nil {
		return nil, err
	}
	out, err := cat.CreateRelation(catalog.Public, name, rel)
	if err != nil {
		return nil, err
	}
	sql := "CREATE VIEW " + expr.QuoteIdent(name) + " AS " + sel.Body() + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// CreateOrReplaceView builds CREATE OR REPLACE VIEW: it succeeds
// whether or not the view already exists, replacing an existing view
// and rejecting a name held by a table.
func CreateOrReplaceView(cat catalog.Catalog, name string, sel *query.Statement) (*Statement, error) {
	rel, err := viewRelation(sel)
	if err != nil {
		return nil, err
	}
	var out catalog.Catalog
	if existing, ok := cat.Relation(catalog.Public, name); ok {
		if existing.Kind != catalog.RelationView {
			return nil, fmt.Errorf("ddl: relation %q is not a view", name)
		}
		out, err = cat.AlterRelation(catalog.Public, name, func(catalog.Relation) (catalog.Relation, error) {
			return rel, nil
		})
	} else {
		out, err = cat.CreateRelation(catalog.Public, name, rel)
	}
	if err != nil {
		return nil, err
	}
	sql := "CREATE OR REPLACE VIEW " + expr.QuoteIdent(name) + " AS " + sel.Body() + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// DropView builds DROP VIEW; the relation must exist and be a view.
func DropView(cat catalog.Catalog, name string) (*Statement, error) {
	rel, ok := cat.Relation(catalog.Public, name)
	if !ok {
		return nil, fmt.Errorf("ddl: relation %q does not exist", name)
	}
	if rel.Kind != catalog.RelationView {
		return nil, fmt.Errorf("ddl: relation %q is not a view", name)
	}
	out, err := cat.DropRelation(catalog.Public, name)
	if err != nil {
		return nil, err
	}
	sql := "DROP VIEW " + expr.QuoteIdent(name) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}

// DropViewIfExists builds DROP VIEW IF EXISTS. When the view is absent
// the catalog transform is the identity, but the IF EXISTS clause is
// rendered unconditionally: the catalog check is static, the SQL clause
// is the run-time safety net.
func DropViewIfExists(cat catalog.Catalog, name string) (*Statement, error) {
	out := cat
	if rel, ok := cat.Relation(catalog.Public, name); ok {
		if rel.Kind != catalog.RelationView {
			return nil, fmt.Errorf("ddl: relation %q is not a view", name)
		}
		var err error
		out, err = cat.DropRelation(catalog.Public, name)
		if err != nil {
			return nil, err
		}
	}
	sql := "DROP VIEW IF EXISTS " + expr.QuoteIdent(name) + ";"
	return &Statement{sql: sql, in: cat, out: out}, nil
}
