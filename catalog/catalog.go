// Package catalog models the database schema a statement is checked
// against: schemas, relations (tables and views), columns and
// constraints. Catalogs are immutable values; every DDL transform
// consumes a catalog and returns a new one, failing when its
// precondition does not hold.
package catalog

import "fmt"

// Public is the schema unqualified relation names resolve against.
const Public = "public"

// Column describes one column of a relation. A non-nil Default means
// the column may be omitted on INSERT (or assigned DEFAULT explicitly).
type Column struct {
	Name    string
	Type    Type
	Default *string
}

// HasDefault reports whether the column carries a default expression.
func (c Column) HasDefault() bool { return c.Default != nil }

// ConstraintKind tags the constraint variants.
type ConstraintKind int

const (
	PrimaryKey ConstraintKind = iota
	Unique
	ForeignKey
)

// Action identifies referential behaviour for ON DELETE / ON UPDATE.
type Action string

const (
	NoAction   Action = "NO ACTION"
	Restrict   Action = "RESTRICT"
	Cascade    Action = "CASCADE"
	SetNull    Action = "SET NULL"
	SetDefault Action = "SET DEFAULT"
)

// Constraint is a table constraint. Columns always names local columns;
// the Ref fields are only set for foreign keys.
type Constraint struct {
	Kind       ConstraintKind
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   Action
	OnUpdate   Action
}

// PrimaryKeyOn builds a primary key constraint over the given columns.
func PrimaryKeyOn(columns ...string) Constraint {
	return Constraint{Kind: PrimaryKey, Columns: columns}
}

// UniqueOn builds a uniqueness constraint over the given columns.
func UniqueOn(columns ...string) Constraint {
	return Constraint{Kind: Unique, Columns: columns}
}

// ForeignKeyOn builds a foreign key from local columns to columns of
// another relation.
func ForeignKeyOn(columns []string, refTable string, refColumns []string, onDelete, onUpdate Action) Constraint {
	return Constraint{
		Kind:       ForeignKey,
		Columns:    columns,
		RefTable:   refTable,
		RefColumns: refColumns,
		OnDelete:   onDelete,
		OnUpdate:   onUpdate,
	}
}

// RelationKind distinguishes tables from views.
type RelationKind int

const (
	RelationTable RelationKind = iota
	RelationView
)

// Relation is a table or view. Views carry no constraints; instead
// they record the relations their defining select reads from, so the
// catalog can refuse to drop a relation a view still depends on.
type Relation struct {
	Kind        RelationKind
	Columns     []Column
	Constraints []Constraint
	DependsOn   []string
}

// NewTable builds a table relation, verifying column name uniqueness
// and that every constraint references columns the table actually has.
// Foreign key targets are checked later, by CreateRelation, because
// they need the surrounding catalog.
func NewTable(columns []Column, constraints ...Constraint) (Relation, error) {
	if err := checkColumns(columns); err != nil {
		return Relation{}, err
	}
	rel := Relation{Kind: RelationTable, Columns: columns, Constraints: constraints}
	for _, con := range constraints {
		if len(con.Columns) == 0 {
			return Relation{}, fmt.Errorf("catalog: constraint without columns")
		}
		for _, name := range con.Columns {
			if _, ok := rel.Column(name); !ok {
				return Relation{}, fmt.Errorf("catalog: constraint references unknown column %q", name)
			}
		}
		if con.Kind == ForeignKey && len(con.Columns) != len(con.RefColumns) {
			return Relation{}, fmt.Errorf("catalog: foreign key on %v references %d columns", con.Columns, len(con.RefColumns))
		}
	}
	return rel, nil
}

// NewView builds a view relation from its result columns and the
// relations its defining select reads from.
func NewView(columns []Column, dependsOn ...string) (Relation, error) {
	if err := checkColumns(columns); err != nil {
		return Relation{}, err
	}
	return Relation{Kind: RelationView, Columns: columns, DependsOn: append([]string(nil), dependsOn...)}, nil
}

func checkColumns(columns []Column) error {
	if len(columns) == 0 {
		return fmt.Errorf("catalog: relation needs at least one column")
	}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return fmt.Errorf("catalog: column with empty name")
		}
		if seen[col.Name] {
			return fmt.Errorf("catalog: duplicate column %q", col.Name)
		}
		seen[col.Name] = true
	}
	return nil
}

// Column looks up a column by name.
func (r Relation) Column(name string) (Column, bool) {
	for _, col := range r.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Equal reports structural equality, column and constraint order included.
func (r Relation) Equal(other Relation) bool {
	if r.Kind != other.Kind || len(r.Columns) != len(other.Columns) || len(r.Constraints) != len(other.Constraints) {
		return false
	}
	if !stringsEqual(r.DependsOn, other.DependsOn) {
		return false
	}
	for i, col := range r.Columns {
		o := other.Columns[i]
		if col.Name != o.Name || !col.Type.Equal(o.Type) {
			return false
		}
		if (col.Default == nil) != (o.Default == nil) {
			return false
		}
		if col.Default != nil && *col.Default != *o.Default {
			return false
		}
	}
	for i, con := range r.Constraints {
		if !constraintEqual(con, other.Constraints[i]) {
			return false
		}
	}
	return true
}

func constraintEqual(a, b Constraint) bool {
	if a.Kind != b.Kind || a.RefTable != b.RefTable || a.OnDelete != b.OnDelete || a.OnUpdate != b.OnUpdate {
		return false
	}
	return stringsEqual(a.Columns, b.Columns) && stringsEqual(a.RefColumns, b.RefColumns)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Schema maps relation name to relation.
type Schema map[string]Relation

// Catalog maps schema name to schema.
type Catalog map[string]Schema

// New returns a catalog containing only an empty public schema.
func New() Catalog {
	return Catalog{Public: Schema{}}
}

// Clone deep-copies the catalog's map spine. Relations are shared; they
// are never mutated in place.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for name, schema := range c {
		s := make(Schema, len(schema))
		for rel, def := range schema {
			s[rel] = def
		}
		out[name] = s
	}
	return out
}

// HasRelation reports whether schema.name exists.
func (c Catalog) HasRelation(schema, name string) bool {
	_, ok := c[schema][name]
	return ok
}

// Relation looks up a relation by schema and name.
func (c Catalog) Relation(schema, name string) (Relation, bool) {
	rel, ok := c[schema][name]
	return rel, ok
}

// ColumnsOf returns the column list of schema.name.
func (c Catalog) ColumnsOf(schema, name string) ([]Column, bool) {
	rel, ok := c[schema][name]
	if !ok {
		return nil, false
	}
	return rel.Columns, true
}

// CreateRelation returns a new catalog with the relation added under
// schema.name. It fails if the name is taken or a foreign key targets a
// relation or column the catalog does not have. Self-referencing
// foreign keys are resolved against the relation being created.
func (c Catalog) CreateRelation(schema, name string, rel Relation) (Catalog, error) {
	if _, ok := c[schema]; !ok {
		return nil, fmt.Errorf("catalog: unknown schema %q", schema)
	}
	if c.HasRelation(schema, name) {
		return nil, fmt.Errorf("catalog: relation %q already exists", name)
	}
	for _, con := range rel.Constraints {
		if con.Kind != ForeignKey {
			continue
		}
		target, ok := c.Relation(schema, con.RefTable)
		if !ok {
			if con.RefTable != name {
				return nil, fmt.Errorf("catalog: foreign key on %q references unknown relation %q", name, con.RefTable)
			}
			target = rel
		}
		if target.Kind != RelationTable {
			return nil, fmt.Errorf("catalog: foreign key on %q references view %q", name, con.RefTable)
		}
		for _, refCol := range con.RefColumns {
			if _, ok := target.Column(refCol); !ok {
				return nil, fmt.Errorf("catalog: foreign key on %q references unknown column %q.%q", name, con.RefTable, refCol)
			}
		}
	}
	out := c.Clone()
	out[schema][name] = rel
	return out, nil
}

// DropRelation returns a new catalog with schema.name removed. It fails
// if the relation is absent, another table's foreign key points at it,
// or a view reads from it.
func (c Catalog) DropRelation(schema, name string) (Catalog, error) {
	if !c.HasRelation(schema, name) {
		return nil, fmt.Errorf("catalog: relation %q does not exist", name)
	}
	for relName, rel := range c[schema] {
		if relName == name {
			continue
		}
		for _, con := range rel.Constraints {
			if con.Kind == ForeignKey && con.RefTable == name {
				return nil, fmt.Errorf("catalog: relation %q is referenced by foreign key on %q", name, relName)
			}
		}
		for _, dep := range rel.DependsOn {
			if dep == name {
				return nil, fmt.Errorf("catalog: relation %q is used by view %q", name, relName)
			}
		}
	}
	out := c.Clone()
	delete(out[schema], name)
	return out, nil
}

// AlterRelation returns a new catalog where schema.name was replaced by
// the result of applying fn to it.
func (c Catalog) AlterRelation(schema, name string, fn func(Relation) (Relation, error)) (Catalog, error) {
	rel, ok := c.Relation(schema, name)
	if !ok {
		return nil, fmt.Errorf("catalog: relation %q does not exist", name)
	}
	altered, err := fn(rel)
	if err != nil {
		return nil, err
	}
	out := c.Clone()
	out[schema][name] = altered
	return out, nil
}

// retarget rewrites references to a renamed relation, copying the
// touched slices so shared relation values stay untouched.
func retarget(r Relation, old, new string) Relation {
	for i, con := range r.Constraints {
		if con.Kind == ForeignKey && con.RefTable == old {
			cons := append([]Constraint(nil), r.Constraints...)
			for j := i; j < len(cons); j++ {
				if cons[j].Kind == ForeignKey && cons[j].RefTable == old {
					cons[j].RefTable = new
				}
			}
			r.Constraints = cons
			break
		}
	}
	for i, dep := range r.DependsOn {
		if dep == old {
			deps := append([]string(nil), r.DependsOn...)
			for j := i; j < len(deps); j++ {
				if deps[j] == old {
					deps[j] = new
				}
			}
			r.DependsOn = deps
			break
		}
	}
	return r
}

// RenameRelation returns a new catalog with schema.old renamed to new.
// Foreign keys and view dependencies pointing at the old name follow
// the rename, matching how Postgres tracks relations by identity.
func (c Catalog) RenameRelation(schema, old, new string) (Catalog, error) {
	rel, ok := c.Relation(schema, old)
	if !ok {
		return nil, fmt.Errorf("catalog: relation %q does not exist", old)
	}
	if c.HasRelation(schema, new) {
		return nil, fmt.Errorf("catalog: relation %q already exists", new)
	}
	out := c.Clone()
	delete(out[schema], old)
	out[schema][new] = rel
	for name, r := range out[schema] {
		out[schema][name] = retarget(r, old, new)
	}
	return out, nil
}

// Equal reports whether two catalogs describe the same schemas. Used by
// the migration algebra to chain steps.
func (c Catalog) Equal(other Catalog) bool {
	if len(c) != len(other) {
		return false
	}
	for name, schema := range c {
		o, ok := other[name]
		if !ok || len(schema) != len(o) {
			return false
		}
		for relName, rel := range schema {
			orel, ok := o[relName]
			if !ok || !rel.Equal(orel) {
				return false
			}
		}
	}
	return true
}
