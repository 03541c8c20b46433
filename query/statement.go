// Package query builds checked DML statements: FROM/JOIN trees with
// accumulated WHERE/LIMIT/OFFSET clauses, and SELECT, INSERT, UPDATE
// and DELETE statements over them. A statement that constructs without
// error renders to exactly one deterministic SQL text.
package query

import (
	"strings"

	"github.com/quelgo/quel/catalog"
)

// Statement is an immutable, fully checked DML statement: its rendered
// SQL, its declared parameter types, its result column shape and the
// catalog it was checked against. DML never changes the catalog, so the
// input and output catalogs coincide.
type Statement struct {
	sql       string
	params    []catalog.Type
	columns   []catalog.Column
	relations []string
	cat       catalog.Catalog
}

// SQL returns the rendered statement, terminated by a semicolon.
func (s *Statement) SQL() string { return s.sql }

// Params returns the declared parameter types in $n order.
func (s *Statement) Params() []catalog.Type { return s.params }

// Columns returns the result column shape; nil for statements that
// return no rows.
func (s *Statement) Columns() []catalog.Column { return s.columns }

// Relations returns the base relations the statement reads from, in
// join order. Views record these as their dependencies.
func (s *Statement) Relations() []string { return s.relations }

// In returns the catalog the statement was checked against.
func (s *Statement) In() catalog.Catalog { return s.cat }

// Out returns the catalog after execution, identical to In for DML.
func (s *Statement) Out() catalog.Catalog { return s.cat }

// body returns the statement text without its trailing semicolon, for
// embedding as a subselect or view definition.
func (s *Statement) body() string {
	return strings.TrimSuffix(s.sql, ";")
}

// Body returns the statement text without its trailing semicolon.
func (s *Statement) Body() string { return s.body() }
