// Package validator runs a whole-catalog lint pass before any
// statement is built against it: identifier rules, reserved keywords,
// constraint sanity. It complements the per-builder checks with the
// batch mode tooling wants when it validates many definitions at once.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quelgo/quel/catalog"
)

// ValidationError is one finding, with enough context to name the
// offending relation or column.
type ValidationError struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all findings of one pass.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func (r *ValidationResult) addError(typ, table, column, msg string) {
	r.Errors = append(r.Errors, ValidationError{Type: typ, Table: table, Column: column, Message: msg, Severity: "error"})
}

func (r *ValidationResult) addWarning(typ, table, column, msg string) {
	r.Warnings = append(r.Warnings, ValidationError{Type: typ, Table: table, Column: column, Message: msg, Severity: "warning"})
}

var reservedKeywords = []string{"user", "order", "group", "table", "index", "view", "schema"}

func validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", kind, name)
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}
	for _, keyword := range reservedKeywords {
		if strings.ToLower(name) == keyword {
			return fmt.Errorf("%s name '%s' is a reserved keyword", kind, name)
		}
	}
	return nil
}

// ValidateCatalog lints every relation of the catalog's public schema.
// Findings are reported in relation name order.
func ValidateCatalog(cat catalog.Catalog) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}

	schema := cat[catalog.Public]
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		validateRelation(cat, name, schema[name], result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateRelation(cat catalog.Catalog, name string, rel catalog.Relation, result *ValidationResult) {
	if err := validateIdentifier("table", name); err != nil {
		result.addError("table_name", name, "", err.Error())
	}

	for _, col := range rel.Columns {
		if err := validateIdentifier("column", col.Name); err != nil {
			result.addError("column_name", name, col.Name, err.Error())
		}
	}

	if rel.Kind != catalog.RelationTable {
		return
	}

	hasPrimaryKey := false
	for _, con := range rel.Constraints {
		switch con.Kind {
		case catalog.PrimaryKey:
			hasPrimaryKey = true
			for _, c := range con.Columns {
				col, _ := rel.Column(c)
				if col.Type.Null {
					result.addError("nullable_primary_key", name, c,
						fmt.Sprintf("Primary key column '%s' in table '%s' is nullable", c, name))
				}
			}
		case catalog.ForeignKey:
			validateForeignKey(cat, name, rel, con, result)
		}
	}

	if !hasPrimaryKey {
		result.addWarning("no_primary_key", name, "",
			fmt.Sprintf("Table '%s' has no primary key defined", name))
	}
}

func validateForeignKey(cat catalog.Catalog, name string, rel catalog.Relation, con catalog.Constraint, result *ValidationResult) {
	target, ok := cat.Relation(catalog.Public, con.RefTable)
	if !ok {
		result.addError("foreign_key", name, strings.Join(con.Columns, ","),
			fmt.Sprintf("Foreign key in table '%s' references unknown table '%s'", name, con.RefTable))
		return
	}
	for i, local := range con.Columns {
		localCol, _ := rel.Column(local)
		refCol, ok := target.Column(con.RefColumns[i])
		if !ok {
			result.addError("foreign_key", name, local,
				fmt.Sprintf("Foreign key column '%s' references unknown column '%s.%s'", local, con.RefTable, con.RefColumns[i]))
			continue
		}
		if localCol.Type.Kind != refCol.Type.Kind {
			result.addError("foreign_key_type", name, local,
				fmt.Sprintf("Foreign key column '%s' is %s but references %s column '%s.%s'",
					local, localCol.Type.Kind, refCol.Type.Kind, con.RefTable, con.RefColumns[i]))
		}
	}
}
