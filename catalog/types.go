package catalog

import "fmt"

// Kind enumerates the scalar column types quel understands.
type Kind int

const (
	KindBool Kind = iota
	KindInt2
	KindInt4
	KindInt8
	KindFloat4
	KindFloat8
	KindNumeric
	KindChar
	KindVarChar
	KindText
	KindBytea
	KindDate
	KindTime
	KindTimeTZ
	KindTimestamp
	KindTimestampTZ
	KindInterval
	KindUUID
	KindJSON
	KindJSONB
)

var kindNames = map[Kind]string{
	KindBool:        "bool",
	KindInt2:        "int2",
	KindInt4:        "int4",
	KindInt8:        "int8",
	KindFloat4:      "float4",
	KindFloat8:      "float8",
	KindNumeric:     "numeric",
	KindChar:        "char",
	KindVarChar:     "varchar",
	KindText:        "text",
	KindBytea:       "bytea",
	KindDate:        "date",
	KindTime:        "time",
	KindTimeTZ:      "timetz",
	KindTimestamp:   "timestamp",
	KindTimestampTZ: "timestamptz",
	KindInterval:    "interval",
	KindUUID:        "uuid",
	KindJSON:        "json",
	KindJSONB:       "jsonb",
}

// String returns the Postgres type name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a Postgres type name (as used in YAML catalog files)
// back to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("catalog: unknown type name %q", name)
}

// IsNumeric reports whether the kind supports arithmetic operators.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt2, KindInt4, KindInt8, KindFloat4, KindFloat8, KindNumeric:
		return true
	}
	return false
}

// Type is a scalar type together with its nullability. Size is only
// meaningful for char and varchar.
type Type struct {
	Kind Kind
	Null bool
	Size int
}

// NotNull builds a non-nullable type of the given kind.
func NotNull(k Kind) Type { return Type{Kind: k} }

// Nullable builds a nullable type of the given kind.
func Nullable(k Kind) Type { return Type{Kind: k, Null: true} }

// Sized attaches a length to a char/varchar type.
func (t Type) Sized(n int) Type {
	t.Size = n
	return t
}

// AsNullable returns the same type with nullability switched on. Outer
// joins use this to null-extend the joined side's columns.
func (t Type) AsNullable() Type {
	t.Null = true
	return t
}

// SQL renders the type as it appears in DDL, e.g. "int4" or "varchar(255)".
func (t Type) SQL() string {
	if t.Size > 0 && (t.Kind == KindChar || t.Kind == KindVarChar) {
		return fmt.Sprintf("%s(%d)", t.Kind, t.Size)
	}
	return t.Kind.String()
}

// Equal reports whether two types are identical, including size.
func (t Type) Equal(other Type) bool {
	return t.Kind == other.Kind && t.Null == other.Null && t.Size == other.Size
}
