package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quelgo/quel/catalog"
)

// Bool builds a TRUE/FALSE literal.
func Bool(v bool) Expr {
	sql := "FALSE"
	if v {
		sql = "TRUE"
	}
	return Expr{sql: sql, typ: catalog.NotNull(catalog.KindBool)}
}

// Int2 builds an int2 literal.
func Int2(v int16) Expr {
	return Expr{sql: strconv.FormatInt(int64(v), 10), typ: catalog.NotNull(catalog.KindInt2)}
}

// Int4 builds an int4 literal.
func Int4(v int32) Expr {
	return Expr{sql: strconv.FormatInt(int64(v), 10), typ: catalog.NotNull(catalog.KindInt4)}
}

// Int8 builds an int8 literal.
func Int8(v int64) Expr {
	return Expr{sql: strconv.FormatInt(v, 10), typ: catalog.NotNull(catalog.KindInt8)}
}

// Float8 builds a float8 literal.
func Float8(v float64) Expr {
	return Expr{sql: strconv.FormatFloat(v, 'g', -1, 64), typ: catalog.NotNull(catalog.KindFloat8)}
}

// Text builds a text literal in Postgres extended string form.
func Text(v string) Expr {
	return Expr{sql: EscapeString(v), typ: catalog.NotNull(catalog.KindText)}
}

// NullOf builds a typed NULL literal.
func NullOf(k catalog.Kind) Expr {
	return Expr{sql: "NULL", typ: catalog.Nullable(k)}
}

// EscapeString renders a string as an E'...' literal. The escape table
// is a compatibility contract: apostrophes are doubled, and NUL,
// double-quote, backspace, newline, carriage return, tab and backslash
// are backslash-escaped.
func EscapeString(v string) string {
	var b strings.Builder
	b.WriteString("E'")
	for _, r := range v {
		switch r {
		case 0:
			b.WriteString(`\0`)
		case '\'':
			b.WriteString("''")
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("'")
	return b.String()
}

// Raw wraps an already-rendered fragment with an asserted type. It is
// the escape hatch for SQL quel does not model; the fragment is not
// checked.
func Raw(sql string, typ catalog.Type) Expr {
	return Expr{sql: sql, typ: typ}
}

// Numeric builds a numeric literal from its decimal text form.
func Numeric(v string) (Expr, error) {
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return Expr{}, fmt.Errorf("expr: invalid numeric literal %q", v)
	}
	return Expr{sql: v, typ: catalog.NotNull(catalog.KindNumeric)}, nil
}
