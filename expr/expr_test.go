package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/expr"
)

func testScope() *expr.Scope {
	users := expr.ScopeTable{Alias: "users", Columns: []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
		{Name: "name", Type: catalog.NotNull(catalog.KindText)},
		{Name: "age", Type: catalog.Nullable(catalog.KindInt4)},
	}}
	posts := expr.ScopeTable{Alias: "posts", Columns: []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
		{Name: "title", Type: catalog.NotNull(catalog.KindText)},
	}}
	return expr.NewScope(
		[]expr.ScopeTable{users, posts},
		[]catalog.Type{catalog.NotNull(catalog.KindInt4), catalog.NotNull(catalog.KindText)},
	)
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`O'Brien\`, `E'O''Brien\\'`},
		{"plain", "E'plain'"},
		{"line\nbreak", `E'line\nbreak'`},
		{"tab\there", `E'tab\there'`},
		{`say "hi"`, `E'say \"hi\"'`},
		{"nul\x00byte", `E'nul\0byte'`},
		{"\b\r", `E'\b\r'`},
		{"", "E''"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, expr.EscapeString(tt.in), "input %q", tt.in)
	}
}

func TestColumnReferences(t *testing.T) {
	s := testScope()

	name, err := s.Col("users", "name")
	require.NoError(t, err)
	require.Equal(t, `"users"."name"`, name.SQL())
	require.Equal(t, catalog.NotNull(catalog.KindText), name.Type())

	title, err := s.C("title")
	require.NoError(t, err)
	require.Equal(t, `"title"`, title.SQL())

	_, err = s.C("id")
	require.ErrorIs(t, err, expr.ErrAmbiguousColumn)

	_, err = s.C("missing")
	require.ErrorIs(t, err, expr.ErrUnknownColumn)

	_, err = s.Col("users", "missing")
	require.ErrorIs(t, err, expr.ErrUnknownColumn)

	_, err = s.Col("ghosts", "id")
	require.ErrorIs(t, err, expr.ErrUnknownTable)
}

func TestParam(t *testing.T) {
	s := testScope()

	p, err := s.Param(2)
	require.NoError(t, err)
	require.Equal(t, "$2", p.SQL())
	require.Equal(t, catalog.KindText, p.Type().Kind)

	_, err = s.Param(0)
	require.ErrorIs(t, err, expr.ErrParamIndex)
	_, err = s.Param(3)
	require.ErrorIs(t, err, expr.ErrParamIndex)
}

func TestComparison(t *testing.T) {
	s := testScope()
	id, err := s.Col("users", "id")
	require.NoError(t, err)
	age, err := s.Col("users", "age")
	require.NoError(t, err)

	eq, err := expr.Eq(id, expr.Int4(7))
	require.NoError(t, err)
	require.Equal(t, `("users"."id" = 7)`, eq.SQL())
	require.Equal(t, catalog.NotNull(catalog.KindBool), eq.Type())

	// A nullable operand makes the comparison nullable.
	lt, err := expr.Lt(age, expr.Int4(30))
	require.NoError(t, err)
	require.True(t, lt.Type().Null)

	name, err := s.Col("users", "name")
	require.NoError(t, err)
	_, err = expr.Eq(id, name)
	require.ErrorIs(t, err, expr.ErrTypeMismatch)
}

func TestArithmetic(t *testing.T) {
	sum, err := expr.Add(expr.Int4(1), expr.Int4(2))
	require.NoError(t, err)
	require.Equal(t, "(1 + 2)", sum.SQL())
	require.Equal(t, catalog.KindInt4, sum.Type().Kind)

	_, err = expr.Mul(expr.Int4(2), expr.Int8(3))
	require.ErrorIs(t, err, expr.ErrTypeMismatch)

	_, err = expr.Div(expr.Text("a"), expr.Text("b"))
	require.ErrorIs(t, err, expr.ErrTypeMismatch)
}

func TestBoolean(t *testing.T) {
	and, err := expr.And(expr.Bool(true), expr.Bool(false))
	require.NoError(t, err)
	require.Equal(t, "(TRUE AND FALSE)", and.SQL())

	not, err := expr.Not(and)
	require.NoError(t, err)
	require.Equal(t, "(NOT (TRUE AND FALSE))", not.SQL())

	_, err = expr.Or(expr.Bool(true), expr.Int4(1))
	require.ErrorIs(t, err, expr.ErrTypeMismatch)
	_, err = expr.Not(expr.Int4(1))
	require.ErrorIs(t, err, expr.ErrTypeMismatch)
}

func TestCoalesce(t *testing.T) {
	s := testScope()
	age, err := s.Col("users", "age")
	require.NoError(t, err)

	c, err := expr.Coalesce(expr.Int4(0), age)
	require.NoError(t, err)
	require.Equal(t, `COALESCE("users"."age", 0)`, c.SQL())
	require.False(t, c.Type().Null)

	_, err = expr.Coalesce(expr.NullOf(catalog.KindInt4), age)
	require.ErrorIs(t, err, expr.ErrTypeMismatch)

	_, err = expr.Coalesce(expr.Text("x"), age)
	require.ErrorIs(t, err, expr.ErrTypeMismatch)
}

func TestCase(t *testing.T) {
	cond, err := expr.Eq(expr.Int4(1), expr.Int4(1))
	require.NoError(t, err)

	c, err := expr.Case([]expr.When{{Cond: cond, Then: expr.Text("one")}}, expr.Text("other"))
	require.NoError(t, err)
	require.Equal(t, `CASE WHEN (1 = 1) THEN E'one' ELSE E'other' END`, c.SQL())
	require.False(t, c.Type().Null)

	// A nullable branch makes the whole CASE nullable.
	c, err = expr.Case([]expr.When{{Cond: cond, Then: expr.NullOf(catalog.KindText)}}, expr.Text("other"))
	require.NoError(t, err)
	require.True(t, c.Type().Null)

	_, err = expr.Case(nil, expr.Text("other"))
	require.ErrorContains(t, err, "at least one WHEN arm")

	_, err = expr.Case([]expr.When{{Cond: expr.Int4(1), Then: expr.Text("x")}}, expr.Text("y"))
	require.ErrorIs(t, err, expr.ErrTypeMismatch)

	_, err = expr.Case([]expr.When{{Cond: cond, Then: expr.Int4(1)}}, expr.Text("y"))
	require.ErrorIs(t, err, expr.ErrTypeMismatch)
}

func TestCast(t *testing.T) {
	c, err := expr.Cast(expr.Int4(3), catalog.KindInt8)
	require.NoError(t, err)
	require.Equal(t, "CAST(3 AS int8)", c.SQL())
	require.Equal(t, catalog.KindInt8, c.Type().Kind)

	// Nullability carries through the cast.
	c, err = expr.Cast(expr.NullOf(catalog.KindJSON), catalog.KindJSONB)
	require.NoError(t, err)
	require.True(t, c.Type().Null)

	_, err = expr.Cast(expr.Text("x"), catalog.KindInt8)
	require.ErrorIs(t, err, expr.ErrBadCast)

	// The allow-list is directional.
	_, err = expr.Cast(expr.Int8(1), catalog.KindInt4)
	require.ErrorIs(t, err, expr.ErrBadCast)
}

func TestFuncAndCountStar(t *testing.T) {
	f, err := expr.Func("lower", catalog.NotNull(catalog.KindText), expr.Text("ABC"))
	require.NoError(t, err)
	require.Equal(t, `lower(E'ABC')`, f.SQL())

	c := expr.CountStar()
	require.Equal(t, "COUNT(*)", c.SQL())
	require.Equal(t, catalog.NotNull(catalog.KindInt8), c.Type())
}

func TestOperandsFromDifferentScopesCannotMix(t *testing.T) {
	s1 := testScope()
	s2 := testScope()

	a, err := s1.Col("users", "id")
	require.NoError(t, err)
	b, err := s2.Col("posts", "id")
	require.NoError(t, err)

	_, err = expr.Eq(a, b)
	require.ErrorIs(t, err, expr.ErrScopeMismatch)
	_, err = expr.Add(a, b)
	require.ErrorIs(t, err, expr.ErrScopeMismatch)
	_, err = expr.Func("coalesce", catalog.NotNull(catalog.KindInt4), a, b)
	require.ErrorIs(t, err, expr.ErrScopeMismatch)

	// Literals are scope-free and combine with either side.
	eq, err := expr.Eq(a, expr.Int4(1))
	require.NoError(t, err)
	require.True(t, eq.BoundTo(s1))
	require.False(t, eq.BoundTo(s2))
}

func TestBoundTo(t *testing.T) {
	s := testScope()
	id, err := s.Col("users", "id")
	require.NoError(t, err)

	require.True(t, id.BoundTo(s))
	require.False(t, id.BoundTo(testScope()))
	require.True(t, expr.Int4(1).BoundTo(s))
	require.True(t, expr.Bool(true).BoundTo(nil))
}

func TestNumeric(t *testing.T) {
	n, err := expr.Numeric("12.50")
	require.NoError(t, err)
	require.Equal(t, "12.50", n.SQL())
	require.Equal(t, catalog.KindNumeric, n.Type().Kind)

	_, err = expr.Numeric("12..5")
	require.ErrorContains(t, err, "invalid numeric literal")
}
