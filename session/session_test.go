package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/ddl"
	"github.com/quelgo/quel/query"
	"github.com/quelgo/quel/session"
)

func selectWithParam(t *testing.T) *query.Statement {
	t.Helper()
	rel, err := catalog.NewTable([]catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
	})
	require.NoError(t, err)
	cat, err := catalog.New().CreateRelation(catalog.Public, "t", rel)
	require.NoError(t, err)

	q, err := query.From(cat, "t", catalog.NotNull(catalog.KindInt4))
	require.NoError(t, err)
	id, err := q.Scope().C("id")
	require.NoError(t, err)
	sel, err := query.Select(q, query.As(id, "id"))
	require.NoError(t, err)
	return sel
}

// The arity check runs before the connection is touched, so a nil
// connection is safe as long as the check fails.
func TestExecRejectsArityMismatch(t *testing.T) {
	s := session.New(nil)
	st := selectWithParam(t)

	err := s.Exec(context.Background(), st)
	require.ErrorContains(t, err, "declares 1 parameters, got 0 arguments")

	err = s.Exec(context.Background(), st, 1, 2)
	require.ErrorContains(t, err, "declares 1 parameters, got 2 arguments")
}

func TestQueryRejectsArityMismatch(t *testing.T) {
	s := session.New(nil)
	st := selectWithParam(t)

	_, err := s.Query(context.Background(), st)
	require.ErrorContains(t, err, "declares 1 parameters, got 0 arguments")
}

// DDL statements declare no parameters and satisfy the statement
// interface alongside query statements.
func TestDDLStatementSatisfiesInterface(t *testing.T) {
	st, err := ddl.CreateTable(catalog.New(), "t", []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
	})
	require.NoError(t, err)

	var stmt session.Statement = st
	require.Empty(t, stmt.Params())

	s := session.New(nil)
	err = s.Exec(context.Background(), stmt, "unexpected")
	require.ErrorContains(t, err, "declares 0 parameters, got 1 arguments")
}
