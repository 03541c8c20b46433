package diff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/diff"
)

func withTable(t *testing.T, cat catalog.Catalog, name string, cols []catalog.Column, cons ...catalog.Constraint) catalog.Catalog {
	t.Helper()
	rel, err := catalog.NewTable(cols, cons...)
	require.NoError(t, err)
	out, err := cat.CreateRelation(catalog.Public, name, rel)
	require.NoError(t, err)
	return out
}

func idCol() catalog.Column {
	return catalog.Column{Name: "id", Type: catalog.NotNull(catalog.KindInt4)}
}

func TestNoDifference(t *testing.T) {
	cat := withTable(t, catalog.New(), "users", []catalog.Column{idCol()})
	stmts, err := diff.Catalogs(cat, cat)
	require.NoError(t, err)
	require.Empty(t, stmts)
}

func TestCreateMissingTable(t *testing.T) {
	desired := withTable(t, catalog.New(), "users", []catalog.Column{idCol()})

	stmts, err := diff.Catalogs(desired, catalog.New())
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	require.Equal(t, `CREATE TABLE "users" ("id" int4 NOT NULL);`, stmts[0].SQL())
	require.True(t, stmts[0].Out().Equal(desired))
}

func TestDropSurplusTable(t *testing.T) {
	current := withTable(t, catalog.New(), "users", []catalog.Column{idCol()})

	stmts, err := diff.Catalogs(catalog.New(), current)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	require.Equal(t, `DROP TABLE "users";`, stmts[0].SQL())
	require.True(t, stmts[0].Out().Equal(catalog.New()))
}

func TestReconcileColumns(t *testing.T) {
	current := withTable(t, catalog.New(), "users", []catalog.Column{
		idCol(),
		{Name: "old", Type: catalog.Nullable(catalog.KindText)},
	})
	desired := withTable(t, catalog.New(), "users", []catalog.Column{
		idCol(),
		{Name: "new", Type: catalog.Nullable(catalog.KindText)},
	})

	stmts, err := diff.Catalogs(desired, current)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Equal(t, `ALTER TABLE "users" DROP COLUMN "old";`, stmts[0].SQL())
	require.Equal(t, `ALTER TABLE "users" ADD COLUMN "new" text;`, stmts[1].SQL())
}

func TestStatementsChain(t *testing.T) {
	desired := withTable(t, catalog.New(), "aaa", []catalog.Column{idCol()})
	desired = withTable(t, desired, "bbb", []catalog.Column{idCol()})

	stmts, err := diff.Catalogs(desired, catalog.New())
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	for i := 1; i < len(stmts); i++ {
		require.True(t, stmts[i-1].Out().Equal(stmts[i].In()))
	}
	require.True(t, stmts[len(stmts)-1].Out().Equal(desired))
}

func TestCreateOrderResolvesForeignKeys(t *testing.T) {
	// "aaa_posts" sorts before its foreign key target "zzz_users"; the
	// diff has to create the target first anyway.
	desired := withTable(t, catalog.New(), "zzz_users", []catalog.Column{idCol()})
	desired = withTable(t, desired, "aaa_posts", []catalog.Column{
		idCol(),
		{Name: "author_id", Type: catalog.NotNull(catalog.KindInt4)},
	}, catalog.ForeignKeyOn([]string{"author_id"}, "zzz_users", []string{"id"}, "", ""))

	stmts, err := diff.Catalogs(desired, catalog.New())
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0].SQL(), `CREATE TABLE "zzz_users"`)
	require.Contains(t, stmts[1].SQL(), `CREATE TABLE "aaa_posts"`)
	require.True(t, stmts[1].Out().Equal(desired))
}

func TestDropOrderResolvesForeignKeys(t *testing.T) {
	// "zzz_users" is referenced by "aaa_posts"; the referencing table
	// must drop first even though it sorts first anyway, so force the
	// opposite: referenced table sorts first.
	current := withTable(t, catalog.New(), "aaa_users", []catalog.Column{idCol()})
	current = withTable(t, current, "zzz_posts", []catalog.Column{
		idCol(),
		{Name: "author_id", Type: catalog.NotNull(catalog.KindInt4)},
	}, catalog.ForeignKeyOn([]string{"author_id"}, "aaa_users", []string{"id"}, "", ""))

	stmts, err := diff.Catalogs(catalog.New(), current)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Equal(t, `DROP TABLE "zzz_posts";`, stmts[0].SQL())
	require.Equal(t, `DROP TABLE "aaa_users";`, stmts[1].SQL())
}
