package runner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/ddl"
	"github.com/quelgo/quel/migrate"
	"github.com/quelgo/quel/runner"
)

func sampleMigration(t *testing.T) migrate.Migration {
	t.Helper()
	up, err := ddl.CreateTable(catalog.New(), "t", []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
	})
	require.NoError(t, err)
	down, err := ddl.DropTable(up.Out(), "t")
	require.NoError(t, err)
	m, err := migrate.New("001_create_t", up, down)
	require.NoError(t, err)
	return m
}

func TestParseFileRoundTrip(t *testing.T) {
	m := sampleMigration(t)

	up, down, err := runner.ParseFile(m.File())
	require.NoError(t, err)
	require.Equal(t, m.Up.SQL(), up)
	require.Equal(t, m.Down.SQL(), down)
}

func TestParseFileMissingSections(t *testing.T) {
	_, _, err := runner.ParseFile("CREATE TABLE x ();")
	require.ErrorContains(t, err, "rollback section")

	_, _, err = runner.ParseFile("CREATE TABLE x ();\n" + migrate.DownMarker + "\nDROP TABLE x;")
	require.ErrorContains(t, err, "up section")

	_, _, err = runner.ParseFile(migrate.UpMarker + "\n\n" + migrate.DownMarker + "\nDROP TABLE x;")
	require.ErrorContains(t, err, "empty section")
}

func TestParseFileIgnoresRuleLines(t *testing.T) {
	content := "-- Migration: x\n\n" +
		migrate.UpMarker + "\n" +
		"-- ============\n" +
		"CREATE TABLE \"x\" (\"id\" int4);\n\n" +
		migrate.DownMarker + "\n" +
		"-- =======================\n" +
		"DROP TABLE \"x\";\n"

	up, down, err := runner.ParseFile(content)
	require.NoError(t, err)
	require.Equal(t, `CREATE TABLE "x" ("id" int4);`, up)
	require.Equal(t, `DROP TABLE "x";`, down)
}
