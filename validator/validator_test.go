package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/validator"
)

func mustTable(t *testing.T, cols []catalog.Column, cons ...catalog.Constraint) catalog.Relation {
	t.Helper()
	rel, err := catalog.NewTable(cols, cons...)
	require.NoError(t, err)
	return rel
}

func TestValidCatalog(t *testing.T) {
	cat := catalog.New()
	rel := mustTable(t, []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
	}, catalog.PrimaryKeyOn("id"))
	cat, err := cat.CreateRelation(catalog.Public, "users", rel)
	require.NoError(t, err)

	result := validator.ValidateCatalog(cat)
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
	require.Empty(t, result.Warnings)
}

func TestReservedKeywordTableName(t *testing.T) {
	cat := catalog.New()
	rel := mustTable(t, []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
	}, catalog.PrimaryKeyOn("id"))
	cat, err := cat.CreateRelation(catalog.Public, "order", rel)
	require.NoError(t, err)

	result := validator.ValidateCatalog(cat)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "table_name", result.Errors[0].Type)
	require.Contains(t, result.Errors[0].Message, "reserved keyword")
}

func TestInvalidColumnCharacters(t *testing.T) {
	cat := catalog.New()
	rel := mustTable(t, []catalog.Column{
		{Name: "bad-name", Type: catalog.NotNull(catalog.KindInt4)},
	}, catalog.PrimaryKeyOn("bad-name"))
	cat, err := cat.CreateRelation(catalog.Public, "t", rel)
	require.NoError(t, err)

	result := validator.ValidateCatalog(cat)
	require.False(t, result.Valid)
	require.Equal(t, "column_name", result.Errors[0].Type)
	require.Contains(t, result.Errors[0].Message, "invalid character")
}

func TestNullablePrimaryKey(t *testing.T) {
	cat := catalog.New()
	rel := mustTable(t, []catalog.Column{
		{Name: "id", Type: catalog.Nullable(catalog.KindInt4)},
	}, catalog.PrimaryKeyOn("id"))
	cat, err := cat.CreateRelation(catalog.Public, "t", rel)
	require.NoError(t, err)

	result := validator.ValidateCatalog(cat)
	require.False(t, result.Valid)
	require.Equal(t, "nullable_primary_key", result.Errors[0].Type)
}

func TestMissingPrimaryKeyWarns(t *testing.T) {
	cat := catalog.New()
	rel := mustTable(t, []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
	})
	cat, err := cat.CreateRelation(catalog.Public, "t", rel)
	require.NoError(t, err)

	result := validator.ValidateCatalog(cat)
	require.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, "no_primary_key", result.Warnings[0].Type)
}

func TestForeignKeyTypeMismatch(t *testing.T) {
	cat := catalog.New()
	users := mustTable(t, []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt8)},
	}, catalog.PrimaryKeyOn("id"))
	cat, err := cat.CreateRelation(catalog.Public, "users", users)
	require.NoError(t, err)

	// author_id is int4 while users.id is int8. The catalog accepts
	// this; the lint pass flags it.
	posts := mustTable(t, []catalog.Column{
		{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
		{Name: "author_id", Type: catalog.NotNull(catalog.KindInt4)},
	},
		catalog.PrimaryKeyOn("id"),
		catalog.ForeignKeyOn([]string{"author_id"}, "users", []string{"id"}, "", ""),
	)
	cat, err = cat.CreateRelation(catalog.Public, "posts", posts)
	require.NoError(t, err)

	result := validator.ValidateCatalog(cat)
	require.False(t, result.Valid)
	require.Equal(t, "foreign_key_type", result.Errors[0].Type)
	require.Equal(t, "posts", result.Errors[0].Table)
	require.Equal(t, "author_id", result.Errors[0].Column)
}

func TestFindingsAreOrderedByRelationName(t *testing.T) {
	cat := catalog.New()
	for _, name := range []string{"zzz_table", "aaa_table"} {
		rel := mustTable(t, []catalog.Column{
			{Name: "id", Type: catalog.NotNull(catalog.KindInt4)},
		})
		var err error
		cat, err = cat.CreateRelation(catalog.Public, name, rel)
		require.NoError(t, err)
	}

	result := validator.ValidateCatalog(cat)
	require.Len(t, result.Warnings, 2)
	require.Equal(t, "aaa_table", result.Warnings[0].Table)
	require.Equal(t, "zzz_table", result.Warnings[1].Table)
}
