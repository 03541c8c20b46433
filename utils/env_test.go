package utils_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/quelgo/quel/utils"
)

func TestMigrationsDirDefault(t *testing.T) {
	viper.Reset()
	utils.LoadEnv()
	require.Equal(t, "migrations", utils.MigrationsDir())
}

func TestMigrationsDirFromEnv(t *testing.T) {
	viper.Reset()
	t.Setenv("QUEL_MIGRATIONS_DIR", "db/changes")
	utils.LoadEnv()
	require.Equal(t, "db/changes", utils.MigrationsDir())
}

func TestDatabaseURL(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "")
	utils.LoadEnv()
	_, err := utils.DatabaseURL()
	require.ErrorContains(t, err, "DATABASE_URL not set")

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/quel")
	url, err := utils.DatabaseURL()
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost:5432/quel", url)
}
