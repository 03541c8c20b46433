package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "quel",
	Short: "A checked SQL statement builder and migration runner for PostgreSQL",
	Long: `quel builds SQL statements checked against a declared catalog and
applies the resulting migrations.

Examples:

  quel check schema.yaml
  quel migrate
  quel status
`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().String("migrations-dir", "migrations", "Directory containing migration files")
	viper.BindPFlag("QUEL_MIGRATIONS_DIR", rootCmd.PersistentFlags().Lookup("migrations-dir"))

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(diffCmd)
}
