package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quelgo/quel/runner"
)

var dryRunMigrate bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		if dryRunMigrate {
			if err := runner.Preview(); err != nil {
				fmt.Println("❌ Dry run failed:", err)
				os.Exit(1)
			}
			return
		}

		if err := runner.Apply(); err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRunMigrate, "dry-run", false, "Preview the SQL that would be executed without applying migrations")
}
