package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quelgo/quel/runner"
)

var steps int

func init() {
	rollbackCmd.Flags().IntVarP(&steps, "steps", "s", 1, "Number of migrations to rollback")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback migrations",
	Long: `Rollback the last migration or multiple migrations.

Examples:
  quel rollback            # Rollback the last migration
  quel rollback --steps=3  # Rollback the last 3 migrations
`,
	Run: func(cmd *cobra.Command, args []string) {
		if steps < 1 {
			fmt.Println("❌ Steps must be at least 1")
			os.Exit(1)
		}

		if err := runner.Rollback(steps); err != nil {
			fmt.Println("❌ Rollback failed:", err)
			os.Exit(1)
		}
	},
}
