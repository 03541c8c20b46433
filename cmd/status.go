package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quelgo/quel/runner"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		applied, pending, err := runner.Status()
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		color.Green("✅ Applied migrations:")
		for _, label := range applied {
			fmt.Println("   -", label)
		}

		color.Yellow("\n🕒 Pending migrations:")
		for _, label := range pending {
			fmt.Println("   -", label)
		}
	},
}
