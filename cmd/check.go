package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quelgo/quel/loader"
	"github.com/quelgo/quel/validator"
)

var checkCmd = &cobra.Command{
	Use:   "check [catalog file]",
	Short: "Validate a YAML catalog definition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loader.LoadCatalog(args[0])
		if err != nil {
			fmt.Println("❌ Load error:", err)
			os.Exit(1)
		}

		result := validator.ValidateCatalog(cat)
		for _, e := range result.Errors {
			color.Red("   error: %s", e.Message)
		}
		for _, w := range result.Warnings {
			color.Yellow("   warning: %s", w.Message)
		}
		if !result.Valid {
			color.Red("❌ Catalog is invalid (%d errors)", len(result.Errors))
			os.Exit(1)
		}
		color.Green("✅ Catalog is valid (%d warnings)", len(result.Warnings))
	},
}
