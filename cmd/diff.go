package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quelgo/quel/diff"
	"github.com/quelgo/quel/loader"
)

var diffCmd = &cobra.Command{
	Use:   "diff [desired catalog] [current catalog]",
	Short: "Print the DDL that takes the current catalog to the desired one",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		desired, err := loader.LoadCatalog(args[0])
		if err != nil {
			fmt.Println("❌ Load error:", err)
			os.Exit(1)
		}
		current, err := loader.LoadCatalog(args[1])
		if err != nil {
			fmt.Println("❌ Load error:", err)
			os.Exit(1)
		}

		stmts, err := diff.Catalogs(desired, current)
		if err != nil {
			fmt.Println("❌ Diff error:", err)
			os.Exit(1)
		}
		if len(stmts) == 0 {
			color.Green("✅ Catalogs are identical.")
			return
		}
		for _, st := range stmts {
			fmt.Println(st.SQL())
		}
	},
}
