package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var confirm bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old archived usage data",
	Long: `Remove individual usage observations from months that have already been
aggregated into monthly averages. This keeps the archive size manageable
over time while preserving the monthly statistics.

Only observations from completed months with calculated monthly averages
are removed. Data from the current month and any months without averages
are preserved. The rolling per-bucket ledger files are never touched.`,
	Run: func(cmd *cobra.Command, args []string) {
		archive, err := openArchive()
		if err != nil {
			fmt.Printf("Error connecting to archive database: %v\n", err)
			return
		}
		defer archive.Close()

		if !confirm {
			fmt.Print("This will permanently delete individual observations from months that " +
				"have completed and have calculated monthly averages.\n" +
				"The monthly average statistics will be preserved.\n" +
				"Are you sure you want to continue? (y/N): ")

			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Pruning cancelled.")
				return
			}
		}

		fmt.Println("Pruning old observations...")
		rowsDeleted, err := archive.PruneOldData()
		if err != nil {
			fmt.Printf("Error pruning old data: %v\n", err)
			os.Exit(1)
		}

		if rowsDeleted == 0 {
			fmt.Println("No data to prune. All observations are still needed or no monthly averages have been calculated yet.")
		} else {
			fmt.Printf("Successfully pruned %d observations from completed months.\n", rowsDeleted)
		}
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm pruning without prompting")
}
