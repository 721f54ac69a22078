package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display ledger statistics",
	Long: `Display statistics about the ledger.

Shows:
- Total number of posted entries
- Total number of accounts
- Last posted timestamp

Example:
  ledgerd stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	handles, err := openLedger()
	exitOnError(err, "failed to open ledger")
	defer handles.close()

	stats, err := handles.poster.Stats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Ledger Statistics ===")
	fmt.Printf("Total entries:  %d\n", stats.TotalEntries)
	fmt.Printf("Total accounts: %d\n", stats.TotalAccounts)

	if stats.LastPosted.Valid {
		fmt.Printf("Last posted:    %s\n", stats.LastPosted.String)
	} else {
		fmt.Printf("Last posted:    (never)\n")
	}

	fmt.Println()
}
