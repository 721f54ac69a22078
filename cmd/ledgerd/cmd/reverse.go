package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
)

var reverseReason string

// reverseCmd represents the reverse command.
var reverseCmd = &cobra.Command{
	Use:   "reverse <entry-id>",
	Short: "Reverse a manually created journal entry",
	Long: `Reverse a previously posted journal entry.

Reversal restores every affected account balance to its value before the
entry was posted, then deletes the entry. Only manually created entries
(reference type Journal) can be reversed.

Example:
  ledgerd reverse 42 --reason "duplicate posting"`,
	Args: cobra.ExactArgs(1),
	Run:  runReverse,
}

func init() {
	reverseCmd.Flags().StringVar(&reverseReason, "reason", "Manual journal void", "Reason recorded in the audit trail")
}

func runReverse(cmd *cobra.Command, args []string) {
	entryID, err := strconv.ParseInt(args[0], 10, 64)
	exitOnError(err, "invalid entry id")

	slog.Info("reversing journal entry", "entry_id", entryID, "reason", reverseReason)

	handles, err := openLedger()
	exitOnError(err, "failed to open ledger")
	defer handles.close()

	exitOnError(handles.poster.Reverse(entryID, reverseReason), "failed to reverse entry")

	fmt.Printf("Reversed entry %d\n", entryID)
}
