package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

var (
	entryFile string
	createdBy string
	postDry   bool
)

// entryFileLine is one line in a YAML entry file. Accounts are referenced
// by chart code.
type entryFileLine struct {
	Account     string  `yaml:"account"`
	Debit       float64 `yaml:"debit"`
	Credit      float64 `yaml:"credit"`
	Description string  `yaml:"description"`
}

// entryDoc is the YAML shape accepted by `ledgerd post --file`.
type entryDoc struct {
	Date        string          `yaml:"date"`
	Description string          `yaml:"description"`
	Lines       []entryFileLine `yaml:"lines"`
}

// postCmd represents the post command.
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a journal entry from a YAML file",
	Long: `Post a balanced journal entry described in a YAML file.

The file references accounts by chart code:

  date: 2024-01-31
  description: January office rent
  lines:
    - account: "6000"
      debit: 1200
    - account: "1000"
      credit: 1200

Entries posted through this command carry the Journal reference type and
can later be reversed.

Example:
  ledgerd post --file entry.yaml
  ledgerd post --file entry.yaml --dry-run`,
	Run: runPost,
}

func init() {
	postCmd.Flags().StringVar(&entryFile, "file", "", "YAML entry file (required)")
	postCmd.Flags().StringVar(&createdBy, "created-by", "ledgerd", "Author recorded on the entry")
	postCmd.Flags().BoolVar(&postDry, "dry-run", false, "Validate without posting")

	postCmd.MarkFlagRequired("file")
}

func runPost(cmd *cobra.Command, args []string) {
	slog.Info("posting journal entry", "file", entryFile, "dry_run", postDry)

	data, err := os.ReadFile(entryFile)
	exitOnError(err, "failed to read entry file")

	var doc entryDoc
	exitOnError(yaml.Unmarshal(data, &doc), "failed to parse entry file")

	handles, err := openLedger()
	exitOnError(err, "failed to open ledger")
	defer handles.close()

	// Resolve chart codes to account IDs.
	lines := make([]ledger.Line, len(doc.Lines))
	for i, fl := range doc.Lines {
		acct, err := handles.accounts.GetByCode(fl.Account)
		exitOnError(err, fmt.Sprintf("unknown account code %q", fl.Account))

		lines[i] = ledger.Line{
			AccountID:   acct.ID,
			Debit:       fl.Debit,
			Credit:      fl.Credit,
			Description: fl.Description,
		}
	}

	if postDry {
		debit, credit := ledger.Totals(lines)
		fmt.Printf("[DRY RUN] %s %q: %d lines, debits %.2f, credits %.2f\n",
			doc.Date, doc.Description, len(lines), debit, credit)
		if !ledger.IsBalanced(lines, 0) {
			fmt.Println("[DRY RUN] entry does NOT balance")
			os.Exit(1)
		}
		fmt.Println("[DRY RUN] entry balances")
		return
	}

	header := ledger.EntryHeader{
		Date:          doc.Date,
		Description:   doc.Description,
		ReferenceType: ledger.ReferenceJournal,
		CreatedBy:     createdBy,
	}

	entry, err := handles.poster.Post(header, lines)
	exitOnError(err, "failed to post entry")

	fmt.Printf("Posted %s (id %d) with %d lines\n", entry.EntryNumber, entry.ID, len(entry.Lines))
}
