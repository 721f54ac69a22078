package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

var (
	seedChart  bool
	activeOnly bool
)

// accountsCmd represents the accounts command.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List or seed the chart of accounts",
	Long: `List the chart of accounts with running balances.

With --seed, accounts defined in the chart file (LEDGER_CHART_PATH) that
do not exist yet are created with zero balances; existing accounts are
left untouched.

Example:
  ledgerd accounts
  ledgerd accounts --active
  ledgerd accounts --seed`,
	Run: runAccounts,
}

func init() {
	accountsCmd.Flags().BoolVar(&seedChart, "seed", false, "Seed missing accounts from the chart file")
	accountsCmd.Flags().BoolVar(&activeOnly, "active", false, "List active accounts only")
}

func runAccounts(cmd *cobra.Command, args []string) {
	handles, err := openLedger()
	exitOnError(err, "failed to open ledger")
	defer handles.close()

	if seedChart {
		chartPath := handles.cfg.Ledger.ChartPath
		slog.Info("seeding chart of accounts", "path", chartPath)

		chart, err := ledger.LoadChart(chartPath)
		exitOnError(err, "failed to load chart file")

		created, err := chart.Seed(handles.accounts)
		exitOnError(err, "failed to seed accounts")

		fmt.Printf("Seeded %d account(s)\n", created)
	}

	accounts, err := handles.accounts.List(activeOnly)
	exitOnError(err, "failed to list accounts")

	if len(accounts) == 0 {
		fmt.Println("No accounts")
		return
	}

	fmt.Printf("%-8s %-32s %-10s %14s  %s\n", "CODE", "NAME", "TYPE", "BALANCE", "ACTIVE")
	for _, acct := range accounts {
		active := "yes"
		if !acct.Active {
			active = "no"
		}
		fmt.Printf("%-8s %-32s %-10s %14.2f  %s\n",
			acct.Code, acct.Name, acct.Type, acct.Balance, active)
	}
}
