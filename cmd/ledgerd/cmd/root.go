// Package cmd provides CLI commands for ledgerd.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/go-ledger/pkg/audit"
	"github.com/pigeonworks-llc/go-ledger/pkg/config"
	"github.com/pigeonworks-llc/go-ledger/pkg/db"
	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "Double-entry ledger posting service",
	Long: `ledgerd maintains a double-entry general ledger.

It supports:
- Posting balanced journal entries against a chart of accounts
- Reversing manually created entries
- Seeding the chart of accounts from a YAML file
- Serving the ledger over HTTP

Example:
  ledgerd post --file entry.yaml
  ledgerd accounts --seed
  ledgerd serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(reverseCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// ledgerHandles bundles the components subcommands operate on.
type ledgerHandles struct {
	cfg      *config.Config
	conn     *db.Connection
	trail    *audit.Trail
	poster   *ledger.Poster
	accounts *ledger.Accounts
}

// close drains in-flight audit hooks, then releases the underlying
// stores. Hooks write to the trail, so the poster must be drained
// before the trail closes.
func (h *ledgerHandles) close() {
	if h.poster != nil {
		h.poster.Wait()
	}
	if h.trail != nil {
		if err := h.trail.Close(); err != nil {
			slog.Error("failed to close audit trail", "error", err)
		}
	}
	if h.conn != nil {
		if err := h.conn.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}

// openLedger loads configuration and opens the database and audit trail.
func openLedger() (*ledgerHandles, error) {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var conn *db.Connection
	switch cfg.Database.Driver {
	case "mysql":
		slog.Debug("opening mysql database", "host", cfg.Database.Host, "name", cfg.Database.Name)
		conn, err = db.OpenMySQL(cfg.Database.GetDSN())
	default:
		slog.Debug("opening sqlite database", "path", cfg.Database.Path)
		conn, err = db.Open(cfg.Database.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	trail, err := audit.Open(cfg.Ledger.AuditPath)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}

	onPosted, onReversed := trail.Hooks()
	poster := ledger.NewPoster(conn, ledger.PosterConfig{
		OnPosted:   onPosted,
		OnReversed: onReversed,
	})

	return &ledgerHandles{
		cfg:      cfg,
		conn:     conn,
		trail:    trail,
		poster:   poster,
		accounts: ledger.NewAccounts(conn),
	}, nil
}
