package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/go-ledger/internal/api"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger over HTTP",
	Long: `Start the HTTP API server.

Endpoints are rooted at /api/1 and cover accounts, journal entries and
ledger statistics. The listen port comes from LEDGER_PORT (default 8080).

Example:
  ledgerd serve`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// The server path logs JSON.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	handles, err := openLedger()
	exitOnError(err, "failed to open ledger")
	defer handles.close()

	router := api.NewRouter(handles.poster, handles.accounts)

	addr := fmt.Sprintf(":%s", handles.cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
		close(done)
	}()

	slog.Info("ledger API listening", "addr", addr, "driver", handles.cfg.Database.Driver)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		exitOnError(err, "server failed")
	}
	<-done
}
