package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/efecanulku/docdash/internal/stubserver"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run an in-memory fake backend for local development",
	Long: `Run an in-memory fake backend for local development.

The stub speaks the same API as the real server but keeps everything in
memory. A demo account and a few documents are seeded so the client works
out of the box.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return runStub(addr)
	},
}

func init() {
	stubCmd.Flags().String("addr", "127.0.0.1:8000", "listen address")
}

func runStub(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stub := stubserver.New()
	stub.SeedUser("demo@example.com", "demo", "demo")
	stub.SeedDocument("quarterly-report.pdf", "Revenue grew 12% quarter over quarter.\nCosts held flat.")
	stub.SeedDocument("meeting-notes.txt", "Agreed to ship the new importer by June.")

	srv := &http.Server{
		Addr:    addr,
		Handler: stub.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		printInfo("stub backend listening on %s (demo@example.com / demo)", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		printInfo("shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("stub server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
