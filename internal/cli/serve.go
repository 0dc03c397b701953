package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/strata-agent/strata/internal/augment"
	"github.com/strata-agent/strata/internal/engine"
	"github.com/strata-agent/strata/internal/server"
)

var flagGCInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&flagGCInterval, "gc-interval", time.Hour, "interval between background lifecycle passes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	aug, err := augment.NewClient(cfg.Augment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: augmentation not configured (%v), heuristic rules only\n", err)
	}
	eng := engine.New(db, aug)
	eng.StartGCTimer(cfg, flagGCInterval)
	defer eng.Stop()

	srv := server.New(db, eng, cfg, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "strata serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		if aug != nil {
			fmt.Fprintf(os.Stderr, "  augment: %s (%s)\n", cfg.Augment.Provider, cfg.Augment.Model)
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
