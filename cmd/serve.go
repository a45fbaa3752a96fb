package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebudnikov/dateguard/internal/calendar"
	"github.com/ebudnikov/dateguard/internal/config"
	"github.com/ebudnikov/dateguard/internal/pipeline"
	"github.com/ebudnikov/dateguard/internal/storage"
	"github.com/ebudnikov/dateguard/internal/tasks"
	"github.com/ebudnikov/dateguard/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Dateguard web server.
It serves the liturgical calendar API and accepts photo moderation
requests that are processed by the background pipeline.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides SERVER_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides SERVER_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	host := cfg.Server.Host
	port := cfg.Server.Port
	if flagHost := mustGetString(cmd, "host"); flagHost != "" {
		host = flagHost
	}
	if flagPort := mustGetInt(cmd, "port"); flagPort != 0 {
		port = flagPort
	}

	store, err := openStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	fmt.Printf("Using %s backend\n", cfg.Database.Driver)

	blobs, err := storage.NewFSStore(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("opening photo storage: %w", err)
	}

	cal := calendar.New(calendar.DatasetFromFileOrDefault(cfg.Calendar.DataPath))

	queue := tasks.New(tasks.Options{
		Workers:    cfg.Pipeline.Workers,
		MaxRetries: cfg.Pipeline.MaxRetries,
		Backoff:    cfg.Pipeline.Backoff(),
	})
	queue.Start()

	pipe := pipeline.New(store, store, blobs, cfg.Pipeline.Threshold)
	server := web.NewServer(host, port, cal, pipe, queue, cfg.Pipeline.InitialDelay())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
		if err := queue.Stop(shutdownCtx); err != nil {
			fmt.Printf("Error draining task queue: %v\n", err)
		}
	}()

	fmt.Printf("Starting Dateguard on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
