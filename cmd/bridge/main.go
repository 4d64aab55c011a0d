package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/server"
)

func main() {
	// Parse flags; anything set here overrides the environment.
	host := flag.String("host", "", "Assistant host (default from BRIDGE_HOST)")
	port := flag.Int("port", 0, "Assistant port (default from BRIDGE_PORT)")
	storePath := flag.String("store", "", "Settings store path (default from BRIDGE_STORE_PATH)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	cfg.ApplyEndpoint(*host, *port)
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	bridge, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bridge: %v", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- bridge.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		if err := bridge.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Bridge error: %v", err)
		}
	}
}
