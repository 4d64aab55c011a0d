// Package server assembles the bridge.
//
// This package orchestrates all components:
//   - WebSocket transport to the assistant (reconnect, offline queue)
//   - Request dispatcher (active-tab resolution, agent injection, relay)
//   - In-process tab host with per-tab page agents
//   - Loopback control channel (status, stats, endpoint override)
//   - Metrics and structured logging
//
// Lifecycle:
//  1. Load configuration from the environment
//  2. Initialize logger and metrics
//  3. Open the settings store and apply a persisted endpoint override
//  4. Wire host, dispatcher, transport, and control channel
//  5. Connect to the assistant and serve until cancelled
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	bridge, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bridge.Close()
//	if err := bridge.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
