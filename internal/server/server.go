package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/control"
	"github.com/pagelens/pagelens/internal/dispatch"
	"github.com/pagelens/pagelens/internal/extract"
	"github.com/pagelens/pagelens/internal/host"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/monitoring"
	"github.com/pagelens/pagelens/internal/shared/wire"
	"github.com/pagelens/pagelens/internal/transport"
)

// Bridge wires the transport, dispatcher, tab host, and control channel
// into one runnable unit.
type Bridge struct {
	cfg        *config.Config
	log        *logging.Logger
	metrics    *monitoring.Metrics
	store      *config.Store
	tabHost    *host.Host
	dispatcher *dispatch.Dispatcher
	client     *transport.Client
	control    *control.Server
}

// New builds a bridge from configuration. A persisted endpoint override,
// if present, replaces the configured assistant endpoint.
func New(cfg *config.Config) (*Bridge, error) {
	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics := monitoring.NewMetrics()

	store, err := config.OpenStore(cfg.Store.Path)
	if err != nil {
		// The bridge still works without persistence; endpoint changes
		// then last until restart.
		log.Warn("settings store unavailable", zap.Error(err))
		store = nil
	}
	if store != nil {
		if h, p, err := store.Endpoint(); err == nil {
			cfg.ApplyEndpoint(h, p)
		} else {
			log.Warn("ignoring persisted endpoint", zap.Error(err))
		}
	}

	b := &Bridge{cfg: cfg, log: log, metrics: metrics, store: store}

	b.tabHost = host.New(log.Named("host"), host.Options{
		ScanLimits:   extractLimits(cfg.Extract),
		CacheTTL:     cfg.Extract.CacheTTL,
		CacheEntries: cfg.Extract.CacheEntries,
		Metrics:      metrics,
	})
	b.dispatcher = dispatch.New(b.tabHost, cfg.Dispatch, log.Named("dispatch"), metrics)

	b.client = transport.NewClient(cfg.Transport, log.Named("transport"), metrics, transport.Observers{
		OnConnected: func() {
			if b.control != nil {
				b.control.NoteConnected()
				b.control.BroadcastState()
			}
		},
		OnDisconnected: func(error) {
			if b.control != nil {
				b.control.BroadcastState()
			}
		},
		OnMessage: b.handleFrame,
		OnError: func(e *wire.Error) {
			log.Warn("connection error", zap.String("code", string(e.Code)))
		},
	})

	if cfg.Control.Enabled {
		b.control = control.NewServer(cfg.Control, log.Named("control"), metrics, store, b.client)
	}
	return b, nil
}

// Host exposes the tab host so embedders can feed pages into the bridge.
func (b *Bridge) Host() *host.Host {
	return b.tabHost
}

// Client exposes the transport client, mainly for status inspection.
func (b *Bridge) Client() *transport.Client {
	return b.client
}

// handleFrame routes one inbound frame. Each frame gets its own goroutine;
// the dispatcher applies its own per-stage timeouts.
func (b *Bridge) handleFrame(raw []byte) {
	go func() {
		resp, ok := b.dispatcher.HandleRaw(context.Background(), raw)
		if !ok {
			return
		}
		if err := b.client.Send(resp); err != nil {
			b.log.Error("failed to send response", zap.Error(err))
		}
	}()
}

// Run connects to the assistant and serves until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info("bridge starting",
		zap.String("endpoint", b.client.Endpoint()),
		zap.Bool("control", b.control != nil))

	b.client.Connect()

	if b.control != nil {
		return b.control.Run(ctx)
	}
	<-ctx.Done()
	return nil
}

func extractLimits(cfg config.ExtractConfig) extract.ScanLimits {
	limits := extract.DefaultScanLimits()
	if cfg.MaxElements > 0 {
		limits.MaxElements = cfg.MaxElements
	}
	if cfg.MaxDepth > 0 {
		limits.MaxDepth = cfg.MaxDepth
	}
	if cfg.BatchSize > 0 {
		limits.BatchSize = cfg.BatchSize
	}
	return limits
}

// Close releases the bridge's resources.
func (b *Bridge) Close() error {
	b.client.Disconnect()
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			b.log.Warn("failed to close settings store", zap.Error(err))
		}
	}
	_ = b.log.Sync()
	return nil
}
