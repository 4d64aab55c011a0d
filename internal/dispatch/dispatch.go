// Package dispatch routes request frames from the assistant to a page
// agent in the active tab.
//
// The dispatcher is total over the known request kinds: every well-formed
// request produces exactly one response frame, either the agent's payload
// or a wire error. Malformed frames get an error frame; frames of unknown
// type are logged and dropped.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/monitoring"
	"github.com/pagelens/pagelens/internal/shared/id"
	"github.com/pagelens/pagelens/internal/shared/wire"
	"github.com/pagelens/pagelens/internal/tabs"
)

// Dispatcher routes frames to the active tab's page agent.
type Dispatcher struct {
	capability tabs.Capability
	cfg        config.DispatchConfig
	log        *logging.Logger
	metrics    *monitoring.Metrics

	mu       sync.Mutex
	cached   tabs.Tab
	cachedAt time.Time
}

// New builds a dispatcher over a tab capability. It subscribes to tab
// events so the active-tab cache never outlives a tab switch.
func New(capability tabs.Capability, cfg config.DispatchConfig, log *logging.Logger, metrics *monitoring.Metrics) *Dispatcher {
	if log == nil {
		log = logging.NewNop()
	}
	d := &Dispatcher{
		capability: capability,
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
	}
	capability.Subscribe(func(tabs.Event) { d.invalidateTab() })
	return d
}

// HandleRaw decodes and dispatches one inbound frame. The returned bool
// reports whether a response should be sent; frames of unknown type are
// dropped without one.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) (wire.Response, bool) {
	req, err := wire.ParseRequest(raw)
	if err != nil {
		// No requestId survives a parse failure; synthesise one so the
		// frame can still be traced in logs on both sides.
		frameID := id.NewFrameID()
		d.log.Warn("malformed frame", zap.String("frameId", frameID), zap.Error(err))
		return wire.NewFailure(wire.TypeError, frameID, wire.NewError(wire.CodeMessageParseError)), true
	}

	if !wire.IsRequest(req.Type) {
		d.log.Warn("unknown frame type, dropping", zap.String("type", req.Type))
		if d.metrics != nil {
			d.metrics.RecordFrame(req.Type, monitoring.OutcomeDropped, 0)
		}
		return wire.Response{}, false
	}

	return d.Handle(ctx, req), true
}

// Handle dispatches one well-typed request frame.
func (d *Dispatcher) Handle(ctx context.Context, req wire.Request) wire.Response {
	start := time.Now()
	resp := d.handle(ctx, req)
	if d.metrics != nil {
		outcome := monitoring.OutcomeOK
		if resp.Error != nil {
			outcome = monitoring.OutcomeError
		}
		d.metrics.RecordFrame(req.Type, outcome, time.Since(start))
	}
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, req wire.Request) wire.Response {
	// Pings are answered locally; no tab is involved.
	if req.Type == wire.TypePing {
		return wire.NewSuccess(wire.TypePing, req.RequestID, nil)
	}

	// Without a correlation id there is nothing to correlate a kind-specific
	// response to; answer with a general error frame instead.
	if req.RequestID == "" {
		return wire.NewFailure(wire.TypeError, "", wire.NewError(wire.CodeInvalidRequest))
	}

	tab, err := d.activeTab(ctx)
	if err != nil {
		return wire.NewFailure(req.Type, req.RequestID, d.tabError(err))
	}

	if tabs.Restricted(tab.URL) {
		return wire.NewFailure(req.Type, req.RequestID, wire.NewError(wire.CodeRestrictedPage))
	}

	if err := d.ensureAgent(ctx, tab.ID); err != nil {
		return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(err))
	}

	relayCtx, cancel := context.WithTimeout(ctx, d.cfg.RelayTimeout)
	defer cancel()

	resp, err := d.capability.Send(relayCtx, tab.ID, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return wire.NewFailure(req.Type, req.RequestID, wire.NewError(wire.CodeScriptTimeout))
		}
		d.log.Error("relay failed",
			zap.String("type", req.Type), zap.Int("tab", tab.ID), zap.Error(err))
		return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(err))
	}
	return resp
}

// activeTab resolves the focused tab, serving from a short-lived cache
// that tab events invalidate.
func (d *Dispatcher) activeTab(ctx context.Context) (tabs.Tab, error) {
	d.mu.Lock()
	if !d.cachedAt.IsZero() && time.Since(d.cachedAt) < d.cfg.TabCacheTTL {
		tab := d.cached
		d.mu.Unlock()
		return tab, nil
	}
	d.mu.Unlock()

	queryCtx, cancel := context.WithTimeout(ctx, d.cfg.TabQueryTimeout)
	defer cancel()

	tab, err := d.capability.ActiveTab(queryCtx)
	if err != nil {
		return tabs.Tab{}, err
	}

	d.mu.Lock()
	d.cached = tab
	d.cachedAt = time.Now()
	d.mu.Unlock()
	return tab, nil
}

func (d *Dispatcher) invalidateTab() {
	d.mu.Lock()
	d.cachedAt = time.Time{}
	d.mu.Unlock()
}

// tabError maps a tab resolution failure to its wire error.
func (d *Dispatcher) tabError(err error) *wire.Error {
	if we := wire.AsWireError(err); we.Code != wire.CodeUnknown {
		return we
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return wire.NewError(wire.CodeNoActiveTab)
	}
	return wire.NewError(wire.CodeNoActiveTab)
}

// ensureAgent makes sure a live page agent is present in the tab: probe,
// and when the probe fails inject, wait for the page to settle, then probe
// again. One re-injection is attempted before giving up.
func (d *Dispatcher) ensureAgent(ctx context.Context, tabID int) error {
	if d.ping(ctx, tabID) == nil {
		return nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := d.capability.Inject(ctx, tabID); err != nil {
			if we := wire.AsWireError(err); we.Code == wire.CodeRestrictedPage {
				return we
			}
			d.log.Warn("agent injection failed",
				zap.Int("tab", tabID), zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		if err := d.settle(ctx); err != nil {
			return err
		}

		if d.ping(ctx, tabID) == nil {
			return nil
		}
	}
	return wire.NewError(wire.CodeInjectionFailed)
}

func (d *Dispatcher) ping(ctx context.Context, tabID int) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.cfg.AgentPingTimeout)
	defer cancel()
	return d.capability.Ping(pingCtx, tabID)
}

// settle waits for the injected agent to initialise.
func (d *Dispatcher) settle(ctx context.Context) error {
	timer := time.NewTimer(d.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
