// Package host provides the in-process tab host.
//
// The host stands in for a browser: it keeps a set of tabs with page
// snapshots, tracks which one is active, and implements tabs.Capability by
// injecting a page agent into a tab and relaying requests to it. Embedders
// feed it pages through OpenTab and UpdatePage; everything downstream of
// the dispatcher is identical whether the pages come from here or from a
// live browser.
package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pagelens/pagelens/internal/agent"
	"github.com/pagelens/pagelens/internal/extract"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/monitoring"
	"github.com/pagelens/pagelens/internal/shared/wire"
	"github.com/pagelens/pagelens/internal/tabs"
)

// Options tunes the host's agents.
type Options struct {
	ScanLimits   extract.ScanLimits
	CacheTTL     time.Duration
	CacheEntries int
	Metrics      *monitoring.Metrics
}

type tabState struct {
	tab   tabs.Tab
	page  extract.Page
	agent *agent.Agent
}

// Host is an in-process tabs.Capability.
type Host struct {
	mu        sync.RWMutex
	log       *logging.Logger
	opts      Options
	states    map[int]*tabState
	activeID  int
	nextID    int
	observers []func(tabs.Event)
}

// New builds an empty host.
func New(log *logging.Logger, opts Options) *Host {
	if log == nil {
		log = logging.NewNop()
	}
	return &Host{
		log:    log,
		opts:   opts,
		states: make(map[int]*tabState),
		nextID: 1,
	}
}

// OpenTab adds a tab with the given page and makes it active.
func (h *Host) OpenTab(page extract.Page) tabs.Tab {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	tab := tabs.Tab{ID: id, WindowID: 1, URL: page.URL, Title: page.Title, Active: true}
	if prev, ok := h.states[h.activeID]; ok {
		prev.tab.Active = false
	}
	h.states[id] = &tabState{tab: tab, page: page}
	h.activeID = id
	h.mu.Unlock()

	h.emit(tabs.Event{Kind: tabs.EventActivated, Tab: tab})
	return tab
}

// Activate focuses an existing tab.
func (h *Host) Activate(tabID int) error {
	h.mu.Lock()
	state, ok := h.states[tabID]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("no tab %d", tabID)
	}
	if prev, ok := h.states[h.activeID]; ok {
		prev.tab.Active = false
	}
	state.tab.Active = true
	h.activeID = tabID
	tab := state.tab
	h.mu.Unlock()

	h.emit(tabs.Event{Kind: tabs.EventActivated, Tab: tab})
	return nil
}

// UpdatePage replaces a tab's page snapshot, invalidating its agent's
// cache. This is the host's equivalent of a navigation or DOM mutation.
func (h *Host) UpdatePage(tabID int, page extract.Page) error {
	h.mu.Lock()
	state, ok := h.states[tabID]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("no tab %d", tabID)
	}
	state.page = page
	state.tab.URL = page.URL
	state.tab.Title = page.Title
	if state.agent != nil {
		state.agent.Invalidate()
	}
	tab := state.tab
	h.mu.Unlock()

	h.emit(tabs.Event{Kind: tabs.EventUpdated, Tab: tab})
	return nil
}

// CloseTab removes a tab. Closing the active tab leaves no tab active.
func (h *Host) CloseTab(tabID int) error {
	h.mu.Lock()
	state, ok := h.states[tabID]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("no tab %d", tabID)
	}
	delete(h.states, tabID)
	if h.activeID == tabID {
		h.activeID = 0
	}
	tab := state.tab
	h.mu.Unlock()

	h.emit(tabs.Event{Kind: tabs.EventRemoved, Tab: tab})
	return nil
}

// ActiveTab implements tabs.Capability.
func (h *Host) ActiveTab(ctx context.Context) (tabs.Tab, error) {
	if err := ctx.Err(); err != nil {
		return tabs.Tab{}, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, ok := h.states[h.activeID]
	if !ok {
		return tabs.Tab{}, wire.NewError(wire.CodeNoActiveTab)
	}
	return state.tab, nil
}

// Ping implements tabs.Capability. It fails when no agent is injected into
// the tab or the agent is not ready.
func (h *Host) Ping(ctx context.Context, tabID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, ok := h.states[tabID]
	if !ok {
		return fmt.Errorf("no tab %d", tabID)
	}
	if state.agent == nil || !state.agent.Ready() {
		return fmt.Errorf("no agent in tab %d", tabID)
	}
	return nil
}

// Inject implements tabs.Capability. Injecting twice is a no-op; the agent
// keeps its cache.
func (h *Host) Inject(ctx context.Context, tabID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.states[tabID]
	if !ok {
		return fmt.Errorf("no tab %d", tabID)
	}
	if tabs.Restricted(state.tab.URL) {
		return wire.NewError(wire.CodeRestrictedPage)
	}
	if state.agent != nil {
		return nil
	}
	state.agent = agent.New(
		&snapshotSource{host: h, tabID: tabID},
		agent.NewCache(h.opts.CacheTTL, h.opts.CacheEntries),
		h.log.Named("agent"),
		h.opts.ScanLimits,
		h.opts.Metrics,
	)
	return nil
}

// Send implements tabs.Capability.
func (h *Host) Send(ctx context.Context, tabID int, req wire.Request) (wire.Response, error) {
	h.mu.RLock()
	state, ok := h.states[tabID]
	var ag *agent.Agent
	if ok {
		ag = state.agent
	}
	h.mu.RUnlock()

	if !ok {
		return wire.Response{}, fmt.Errorf("no tab %d", tabID)
	}
	if ag == nil {
		return wire.Response{}, fmt.Errorf("no agent in tab %d", tabID)
	}
	return ag.Handle(ctx, req), nil
}

// Subscribe implements tabs.Capability.
func (h *Host) Subscribe(fn func(tabs.Event)) {
	h.mu.Lock()
	h.observers = append(h.observers, fn)
	h.mu.Unlock()
}

func (h *Host) emit(ev tabs.Event) {
	h.mu.RLock()
	observers := make([]func(tabs.Event), len(h.observers))
	copy(observers, h.observers)
	h.mu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// snapshotSource reads a tab's current page under the host lock, so agents
// always see the latest snapshot.
type snapshotSource struct {
	host  *Host
	tabID int
}

func (s *snapshotSource) Snapshot(ctx context.Context) (extract.Page, error) {
	if err := ctx.Err(); err != nil {
		return extract.Page{}, err
	}
	s.host.mu.RLock()
	defer s.host.mu.RUnlock()

	state, ok := s.host.states[s.tabID]
	if !ok {
		return extract.Page{}, fmt.Errorf("tab %d closed", s.tabID)
	}
	return state.page, nil
}
