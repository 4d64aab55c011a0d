// Package tabs defines the browser-facing seam of the bridge.
//
// The dispatcher never talks to a browser directly; it drives a Capability,
// which resolves the active tab and relays requests to the page agent
// injected into it. The in-process host implements Capability over page
// snapshots; a browser-backed host would implement it over the extension
// APIs instead.
package tabs

import (
	"context"
	"strings"

	"github.com/pagelens/pagelens/internal/shared/wire"
)

// Tab identifies one browser tab.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
}

// EventKind classifies a tab lifecycle event.
type EventKind string

const (
	EventActivated EventKind = "activated"
	EventUpdated   EventKind = "updated"
	EventRemoved   EventKind = "removed"
)

// Event is a tab lifecycle notification. The dispatcher invalidates its
// active-tab cache on every event.
type Event struct {
	Kind EventKind
	Tab  Tab
}

// Capability is the set of browser operations the dispatcher needs. All
// calls honour context cancellation; implementations return wire errors
// for failures the peer should see verbatim.
type Capability interface {
	// ActiveTab resolves the focused tab, preferring the current window.
	ActiveTab(ctx context.Context) (Tab, error)

	// Ping probes whether a page agent is alive in the tab.
	Ping(ctx context.Context, tabID int) error

	// Inject installs a page agent into the tab.
	Inject(ctx context.Context, tabID int) error

	// Send relays a request to the tab's page agent.
	Send(ctx context.Context, tabID int, req wire.Request) (wire.Response, error)

	// Subscribe registers an observer for tab lifecycle events. Observers
	// must not block.
	Subscribe(fn func(Event))
}

// restrictedSchemes lists URL prefixes the browser refuses to inject into.
var restrictedSchemes = []string{
	"chrome:",
	"chrome-extension:",
	"about:",
	"edge:",
	"moz-extension:",
}

// Restricted reports whether a page URL belongs to a scheme that cannot
// host a page agent. An empty URL is treated as restricted: a tab with no
// committed document has nothing to extract.
func Restricted(url string) bool {
	url = strings.TrimSpace(strings.ToLower(url))
	if url == "" {
		return true
	}
	for _, scheme := range restrictedSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}
