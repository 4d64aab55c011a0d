package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/extract"
	"github.com/pagelens/pagelens/internal/shared/wire"
	"github.com/pagelens/pagelens/internal/tabs"
)

const hostPageHTML = `<html><head><title>Host Page</title></head><body>
	<article><p>A reasonably long paragraph of body text that the extraction
	pipeline can score, pick and assemble into page content for the peer.</p></article>
</body></html>`

func openTestTab(h *Host, url string) tabs.Tab {
	return h.OpenTab(extract.Page{URL: url, Title: "Host Page", HTML: hostPageHTML})
}

func TestActiveTab(t *testing.T) {
	h := New(nil, Options{})
	ctx := context.Background()

	_, err := h.ActiveTab(ctx)
	require.Error(t, err)
	assert.Equal(t, wire.CodeNoActiveTab, wire.AsWireError(err).Code)

	first := openTestTab(h, "https://example.com/a")
	second := openTestTab(h, "https://example.com/b")

	active, err := h.ActiveTab(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	require.NoError(t, h.Activate(first.ID))
	active, err = h.ActiveTab(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
}

func TestInjectAndPing(t *testing.T) {
	h := New(nil, Options{})
	ctx := context.Background()
	tab := openTestTab(h, "https://example.com")

	assert.Error(t, h.Ping(ctx, tab.ID), "no agent yet")
	require.NoError(t, h.Inject(ctx, tab.ID))
	assert.NoError(t, h.Ping(ctx, tab.ID))

	// Re-injection is a no-op.
	require.NoError(t, h.Inject(ctx, tab.ID))
}

func TestInjectRestrictedPage(t *testing.T) {
	h := New(nil, Options{})
	tab := h.OpenTab(extract.Page{URL: "chrome://settings", HTML: "<html></html>"})

	err := h.Inject(context.Background(), tab.ID)
	require.Error(t, err)
	assert.Equal(t, wire.CodeRestrictedPage, wire.AsWireError(err).Code)
}

func TestSendRelaysToAgent(t *testing.T) {
	h := New(nil, Options{})
	ctx := context.Background()
	tab := openTestTab(h, "https://example.com")

	_, err := h.Send(ctx, tab.ID, wire.Request{Type: wire.TypePing})
	assert.Error(t, err, "send before inject")

	require.NoError(t, h.Inject(ctx, tab.ID))
	resp, err := h.Send(ctx, tab.ID, wire.Request{Type: wire.TypeGetContent, RequestID: "r1"})
	require.NoError(t, err)
	require.Nil(t, resp.Error)

	bundle, ok := resp.Data.(wire.ContextBundle)
	require.True(t, ok)
	assert.Contains(t, bundle.Content, "reasonably long paragraph")
}

func TestUpdatePageInvalidatesAgent(t *testing.T) {
	h := New(nil, Options{})
	ctx := context.Background()
	tab := openTestTab(h, "https://example.com")
	require.NoError(t, h.Inject(ctx, tab.ID))

	req := wire.Request{Type: wire.TypeGetContent, RequestID: "r1"}
	_, err := h.Send(ctx, tab.ID, req)
	require.NoError(t, err)

	updated := `<html><body><article><p>Completely different page body text that
	replaces the original content after a navigation within the same tab.</p></article></body></html>`
	require.NoError(t, h.UpdatePage(tab.ID, extract.Page{URL: "https://example.com", HTML: updated}))

	resp, err := h.Send(ctx, tab.ID, req)
	require.NoError(t, err)
	bundle := resp.Data.(wire.ContextBundle)
	assert.Contains(t, bundle.Content, "Completely different")
}

func TestTabEvents(t *testing.T) {
	h := New(nil, Options{})
	var events []tabs.Event
	h.Subscribe(func(ev tabs.Event) { events = append(events, ev) })

	tab := openTestTab(h, "https://example.com")
	require.NoError(t, h.UpdatePage(tab.ID, extract.Page{URL: "https://example.com/2", HTML: hostPageHTML}))
	require.NoError(t, h.CloseTab(tab.ID))

	require.Len(t, events, 3)
	assert.Equal(t, tabs.EventActivated, events[0].Kind)
	assert.Equal(t, tabs.EventUpdated, events[1].Kind)
	assert.Equal(t, tabs.EventRemoved, events[2].Kind)

	_, err := h.ActiveTab(context.Background())
	assert.Error(t, err)
}
