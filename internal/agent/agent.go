package agent

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/extract"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/monitoring"
	"github.com/pagelens/pagelens/internal/shared/wire"
)

// Source supplies the page snapshot the agent works on. The in-process
// host hands out static snapshots; a browser host would serialise the live
// DOM here.
type Source interface {
	Snapshot(ctx context.Context) (extract.Page, error)
}

// Agent serves extraction requests for one tab.
type Agent struct {
	source  Source
	cache   *Cache
	log     *logging.Logger
	limits  extract.ScanLimits
	metrics *monitoring.Metrics

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds an agent over the given snapshot source. A nil metrics
// collector disables reporting; the local counters still run.
func New(source Source, cache *Cache, log *logging.Logger, limits extract.ScanLimits, metrics *monitoring.Metrics) *Agent {
	if cache == nil {
		cache = NewCache(0, 0)
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Agent{source: source, cache: cache, log: log, limits: limits, metrics: metrics}
}

// Ready reports whether the agent can serve requests. It mirrors the
// liveness probe the dispatcher runs before relaying.
func (a *Agent) Ready() bool {
	return a.source != nil
}

// Invalidate flushes the extraction cache. The host calls this when the
// page mutates, so a stale bundle is never served after a DOM change.
func (a *Agent) Invalidate() {
	a.cache.Flush()
}

// CacheStats returns hit and miss counts since the agent was created.
func (a *Agent) CacheStats() (hits, misses int64) {
	return a.hits.Load(), a.misses.Load()
}

// Handle serves one request frame. Every known request kind produces a
// response frame; failures are carried as wire errors on the response.
func (a *Agent) Handle(ctx context.Context, req wire.Request) wire.Response {
	switch req.Type {
	case wire.TypePing:
		return wire.NewSuccess(wire.TypePing, req.RequestID, nil)
	case wire.TypeGetContext, wire.TypeGetContent:
		return a.handleContext(ctx, req)
	case wire.TypeGetLinks:
		return a.handleLinks(ctx, req)
	case wire.TypeGetSelection:
		return a.handleSelection(ctx, req)
	case wire.TypeGetMetadata:
		return a.handleMetadata(ctx, req)
	default:
		return wire.NewFailure(req.Type, req.RequestID, wire.NewError(wire.CodeInvalidRequest))
	}
}

func (a *Agent) handleContext(ctx context.Context, req wire.Request) wire.Response {
	bundle, err := a.bundle(ctx, req.Options)
	if err != nil {
		return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(err))
	}
	return wire.NewSuccess(req.Type, req.RequestID, bundle)
}

func (a *Agent) handleLinks(ctx context.Context, req wire.Request) wire.Response {
	opts := req.Options
	links := true
	opts.IncludeLinks = &links

	bundle, err := a.bundle(ctx, opts)
	if err != nil {
		return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(err))
	}
	return wire.NewSuccess(req.Type, req.RequestID, wire.LinksPayload{Links: bundle.Links})
}

func (a *Agent) handleSelection(ctx context.Context, req wire.Request) wire.Response {
	page, err := a.source.Snapshot(ctx)
	if err != nil {
		return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(err))
	}

	result, err := extract.Run(ctx, page, extract.Options{
		IncludeSelection: true,
		MaxContextLength: req.Options.Normalized().MaxContextLength,
		ScanLimits:       a.limits,
	})
	if err != nil {
		if ctx.Err() != nil {
			return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(ctx.Err()))
		}
		// The snapshot's raw selection still answers the request.
		a.log.Warn("pipeline failed, serving raw selection",
			zap.String("url", page.URL), zap.Error(err))
		sel := strings.Join(strings.Fields(page.Selection), " ")
		return wire.NewSuccess(req.Type, req.RequestID, wire.SelectionPayload{
			Selection:        sel,
			HasSelection:     sel != "",
			ExtractionMethod: wire.MethodFallback,
		})
	}
	return wire.NewSuccess(req.Type, req.RequestID, wire.SelectionPayload{
		Selection:          result.Selection.Text,
		SurroundingContext: result.Selection.SurroundingContext,
		HasSelection:       result.Selection.HasSelection,
	})
}

func (a *Agent) handleMetadata(ctx context.Context, req wire.Request) wire.Response {
	page, err := a.source.Snapshot(ctx)
	if err != nil {
		return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(err))
	}

	result, err := extract.Run(ctx, page, extract.Options{ScanLimits: a.limits})
	if err != nil {
		if ctx.Err() != nil {
			return wire.NewFailure(req.Type, req.RequestID, wire.AsWireError(ctx.Err()))
		}
		a.log.Warn("pipeline failed, serving fallback metadata",
			zap.String("url", page.URL), zap.Error(err))
		fb := fallbackBundle(page, req.Options.Normalized())
		return wire.NewSuccess(req.Type, req.RequestID, wire.MetadataPayload{
			WordCount:        fb.Metadata.WordCount,
			ReadingTime:      fb.Metadata.ReadingTime,
			Quality:          fb.Metadata.ContentQuality,
			ContentType:      extract.TypeGeneral,
			ExtractionMethod: wire.MethodFallback,
		})
	}

	m := result.Metadata
	return wire.NewSuccess(req.Type, req.RequestID, wire.MetadataPayload{
		WordCount:    m.WordCount,
		ReadingTime:  m.ReadingTime,
		Quality:      m.Quality,
		ContentType:  m.ContentType,
		ReadingLevel: m.ReadingLevel,
		Structure: wire.StructureInfo{
			HasHeadings:    m.Structure.HasHeadings,
			HasSubheadings: m.Structure.HasSubheadings,
			HasLists:       m.Structure.HasLists,
			HasLinks:       m.Structure.HasLinks,
			HasCode:        m.Structure.HasCode,
			HeadingLevels:  m.Structure.HeadingLevels,
			ListTypes:      m.Structure.ListTypes,
			LinkCount:      m.Structure.LinkCount,
		},
	})
}

// bundle produces the context bundle for an option set, consulting the
// cache first. Pipeline failures degrade to the fallback extractor; only a
// snapshot failure is fatal.
func (a *Agent) bundle(ctx context.Context, opts wire.ContextOptions) (wire.ContextBundle, error) {
	page, err := a.source.Snapshot(ctx)
	if err != nil {
		return wire.ContextBundle{}, err
	}

	opts = opts.Normalized()
	key := Key(page.URL, opts)
	if bundle, ok := a.cache.Get(key); ok {
		a.hits.Add(1)
		if a.metrics != nil {
			a.metrics.RecordCache(true)
		}
		return bundle, nil
	}
	a.misses.Add(1)
	if a.metrics != nil {
		a.metrics.RecordCache(false)
	}

	result, err := extract.Run(ctx, page, extract.Options{
		Format:            opts.Format,
		CharBudget:        opts.CharBudget(),
		IncludeLinks:      opts.LinksWanted(),
		IncludeSelection:  opts.SelectionWanted(),
		PreserveStructure: opts.PreserveStructure,
		MaxContextLength:  opts.MaxContextLength,
		ScanLimits:        a.limits,
	})
	if err != nil {
		if ctx.Err() != nil {
			return wire.ContextBundle{}, ctx.Err()
		}
		a.log.Warn("pipeline failed, using fallback",
			zap.String("url", page.URL), zap.Error(err))
		bundle := fallbackBundle(page, opts)
		a.cache.Put(key, bundle)
		return bundle, nil
	}

	bundle := toBundle(result, opts)
	a.cache.Put(key, bundle)
	return bundle, nil
}

// toBundle converts a pipeline result to its wire form.
func toBundle(result *extract.Result, opts wire.ContextOptions) wire.ContextBundle {
	links := make([]wire.Link, 0, len(result.Links))
	for _, l := range result.Links {
		links = append(links, wire.Link{Text: l.Text, Href: l.Href})
	}

	var chunks []wire.Chunk
	for _, c := range result.Chunks {
		chunks = append(chunks, wire.Chunk{Text: c.Text, Start: c.Start, End: c.End})
	}

	return wire.ContextBundle{
		URL:       result.URL,
		Title:     result.Title,
		Content:   result.Content,
		Links:     links,
		Selection: result.Selection.Text,
		Metadata: wire.BundleMetadata{
			WordCount:        result.Metadata.WordCount,
			ReadingTime:      result.Metadata.ReadingTime,
			ContentQuality:   result.Metadata.Quality,
			Format:           opts.Format,
			ExtractionMethod: wire.MethodPipeline,
		},
		Chunks: chunks,
	}
}
