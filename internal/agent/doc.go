// Package agent implements the per-tab page agent.
//
// An agent owns one tab's extraction surface: it takes page snapshots from
// its source, runs the extraction pipeline over them, and caches bundles
// per URL and option set. When the pipeline cannot handle a page the agent
// degrades to a sanitised whole-body fallback rather than failing the
// request.
package agent
