// Package monitoring provides Prometheus metrics collection.
//
// Metrics cover the request path (frames handled, outcomes, durations),
// the transport (connection state, reconnect attempts, queue depth) and
// the extraction caches. A JSON snapshot of the headline numbers is kept
// alongside the Prometheus registry for the control channel's stats
// endpoint.
package monitoring
