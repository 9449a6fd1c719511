// Package http implements the gateway's HTTP surface: the request router
// dispatching preflight, public, and validated-private flows, and the
// cache-aware fetcher resolving bytes from the edge cache or the backing
// store. Ops endpoints (/healthz, /metrics) ride on the same router ahead
// of the media catch-all.
package http
