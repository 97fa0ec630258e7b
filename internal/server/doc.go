// Package server implements the read-only query service.
//
// Routes:
//
//	GET /api/blocks          latest blocks, highest first
//	GET /api/transactions    transactions-per-second chart points, newest first
//	GET /api/exchange-rates  BTC exchange rates by currency code
//	GET /api/status          per-source generation and poller status
//	GET /healthz             liveness
//	GET /readyz              store reachability
//	GET /metrics             Prometheus (unless disabled)
//
// Every data route reads the store on each call and returns a JSON array.
// A store failure maps to 503; a source with no data yet returns [].
package server
