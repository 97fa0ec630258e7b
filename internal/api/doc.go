// Package api provides the outbound HTTP client shared by the source connectors.
//
// Upstreams:
//   - bitquery GraphQL: POST https://graphql.bitquery.io (X-API-KEY header)
//   - blockchain.info charts: GET https://api.blockchain.info/charts/{name}
//   - blockchain.info ticker: GET https://blockchain.info/ticker
//
// The client never retries. A failed call is reported to the caller, which
// waits for its next scheduled cycle.
package api
