// Package connector fetches one snapshot of records from an external source.
//
// Each connector performs exactly one outbound request per Fetch, decodes
// the response into model records and normalizes them. Failures are
// classified so the poller can log them distinctly:
//
//	ErrFetch        transport failure, timeout, non-2xx status, upstream-reported error
//	ErrDecode       body does not match the expected schema (*DecodeError)
//	ErrEmptyResult  structurally valid response with no records
//
// Connectors never retry; the poller's next cycle is the retry.
package connector
