// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll cycles per source and outcome, cycle duration, last success time
//   - Snapshot store operations and latencies
//   - Query service request counts and latencies
//   - Database connection pool stats
package metrics
