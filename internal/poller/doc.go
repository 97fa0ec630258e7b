// Package poller drives one connector into one snapshot table.
//
// Each Poller:
//   - Runs a fetch/replace cycle immediately on start
//   - Sleeps a fixed delay after each cycle completes (no overlap, no catch-up)
//   - Skips the replace when the source returns no records
//   - Logs and counts every failure; a failed cycle never stops the loop
package poller
