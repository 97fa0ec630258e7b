// Package supervisor assembles explorerd from configuration and runs it.
//
// Build wires one connector, table and poller per enabled source plus the
// query service. Run starts every unit concurrently; it returns when the
// context is cancelled or a unit fails fatally, which cancels the rest.
package supervisor
