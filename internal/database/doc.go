// Package database manages the PostgreSQL connection pool and schema
// migrations for the snapshot store.
//
// Tables (one per source, plus generation metadata):
//   - blocks, chart_points, exchange_rates: current snapshot rows
//   - snapshot_generations: one row per source describing the live generation
//
// Migrations are embedded SQL files applied with goose.
package database
