// Package model defines the record types served by explorer-data.
//
// Each source produces one record type:
//   - blocks: Block (on-chain block metadata, ordered by height)
//   - chart:  ChartPoint (off-chain chart series, ordered by point time)
//   - rates:  ExchangeRate (BTC ticker per fiat currency)
//
// Conventions:
//   - JSON field names are the contract consumed by the explorer dashboard
//   - db tags name the snapshot table columns
//   - GenerationID and ingestion time are assigned by the store at write time
package model
