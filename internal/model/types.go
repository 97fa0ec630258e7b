package model

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies one external feed.
type Source string

const (
	SourceBlocks Source = "blocks"
	SourceChart  Source = "chart"
	SourceRates  Source = "rates"
)

// Sources lists every known source in startup order.
var Sources = []Source{SourceBlocks, SourceChart, SourceRates}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

func (s Source) String() string {
	return string(s)
}

// -----------------------------------------------------------------------------
// On-chain
// -----------------------------------------------------------------------------

// Block is one bitcoin block as reported by the GraphQL indexer.
// Everything except Height is optional upstream.
type Block struct {
	Height            int64    `json:"height" db:"height"`
	BlockHash         *string  `json:"blockHash" db:"block_hash"`
	BlockSize         *int64   `json:"blockSize" db:"block_size"`
	BlockWeight       *int64   `json:"blockWeight" db:"block_weight"`
	BlockVersion      *int64   `json:"blockVersion" db:"block_version"`
	BlockStrippedSize *int64   `json:"blockStrippedSize" db:"block_stripped_size"`
	Difficulty        *float64 `json:"difficulty" db:"difficulty"`
	TransactionCount  *int64   `json:"transactionCount" db:"transaction_count"`

	GenerationID uuid.UUID `json:"-" db:"generation_id"`
	IngestedAt   time.Time `json:"ingestedAt" db:"ingested_at"`
}

// -----------------------------------------------------------------------------
// Off-chain
// -----------------------------------------------------------------------------

// ChartPoint is one (x, y) value of a blockchain.info chart, with the
// chart's metadata denormalized onto every point.
type ChartPoint struct {
	ID          int64   `json:"id" db:"id"`
	ChartName   string  `json:"chart_name" db:"chart_name"`
	Unit        string  `json:"unit" db:"unit"`
	Period      string  `json:"period" db:"period"`
	Description string  `json:"description" db:"description"`
	ValueX      int64   `json:"value_x" db:"value_x"` // unix seconds
	ValueY      float64 `json:"value_y" db:"value_y"`

	GenerationID uuid.UUID `json:"-" db:"generation_id"`
	Timestamp    time.Time `json:"timestamp" db:"ingested_at"`
}

// ExchangeRate is the BTC price in one fiat currency.
type ExchangeRate struct {
	CurrencyCode string  `json:"currency_code" db:"currency_code"`
	Rate15m      float64 `json:"rate_15m" db:"rate_15m"`
	RateLast     float64 `json:"rate_last" db:"rate_last"`
	RateBuy      float64 `json:"rate_buy" db:"rate_buy"`
	RateSell     float64 `json:"rate_sell" db:"rate_sell"`
	Symbol       string  `json:"symbol" db:"symbol"`

	GenerationID uuid.UUID `json:"-" db:"generation_id"`
	UpdatedAt    time.Time `json:"updated_at" db:"ingested_at"`
}
