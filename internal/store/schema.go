package store

import (
	"github.com/rickgao/explorer-data/internal/model"
)

// Schema maps a record type onto its table and ordering.
type Schema[T any] struct {
	Source model.Source
	Table  string

	// Columns are written by ReplaceAll in the order Values returns them.
	Columns []string
	Values  func(T) []any

	// ReadOnly columns are assigned by the database and only selected.
	ReadOnly []string

	// OrderBy is the SQL ordering; Less is the same order for MemTable.
	OrderBy string
	Less    func(a, b T) bool

	// Stamp tags a record with its generation and position. Only MemTable
	// uses it; PostgreSQL fills the same columns on write.
	Stamp func(rec *T, gen Generation, seq int64)

	// Cap bounds ReadLatest.
	Cap int
}

// Metadata columns written with every row.
const (
	colGenerationID = "generation_id"
	colIngestedAt   = "ingested_at"
)

func (s Schema[T]) writeColumns() []string {
	cols := make([]string, 0, len(s.Columns)+2)
	cols = append(cols, s.Columns...)
	return append(cols, colGenerationID, colIngestedAt)
}

func (s Schema[T]) readColumns() []string {
	cols := make([]string, 0, len(s.ReadOnly)+len(s.Columns)+2)
	cols = append(cols, s.ReadOnly...)
	return append(cols, s.writeColumns()...)
}

// BlockSchema stores the latest blocks, highest first.
func BlockSchema(readCap int) Schema[model.Block] {
	return Schema[model.Block]{
		Source: model.SourceBlocks,
		Table:  "blocks",
		Columns: []string{
			"height", "block_hash", "block_size", "block_weight",
			"block_version", "block_stripped_size", "difficulty", "transaction_count",
		},
		Values: func(b model.Block) []any {
			return []any{
				b.Height, b.BlockHash, b.BlockSize, b.BlockWeight,
				b.BlockVersion, b.BlockStrippedSize, b.Difficulty, b.TransactionCount,
			}
		},
		OrderBy: "height DESC",
		Less:    func(a, b model.Block) bool { return a.Height > b.Height },
		Stamp: func(b *model.Block, gen Generation, _ int64) {
			b.GenerationID = gen.ID
			b.IngestedAt = gen.ReplacedAt
		},
		Cap: readCap,
	}
}

// ChartSchema stores chart points, most recent point first.
func ChartSchema(readCap int) Schema[model.ChartPoint] {
	return Schema[model.ChartPoint]{
		Source:  model.SourceChart,
		Table:   "chart_points",
		Columns: []string{"chart_name", "unit", "period", "description", "value_x", "value_y"},
		Values: func(p model.ChartPoint) []any {
			return []any{p.ChartName, p.Unit, p.Period, p.Description, p.ValueX, p.ValueY}
		},
		ReadOnly: []string{"id"},
		OrderBy:  "value_x DESC, id ASC",
		Less: func(a, b model.ChartPoint) bool {
			if a.ValueX != b.ValueX {
				return a.ValueX > b.ValueX
			}
			return a.ID < b.ID
		},
		Stamp: func(p *model.ChartPoint, gen Generation, seq int64) {
			p.ID = seq
			p.GenerationID = gen.ID
			p.Timestamp = gen.ReplacedAt
		},
		Cap: readCap,
	}
}

// RateSchema stores exchange rates ordered by currency code.
func RateSchema(readCap int) Schema[model.ExchangeRate] {
	return Schema[model.ExchangeRate]{
		Source:  model.SourceRates,
		Table:   "exchange_rates",
		Columns: []string{"currency_code", "rate_15m", "rate_last", "rate_buy", "rate_sell", "symbol"},
		Values: func(r model.ExchangeRate) []any {
			return []any{r.CurrencyCode, r.Rate15m, r.RateLast, r.RateBuy, r.RateSell, r.Symbol}
		},
		OrderBy: "currency_code ASC",
		Less:    func(a, b model.ExchangeRate) bool { return a.CurrencyCode < b.CurrencyCode },
		Stamp: func(r *model.ExchangeRate, gen Generation, _ int64) {
			r.GenerationID = gen.ID
			r.UpdatedAt = gen.ReplacedAt
		},
		Cap: readCap,
	}
}
