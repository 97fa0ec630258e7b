package connector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rickgao/explorer-data/internal/api"
	"github.com/rickgao/explorer-data/internal/model"
)

// RatesConfig configures the blockchain.info ticker connector.
type RatesConfig struct {
	URL     string // full ticker URL
	Timeout time.Duration
}

// Rates fetches BTC exchange rates for every currency the ticker lists.
type Rates struct {
	client *api.Client
	cfg    RatesConfig
	logger *slog.Logger
}

// NewRates creates a ticker connector.
func NewRates(cfg RatesConfig, logger *slog.Logger, opts ...api.ClientOption) *Rates {
	logger = orDefault(logger)
	opts = append([]api.ClientOption{api.WithLogger(logger)}, opts...)
	return &Rates{
		client: api.NewClient(cfg.URL, "", opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Rates) Source() model.Source { return model.SourceRates }

// Fetch returns one rate per currency. Entries that fail to decode, or
// whose code repeats one already seen after upper-casing, are skipped; the
// fetch fails only if none decode.
func (r *Rates) Fetch(ctx context.Context) ([]model.ExchangeRate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	body, err := r.client.Get(ctx, "", nil)
	if err != nil {
		return nil, fetchErr(model.SourceRates, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, decodeErr(model.SourceRates, "ticker body is not valid json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, decodeErr(model.SourceRates, "ticker top level is %s, want object", root.Type)
	}

	var (
		rates   []model.ExchangeRate
		entries int
		skipped int
		seen    = make(map[string]struct{})
	)
	root.ForEach(func(key, value gjson.Result) bool {
		entries++
		rate, reason := decodeRate(key.String(), value)
		if reason == "" {
			if _, dup := seen[rate.CurrencyCode]; dup {
				reason = "duplicate currency code " + rate.CurrencyCode
			}
		}
		if reason != "" {
			skipped++
			r.logger.Warn("rates: skipping entry", "currency", key.String(), "reason", reason)
			return true
		}
		seen[rate.CurrencyCode] = struct{}{}
		rates = append(rates, rate)
		return true
	})

	if entries == 0 {
		return nil, emptyErr(model.SourceRates)
	}
	if len(rates) == 0 {
		return nil, decodeErr(model.SourceRates, "all %d ticker entries failed to decode", entries)
	}
	if skipped > 0 {
		r.logger.Info("rates: partial ticker", "decoded", len(rates), "skipped", skipped)
	}

	return rates, nil
}

// decodeRate returns a non-empty reason when the entry is unusable.
func decodeRate(code string, v gjson.Result) (model.ExchangeRate, string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return model.ExchangeRate{}, "empty currency code"
	}
	if !v.IsObject() {
		return model.ExchangeRate{}, "entry is not an object"
	}

	nums := [4]float64{}
	for i, field := range [4]string{"15m", "last", "buy", "sell"} {
		f := v.Get(field)
		if f.Type != gjson.Number {
			return model.ExchangeRate{}, "field " + field + " missing or not a number"
		}
		nums[i] = f.Float()
	}
	symbol := v.Get("symbol")
	if symbol.Type != gjson.String {
		return model.ExchangeRate{}, "field symbol missing or not a string"
	}

	return model.ExchangeRate{
		CurrencyCode: code,
		Rate15m:      nums[0],
		RateLast:     nums[1],
		RateBuy:      nums[2],
		RateSell:     nums[3],
		Symbol:       symbol.String(),
	}, ""
}
