package connector

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/explorer-data/internal/logger"
)

func newRates(t *testing.T, handler http.HandlerFunc, l *slog.Logger) *Rates {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRates(RatesConfig{URL: srv.URL + "/ticker"}, l)
}

func TestRates_Fetch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := newRates(t, respond(`{
		"USD": {"15m": 67000.5, "last": 67000.5, "buy": 67000.5, "sell": 67000.5, "symbol": "USD"},
		"eur": {"15m": 61000, "last": 61001, "buy": 61002, "sell": 61003, "symbol": "EUR"},
		"BAD": {"15m": "n/a", "last": 1, "buy": 1, "sell": 1, "symbol": "B"},
		"NOSYM": {"15m": 1, "last": 1, "buy": 1, "sell": 1}
	}`), slog.New(slog.NewJSONHandler(&buf, nil)))

	rates, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)

	sort.Slice(rates, func(i, j int) bool { return rates[i].CurrencyCode < rates[j].CurrencyCode })
	require.Equal(t, "EUR", rates[0].CurrencyCode)
	require.Equal(t, 61000.0, rates[0].Rate15m)
	require.Equal(t, 61001.0, rates[0].RateLast)
	require.Equal(t, 61002.0, rates[0].RateBuy)
	require.Equal(t, 61003.0, rates[0].RateSell)
	require.Equal(t, "EUR", rates[0].Symbol)
	require.Equal(t, "USD", rates[1].CurrencyCode)

	require.Contains(t, buf.String(), "rates: skipping entry")
	require.Contains(t, buf.String(), `"currency":"BAD"`)
}

func TestRates_FetchDuplicateCodes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := newRates(t, respond(`{
		"usd": {"15m": 1, "last": 1, "buy": 1, "sell": 1, "symbol": "$"},
		"USD": {"15m": 2, "last": 2, "buy": 2, "sell": 2, "symbol": "$"},
		" Usd ": {"15m": 3, "last": 3, "buy": 3, "sell": 3, "symbol": "$"},
		"EUR": {"15m": 4, "last": 4, "buy": 4, "sell": 4, "symbol": "E"}
	}`), slog.New(slog.NewJSONHandler(&buf, nil)))

	rates, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)

	codes := make([]string, 0, len(rates))
	for _, rate := range rates {
		codes = append(codes, rate.CurrencyCode)
	}
	sort.Strings(codes)
	require.Equal(t, []string{"EUR", "USD"}, codes)

	require.Contains(t, buf.String(), "duplicate currency code USD")
	require.Contains(t, buf.String(), `"skipped":2`)
}

func TestRates_FetchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantIs  error
	}{
		{"empty object", respond(`{}`), ErrEmptyResult},
		{"top level array", respond(`[{"USD":{}}]`), ErrDecode},
		{"invalid json", respond(`{"USD":`), ErrDecode},
		{"every entry bad", respond(`{"USD":{"last":1},"EUR":42}`), ErrDecode},
		{"bad gateway", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }, ErrFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newRates(t, tt.handler, logger.Discard())
			rates, err := r.Fetch(context.Background())
			require.Nil(t, rates)
			require.ErrorIs(t, err, tt.wantIs)
		})
	}
}

func TestDecodeError(t *testing.T) {
	t.Parallel()

	err := decodeErr("rates", "bad %s", "thing")
	require.ErrorIs(t, err, ErrDecode)
	require.NotErrorIs(t, err, ErrFetch)
	require.Equal(t, "rates: decode failed: bad thing", err.Error())

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "rates", string(de.Source))
}
