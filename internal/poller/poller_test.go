package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/explorer-data/internal/connector"
	"github.com/rickgao/explorer-data/internal/logger"
	"github.com/rickgao/explorer-data/internal/model"
	"github.com/rickgao/explorer-data/internal/store"
)

// scriptedConnector returns one scripted result per Fetch call, repeating
// the last one when the script runs out.
type scriptedConnector struct {
	source model.Source

	mu     sync.Mutex
	calls  int
	script []func() ([]model.Block, error)
}

func (c *scriptedConnector) Source() model.Source { return c.source }

func (c *scriptedConnector) Fetch(ctx context.Context) ([]model.Block, error) {
	c.mu.Lock()
	i := min(c.calls, len(c.script)-1)
	c.calls++
	step := c.script[i]
	c.mu.Unlock()
	return step()
}

func (c *scriptedConnector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func ok(heights ...int64) func() ([]model.Block, error) {
	return func() ([]model.Block, error) {
		out := make([]model.Block, len(heights))
		for i, h := range heights {
			out[i] = model.Block{Height: h}
		}
		return out, nil
	}
}

func fail(err error) func() ([]model.Block, error) {
	return func() ([]model.Block, error) { return nil, err }
}

// failingTable wraps a table and fails replaces while failing is set.
type failingTable struct {
	store.Table[model.Block]
	failing bool
}

func (t *failingTable) ReplaceAll(ctx context.Context, records []model.Block) (store.Generation, error) {
	if t.failing {
		return store.Generation{}, &store.Error{Source: model.SourceBlocks, Op: "replace", Err: errors.New("db down")}
	}
	return t.Table.ReplaceAll(ctx, records)
}

func readHeights(t *testing.T, tbl store.Table[model.Block]) []int64 {
	t.Helper()
	got, err := tbl.ReadLatest(context.Background(), 0)
	require.NoError(t, err)
	out := make([]int64, len(got))
	for i, b := range got {
		out[i] = b.Height
	}
	return out
}

func newTestPoller(conn *scriptedConnector, tbl store.Table[model.Block], clock clockwork.Clock) *Poller[model.Block] {
	return New(Config{Interval: time.Minute, Clock: clock}, conn, tbl, logger.Discard())
}

func TestRunOnce_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step func() ([]model.Block, error)
		want Outcome
	}{
		{"ok", ok(1, 2), OutcomeOK},
		{"empty", fail(fmt.Errorf("blocks: %w", connector.ErrEmptyResult)), OutcomeEmpty},
		{"fetch", fail(fmt.Errorf("blocks: %w: boom", connector.ErrFetch)), OutcomeFetchError},
		{"decode", fail(&connector.DecodeError{Source: model.SourceBlocks, Err: errors.New("bad")}), OutcomeDecodeError},
		{"panic", func() ([]model.Block, error) { panic("connector bug") }, OutcomePanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){tt.step}}
			tbl := store.NewMemTable(store.BlockSchema(100))
			p := newTestPoller(conn, tbl, clockwork.NewFakeClock())

			require.Equal(t, tt.want, p.RunOnce(context.Background()))
			require.Equal(t, StateIdle, p.State())

			st := p.Status()
			require.Equal(t, int64(1), st.Cycles)
			require.Equal(t, tt.want, st.LastOutcome)
		})
	}
}

func TestRunOnce_EmptyResultKeepsSnapshot(t *testing.T) {
	t.Parallel()

	conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){
		ok(100, 101, 102),
		fail(fmt.Errorf("blocks: %w", connector.ErrEmptyResult)),
	}}
	tbl := store.NewMemTable(store.BlockSchema(100))
	p := newTestPoller(conn, tbl, clockwork.NewFakeClock())
	ctx := context.Background()

	require.Equal(t, OutcomeOK, p.RunOnce(ctx))
	gen, err := tbl.Generation(ctx)
	require.NoError(t, err)

	require.Equal(t, OutcomeEmpty, p.RunOnce(ctx))
	require.Equal(t, []int64{102, 101, 100}, readHeights(t, tbl))

	after, err := tbl.Generation(ctx)
	require.NoError(t, err)
	require.Equal(t, gen.ID, after.ID)

	st := p.Status()
	require.Empty(t, st.LastError)
	require.Equal(t, gen.ID, st.LastGeneration)
}

func TestRunOnce_FailuresKeepSnapshot(t *testing.T) {
	t.Parallel()

	conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){
		ok(1, 2),
		fail(fmt.Errorf("blocks: %w: timeout", connector.ErrFetch)),
		ok(3, 4),
	}}
	tbl := &failingTable{Table: store.NewMemTable(store.BlockSchema(100))}
	p := newTestPoller(conn, tbl, clockwork.NewFakeClock())
	ctx := context.Background()

	require.Equal(t, OutcomeOK, p.RunOnce(ctx))
	require.Equal(t, OutcomeFetchError, p.RunOnce(ctx))
	require.Equal(t, []int64{2, 1}, readHeights(t, tbl))

	tbl.failing = true
	require.Equal(t, OutcomeStoreError, p.RunOnce(ctx))
	require.Equal(t, []int64{2, 1}, readHeights(t, tbl))
	require.Contains(t, p.Status().LastError, "db down")
}

func TestRun_FixedDelayCadence(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){
		ok(100, 101, 102),
		ok(103, 104, 105),
	}}
	tbl := store.NewMemTable(store.BlockSchema(100), store.WithClock(clock))
	p := newTestPoller(conn, tbl, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	// First cycle runs immediately, then the poller sleeps.
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	require.Equal(t, 1, conn.Calls())
	require.Equal(t, []int64{102, 101, 100}, readHeights(t, tbl))
	require.Equal(t, StateSleeping, p.State())

	// Not yet due.
	clock.Advance(59 * time.Second)
	require.Equal(t, 1, conn.Calls())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return conn.Calls() == 2 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	require.Equal(t, []int64{105, 104, 103}, readHeights(t, tbl))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Equal(t, StateStopped, p.State())
	require.Equal(t, int64(2), p.Status().Cycles)
}

func TestRun_ContinuesAfterFailures(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){
		func() ([]model.Block, error) { panic("boom") },
		fail(&connector.DecodeError{Source: model.SourceBlocks, Err: errors.New("bad")}),
		ok(7),
	}}
	tbl := store.NewMemTable(store.BlockSchema(100))
	p := newTestPoller(conn, tbl, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	for i := range 2 {
		require.NoError(t, clock.BlockUntilContext(waitCtx, 1), "cycle %d", i)
		clock.Advance(time.Minute)
	}
	require.Eventually(t, func() bool { return p.Status().LastOutcome == OutcomeOK }, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, []int64{7}, readHeights(t, tbl))

	cancel()
	require.NoError(t, <-done)
}

func TestRun_CancelDuringFetch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){
		func() ([]model.Block, error) {
			cancel()
			return nil, fmt.Errorf("blocks: %w: %w", connector.ErrFetch, context.Canceled)
		},
	}}
	p := newTestPoller(conn, store.NewMemTable(store.BlockSchema(100)), clockwork.NewFakeClock())

	require.NoError(t, p.Run(ctx))
	require.Equal(t, int64(0), p.Status().Cycles)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "fetching", StateFetching.String())
	require.Equal(t, "replacing", StateReplacing.String())
	require.Equal(t, "sleeping", StateSleeping.String())
	require.Equal(t, "stopped", StateStopped.String())
	require.Equal(t, "unknown", State(99).String())
}

func TestRunOnce_LogsWithComponentPrefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	conn := &scriptedConnector{source: model.SourceBlocks, script: []func() ([]model.Block, error){
		ok(1), fail(fmt.Errorf("blocks: %w", connector.ErrFetch)),
	}}
	p := New(Config{Interval: time.Minute, Clock: clockwork.NewFakeClock()}, conn, store.NewMemTable(store.BlockSchema(100)), l)

	require.Equal(t, OutcomeOK, p.RunOnce(context.Background()))
	require.Equal(t, OutcomeFetchError, p.RunOnce(context.Background()))

	var msgs []string
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line struct {
			Msg    string `json:"msg"`
			Source string `json:"source"`
		}
		require.NoError(t, dec.Decode(&line))
		require.Equal(t, "blocks", line.Source, line.Msg)
		msgs = append(msgs, line.Msg)
	}
	require.Equal(t, []string{"poller: cycle complete", "poller: cycle failed: fetch"}, msgs)
}
