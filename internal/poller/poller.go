package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rickgao/explorer-data/internal/connector"
	"github.com/rickgao/explorer-data/internal/metrics"
	"github.com/rickgao/explorer-data/internal/model"
	"github.com/rickgao/explorer-data/internal/store"
)

// Config holds poller configuration.
type Config struct {
	Interval time.Duration   // delay after each cycle completes
	Clock    clockwork.Clock // defaults to the real clock
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
	}
}

// Status is a point-in-time view of a poller, served by /api/status.
type Status struct {
	Source         model.Source  `json:"source"`
	State          string        `json:"state"`
	Interval       time.Duration `json:"interval_ns"`
	Cycles         int64         `json:"cycles"`
	LastOutcome    Outcome       `json:"last_outcome,omitempty"`
	LastError      string        `json:"last_error,omitempty"`
	LastAttempt    time.Time     `json:"last_attempt,omitzero"`
	LastSuccess    time.Time     `json:"last_success,omitzero"`
	LastGeneration uuid.UUID     `json:"last_generation,omitzero"`
}

// Poller periodically replaces one table with one connector's snapshot.
type Poller[T any] struct {
	cfg       Config
	clock     clockwork.Clock
	connector connector.Connector[T]
	table     store.Table[T]
	logger    *slog.Logger

	state atomic.Int32

	mu     sync.Mutex
	status Status
}

// New creates a new Poller. The connector and table must serve the same source.
func New[T any](cfg Config, conn connector.Connector[T], table store.Table[T], logger *slog.Logger) *Poller[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	source := conn.Source()
	return &Poller[T]{
		cfg:       cfg,
		clock:     clock,
		connector: conn,
		table:     table,
		logger:    logger.With("source", source),
		status: Status{
			Source:   source,
			Interval: cfg.Interval,
		},
	}
}

// Source returns the source this poller serves.
func (p *Poller[T]) Source() model.Source {
	return p.connector.Source()
}

// State returns the current cycle state.
func (p *Poller[T]) State() State {
	return State(p.state.Load())
}

// Status returns a copy of the poller's status.
func (p *Poller[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.State = p.State().String()
	return s
}

// Run polls until ctx is cancelled. Cycle failures are logged, never
// returned; Run returns nil on cancellation.
func (p *Poller[T]) Run(ctx context.Context) error {
	p.logger.Info("poller: started", "interval", p.cfg.Interval)
	defer func() {
		p.setState(StateStopped)
		p.logger.Info("poller: stopped")
	}()

	for {
		p.RunOnce(ctx)

		if ctx.Err() != nil {
			return nil
		}

		p.setState(StateSleeping)
		select {
		case <-ctx.Done():
			return nil
		case <-p.clock.After(p.cfg.Interval):
		}
	}
}

// RunOnce performs one fetch/replace cycle and reports how it ended.
func (p *Poller[T]) RunOnce(ctx context.Context) (outcome Outcome) {
	start := p.clock.Now()
	var (
		cycleErr error
		gen      store.Generation
	)

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanic
			cycleErr = fmt.Errorf("panic: %v", r)
			p.logger.Error("poller: cycle panicked", "panic", r, "stack", string(debug.Stack()))
		}
		p.record(outcome, cycleErr, start, gen)
		p.setState(StateIdle)
	}()

	p.setState(StateFetching)
	records, err := p.connector.Fetch(ctx)
	if err != nil {
		cycleErr = err
		switch {
		case ctx.Err() != nil:
			p.logger.Debug("poller: cycle interrupted", "err", err)
			return OutcomeCancelled
		case errors.Is(err, connector.ErrEmptyResult):
			p.logger.Info("poller: source returned no records, keeping current snapshot")
			return OutcomeEmpty
		case errors.Is(err, connector.ErrDecode):
			p.logger.Error("poller: cycle failed: decode", "err", err)
			return OutcomeDecodeError
		default:
			p.logger.Warn("poller: cycle failed: fetch", "err", err)
			return OutcomeFetchError
		}
	}

	p.setState(StateReplacing)
	gen, err = p.table.ReplaceAll(ctx, records)
	if err != nil {
		cycleErr = err
		if ctx.Err() != nil {
			p.logger.Debug("poller: cycle interrupted", "err", err)
			return OutcomeCancelled
		}
		p.logger.Error("poller: cycle failed: store", "err", err, "records", len(records))
		return OutcomeStoreError
	}

	p.logger.Info("poller: cycle complete",
		"records", gen.RowCount,
		"generation", gen.ID,
		"duration", p.clock.Since(start),
	)
	return OutcomeOK
}

func (p *Poller[T]) setState(s State) {
	p.state.Store(int32(s))
}

// record updates status and metrics for a finished cycle. Cancelled cycles
// are not counted.
func (p *Poller[T]) record(outcome Outcome, err error, start time.Time, gen store.Generation) {
	if outcome == OutcomeCancelled {
		return
	}
	source := string(p.status.Source)
	now := p.clock.Now()

	metrics.PollCyclesTotal.WithLabelValues(source, string(outcome)).Inc()
	metrics.PollCycleDuration.WithLabelValues(source).Observe(now.Sub(start).Seconds())

	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.Cycles++
	p.status.LastOutcome = outcome
	p.status.LastAttempt = start.UTC()
	p.status.LastError = ""
	if err != nil && outcome != OutcomeEmpty {
		p.status.LastError = err.Error()
	}
	if outcome == OutcomeOK {
		p.status.LastSuccess = now.UTC()
		p.status.LastGeneration = gen.ID
		metrics.PollLastSuccess.WithLabelValues(source).Set(float64(now.Unix()))
	}
}
