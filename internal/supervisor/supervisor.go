package supervisor

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived unit. Run blocks until ctx is cancelled and
// returns a non-nil error only on fatal failure.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type unit struct {
	name   string
	runner Runner
}

// Supervisor runs a fixed set of units.
type Supervisor struct {
	units  []unit
	logger *slog.Logger
}

// New creates an empty Supervisor.
func New(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger}
}

// Add registers a unit. Must be called before Run.
func (s *Supervisor) Add(name string, r Runner) {
	s.units = append(s.units, unit{name: name, runner: r})
}

// Units returns the registered unit names in start order.
func (s *Supervisor) Units() []string {
	names := make([]string, len(s.units))
	for i, u := range s.units {
		names[i] = u.name
	}
	return names
}

// Run starts every unit and waits. The first fatal error cancels the
// remaining units and is returned.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, u := range s.units {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s: panic: %v", u.name, r)
				}
			}()

			s.logger.Debug("supervisor: unit starting", "unit", u.name)
			if err := u.runner.Run(gctx); err != nil {
				s.logger.Error("supervisor: unit failed", "unit", u.name, "err", err)
				return fmt.Errorf("%s: %w", u.name, err)
			}
			s.logger.Debug("supervisor: unit stopped", "unit", u.name)
			return nil
		})
	}

	s.logger.Info("supervisor: started", "units", len(s.units))
	err := g.Wait()
	s.logger.Info("supervisor: stopped")
	return err
}
