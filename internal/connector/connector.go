package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/explorer-data/internal/model"
)

var (
	ErrFetch       = errors.New("fetch failed")
	ErrDecode      = errors.New("decode failed")
	ErrEmptyResult = errors.New("empty result")
)

// Connector produces a full snapshot of one source's records.
type Connector[T any] interface {
	Source() model.Source
	Fetch(ctx context.Context) ([]T, error)
}

// DecodeError reports a response body that could not be mapped to records.
type DecodeError struct {
	Source model.Source
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Source, ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErr(source model.Source, format string, args ...any) error {
	return &DecodeError{Source: source, Err: fmt.Errorf(format, args...)}
}

func fetchErr(source model.Source, err error) error {
	return fmt.Errorf("%s: %w: %w", source, ErrFetch, err)
}

func emptyErr(source model.Source) error {
	return fmt.Errorf("%s: %w", source, ErrEmptyResult)
}

// withTimeout bounds a single fetch. Zero leaves ctx unchanged.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
