package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/explorer-data/internal/model"
)

var (
	// ErrStore matches every storage failure.
	ErrStore = errors.New("snapshot store unavailable")

	// ErrNoSnapshot is returned by Generation before the first replace.
	ErrNoSnapshot = errors.New("no snapshot yet")
)

// Generation describes one published snapshot.
type Generation struct {
	Source     model.Source `json:"source"`
	ID         uuid.UUID    `json:"generation_id"`
	RowCount   int          `json:"row_count"`
	ReplacedAt time.Time    `json:"replaced_at"`
}

// Table is the snapshot store contract for one source.
type Table[T any] interface {
	Source() model.Source

	// ReplaceAll atomically replaces the stored set with records.
	ReplaceAll(ctx context.Context, records []T) (Generation, error)

	// ReadLatest returns up to limit records in the source's order.
	// limit <= 0 or above the cap means the cap.
	ReadLatest(ctx context.Context, limit int) ([]T, error)

	// Generation returns the live generation or ErrNoSnapshot.
	Generation(ctx context.Context) (Generation, error)
}

// Error wraps a storage failure with the source and operation.
type Error struct {
	Source model.Source
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrStore.
func (e *Error) Is(target error) bool {
	return target == ErrStore
}

func clampLimit(limit, readCap int) int {
	if limit <= 0 || limit > readCap {
		return readCap
	}
	return limit
}
