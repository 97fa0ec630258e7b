package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/rickgao/explorer-data/internal/metrics"
	"github.com/rickgao/explorer-data/internal/model"
)

// PGTable stores one source's snapshot in PostgreSQL.
//
// ReplaceAll runs in a single transaction: advisory lock on the source,
// DELETE, COPY of the new rows, generation upsert, commit. Readers keep
// seeing the previous rows until commit. DELETE is used rather than
// TRUNCATE so readers never queue behind an ACCESS EXCLUSIVE lock.
type PGTable[T any] struct {
	pool   *pgxpool.Pool
	schema Schema[T]
	clock  clockwork.Clock
	logger *slog.Logger

	// Serializes replaces from this process; the advisory lock covers
	// other processes sharing the database.
	mu sync.Mutex

	selectSQL string
}

// NewPGTable creates a table handle. The schema's table must exist.
func NewPGTable[T any](pool *pgxpool.Pool, schema Schema[T], opts ...Option) *PGTable[T] {
	o := buildOptions(opts)

	selectSQL := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT $1",
		strings.Join(quoteAll(schema.readColumns()), ", "),
		pgx.Identifier{schema.Table}.Sanitize(),
		schema.OrderBy,
	)

	return &PGTable[T]{
		pool:      pool,
		schema:    schema,
		clock:     o.clock,
		logger:    o.logger,
		selectSQL: selectSQL,
	}
}

func (t *PGTable[T]) Source() model.Source { return t.schema.Source }

// ReplaceAll atomically replaces every row with records.
func (t *PGTable[T]) ReplaceAll(ctx context.Context, records []T) (gen Generation, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.clock.Now()
	defer func() { t.observe("replace", start, err) }()

	gen = Generation{
		Source:     t.schema.Source,
		ID:         uuid.New(),
		RowCount:   len(records),
		ReplacedAt: start.UTC(),
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Generation{}, t.wrap("replace", fmt.Errorf("begin tx: %w", err))
	}
	// No-op once committed.
	defer tx.Rollback(context.WithoutCancel(ctx))

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(t.schema.Source)); err != nil {
		return Generation{}, t.wrap("replace", fmt.Errorf("advisory lock: %w", err))
	}

	tag, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{t.schema.Table}.Sanitize())
	if err != nil {
		return Generation{}, t.wrap("replace", fmt.Errorf("delete previous: %w", err))
	}
	deleted := tag.RowsAffected()

	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = append(t.schema.Values(rec), gen.ID, gen.ReplacedAt)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{t.schema.Table}, t.schema.writeColumns(), pgx.CopyFromRows(rows))
	if err != nil {
		return Generation{}, t.wrap("replace", fmt.Errorf("copy rows: %w", err))
	}
	if int(copied) != len(records) {
		return Generation{}, t.wrap("replace", fmt.Errorf("copy rows: wrote %d of %d", copied, len(records)))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshot_generations (source, generation_id, row_count, replaced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source) DO UPDATE
		SET generation_id = EXCLUDED.generation_id,
		    row_count = EXCLUDED.row_count,
		    replaced_at = EXCLUDED.replaced_at
	`, string(gen.Source), gen.ID, gen.RowCount, gen.ReplacedAt)
	if err != nil {
		return Generation{}, t.wrap("replace", fmt.Errorf("upsert generation: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return Generation{}, t.wrap("replace", fmt.Errorf("commit: %w", err))
	}

	metrics.SnapshotRows.WithLabelValues(string(t.schema.Source)).Set(float64(gen.RowCount))
	t.logger.Debug("store: snapshot replaced",
		"source", t.schema.Source,
		"generation", gen.ID,
		"rows", gen.RowCount,
		"deleted", deleted,
		"duration", t.clock.Since(start),
	)
	return gen, nil
}

// ReadLatest returns up to limit rows of the live generation.
func (t *PGTable[T]) ReadLatest(ctx context.Context, limit int) (out []T, err error) {
	start := t.clock.Now()
	defer func() { t.observe("read", start, err) }()

	rows, err := t.pool.Query(ctx, t.selectSQL, clampLimit(limit, t.schema.Cap))
	if err != nil {
		return nil, t.wrap("read", fmt.Errorf("query: %w", err))
	}

	out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, t.wrap("read", fmt.Errorf("collect rows: %w", err))
	}
	return out, nil
}

// Generation returns the live generation's metadata.
func (t *PGTable[T]) Generation(ctx context.Context) (Generation, error) {
	gen := Generation{Source: t.schema.Source}
	err := t.pool.QueryRow(ctx, `
		SELECT generation_id, row_count, replaced_at
		FROM snapshot_generations
		WHERE source = $1
	`, string(t.schema.Source)).Scan(&gen.ID, &gen.RowCount, &gen.ReplacedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Generation{}, ErrNoSnapshot
	}
	if err != nil {
		return Generation{}, t.wrap("generation", err)
	}
	gen.ReplacedAt = gen.ReplacedAt.UTC()
	return gen, nil
}

func (t *PGTable[T]) wrap(op string, err error) error {
	return &Error{Source: t.schema.Source, Op: op, Err: err}
}

func (t *PGTable[T]) observe(op string, start time.Time, err error) {
	source := string(t.schema.Source)
	metrics.StoreOpsTotal.WithLabelValues(source, op, metrics.Result(err)).Inc()
	metrics.StoreOpDuration.WithLabelValues(source, op).Observe(t.clock.Since(start).Seconds())
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgx.Identifier{c}.Sanitize()
	}
	return out
}
