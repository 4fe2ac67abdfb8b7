package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const purgeBatchSize = 200

// Purger hard-deletes accounts that have been soft-deleted longer than the
// retention window. Books cascade in the database via their foreign key.
type Purger struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	retention time.Duration
	metrics   *Metrics
}

// NewPurger constructs a Purger. metrics may be nil.
func NewPurger(pool *pgxpool.Pool, logger *slog.Logger, retention time.Duration) *Purger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Purger{pool: pool, logger: logger, retention: retention}
}

// WithMetrics attaches job instrumentation.
func (p *Purger) WithMetrics(m *Metrics) *Purger {
	p.metrics = m
	return p
}

// Run removes all expired soft-deleted accounts and reports how many rows
// were purged. Batches are deleted concurrently; each delete is keyed by ID,
// so the batches never overlap.
func (p *Purger) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-p.retention)

	rows, err := p.pool.Query(ctx,
		`SELECT id FROM accounts WHERE deleted_at IS NOT NULL AND deleted_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var purged atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(ids); start += purgeBatchSize {
		end := min(start+purgeBatchSize, len(ids))
		batch := ids[start:end]
		g.Go(func() error {
			tag, err := p.pool.Exec(gctx, `DELETE FROM accounts WHERE id = ANY($1)`, batch)
			if err != nil {
				return err
			}
			purged.Add(tag.RowsAffected())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return purged.Load(), err
	}

	p.logger.Info("account purge completed",
		slog.Int64("purged", purged.Load()),
		slog.Time("cutoff", cutoff))
	return purged.Load(), nil
}

// HandleTask processes TaskAccountPurge tasks.
func (p *Purger) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload AccountPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	purger := p
	if payload.Retention > 0 {
		purger = NewPurger(p.pool, p.logger, payload.Retention).WithMetrics(p.metrics)
	}
	tracker := p.metrics.Track(TaskAccountPurge)
	purged, err := purger.Run(ctx)
	p.metrics.AddPurged(purged)
	return tracker.End(err)
}
