package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-pos/meridian/internal/jobs"
	"github.com/meridian-pos/meridian/internal/shared"
)

// MaintenancePruneJob removes stale Postgres-side state: expired idempotency
// keys and rows from the session registry. Live session expiry itself is the
// Redis TTL; the registry rows only exist for auditing active sessions.
type MaintenancePruneJob struct {
	pool        *pgxpool.Pool
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
	metrics     *jobmetrics.Metrics
}

// NewMaintenancePruneJob constructs the job.
func NewMaintenancePruneJob(pool *pgxpool.Pool, idem *shared.IdempotencyStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *MaintenancePruneJob {
	return &MaintenancePruneJob{pool: pool, idempotency: idem, logger: logger, metrics: metrics}
}

// Handle processes TaskMaintenancePrune tasks.
func (j *MaintenancePruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload MaintenancePrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("maintenance_prune")
	retention := payload.IdempotencyRetention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if err := j.idempotency.Cleanup(ctx, retention); err != nil {
		return tracker.End(err)
	}
	tag, err := j.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return tracker.End(err)
	}
	j.logger.Info("maintenance prune complete",
		slog.Duration("retention", retention),
		slog.Int64("sessions_pruned", tag.RowsAffected()))
	return tracker.End(nil)
}
