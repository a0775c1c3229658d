package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/inventory"
	jobmetrics "github.com/meridian-pos/meridian/internal/jobs"
)

// LowStockPort lists products at or below their reorder point.
type LowStockPort interface {
	LowStock(ctx context.Context, orgID int64) ([]inventory.LowStockItem, error)
}

// LowStockScanJob walks every org and logs products that need reordering.
type LowStockScanJob struct {
	pool      *pgxpool.Pool
	inventory LowStockPort
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob constructs the job.
func NewLowStockScanJob(pool *pgxpool.Pool, inv LowStockPort, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{pool: pool, inventory: inv, logger: logger, metrics: metrics}
}

// Handle processes TaskStockLowScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StockLowScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("stock_low_scan")

	orgIDs, err := j.orgIDs(ctx)
	if err != nil {
		return tracker.End(err)
	}
	for _, orgID := range orgIDs {
		items, err := j.inventory.LowStock(ctx, orgID)
		if err != nil {
			j.logger.Error("low stock scan", slog.Int64("org_id", orgID), slog.Any("error", err))
			continue
		}
		j.metrics.SetLowStockCount(strconv.FormatInt(orgID, 10), len(items))
		for _, item := range items {
			j.logger.Warn("product below reorder point",
				slog.Int64("org_id", item.OrgID),
				slog.Int64("location_id", item.LocationID),
				slog.String("sku", item.SKU),
				slog.Int64("qty", item.Qty),
				slog.Int64("reorder_point", item.ReorderPoint))
		}
	}
	return tracker.End(nil)
}

func (j *LowStockScanJob) orgIDs(ctx context.Context) ([]int64, error) {
	rows, err := j.pool.Query(ctx, `SELECT id FROM orgs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
