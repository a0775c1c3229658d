package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockLowScan triggers a reorder-point scan across all orgs.
	TaskStockLowScan = "stock:low_scan"
	// TaskMaintenancePrune removes expired idempotency keys and stale audit rows.
	TaskMaintenancePrune = "maintenance:prune"
)

// StockLowScanPayload carries scheduling metadata for the reorder scan.
type StockLowScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockLowScanTask constructs an Asynq task for the reorder-point scan.
func NewStockLowScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockLowScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, body, asynq.Queue(QueueDefault)), nil
}

// MaintenancePrunePayload configures retention for the prune task.
type MaintenancePrunePayload struct {
	IdempotencyRetention time.Duration `json:"idempotency_retention"`
}

// NewMaintenancePruneTask constructs an Asynq task for maintenance pruning.
func NewMaintenancePruneTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(MaintenancePrunePayload{IdempotencyRetention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMaintenancePrune, body, asynq.Queue(QueueDefault)), nil
}
