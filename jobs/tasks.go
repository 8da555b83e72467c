package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/coopfinance/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskERPSync refreshes one tenant's reports and ratios for a period.
	TaskERPSync = "erp:sync"
	// TaskERPSyncAll fans an ERPSync task out to every configured tenant.
	TaskERPSyncAll = "erp:sync_all"
)

// ERPSyncPayload identifies the tenant and period to sync. A zero year or
// month selects the current UTC month when the task runs.
type ERPSyncPayload struct {
	TenantID string `json:"tenant_id"`
	Year     int    `json:"year,omitempty"`
	Month    int    `json:"month,omitempty"`
}

// NewERPSyncTask constructs an erp:sync task.
func NewERPSyncTask(tenantID string, period shared.Period) (*asynq.Task, error) {
	data, err := json.Marshal(ERPSyncPayload{TenantID: tenantID, Year: period.Year, Month: period.Month})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskERPSync, data), nil
}

// NewERPSyncAllTask constructs the scheduler task.
func NewERPSyncAllTask() *asynq.Task {
	return asynq.NewTask(TaskERPSyncAll, nil)
}
