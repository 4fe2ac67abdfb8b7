// Package jobs contains the background worker and its task definitions.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccountPurge hard-deletes accounts whose soft deletion has passed
	// the retention window.
	TaskAccountPurge = "accounts:purge"
)

// AccountPurgePayload optionally overrides the configured retention window.
type AccountPurgePayload struct {
	Retention time.Duration `json:"retention,omitempty"`
}

// NewAccountPurgeTask constructs an Asynq task for the account purge.
func NewAccountPurgeTask(payload AccountPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccountPurge, data), nil
}
