package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFilterWarmup refreshes the cached dashboard filter options.
	TaskFilterWarmup = "reports:filters:warmup"
)

// FilterWarmupPayload describes why a warmup was requested.
type FilterWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewFilterWarmupTask constructs an Asynq task for the filter warmup.
func NewFilterWarmupTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	data, err := json.Marshal(FilterWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFilterWarmup, data), nil
}
