package worker

import (
	"encoding/json"
	"time"

	"scraper-admin/internal/models"

	"github.com/hibiken/asynq"
)

const (
	TypeJobAction        = "job:action"
	TypeProxyHealthCheck = "proxy:health_check"
)

type JobActionPayload struct {
	JobID  int              `json:"job_id"`
	Action models.JobAction `json:"action"`
}

func NewJobActionTask(jobID int, action models.JobAction) (*asynq.Task, error) {
	payload, err := json.Marshal(JobActionPayload{JobID: jobID, Action: action})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeJobAction, payload, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// NewProxyHealthCheckTask is registered with the scheduler; it never retries
// since the next tick runs a fresh batch anyway.
func NewProxyHealthCheckTask() *asynq.Task {
	return asynq.NewTask(TypeProxyHealthCheck, nil, asynq.MaxRetry(0), asynq.Unique(25*time.Second))
}
