package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scraper-admin/internal/models"
	"scraper-admin/internal/service"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type JobRunner interface {
	RunAction(ctx context.Context, id int, action models.JobAction) (*models.JobActionResult, error)
}

// JobActionTaskHandler forwards queued job actions to the image distribution service.
type JobActionTaskHandler struct {
	jobs   JobRunner
	redis  *redis.Client
	logger *logrus.Logger
}

func NewJobActionTaskHandler(jobs JobRunner, redis *redis.Client, logger *logrus.Logger) *JobActionTaskHandler {
	return &JobActionTaskHandler{
		jobs:   jobs,
		redis:  redis,
		logger: logger,
	}
}

// JobActionStatusKey holds the outcome of the last queued action for a job.
func JobActionStatusKey(jobID int, action models.JobAction) string {
	return fmt.Sprintf("job:action:%d:%s", jobID, action)
}

func (h *JobActionTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload JobActionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.WithFields(logrus.Fields{"job_id": payload.JobID, "action": payload.Action})
	log.Info("Running queued job action")

	result, err := h.jobs.RunAction(ctx, payload.JobID, payload.Action)
	if err != nil {
		h.setStatus(ctx, payload, "failed: "+err.Error())
		if errors.Is(err, service.ErrUnknownJobAction) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		log.WithError(err).Warn("Job action failed")
		return err
	}

	h.setStatus(ctx, payload, result.Message)
	return nil
}

func (h *JobActionTaskHandler) setStatus(ctx context.Context, payload JobActionPayload, status string) {
	if h.redis == nil {
		return
	}
	key := JobActionStatusKey(payload.JobID, payload.Action)
	if err := h.redis.Set(ctx, key, status, 24*time.Hour).Err(); err != nil {
		h.logger.WithError(err).Warn("Failed to store job action status")
	}
}
