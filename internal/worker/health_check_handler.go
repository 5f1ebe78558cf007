package worker

import (
	"context"

	"scraper-admin/internal/models"
	"scraper-admin/internal/service"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// HealthCheckTaskHandler runs one proxy health batch per scheduled task and
// publishes it for the web dashboards.
type HealthCheckTaskHandler struct {
	checker   service.BatchChecker
	endpoints []models.ProxyEndpoint
	store     service.ProxySnapshotStore
	logger    *logrus.Logger
}

func NewHealthCheckTaskHandler(
	checker service.BatchChecker,
	endpoints []models.ProxyEndpoint,
	store service.ProxySnapshotStore,
	logger *logrus.Logger,
) *HealthCheckTaskHandler {
	return &HealthCheckTaskHandler{
		checker:   checker,
		endpoints: endpoints,
		store:     store,
		logger:    logger,
	}
}

func (h *HealthCheckTaskHandler) Handle(ctx context.Context, _ *asynq.Task) error {
	snapshot := h.checker.CheckAll(ctx, h.endpoints)
	if err := ctx.Err(); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"healthy":   snapshot.Healthy,
		"unhealthy": snapshot.Unhealthy,
	}).Info("Scheduled proxy health check completed")

	return h.store.SaveSnapshot(ctx, snapshot)
}
