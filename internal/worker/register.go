package worker

import (
	"scraper-admin/internal/config"
	"scraper-admin/internal/repository"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

func RegisterHandlers(mux *asynq.ServeMux, redis *redis.Client, cfg *config.Config) error {
	logger := utils.GetLogger()

	endpoints, err := service.LoadProxyEndpoints(cfg.ProxyEndpointsFile)
	if err != nil {
		return err
	}

	jobClient := service.NewJobClient(cfg.ScraperBackendURL, cfg.ImageDistroURL, cfg.SubmitTimeout, logger)
	checker := service.NewHealthChecker(cfg.ProxyCheckTimeout, cfg.ProxyCheckConcurrency, logger)

	// Register task handlers
	mux.HandleFunc(TypeJobAction, NewJobActionTaskHandler(jobClient, redis, logger).Handle)
	mux.HandleFunc(TypeProxyHealthCheck, NewHealthCheckTaskHandler(
		checker, endpoints, repository.NewProxySnapshotRepository(redis), logger,
	).Handle)
	return nil
}
