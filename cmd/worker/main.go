package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scraper-admin/internal/config"
	"scraper-admin/internal/database"
	"scraper-admin/internal/utils"
	"scraper-admin/internal/worker"

	"github.com/hibiken/asynq"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Redis
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPassword,
		DB:       cfg.AsynqRedisDB,
	}

	// Create Asynq server
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.WithError(err).WithField("task", task.Type()).Error("Error processing task")
			}),
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	if err := worker.RegisterHandlers(mux, redisClient, cfg); err != nil {
		log.Fatalf("Failed to register task handlers: %v", err)
	}

	// Periodic proxy health checks
	scheduler := asynq.NewScheduler(redisOpt, nil)
	interval := fmt.Sprintf("@every %s", cfg.ProxyPollInterval)
	if _, err := scheduler.Register(interval, worker.NewProxyHealthCheckTask()); err != nil {
		log.Fatalf("Failed to schedule proxy health check: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\nGracefully shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	// Start worker
	log.Infof("Worker starting with concurrency: %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	fmt.Println("Worker exited")
}
