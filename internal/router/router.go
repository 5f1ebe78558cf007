package router

import (
	"scraper-admin/internal/config"
	"scraper-admin/internal/handler"
	"scraper-admin/internal/middleware"
	"scraper-admin/internal/repository"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type handlers struct {
	auth   *handler.AuthHandler
	users  *handler.UserHandler
	upload *handler.UploadHandler
	proxy  *handler.ProxyHandler
	job    *handler.JobHandler
	page   *handler.PageHandler
}

// Setup wires every route. db and redis may be nil; the features that need
// them then answer 503 or fall back to in-process state.
func Setup(app *fiber.App, db *sqlx.DB, redis *redis.Client, cfg *config.Config, monitor *service.ProxyMonitor) *asynq.Client {
	h, asynqClient := buildHandlers(db, redis, cfg, monitor)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"app":      cfg.AppName,
			"database": db != nil,
			"redis":    redis != nil,
		})
	})

	// Web routes (HTML)
	web := app.Group("")
	setupWebRoutes(web, h, cfg, db != nil)

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, h, cfg, db != nil)

	return asynqClient
}

func buildHandlers(db *sqlx.DB, redis *redis.Client, cfg *config.Config, monitor *service.ProxyMonitor) (*handlers, *asynq.Client) {
	logger := utils.GetLogger()

	// Initialize repositories
	var sessionStore service.MappingSessionStore
	if redis != nil {
		sessionStore = repository.NewRedisMappingSessionStore(redis, cfg.MappingSessionTTL)
	} else {
		sessionStore = repository.NewMemoryMappingSessionStore()
	}

	var userRepo *repository.UserRepository
	var submissionRepo *repository.SubmissionRepository
	var recorder service.SubmissionRecorder
	if db != nil {
		userRepo = repository.NewUserRepository(db)
		submissionRepo = repository.NewSubmissionRepository(db)
		recorder = submissionRepo
	}

	// Initialize services
	excelService := service.NewExcelService()
	submitter := service.NewSubmissionClient(cfg.ScraperBackendURL, cfg.SubmitTimeout, logger)
	mappingService := service.NewMappingService(sessionStore, excelService, submitter, recorder, service.MappingOptions{
		PreviewRows:        cfg.PreviewRows,
		HeaderScanRows:     cfg.HeaderScanRows,
		DefaultSendToEmail: cfg.DefaultSendToEmail,
	}, logger)
	jobClient := service.NewJobClient(cfg.ScraperBackendURL, cfg.ImageDistroURL, cfg.SubmitTimeout, logger)

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redis != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
	}

	h := &handlers{
		upload: handler.NewUploadHandler(mappingService, excelService, submissionRepo, cfg),
		proxy:  handler.NewProxyHandler(monitor, excelService),
		job:    handler.NewJobHandler(jobClient, asynqClient),
		page:   handler.NewPageHandler(monitor, cfg),
	}
	if userRepo != nil {
		h.auth = handler.NewAuthHandler(service.NewAuthService(userRepo, cfg), cfg)
		h.users = handler.NewUserHandler(service.NewUserService(userRepo))
	}
	return h, asynqClient
}

func setupWebRoutes(router fiber.Router, h *handlers, cfg *config.Config, hasDB bool) {
	// Authentication pages
	if hasDB {
		router.Get("/login", h.auth.ShowLogin)
		router.Post("/login", h.auth.WebLogin)
		router.Post("/logout", h.auth.WebLogout)
	} else {
		router.Get("/login", func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Database is not available, sign in is disabled")
		})
	}

	pages := router.Group("", middleware.WebAuthMiddleware(cfg))
	pages.Get("/", h.page.Dashboard)
	pages.Get("/proxies", h.proxy.Page)
	pages.Get("/uploads/new", h.page.NewUpload)
	pages.Get("/jobs/:id", h.job.Page)
}
