package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scraper-admin/internal/config"
	"scraper-admin/internal/database"
	"scraper-admin/internal/repository"
	"scraper-admin/internal/router"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadPath, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Initialize database
	db, err := database.NewMySQL(cfg)
	if err != nil {
		log.Warnf("Failed to connect to database: %v", err)
		log.Warn("Application will continue without database (sign in and history disabled)")
		db = nil
	} else {
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Initialize Redis (optional - for mapping sessions, snapshots and background jobs)
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v", err)
		log.Warn("Application will continue without Redis (in-memory sessions, background jobs disabled)")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Proxy health monitor
	endpoints, err := service.LoadProxyEndpoints(cfg.ProxyEndpointsFile)
	if err != nil {
		log.Fatalf("Failed to load proxy endpoints: %v", err)
	}
	var snapshotStore service.ProxySnapshotStore
	if redisClient != nil {
		snapshotStore = repository.NewProxySnapshotRepository(redisClient)
	}
	monitor := service.NewProxyMonitor(
		service.NewHealthChecker(cfg.ProxyCheckTimeout, cfg.ProxyCheckConcurrency, log),
		endpoints,
		snapshotStore,
		cfg.ProxyPollInterval,
		cfg.ProxyRefreshDebounce,
		log,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go monitor.Run(ctx)

	// Initialize template engine
	engine := html.New("./views", ".html")
	engine.Reload(cfg.AppEnv == "development")

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Views:        engine,
		BodyLimit:    cfg.UploadMaxSize,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Static files
	app.Static("/static", "./public")

	// Setup routes
	asynqClient := router.Setup(app, db, redisClient, cfg, monitor)
	if asynqClient != nil {
		defer asynqClient.Close()
	}

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\nGracefully shutting down...")
		stop()
		_ = app.Shutdown()
	}()

	// Start server
	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.Infof("Server starting on %s", port)
	if err := app.Listen(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Println("Server exited")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Check if request expects JSON
	if c.Accepts("text/html", "application/json") != "text/html" {
		return c.Status(code).JSON(utils.APIResponse{
			Success: false,
			Message: message,
			Error:   err.Error(),
		})
	}

	// Return HTML error page
	return c.Status(code).Render("error", fiber.Map{
		"Code":    code,
		"Message": message,
	})
}
