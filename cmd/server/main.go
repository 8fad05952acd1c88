package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postforge/internal/config"
	"postforge/internal/database"
	"postforge/internal/handlers"
	"postforge/internal/lifecycle"
	"postforge/internal/logging"
	"postforge/internal/middleware"
	"postforge/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting PostForge Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required (mongodb://host:port/dbname)")
	}

	log.Println("🔗 Connecting to MongoDB...")
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	// Services
	ideaService := services.NewIdeaService(mongoDB)
	if err := ideaService.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("❌ Failed to ensure indexes: %v", err)
	}

	admission := lifecycle.NewAdmissionController(ideaService)
	guard := lifecycle.NewGuard(admission)

	generationService := services.NewGenerationService(
		cfg.GenerationBaseURL,
		cfg.GenerationAPIKey,
		cfg.CopyModel,
		cfg.ImageModel,
		cfg.ImageSize,
	)
	if !generationService.Configured() {
		log.Println("⚠️ GENERATION_API_KEY not set - content generation endpoints disabled")
	} else {
		log.Printf("✅ Generation service initialized (copy: %s, image: %s)", cfg.CopyModel, cfg.ImageModel)
	}

	automationService := services.NewAutomationService(cfg.AutomationWebhookURL)
	if automationService.Configured() {
		log.Println("✅ Automation webhook configured")
	} else {
		log.Println("⚠️ AUTOMATION_WEBHOOK_URL not set - scheduled ideas will not be delivered")
	}

	services.InitMetrics()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "PostForge v1.0",
		ReadTimeout:  180 * time.Second, // image generation can take a while
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  180 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB, payloads here are small JSON documents
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("postforge")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Load rate limiting configuration
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Public=%d/min, Generate=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.PublicReadMax,
		rateLimitConfig.GenerateMax,
	)

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		// Default to localhost for development
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", allowedOrigins)

	// Global API rate limiter
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongoDB)
	ideaHandler := handlers.NewIdeaHandler(ideaService, guard, generationService, automationService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	ideas := api.Group("/ideas")

	ideas.Get("/", middleware.PublicReadRateLimiter(rateLimitConfig), ideaHandler.List)
	ideas.Post("/", ideaHandler.Create)
	ideas.Get("/:id", middleware.PublicReadRateLimiter(rateLimitConfig), ideaHandler.Get)
	ideas.Patch("/:id", ideaHandler.Update)

	generateLimiter := middleware.GenerateRateLimiter(rateLimitConfig)
	ideas.Post("/:id/generate", generateLimiter, ideaHandler.Generate)
	ideas.Post("/:id/regenerate-text", generateLimiter, ideaHandler.RegenerateText)
	ideas.Post("/:id/regenerate-image", generateLimiter, ideaHandler.RegenerateImage)

	ideas.Post("/:id/approve", ideaHandler.Approve)
	ideas.Post("/:id/schedule", ideaHandler.Schedule)
	ideas.Post("/:id/mark-posted", ideaHandler.MarkPosted)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
