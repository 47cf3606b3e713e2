package main

import (
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"aquacoop_app_echo/internal/handlers"
	appmw "aquacoop_app_echo/internal/middleware"
	"aquacoop_app_echo/internal/services"
	"aquacoop_app_echo/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Storage: Postgres when configured, in-memory otherwise (useful for
	// demos and local development, data is lost on restart).
	var st store.Store
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := services.InitDB(databaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		st = store.NewGormStore(db)
	} else {
		log.Println("Warning: DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	// Redis cache is optional; services treat a nil cache as pass-through.
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		var err error
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	}

	advanceMonths := services.DefaultAdvanceMonths
	if raw := os.Getenv("ADVANCE_MONTHS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			advanceMonths = n
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Core services
	coverage := services.NewCoverageTracker(advanceMonths)
	ledger := services.NewPlanLedger()
	aggregator := services.NewStatusAggregator(coverage, ledger, cache)
	tickets := services.NewTicketService(st, cache, coverage, ledger, aggregator)
	plans := services.NewPlanService(st, cache, ledger, aggregator)
	queries := services.NewQueryService(st, cache, coverage, ledger)

	validate := validator.New()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appmw.CustomErrorHandler

	// Middleware
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Handlers
	ticketHandler := handlers.NewTicketHandler(tickets, validate)
	planHandler := handlers.NewPlanHandler(plans, queries, validate)
	connectionHandler := handlers.NewConnectionHandler(st, queries, validate)

	api := e.Group("/api")
	api.Use(appmw.RequireAuth([]byte(jwtSecret)))

	// Unified tickets
	api.POST("/tickets", ticketHandler.CreateTicket)
	api.POST("/payments/monthly/:id/void", ticketHandler.VoidMonthlyPayment)
	api.POST("/payments/fees/:id/void", ticketHandler.VoidFeePayment)

	// Installment plans
	api.POST("/plans", planHandler.CreatePlan)
	api.GET("/plans/:id", planHandler.GetPlan)
	api.POST("/plans/:id/cancel", planHandler.CancelPlan)
	api.POST("/plans/:id/reactivate", planHandler.ReactivatePlan)

	// Owners and connections
	api.POST("/owners", connectionHandler.CreateOwner)
	api.POST("/connections", connectionHandler.CreateConnection)
	api.GET("/connections/:id", connectionHandler.GetConnection)
	api.GET("/connections/:id/status", connectionHandler.GetStatus)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
