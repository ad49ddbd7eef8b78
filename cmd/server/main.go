package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"team-workspace-server/auth"
	"team-workspace-server/internal/config"
	"team-workspace-server/internal/db"
	"team-workspace-server/internal/history"
	"team-workspace-server/internal/note"
	"team-workspace-server/internal/tenant"
	"team-workspace-server/internal/user"
	"team-workspace-server/internal/worker"
	appRedis "team-workspace-server/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if config.AppConfig.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	if config.AppConfig.Environment == "development" {
		db.SeedData()
	}

	// Initialize Redis
	appRedis.InitRedis()
	cache := appRedis.NewCache(appRedis.RedisClient)

	// Background workers for audit records
	pool := worker.NewWorkerPool(4)
	defer pool.Shutdown()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	companyRepo := tenant.NewRepository(db.AppDb)
	noteRepo := note.NewRepository(db.AppDb)
	historyRepo := history.NewRepository(db.AppDb)

	// Audit recorder (fire-and-forget)
	recorder := history.NewAsyncRecorder(historyRepo, pool)

	// Initialize services
	userService := user.NewService(userRepo, companyRepo)
	tenantService := tenant.NewService(companyRepo, noteRepo)
	noteService := note.NewService(noteRepo, cache, recorder)

	// The note protocol engine
	lockTable := note.NewLockTable()
	hub := note.NewHub()
	coordinator := note.NewCoordinator(noteRepo, lockTable, hub, recorder)
	validator := auth.NewSocketValidator(userService)
	gateway := note.NewGateway(validator, coordinator)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	tenantHandler := tenant.NewHandler(tenantService)
	noteHandler := note.NewHandler(noteService)
	historyHandler := history.NewHandler(historyRepo)

	// Initialize Gin router
	router := gin.Default()

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Company routes
	router.POST("/companies", tenantHandler.Provision)
	router.GET("/company", auth.AuthMiddleWare(), tenantHandler.Show)

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", auth.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", auth.AuthMiddleWare(), userHandler.GetProfile)

	// Note routes (reads and creation; line edits go over the socket)
	router.POST("/notes", auth.AuthMiddleWare(), noteHandler.Create)
	router.GET("/notes", auth.AuthMiddleWare(), noteHandler.ShowCompanyNotes)
	router.GET("/notes/:id/lines", auth.AuthMiddleWare(), noteHandler.ShowNoteLines)

	// Audit history
	router.GET("/history", auth.AuthMiddleWare(), historyHandler.List)

	// The collaborative note socket
	router.GET("/ws/notes", gateway.Handle)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Info().Str("port", serverPort).Msg("Server listening")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
}
