package main

// @title           Shoplist Service API
// @version         1.0
// @description     Collaborative shopping lists with live updates.
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

//go:generate swag init -g cmd/server/main.go -o ../../docs -d ../../

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoplist-service/internal/api/handlers"
	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/api/routes"
	"shoplist-service/internal/auth"
	"shoplist-service/internal/config"
	"shoplist-service/internal/database"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
	"shoplist-service/internal/services"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.LogLevel, TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting shoplist server")

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var images services.ImageStore
	if cfg.MinIO.Enabled() {
		minioClient, err := database.NewMinIOClient(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		images = minioClient
	} else {
		logger.Info("MinIO not configured, recipe image uploads disabled")
	}

	// Fan-out: local broadcaster, the redis relay when instances share lists,
	// or a separate realtime process reached over HTTP.
	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(registry, logger)
	var relay *realtime.RedisRelay
	var publishers realtime.MultiPublisher
	switch cfg.Realtime.Mode() {
	case config.PublishRemote:
		publishers = realtime.MultiPublisher{realtime.NewHTTPPublisher(cfg.Realtime.PublishURL, cfg.Realtime.InternalSecret, nil)}
	case config.PublishRelay:
		relay = realtime.NewRedisRelay(redisClient.GetClient(), broadcaster, logger)
		publishers = realtime.MultiPublisher{relay}
	default:
		publishers = realtime.MultiPublisher{broadcaster}
	}
	logger.Info("Realtime publisher selected", "mode", cfg.Realtime.Mode())

	var journal *realtime.KafkaJournal
	if cfg.Kafka.Enabled() {
		producer, err := database.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		journal = realtime.NewKafkaJournal(producer, cfg.Kafka.Topic, logger)
		defer journal.Close()
		publishers = append(publishers, journal)
	}

	authenticator := auth.NewJWTAuthenticator(cfg.JWT.Secret, cfg.JWT.ExpirationTime)

	userRepo := postgres.NewUserRepository(db)
	listRepo := postgres.NewListRepository(db)
	collaboratorRepo := postgres.NewCollaboratorRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	recipeRepo := postgres.NewRecipeRepository(db)

	userService := services.NewUserService(userRepo, authenticator)
	listService := services.NewListService(listRepo, collaboratorRepo, userRepo)
	itemService := services.NewItemService(itemRepo, categoryRepo, listService, publishers)
	categoryService := services.NewCategoryService(categoryRepo, listService, publishers)
	recipeService := services.NewRecipeService(recipeRepo, itemRepo, categoryRepo, listService, images, publishers)

	sse := realtime.NewSSETransport(registry, authenticator, listService, realtime.SSEConfig{
		SendBufferSize: cfg.Realtime.SendBufferSize,
		KeepAlive:      cfg.Realtime.KeepAliveInterval,
	}, logger)
	socket := realtime.NewSocketTransport(registry, authenticator, listService, realtime.SocketConfig{
		SendBufferSize: cfg.Realtime.SendBufferSize,
		WriteWait:      cfg.Realtime.WriteWait,
		PongWait:       cfg.Realtime.PongWait,
		PingPeriod:     cfg.Realtime.PingPeriod,
		CheckOrigin:    middleware.CheckOrigin(cfg.CORS.AllowedOrigins),
	}, logger)

	health := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": handlers.PingFunc(sqlDB.PingContext),
		"redis":    redisClient,
	}, registry, socket, broadcaster)

	router := routes.NewRouter(routes.Handlers{
		Auth:     handlers.NewAuthHandler(userService),
		User:     handlers.NewUserHandler(userService),
		List:     handlers.NewListHandler(listService),
		Item:     handlers.NewItemHandler(itemService),
		Category: handlers.NewCategoryHandler(categoryService),
		Recipe:   handlers.NewRecipeHandler(recipeService),
		Stream:   handlers.NewStreamHandler(sse, socket, publishers),
		Health:   health,
	},
		middleware.NewAuthMiddleware(authenticator),
		middleware.NewRateLimitMiddleware(services.NewRateLimiter(redisClient.GetClient()), logger),
		cfg,
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Supervise(gctx, time.Second, 30*time.Second)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Streams never finish on their own; close them before draining.
		socket.CloseAll()
		registry.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		return nil
	})

	return g.Wait()
}
