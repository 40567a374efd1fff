package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"chatroom/internal/config"
	"chatroom/internal/handler"
	"chatroom/internal/middleware"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	"chatroom/internal/repository/memory"
	"chatroom/internal/service"
	"chatroom/pkg/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level)
	if cfg.IsProduction() {
		appLogger = logger.NewJSON(cfg.Log.Level)
	}

	ctx := context.Background()

	var (
		repos  *repository.Repositories
		dbPool *pgxpool.Pool
		rdb    *redis.Client
	)

	switch cfg.Database.Driver {
	case config.StoreDriverMemory:
		repos = memory.NewRepositories()
		appLogger.Warn("Using in-memory store, data is lost on restart")
	default:
		dbPool, err = repository.NewPool(ctx, cfg.Database)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", "error", err)
		}
		appLogger.Info("Database connection established")

		if cfg.Database.AutoMigrate {
			if err := repository.Migrate(ctx, dbPool); err != nil {
				appLogger.Fatal("Failed to apply schema", "error", err)
			}
			appLogger.Info("Database schema is up to date")
		}

		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLogger.Fatal("Failed to connect to Redis", "error", err)
		}
		appLogger.Info("Redis connection established")

		repos = repository.NewRepositories(dbPool, rdb, appLogger)
	}

	registry := realtime.NewRegistry(appLogger)
	services := service.NewServices(repos, registry, cfg, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, cfg.Session.CookieName, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, cfg.RateLimit.HTTPPerMinute, appLogger)

	handlers := handler.NewHandlers(services, registry, cfg, appLogger)
	router := handler.NewRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", "addr", srv.Addr, "store", cfg.Database.Driver, "auth_mode", cfg.Auth.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Порядок важен: сначала HTTP и сокеты, потом хранилища
	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"chatroom": func(ctx context.Context) error {
			appLogger.Info("Shutting down server...")

			err := srv.Shutdown(ctx)
			n := services.Presence.DisconnectAll(ctx)
			appLogger.Info("Realtime connections closed", "count", n)
			registry.Close()

			if dbPool != nil {
				dbPool.Close()
			}
			if rdb != nil {
				if cerr := rdb.Close(); cerr != nil {
					err = errors.Join(err, cerr)
				}
			}
			return err
		},
	})

	exitCode := <-wait
	appLogger.Info("Server exited", "code", exitCode)
	os.Exit(exitCode)
}
