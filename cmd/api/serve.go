package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/todo-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/todo-api/internal/auth"
	"github.com/redmonkez12/todo-api/internal/config"
	"github.com/redmonkez12/todo-api/internal/database"
	"github.com/redmonkez12/todo-api/internal/email"
	httpServer "github.com/redmonkez12/todo-api/internal/http"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/media"
	"github.com/redmonkez12/todo-api/internal/profile"
	"github.com/redmonkez12/todo-api/internal/ratelimit"
	"github.com/redmonkez12/todo-api/internal/task"
	"github.com/redmonkez12/todo-api/internal/user"
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize user store: %w", err)
	}
	defer closeStore()

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	images, err := media.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	sessions := auth.NewSessions(
		tokenService,
		auth.NewRedisRevocationStore(redisClient),
		cfg.Auth.TokenDuration,
		!cfg.Server.IsDevelopment(), // secure cookies outside dev
	)
	rateLimiter := ratelimit.NewLimiter(redisClient)
	stager := media.NewStager(cfg.Upload.TempDir, cfg.Upload.MaxSize)
	mailer := email.NewService(cfg.Email, cfg.Auth.OTPExpiry)

	authService := auth.NewService(store, mailer, images, logger, cfg.Auth.OTPExpiry, cfg.Storage.AvatarFolder)
	profileService := profile.NewService(store, images, logger, cfg.Storage.AvatarFolder)
	taskService := task.NewService(store)

	handlers := httpServer.Handlers{
		Auth:    auth.NewHandler(authService, sessions, stager, rateLimiter),
		Profile: profile.NewHandler(profileService, sessions, stager),
		Task:    task.NewHandler(taskService),
	}

	router := httpServer.NewRouter(cfg, handlers, auth.NewMiddleware(sessions), logger)

	server := httpServer.NewServer(cfg.Server, router, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// openStore connects the user store selected by DB_DRIVER. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (user.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		sqlDB, err := database.OpenPostgres(cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, err
		}
		db := database.NewBunDB(sqlDB)
		return user.NewRepository(db), func() { db.Close() }, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := user.NewMongoRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	case config.DriverMemory:
		logger.Warn("using in-memory user store, data is lost on restart")
		return user.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
