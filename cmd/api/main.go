package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/todos-api/internal/auth"
	"github.com/redmonkez12/todos-api/internal/config"
	"github.com/redmonkez12/todos-api/internal/database"
	httpServer "github.com/redmonkez12/todos-api/internal/http"
	"github.com/redmonkez12/todos-api/internal/images"
	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/ratelimit"
	"github.com/redmonkez12/todos-api/internal/sms"
	"github.com/redmonkez12/todos-api/internal/todo"
	"github.com/redmonkez12/todos-api/internal/user"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "todos-api",
		Short:        "Phone-number authenticated to-do API",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  withDB(database.Migrate),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE:  withDB(database.MigrateDown),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			RunE:  withDB(database.MigrationStatus),
		},
	)

	rootCmd.AddCommand(serveCmd, migrateCmd)

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	ctx := cmd.Context()

	// Initialize database connection
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	// Initialize Redis connection
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn("redis disabled: confirmation codes kept in memory, rate limiting off")
	}

	router, err := buildRouter(ctx, cfg, db, redisClient, logger)
	if err != nil {
		return err
	}

	// Initialize HTTP server
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// buildRouter wires repositories, services and handlers.
func buildRouter(ctx context.Context, cfg *config.Config, db *bun.DB, redisClient *redis.Client, logger *logging.Logger) (http.Handler, error) {
	// Initialize repositories
	userRepo := user.NewRepository(db)
	todoRepo := todo.NewRepository(db)

	var codeStore auth.ConfirmationStore
	if redisClient != nil {
		codeStore = auth.NewRedisConfirmationRepository(redisClient)
	} else {
		codeStore = auth.NewMemoryConfirmationRepository()
	}

	tokens, err := newTokenService(cfg.Auth)
	if err != nil {
		return nil, err
	}

	imageStore, err := newImageStore(ctx, cfg.Images)
	if err != nil {
		return nil, err
	}

	var sender auth.CodeSender
	if cfg.SMS.Enabled() {
		sender = sms.NewTwilioSender(cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.TwilioMobileNumber)
	} else {
		logger.Warn("twilio credentials missing: confirmation codes are logged, not sent")
		sender = sms.NewLogSender(logger)
	}

	// Initialize services
	authService := auth.NewService(
		userRepo,
		auth.NewPasswordHasher(auth.PasswordParams{
			Time:     cfg.Auth.Argon2Time,
			MemoryKB: cfg.Auth.Argon2MemoryKB,
			Threads:  cfg.Auth.Argon2Threads,
		}),
		tokens,
		auth.NewConfirmations(codeStore, cfg.Auth.ConfirmationCodeTTL),
		sender,
		logger,
		cfg.Auth.ConfirmOnRegister,
	)

	imageService := images.NewService(imageStore, images.Options{
		MaxWidth:            cfg.Images.MaxWidth,
		MaxHeight:           cfg.Images.MaxHeight,
		MaxBytes:            cfg.Images.MaxBytes,
		AllowedContentTypes: cfg.Images.AllowedContentTypes,
	})
	todoService := todo.NewService(todoRepo, imageService, cfg.Todos.PerPage)

	// Initialize HTTP handlers
	showDetails := cfg.Server.ShowErrorDetails()
	handlers := httpServer.Handlers{
		Auth:  auth.NewHandler(authService, showDetails),
		Todos: todo.NewHandler(todoService, authService, cfg.Images.MaxBytes, showDetails),
	}

	limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	return httpServer.NewRouter(cfg, handlers, limiter, logger), nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		svc, err := auth.NewPasetoService([]byte(cfg.PasetoKey), cfg.TokenMaxAge)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	default:
		svc, err := auth.NewJWTService(cfg.SecretKey, cfg.TokenMaxAge)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	}
}

func newImageStore(ctx context.Context, cfg config.ImagesConfig) (images.Store, error) {
	if cfg.Backend == config.ImagesBackendS3 {
		client, err := images.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return images.NewS3Store(client, cfg.S3Bucket), nil
	}

	store, err := images.NewDiskStore(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// withDB runs fn against the configured database.
func withDB(fn func(ctx context.Context, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		return fn(cmd.Context(), db.DB)
	}
}
