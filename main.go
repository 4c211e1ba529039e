package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/msomdec/postfeed/internal/config"
	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/graph"
	"github.com/msomdec/postfeed/internal/handler"
	"github.com/msomdec/postfeed/internal/realtime"
	"github.com/msomdec/postfeed/internal/repository/disk"
	"github.com/msomdec/postfeed/internal/repository/mongo"
	"github.com/msomdec/postfeed/internal/repository/sqlite"
	"github.com/msomdec/postfeed/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "driver", cfg.DatabaseDriver)

	store, err := disk.NewFileStore(cfg.UploadRoot)
	if err != nil {
		slog.Error("failed to prepare image directory", "error", err)
		os.Exit(1)
	}

	hub := realtime.NewHub(cfg.PushBuffer)
	var notifier domain.Notifier = hub
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		relay := realtime.NewRedisRelay(client, cfg.RedisChannel, hub)
		go func() {
			if err := relay.Run(ctx); err != nil {
				slog.Error("redis relay stopped", "error", err)
			}
		}()
		notifier = relay
	}

	limiter := service.NewRateLimiter(cfg.AuthRatePerSecond, cfg.AuthRateBurst)
	defer limiter.Close()

	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost,
		service.WithTokenTTL(cfg.TokenTTL),
		service.WithRateLimiter(limiter),
	)
	imageService := service.NewImageService(store)
	postService := service.NewPostService(db.Posts(), db.Users(), imageService, notifier, cfg.PostsPerPage)

	schema, err := graph.NewSchema(authService, postService)
	if err != nil {
		slog.Error("failed to parse graphql schema", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(handler.Deps{
		Auth:     authService,
		Posts:    postService,
		Images:   imageService,
		ImageDir: store.Dir(),
		GraphQL:  graph.NewHandler(schema),
		Socket:   realtime.NewWebSocketHandler(hub),
		Events:   realtime.NewEventsHandler(hub),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Ends WebSocket and SSE streams so Shutdown does not wait on them.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	imageService.Wait()
	slog.Info("server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (domain.Database, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return mongo.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return sqlite.New(cfg.DatabasePath)
	}
}
