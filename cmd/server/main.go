// Package main is the entry point for the Asser platform API.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"asser-platform/internal/auth"
	"asser-platform/internal/config"
	"asser-platform/internal/game"
	"asser-platform/internal/notify"
	"asser-platform/internal/pkg/db"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/pkg/ratelimit"
	"asser-platform/internal/repository"
	"asser-platform/internal/repository/memory"
	"asser-platform/internal/server"
	"asser-platform/internal/service"
)

func main() {
	// .env is optional; real env vars win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg)
	log.Info().Str("mode", cfg.Server.Mode).Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.Server.Mode != gin.DebugMode {
			log.Fatal().Msg("auth.jwt_secret is required outside debug mode")
		}
		secret = randomSecret()
		log.Warn().Msg("No JWT secret configured, using a random one; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenManager(secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token manager")
	}

	var (
		store  repository.Store
		health func(context.Context) error
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		store = memory.New()
	default:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := pool.Migrate(ctx, func(ctx context.Context, p *pgxpool.Pool) error {
			return repository.Migrate(ctx, p)
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		store = repository.NewPostgresStore(pool.Pool)
		health = pool.HealthCheck
	}

	limiter := newLimiter(ctx, cfg.Redis)

	notifier, err := notify.New(cfg.Telegram)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin notifier")
	}

	locks := lock.NewUserLock()
	catalog := game.DefaultCatalog()

	deps := server.Dependencies{
		Accounts:  service.NewAccountService(store, locks, tokens, auth.NewHasher(), cfg),
		Ledger:    service.NewLedgerService(store, locks, cfg.Ledger),
		Games:     service.NewGameService(store, locks, catalog, cfg.Games),
		Farms:     service.NewFarmService(store, locks, cfg.Farm),
		Payments:  service.NewPaymentService(store, locks, notifier),
		Limiter:   limiter,
		RateLimit: cfg.RateLimit,
		Health:    health,
	}

	log.Info().
		Int("formula_count", catalog.Count()).
		Str("driver", cfg.Database.Driver).
		Msg("Services initialized")

	srv := server.New(cfg.Server, server.NewRouter(deps))
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// setupLogging configures the global zerolog logger: readable console output
// in debug mode and JSON lines in release.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	gin.SetMode(gin.DebugMode)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// newLimiter connects to Redis when enabled and falls back to a
// process-local limiter otherwise.
func newLimiter(ctx context.Context, cfg config.RedisConfig) ratelimit.Limiter {
	if !cfg.Enabled {
		return ratelimit.NewMemoryLimiter()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, using in-process rate limiter")
		_ = client.Close()
		return ratelimit.NewMemoryLimiter()
	}
	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return ratelimit.NewRedisLimiter(client)
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate JWT secret")
	}
	return hex.EncodeToString(b)
}
