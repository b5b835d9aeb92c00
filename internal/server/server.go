// Package server wires the HTTP router: middleware, routes and the
// http.Server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"asser-platform/internal/config"
	"asser-platform/internal/handler"
	"asser-platform/internal/pkg/ratelimit"
	"asser-platform/internal/service"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Accounts *service.AccountService
	Ledger   *service.LedgerService
	Games    *service.GameService
	Farms    *service.FarmService
	Payments *service.PaymentService

	Limiter   ratelimit.Limiter
	RateLimit config.RateLimitConfig

	// TimerInterval is the websocket push period, one second when zero.
	TimerInterval time.Duration
	// Health reports storage reachability for GET /health.
	Health func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route under /api.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestID(), Logger(), CORS())

	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	accounts := handler.NewAccountHandler(deps.Accounts, deps.Ledger)
	games := handler.NewGameHandler(deps.Games)
	timer := handler.NewTimerStream(deps.Games, deps.TimerInterval)
	ledger := handler.NewLedgerHandler(deps.Ledger)
	payments := handler.NewPaymentHandler(deps.Payments)
	farms := handler.NewFarmHandler(deps.Farms)
	admin := handler.NewAdminHandler(deps.Accounts)

	limited := RateLimit(deps.Limiter, deps.RateLimit.Requests, deps.RateLimit.Window)

	api := r.Group("/api")
	api.POST("/auth/register", accounts.Register)
	api.POST("/auth/login", accounts.Login)

	authed := api.Group("", Auth(deps.Accounts))
	{
		authed.POST("/auth/logout", accounts.Logout)
		authed.GET("/me", accounts.Me)
		authed.GET("/team/members", accounts.Team)
		authed.GET("/balance", accounts.Balance)
		authed.GET("/transactions", accounts.Transactions)

		authed.GET("/games/active", games.Active)
		authed.GET("/games/timer-sync", games.TimerSync)
		authed.GET("/games/ws", timer.Serve)
		authed.POST("/games/participate", limited, games.Participate)
		authed.GET("/games/my-participations", games.MyParticipations)

		authed.POST("/exchange", limited, ledger.Exchange)
		authed.GET("/exchange/rates", ledger.Rates)
		authed.POST("/transfer", limited, ledger.Transfer)
		authed.POST("/subscriptions", ledger.Subscribe)
		authed.GET("/subscriptions", ledger.Subscriptions)

		authed.POST("/payments/deposit", payments.Deposit)
		authed.POST("/payments/withdraw", payments.Withdraw)
		authed.GET("/payments", payments.Mine)

		authed.GET("/farm/plants", farms.Catalog)
		authed.POST("/farm/plant", farms.Plant)
		authed.GET("/farm/state", farms.State)
		authed.POST("/farm/water", farms.Water)
	}

	authed.POST("/games/create", Admin(), games.Create)

	adm := authed.Group("/admin", Admin())
	{
		adm.GET("/games", games.List)
		adm.POST("/games/:id/close", games.Close)
		adm.GET("/formulas", games.Formulas)
		adm.PUT("/exchange-rates", ledger.UpdateRates)
		adm.GET("/payments", payments.List)
		adm.POST("/payments/:id/process", payments.Process)
		adm.GET("/users", admin.Users)
		adm.PUT("/users/:id/status", admin.SetStatus)
	}

	return r
}

// Server is the HTTP server with graceful shutdown.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
}

// New creates a Server listening on cfg.Port.
func New(cfg config.ServerConfig, h http.Handler) *Server {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("HTTP server started")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
