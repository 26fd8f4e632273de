package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/internal/handlers"
	"github.com/llmgate/promptcoder/localratelimiter"
)

const (
	metricsPushInterval = 60 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP refinement service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		appConfig, err := config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		a, err := newApp(ctx, appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if appConfig.GoogleService.ProjectId != "" {
			go a.recorder.PushLoop(ctx, metricsPushInterval)
		}

		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", appConfig.Server.Port),
			Handler: newRouter(ctx, a),
		}

		serveErr := make(chan error, 1)
		go func() {
			slog.Info("listening", "addr", server.Addr)
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func newRouter(ctx context.Context, a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.config.Server.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 || (len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("X-Request-Id")
	corsConfig.AddExposeHeaders("X-Request-Id", "Retry-After")
	router.Use(cors.New(corsConfig))
	router.Use(handlers.RequestId())

	// Metrics handler
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// Health Handler
	healthHandler := handlers.NewHealthHandler(a.breaker)
	router.GET("/health", healthHandler.IsHealthy)

	// Local Rate Limiter, only in front of the LLM-backed routes
	rateLimiter := localratelimiter.NewRateLimiter(ctx, a.config.RateLimit)
	refineHandler := handlers.NewRefineHandler(a.service)
	router.POST("/refine", rateLimiter.RateLimiterMiddleware(), refineHandler.RefinePrompt)
	router.POST("/assemble", refineHandler.AssemblePrompt)

	return router
}
