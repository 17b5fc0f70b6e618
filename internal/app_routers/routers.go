package approuters

import (
	"Workpulse/internal/configuration"
	"Workpulse/internal/middleware"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StartServer runs the socket and application servers until ctx is done or
// either server fails, then shuts both down. The hub is stopped before the
// socket server so open connections are closed rather than waited on.
func StartServer(ctx context.Context, container *configuration.Container) error {
	logger := container.Logger

	socketServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", container.Config.Server.SocketPort),
		Handler:      NewSocketMux(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	appServer := createAppServer(container)

	// Channel to listen for errors from servers
	serverErrors := make(chan error, 2)

	// Start socket server
	go func() {
		logger.Info("socket server starting",
			zap.String("addr", fmt.Sprintf("ws://localhost:%d/%s", container.Config.Server.SocketPort, container.Config.Server.SocketRoute)),
		)
		if err := socketServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("socket server error: %w", err)
		}
	}()

	// Start application server
	go func() {
		logger.Info("application server starting",
			zap.String("addr", fmt.Sprintf("http://localhost:%d", container.Config.Server.AppPort)),
		)
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("app server error: %w", err)
		}
	}()

	var runErr error
	select {
	case runErr = <-serverErrors:
		logger.Error("server error", zap.Error(runErr))
	case <-ctx.Done():
		logger.Info("initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("stopping hub and closing all websocket connections")
	container.Hub.Stop()

	if err := socketServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("socket server shutdown error", zap.Error(err))
	}

	if err := appServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("app server shutdown error", zap.Error(err))
	}

	logger.Info("servers stopped")
	return runErr
}

// NewSocketMux serves the websocket endpoint on the socket port.
func NewSocketMux(container *configuration.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/"+container.Config.Server.SocketRoute, container.Hub.ServeWS)
	return mux
}

func createAppServer(container *configuration.Container) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", container.Config.Server.AppPort),
		Handler:      NewRouter(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the REST surface.
func NewRouter(container *configuration.Container) *gin.Engine {
	if container.Config.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(corsConfig(container.Config.Server.AllowedOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to Workpulse Application Server!",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(container.MetricsRegistry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(middleware.JWTAuth(container.Config.Auth.JWTSecret, container.Logger))

	MonitoringRouters(api, container)
	MessageRouters(api, container)
	LiveKitRouters(api, container)
	MonitorRouters(api, container)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}

	cfg.AllowOrigins = origins
	return cfg
}
