package configuration

import (
	"Workpulse/internal/coordinator"
	"Workpulse/internal/db"
	"Workpulse/internal/handler"
	"Workpulse/internal/hub"
	"Workpulse/internal/livekit"
	"Workpulse/internal/observability"
	"Workpulse/internal/presence"
	"Workpulse/internal/repo"
	"Workpulse/internal/service"
	"Workpulse/internal/session"
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	Config Config
	Logger *zap.Logger

	Metrics         *observability.Metrics
	MetricsRegistry *prometheus.Registry

	Coordinator    *coordinator.Coordinator
	Hub            *hub.Hub
	Sweeper        *coordinator.Sweeper
	MonitorService *hub.MonitorService

	MonitoringHandler handler.MonitoringHandler
	MessageHandler    handler.MessageHandler
	LiveKitHandler    handler.LiveKitHandler
	MonitorHandler    handler.MonitorHandler

	// private - for cleanup
	mongoClient *mongo.Database
	redisClient *redis.Client
}

func BuildContainer() (*Container, error) {
	config, err := LoadConfig(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(config.Server.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("config loaded",
		zap.String("environment", config.Server.Environment),
		zap.String("mongo_database", config.Mongo.Database),
		zap.Int("app_port", config.Server.AppPort),
		zap.Int("socket_port", config.Server.SocketPort),
	)

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database,
		time.Duration(config.Mongo.ConnectTimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	var mirror presence.Mirror = presence.NopMirror{}
	var redisClient *redis.Client
	if config.Redis.Url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = presence.NewRedisClient(ctx, config.Redis.Url, config.Redis.DB)
		cancel()
		if err != nil {
			// presence mirroring is optional
			logger.Warn("redis unavailable, presence mirror disabled", zap.Error(err))
		} else {
			mirror = presence.NewRedisMirror(redisClient, config.Redis.PresenceTTL())
		}
	}

	requestRepo := repo.NewMonitoringRequestRepository(con, config.Mongo.RequestsCollection, logger)
	messageRepo := repo.NewMessageRepository(con, config.Mongo.MessagesCollection, logger)

	coord := coordinator.New(coordinator.Options{
		Registry:    presence.NewRegistry(),
		Tracker:     session.NewTracker(),
		Requests:    requestRepo,
		Messages:    messageRepo,
		Mirror:      mirror,
		Metrics:     metrics,
		Logger:      logger.Named("coordinator"),
		AdminPrefix: config.Monitoring.AdminPrefix,
	})

	// Create Hub with the coordinator as its dispatcher
	h := hub.NewHub(coord, hub.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		Logger:         logger.Named("hub"),
		Metrics:        metrics,
	})
	coord.SetSink(h)

	sweeper, err := coordinator.NewSweeper(coord, coordinator.ExpiryPolicy{
		PendingTTL:    config.Monitoring.PendingTTL(),
		SessionMaxAge: config.Monitoring.SessionMaxAge(),
		Interval:      config.Monitoring.SweepInterval(),
	}, logger.Named("sweeper"))
	if err != nil {
		h.Stop()
		return nil, err
	}

	monitorService := hub.NewMonitorService(h, coord)
	issuer := livekit.NewIssuer(config.LiveKit.Url, config.LiveKit.ApiKey, config.LiveKit.ApiSecret, config.LiveKit.TokenTTL())

	return &Container{
		Config:            *config,
		Logger:            logger,
		Metrics:           metrics,
		MetricsRegistry:   registry,
		Coordinator:       coord,
		Hub:               h,
		Sweeper:           sweeper,
		MonitorService:    monitorService,
		MonitoringHandler: handler.NewMonitoringHandler(service.NewMonitoringService(requestRepo, coord), logger),
		MessageHandler:    handler.NewMessageHandler(service.NewMessageService(messageRepo), logger),
		LiveKitHandler:    handler.NewLiveKitHandler(issuer, logger),
		MonitorHandler:    handler.NewMonitorHandler(monitorService),
		mongoClient:       con,
		redisClient:       redisClient,
	}, nil
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	if c.Sweeper != nil {
		if err := c.Sweeper.Stop(); err != nil {
			c.Logger.Warn("failed to stop sweeper", zap.Error(err))
		}
	}

	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	return nil
}
