package main

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

	"github.com/google/uuid"

	authsvc "github.com/sarvagya80/SarvTribe/internal/app/services/auth"
	"github.com/sarvagya80/SarvTribe/internal/app/services/connections"
	"github.com/sarvagya80/SarvTribe/internal/app/services/messaging"
	"github.com/sarvagya80/SarvTribe/internal/app/stream"
	domainauth "github.com/sarvagya80/SarvTribe/internal/domain/auth"
	domainconnection "github.com/sarvagya80/SarvTribe/internal/domain/connection"
	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
	"github.com/sarvagya80/SarvTribe/internal/infra/broker/kafka"
	"github.com/sarvagya80/SarvTribe/internal/infra/config"
	mongodb "github.com/sarvagya80/SarvTribe/internal/infra/db/mongo"
	ginserver "github.com/sarvagya80/SarvTribe/internal/infra/http/gin"
	"github.com/sarvagya80/SarvTribe/internal/infra/obs"
	"github.com/sarvagya80/SarvTribe/internal/infra/security"
	"github.com/sarvagya80/SarvTribe/internal/infra/storage/memory"
	"github.com/sarvagya80/SarvTribe/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	stores, ready, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	uploader := buildUploader(cfg, logger)
	registry := stream.NewRegistry(logger)
	dispatcher, consumer := buildDispatcher(cfg, registry, logger)
	if consumer != nil {
		go func() {
			if err := consumer.Run(ctx, []string{cfg.KafkaTopic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("stream bridge consumer stopped", "error", err)
			}
		}()
		defer consumer.Close()
	}

	authService := &authsvc.Service{
		Users:      stores.users,
		Sessions:   stores.sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	messagingService := &messaging.Service{
		Messages:   stores.messages,
		Users:      stores.users,
		Uploader:   uploader,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	connectionService := &connections.Service{
		Connections: stores.connections,
		Users:       stores.users,
		Dispatcher:  dispatcher,
		Logger:      logger,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: ready,
	}, ginserver.Handlers{
		Auth:       ginserver.AuthHandler{Service: authService, Logger: logger},
		Message:    ginserver.MessageHandler{Service: messagingService, Logger: logger},
		Stream:     ginserver.StreamHandler{Registry: registry, KeepAlive: cfg.StreamKeepAlive, Logger: logger},
		Connection: ginserver.ConnectionHandler{Service: connectionService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Service: authService,
			Logger:  logger,
		}.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type stores struct {
	users       domainuser.Repository
	sessions    domainauth.SessionStore
	messages    domainmessage.Repository
	connections domainconnection.Repository
}

func buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, func() error, error) {
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, using in-memory stores")
		return stores{
			users:       memory.NewUserRepository(),
			sessions:    memory.NewSessionStore(),
			messages:    memory.NewMessageRepository(),
			connections: memory.NewConnectionRepository(),
		}, nil, nil
	}

	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return stores{}, nil, err
	}
	users := mongodb.NewUserRepository(client.DB)
	sessions := mongodb.NewSessionStore(client.DB)
	messages := mongodb.NewMessageRepository(client.DB)
	conns := mongodb.NewConnectionRepository(client.DB)

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for name, ensure := range map[string]func(context.Context) error{
		"users":       users.EnsureIndexes,
		"sessions":    sessions.EnsureIndexes,
		"messages":    messages.EnsureIndexes,
		"connections": conns.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.Warn("index creation failed", "collection", name, "error", err)
		}
	}

	ready := func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx)
	}
	return stores{users: users, sessions: sessions, messages: messages, connections: conns}, ready, nil
}

func buildUploader(cfg config.Config, logger *slog.Logger) s3.Uploader {
	if cfg.S3Endpoint == "" {
		logger.Warn("S3_ENDPOINT not set, image messages will be rejected")
		return s3.NoopUploader{}
	}
	client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Error("s3 client init failed, image messages will be rejected", "error", err)
		return s3.NoopUploader{}
	}
	return client
}

// buildDispatcher returns the in-process registry when no brokers are
// configured, or a Kafka bridge in front of it otherwise. Every instance
// consumes under a distinct group id so each one sees every envelope and
// delivers to whichever recipients are connected to it.
func buildDispatcher(cfg config.Config, registry *stream.Registry, logger *slog.Logger) (stream.Dispatcher, *kafka.Consumer) {
	if len(cfg.KafkaBrokers) == 0 {
		return registry, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer init failed, falling back to in-process dispatch", "error", err)
		return registry, nil
	}
	bridge := &kafka.StreamBridge{
		Publisher: producer,
		Topic:     cfg.KafkaTopic,
		Local:     registry,
		Logger:    logger,
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "sarvtribe-stream-" + uuid.NewString()
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, groupID, nil, bridge)
	if err != nil {
		logger.Error("kafka consumer init failed, falling back to in-process dispatch", "error", err)
		_ = producer.Close()
		return registry, nil
	}
	logger.Info("stream dispatch bridged through kafka", "topic", cfg.KafkaTopic, "group_id", groupID)
	return bridge, consumer
}
