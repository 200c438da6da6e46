package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	c "github.com/fjod/donation_cart/internal/cache"
	"github.com/fjod/donation_cart/internal/cart"
	"github.com/fjod/donation_cart/internal/config"
	"github.com/fjod/donation_cart/internal/consumer"
	transport "github.com/fjod/donation_cart/internal/http"
	"github.com/fjod/donation_cart/internal/publisher"
	"github.com/fjod/donation_cart/internal/repository"
	s "github.com/fjod/donation_cart/internal/service"
	"github.com/fjod/donation_cart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx := context.Background()

	// Appeal catalog
	appeals, err := repository.NewAppealRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatal("failed to open catalog database", zap.Error(err))
	}
	defer appeals.Close()

	if err := appeals.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("catalog ready", zap.String("path", cfg.CatalogDBPath))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	catalog := s.NewCatalogService(appeals, c.NewRedisCache(redisClient))

	// Donation records
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()

	donations := repository.NewMongoDonationRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, donations); err != nil {
		log.Fatal("failed to create donation indexes", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))

	events := publisher.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer events.Close()

	runCtx, stopWorkers := context.WithCancel(ctx)
	donationConsumer := consumer.NewConsumer(catalog, log, cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaBrokers...)
	go donationConsumer.Run(runCtx)

	outbox := publisher.NewOutboxPoller(donations, events, cfg.OutboxInterval, log)
	go outbox.Run(runCtx)

	checkout := s.NewCheckoutService(donations, events, cfg.PaymentDelay, cfg.Currency)

	sessions := cart.NewRegistry(cfg.SessionTTL, cart.CleanupInterval,
		cart.WithNotifier(cart.NewLogNotifier(log)),
		cart.WithRecentlyAddedDelay(cfg.RecentlyAddedDelay),
	)
	defer sessions.Stop()

	httpServer := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: transport.NewRouter(transport.RouterConfig{
			Logger:         log,
			Sessions:       sessions,
			Catalog:        catalog,
			Checkout:       checkout,
			RequestTimeout: cfg.RequestTimeout,
		}),
	}

	// Operational gRPC port: health and reflection
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		log.Info("grpc server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("grpc server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("http server listening", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopWorkers()
	donationConsumer.Close()
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("stopped")
}
