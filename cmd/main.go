package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/brackets"
	"github.com/quangduy772005-oss/BKT2-FullStack/config"
	"github.com/quangduy772005-oss/BKT2-FullStack/db"
	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/handlers"
	"github.com/quangduy772005-oss/BKT2-FullStack/logger"
	"github.com/quangduy772005-oss/BKT2-FullStack/metrics"
	"github.com/quangduy772005-oss/BKT2-FullStack/rating"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories/memory"
	api "github.com/quangduy772005-oss/BKT2-FullStack/routes"
	"github.com/quangduy772005-oss/BKT2-FullStack/services"
	"github.com/quangduy772005-oss/BKT2-FullStack/storage"
	"github.com/quangduy772005-oss/BKT2-FullStack/workers"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	log.Info("configuration loaded",
		zap.Int("port", cfg.ServerPort),
		zap.String("storage", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Background machinery outlives request handling and stops after the server.
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	queue := workers.NewQueue(cfg.EventWorkers, cfg.EventQueueSize, log.Named("queue"), m)
	queueDone := make(chan error, 1)
	go func() { queueDone <- queue.Run(bgCtx) }()

	wsHub := brackets.NewHub(log.Named("hub"))
	go wsHub.Run(bgCtx)
	log.Info("websocket hub started")

	// The archive sink reads brackets through this service, so it exists before the bus.
	leaderboardService := services.NewLeaderboardService(store, services.WithLogger(log), services.WithMetrics(m))

	sinks := []events.Sink{
		events.NewLogSink(log.Named("events")),
		events.NewHubSink(wsHub),
	}
	r2 := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		sinks = append(sinks, storage.NewBracketArchiver(uploader, leaderboardService, log.Named("archive")))
		log.Info("bracket archiving to Cloudflare R2 enabled", zap.String("bucket", cfg.R2BucketName))
	}
	bus := events.NewBus(queue, log.Named("bus"), sinks, events.WithMetrics(m))

	opts := []services.Option{
		services.WithLogger(log),
		services.WithPublisher(bus),
		services.WithMetrics(m),
	}
	engine := rating.NewEngine(cfg.RatingKFactor)
	memberService := services.NewMemberService(store, opts...)
	matchService := services.NewMatchService(store, engine, opts...)
	bracketService := services.NewBracketService(store, opts...)
	tournamentService := services.NewTournamentService(store, services.NewEventRefundRequester(bus), opts...)
	log.Info("services initialized")

	scheduler, err := workers.NewScheduler(tournamentService, cfg.SchedulerInterval, log.Named("scheduler"))
	if err != nil {
		return err
	}
	if err := scheduler.Start(bgCtx); err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error("scheduler shutdown failed", zap.Error(err))
		}
	}()

	tournamentHandler := handlers.NewTournamentHandler(tournamentService, bracketService)
	matchHandler := handlers.NewMatchHandler(matchService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	memberHandler := handlers.NewMemberHandler(memberService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, log.Named("ws"))

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Config{
			JWTSecret:      cfg.JWTSecretKey,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:         log.Named("http"),
			Metrics:        m,
			Gatherer:       registry,
		},
		tournamentHandler,
		matchHandler,
		leaderboardHandler,
		memberHandler,
		webSocketHandler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to force close server", zap.Error(closeErr))
			}
		}
	}

	cancelBackground()
	if err := <-queueDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error("event queue stopped with error", zap.Error(err))
	}
	log.Info("application exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repositories.Store, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	closeFn := func() {
		if err := conn.Close(); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
			return
		}
		log.Info("database connection closed")
	}
	return repositories.NewPostgresStore(conn, log), closeFn, nil
}
