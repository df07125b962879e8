package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/cyberaid/config"
	"github.com/ErlanBelekov/cyberaid/internal/credential"
	"github.com/ErlanBelekov/cyberaid/internal/email"
	"github.com/ErlanBelekov/cyberaid/internal/health"
	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/blob"
	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/cyberaid/internal/infrastructure/redis"
	ctxlog "github.com/ErlanBelekov/cyberaid/internal/log"
	"github.com/ErlanBelekov/cyberaid/internal/metrics"
	"github.com/ErlanBelekov/cyberaid/internal/repository"
	"github.com/ErlanBelekov/cyberaid/internal/token"
	httptransport "github.com/ErlanBelekov/cyberaid/internal/transport/http"
	"github.com/ErlanBelekov/cyberaid/internal/transport/http/handler"
	"github.com/ErlanBelekov/cyberaid/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	deps := []health.Dependency{{Name: "database", Pinger: pool}}

	hasher, err := credential.New(cfg.BcryptCost, cfg.HashWorkers)
	if err != nil {
		stop()
		log.Fatalf("hasher: %v", err)
	}
	sessions, err := token.NewService([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		stop()
		log.Fatalf("token service: %v", err)
	}

	userRepo := postgres.NewUserRepository(pool)
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	authUsecase := usecase.NewAuthUsecase(userRepo, hasher, sessions, sender, logger, usecase.AuthOptions{
		ResetTTL:         cfg.ResetTokenTTL,
		ResetLinkBaseURL: cfg.ResetLinkBaseURL,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
	})
	adminUsecase := usecase.NewAdminUsecase(userRepo, hasher, logger)

	// Optional integrations. A nil interface, never a typed nil, means "off".
	var docs repository.DocumentStore
	if cfg.DocumentsEnabled() {
		store, err := blob.NewStore(ctx, blob.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			stop()
			log.Fatalf("document store: %v", err)
		}
		docs = store
		authUsecase.WithDocuments(store)
		adminUsecase.WithDocuments(store)
		deps = append(deps, health.Dependency{Name: "documents", Pinger: store})
		logger.Info("document uploads enabled", "bucket", cfg.MinioBucket)
	}

	if cfg.ThrottleEnabled() {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		authUsecase.WithThrottle(redis.NewLoginThrottle(client, cfg.LoginMaxFailures, cfg.LoginFailureWindow))
		deps = append(deps, health.Dependency{Name: "redis", Pinger: redis.Pinger{Client: client}})
		logger.Info("login throttling enabled", "max_failures", cfg.LoginMaxFailures, "window", cfg.LoginFailureWindow)
	}

	directoryUsecase := usecase.NewDirectoryUsecase(userRepo, docs)

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, deps...)

	handlers := httptransport.Handlers{
		Auth:      handler.NewAuthHandler(authUsecase, logger),
		Admin:     handler.NewAdminHandler(adminUsecase, logger),
		Directory: handler.NewDirectoryHandler(directoryUsecase, logger),
	}

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, handlers, sessions, httptransport.Options{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			MaxMultipartMemory: cfg.MaxDocumentBytes,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
