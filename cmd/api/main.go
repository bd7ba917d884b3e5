package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/app"
	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/alert"
	"github.com/xavierca1/ligue-leads/internal/infra/auth"
	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal(err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("❌ API encerrada com erro", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// 0. Sentry
	var hub *sentry.Hub
	sentryOn, err := alert.Init(cfg.SentryDSN, cfg.AppEnv)
	if err != nil {
		logger.Warn("sentry desligado", zap.Error(err))
	}
	if sentryOn {
		hub = sentry.CurrentHub()
		defer alert.Flush()
	}
	reporter := alert.NewReporter(hub, logger)

	// 1. Repositórios
	stores, err := app.OpenStores(cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	// 2. Sessões revogadas
	var (
		redisClient *redis.Client
		revocations entity.SessionRevocationStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		revocations = cache.NewRedisRevocationStore(redisClient)
	} else {
		logger.Warn("REDIS_URL vazio, revogação de sessão só vale para esta instância")
		revocations = cache.NewMemoryRevocationStore()
	}

	// 3. Fila de enriquecimento (opcional)
	var (
		rabbitMQ  *queue.RabbitMQ
		publisher usecase.EnrichmentPublisher
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		publisher = queue.NewProducer(rabbitMQ.Ch)
	}

	// 4. Alerta por email (opcional)
	var emailService usecase.EmailService
	if cfg.SMTPEnabled() {
		sender := mail.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.AlertEmailFrom, cfg.AlertRecipients())
		if cfg.PublicOrigin != "" {
			sender.AdminURL = strings.TrimRight(cfg.PublicOrigin, "/") + "/admin"
		}
		emailService = sender
	}

	// 5. UseCases
	journal := usecase.NewStepJournal(0, 0)
	notifier := n8n.NewClient(cfg.WebhookTimeout, logger)

	webhooks := usecase.NewWebhookConfigService(stores.Settings, entity.WebhookSettings{
		CaptureURL:  cfg.CaptureWebhookURL,
		OutreachURL: cfg.OutreachWebhookURL,
	}, logger)

	capture := usecase.NewCaptureLeadUseCase(stores.Leads, stores.Events, notifier, publisher, emailService, journal, logger)
	capture.Reporter = reporter

	review := usecase.NewReviewService(stores.Leads, stores.Events, notifier, webhooks, reporter, journal, logger, cfg.SessionTTL)

	verifier, err := auth.NewBcryptVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return err
	}
	signer, err := auth.NewJWTSigner(cfg.SessionSecret)
	if err != nil {
		return err
	}
	gate := usecase.NewAdminGate(verifier, signer, revocations, cfg.SessionTTL, logger)

	// 6. Handlers
	health := handlers.NewHealthHandler(stores.DB, nil, redisClient)
	if rabbitMQ != nil {
		health.RabbitMQ = rabbitMQ.Conn
	}

	router := newRouter(routes{
		Lead:   handlers.NewLeadHandler(capture, webhooks, handlers.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute), logger),
		Admin:  handlers.NewAdminHandler(gate, review, webhooks, cfg.SessionCookieSecure, logger),
		Review: handlers.NewReviewHandler(review, logger),
		Health: health,
		Auth:   gate,
	}, cfg.AllowedOrigins(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🔥 API de leads rodando", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("sinal recebido, encerrando", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("API parada")
	return nil
}
