package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/app"
	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// Consome q.leads.enriched e grava score/band/label nos leads.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL é obrigatório para o worker")
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	stores, err := app.OpenStores(cfg, logger)
	if err != nil {
		logger.Fatal("❌ erro ao abrir store", zap.Error(err))
	}
	defer stores.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("❌ erro ao conectar no RabbitMQ", zap.Error(err))
	}
	defer rabbitMQ.Close()

	enrichment := usecase.NewEnrichmentUseCase(stores.Leads, stores.Events, logger)
	worker := queue.NewWorker(rabbitMQ.Ch, enrichment, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Start(ctx, queue.EnrichedQueue); err != nil {
		logger.Error("worker parou", zap.Error(err))
	}
}
