package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadEnrichedMessage é publicado pelo pipeline externo de scoring.
type LeadEnrichedMessage struct {
	LeadID         string `json:"lead_id"`
	Score          *int   `json:"score,omitempty"`
	Band           string `json:"band,omitempty"`
	Label          string `json:"label,omitempty"`
	ModelRationale string `json:"model_rationale,omitempty"`
	CompanySize    string `json:"company_size,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

func (m LeadEnrichedMessage) Enrichment() entity.Enrichment {
	return entity.Enrichment{
		LeadID:         m.LeadID,
		Score:          m.Score,
		Band:           entity.Band(m.Band),
		Label:          entity.Label(m.Label),
		ModelRationale: m.ModelRationale,
		CompanySize:    m.CompanySize,
		Industry:       m.Industry,
	}
}

// EnrichmentApplier grava o resultado do enriquecimento no lead.
type EnrichmentApplier interface {
	Apply(ctx context.Context, e entity.Enrichment) error
}

// ErrPoisonMessage marca mensagens que nunca vão ser processadas com sucesso.
var ErrPoisonMessage = errors.New("mensagem inválida")

type Worker struct {
	Channel *amqp.Channel
	Applier EnrichmentApplier
	Logger  *zap.Logger
}

func NewWorker(ch *amqp.Channel, applier EnrichmentApplier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Channel: ch,
		Applier: applier,
		Logger:  logger.With(zap.String("component", "enrichment-worker")),
	}
}

// Start consome a fila até o ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("worker aguardando mensagens", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("worker encerrado")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("canal de consumo fechado")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.Process(ctx, d.Body)
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, ErrPoisonMessage):
		w.Logger.Warn("mensagem rejeitada", zap.Error(err))
		d.Nack(false, false) // vai para a DLQ
	default:
		w.Logger.Error("erro ao aplicar enriquecimento", zap.Error(err))
		// primeira falha volta para a fila, a segunda vai para a DLQ
		d.Nack(false, !d.Redelivered)
	}
}

// Process decodifica e aplica uma mensagem de enriquecimento.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var msg LeadEnrichedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: json: %v", ErrPoisonMessage, err)
	}
	if msg.LeadID == "" {
		return fmt.Errorf("%w: lead_id ausente", ErrPoisonMessage)
	}

	if err := w.Applier.Apply(ctx, msg.Enrichment()); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) || errors.Is(err, entity.ErrInvalidEnrichment) {
			return fmt.Errorf("%w: %v", ErrPoisonMessage, err)
		}
		return err
	}

	w.Logger.Info("enriquecimento aplicado", zap.String("lead_id", msg.LeadID))
	return nil
}
