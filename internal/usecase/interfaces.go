package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type LeadRepository = entity.LeadRepositoryInterface

type LeadEventRepository = entity.LeadEventRepositoryInterface

type SettingsRepository = entity.SettingsRepositoryInterface

// WebhookNotifier é o cliente dos webhooks de automação (n8n).
type WebhookNotifier interface {
	NotifyCapture(ctx context.Context, url string, payload n8n.CapturePayload) error
	NotifyOutreach(ctx context.Context, url string, payload n8n.OutreachPayload) error
}

type EnrichmentPublisher interface {
	PublishLeadCaptured(ctx context.Context, msg queue.LeadCapturedMessage) error
}

type EmailService interface {
	SendNewLeadAlert(lead entity.Lead) error
}

// InconsistencyReporter recebe as janelas de inconsistência conhecidas
// (ex.: outreach enviado mas status não atualizado).
type InconsistencyReporter interface {
	ReportInconsistency(ctx context.Context, flow, leadID string, err error)
}

type PasswordVerifier interface {
	Verify(password string) bool
}

type SessionSigner interface {
	Sign(session entity.AdminSession) (string, error)
	Parse(token string) (*entity.AdminSession, error)
}

type Clock func() time.Time
