package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	FieldCaptureURL  = "capture_url"
	FieldOutreachURL = "outreach_url"
)

// WebhookConfigService guarda as URLs dos webhooks. Os valores do ambiente
// servem de padrão até que um admin grave outra URL.
type WebhookConfigService struct {
	Repo     SettingsRepository
	Defaults entity.WebhookSettings
	Logger   *zap.Logger
}

func NewWebhookConfigService(repo SettingsRepository, defaults entity.WebhookSettings, logger *zap.Logger) *WebhookConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookConfigService{Repo: repo, Defaults: defaults, Logger: logger}
}

// Get lê as URLs atuais a cada chamada, então trocas feitas por outra
// instância valem na próxima requisição.
func (s *WebhookConfigService) Get(ctx context.Context) (entity.WebhookSettings, error) {
	capture, err := s.read(ctx, entity.SettingCaptureWebhookURL, s.Defaults.CaptureURL)
	if err != nil {
		return entity.WebhookSettings{}, err
	}
	outreach, err := s.read(ctx, entity.SettingOutreachWebhookURL, s.Defaults.OutreachURL)
	if err != nil {
		return entity.WebhookSettings{}, err
	}
	return entity.WebhookSettings{CaptureURL: capture, OutreachURL: outreach}, nil
}

func (s *WebhookConfigService) read(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.Repo.Get(ctx, key)
	if errors.Is(err, entity.ErrSettingNotFound) {
		return strings.TrimSpace(fallback), nil
	}
	if err != nil {
		return "", NewFetchError("failed to load webhook settings", err)
	}
	return value, nil
}

func (s *WebhookConfigService) SetCaptureURL(ctx context.Context, url string) (entity.WebhookSettings, error) {
	return s.set(ctx, entity.SettingCaptureWebhookURL, FieldCaptureURL, url)
}

func (s *WebhookConfigService) SetOutreachURL(ctx context.Context, url string) (entity.WebhookSettings, error) {
	return s.set(ctx, entity.SettingOutreachWebhookURL, FieldOutreachURL, url)
}

func (s *WebhookConfigService) set(ctx context.Context, key, field, url string) (entity.WebhookSettings, error) {
	url = strings.TrimSpace(url)
	if msg := validateWebhookURL(url); msg != "" {
		return entity.WebhookSettings{}, NewValidationError(map[string]string{field: msg})
	}
	if err := s.Repo.Set(ctx, key, url); err != nil {
		return entity.WebhookSettings{}, NewPersistenceError("failed to save webhook settings", err)
	}
	s.Logger.Info("webhook atualizado", zap.String("key", key))
	return s.Get(ctx)
}

// Update grava as URLs informadas (nil = manter). Valida tudo antes de gravar.
func (s *WebhookConfigService) Update(ctx context.Context, capture, outreach *string) (entity.WebhookSettings, error) {
	fields := FieldErrors{}
	if capture != nil {
		if msg := validateWebhookURL(strings.TrimSpace(*capture)); msg != "" {
			fields[FieldCaptureURL] = msg
		}
	}
	if outreach != nil {
		if msg := validateWebhookURL(strings.TrimSpace(*outreach)); msg != "" {
			fields[FieldOutreachURL] = msg
		}
	}
	if len(fields) > 0 {
		return entity.WebhookSettings{}, NewValidationError(fields)
	}

	if capture != nil {
		if _, err := s.SetCaptureURL(ctx, *capture); err != nil {
			return entity.WebhookSettings{}, err
		}
	}
	if outreach != nil {
		if _, err := s.SetOutreachURL(ctx, *outreach); err != nil {
			return entity.WebhookSettings{}, err
		}
	}
	return s.Get(ctx)
}

func validateWebhookURL(url string) string {
	if url == "" {
		return "Webhook URL is required"
	}
	if err := getFormValidator().Var(url, "http_url"); err != nil {
		return "Webhook URL must be an absolute http(s) URL"
	}
	return ""
}
