package entity

import (
	"context"
	"errors"
)

const (
	SettingCaptureWebhookURL  = "webhook.capture_url"
	SettingOutreachWebhookURL = "webhook.outreach_url"
)

var ErrSettingNotFound = errors.New("setting not found")

type WebhookSettings struct {
	CaptureURL  string `json:"capture_url"`
	OutreachURL string `json:"outreach_url"`
}

type SettingsRepositoryInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
