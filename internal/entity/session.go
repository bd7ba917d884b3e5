package entity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionExpired = errors.New("admin session expired")
	ErrSessionRevoked = errors.New("admin session revoked")
)

// AdminSession substitui a flag global "admin_authenticated":
// é passada explicitamente para o fluxo de revisão e expira.
type AdminSession struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *AdminSession) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type SessionRevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
