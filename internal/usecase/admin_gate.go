package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const defaultSessionTTL = 12 * time.Hour

type AdminGate struct {
	Verifier    PasswordVerifier
	Signer      SessionSigner
	Revocations entity.SessionRevocationStore
	TTL         time.Duration
	Logger      *zap.Logger
	Now         Clock
}

func NewAdminGate(verifier PasswordVerifier, signer SessionSigner, revocations entity.SessionRevocationStore, ttl time.Duration, logger *zap.Logger) *AdminGate {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminGate{
		Verifier:    verifier,
		Signer:      signer,
		Revocations: revocations,
		TTL:         ttl,
		Logger:      logger,
		Now:         time.Now,
	}
}

// Login confere a senha e emite um token assinado com validade TTL.
func (g *AdminGate) Login(ctx context.Context, password string) (*entity.AdminSession, string, error) {
	if password == "" || !g.Verifier.Verify(password) {
		g.Logger.Warn("tentativa de login admin com senha inválida")
		return nil, "", NewUnauthorizedError("invalid password")
	}

	now := g.Now().UTC().Truncate(time.Second)
	session := &entity.AdminSession{
		ID:        uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.TTL),
	}

	token, err := g.Signer.Sign(*session)
	if err != nil {
		return nil, "", &TechnicalError{Code: CodeInternal, Message: "failed to sign session", Err: err}
	}

	g.Logger.Info("sessão admin criada", zap.String("session_id", session.ID))
	return session, token, nil
}

// Authenticate rejeita tokens inválidos, expirados ou revogados.
func (g *AdminGate) Authenticate(ctx context.Context, token string) (*entity.AdminSession, error) {
	if token == "" {
		return nil, NewUnauthorizedError("admin session required")
	}

	session, err := g.Signer.Parse(token)
	if err != nil {
		return nil, NewUnauthorizedError("invalid session token")
	}
	if session.ExpiredAt(g.Now()) {
		return nil, NewUnauthorizedError(entity.ErrSessionExpired.Error())
	}

	if g.Revocations != nil {
		revoked, err := g.Revocations.IsRevoked(ctx, session.ID)
		if err != nil {
			g.Logger.Error("falha ao consultar revogação", zap.String("session_id", session.ID), zap.Error(err))
			return nil, NewFetchError("failed to check session", err)
		}
		if revoked {
			return nil, NewUnauthorizedError(entity.ErrSessionRevoked.Error())
		}
	}

	return session, nil
}

// Logout revoga a sessão até o fim da sua validade.
func (g *AdminGate) Logout(ctx context.Context, session *entity.AdminSession) error {
	if session == nil || g.Revocations == nil {
		return nil
	}
	if err := g.Revocations.Revoke(ctx, session.ID, session.ExpiresAt); err != nil {
		return NewPersistenceError("failed to revoke session", err)
	}
	g.Logger.Info("sessão admin encerrada", zap.String("session_id", session.ID))
	return nil
}
