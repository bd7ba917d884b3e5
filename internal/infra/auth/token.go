package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	issuer   = "ligue-leads"
	audience = "admin"
)

var ErrWeakSecret = errors.New("session secret must have at least 32 bytes")

type sessionClaims struct {
	jwt.RegisteredClaims
}

// JWTSigner emite e valida o token da sessão de admin (HS256).
type JWTSigner struct {
	secret []byte
	leeway time.Duration
}

func NewJWTSigner(secret string) (*JWTSigner, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &JWTSigner{secret: []byte(secret), leeway: 5 * time.Second}, nil
}

func (s *JWTSigner) Sign(session entity.AdminSession) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    issuer,
			Subject:   "admin",
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTSigner) Parse(token string) (*entity.AdminSession, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	session := &entity.AdminSession{ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}
