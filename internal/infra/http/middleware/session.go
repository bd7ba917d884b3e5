package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/apierror"
)

const SessionCookieName = "admin_session"

type contextKey string

const sessionKey contextKey = "admin_session"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.AdminSession, error)
}

// RequireSession aceita o token no cookie admin_session ou como Bearer.
func RequireSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				apierror.Unauthorized(w, "admin session required")
				return
			}

			session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				apierror.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func WithSession(ctx context.Context, session *entity.AdminSession) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

func SessionFromContext(ctx context.Context) *entity.AdminSession {
	session, _ := ctx.Value(sessionKey).(*entity.AdminSession)
	return session
}
