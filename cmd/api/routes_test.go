package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/auth"
	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	notifier := n8n.NewClient(time.Second, nil)
	webhooks := usecase.NewWebhookConfigService(store, entity.WebhookSettings{}, nil)
	capture := usecase.NewCaptureLeadUseCase(store, store, notifier, nil, nil, nil, nil)
	review := usecase.NewReviewService(store, store, notifier, webhooks, nil, nil, nil, time.Hour)

	verifier, err := auth.NewBcryptVerifier("painel-123", "")
	require.NoError(t, err)
	signer, err := auth.NewJWTSigner("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	gate := usecase.NewAdminGate(verifier, signer, cache.NewMemoryRevocationStore(), time.Hour, nil)

	return newRouter(routes{
		Lead:   handlers.NewLeadHandler(capture, webhooks, nil, nil),
		Admin:  handlers.NewAdminHandler(gate, review, webhooks, false, nil),
		Review: handlers.NewReviewHandler(review, nil),
		Health: handlers.NewHealthHandler(nil, nil, nil),
		Auth:   gate,
	}, []string{"https://ligue.test"}, zap.NewNop())
}

// TestRouterPublicAndProtected - Rotas públicas abertas, painel exige sessão
func TestRouterPublicAndProtected(t *testing.T) {
	router := testRouter(t)

	for path, want := range map[string]int{
		"/health":         http.StatusOK,
		"/metrics":        http.StatusOK,
		"/config/webhook": http.StatusOK,
		"/admin/leads":    http.StatusUnauthorized,
		"/admin/webhooks": http.StatusUnauthorized,
		"/nope":           http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

// TestRouterCORS - Preflight só para origens liberadas
func TestRouterCORS(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", "https://ligue.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://ligue.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", "https://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
