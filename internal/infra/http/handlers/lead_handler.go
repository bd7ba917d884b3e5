package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xavierca1/ligue-leads/internal/infra/http/apierror"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const maxBodyBytes = 64 << 10

type LeadHandler struct {
	capture     *usecase.CaptureLeadUseCase
	webhooks    *usecase.WebhookConfigService
	rateLimiter *RateLimiter
	logger      *zap.Logger
}

func NewLeadHandler(capture *usecase.CaptureLeadUseCase, webhooks *usecase.WebhookConfigService, limiter *RateLimiter, logger *zap.Logger) *LeadHandler {
	if limiter == nil {
		limiter = NewRateLimiter(10, time.Minute) // 10 req/min por IP
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadHandler{
		capture:     capture,
		webhooks:    webhooks,
		rateLimiter: limiter,
		logger:      logger,
	}
}

type CaptureLeadResponse struct {
	Success  bool              `json:"success"`
	LeadID   string            `json:"lead_id"`
	Report   usecase.Report    `json:"report"`
	Warnings []usecase.Warning `json:"warnings,omitempty"`
}

type WebhookStatusResponse struct {
	CaptureConfigured bool `json:"capture_configured"`
}

// CaptureLead é o POST /leads do formulário público.
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		middleware.RecordCapture("rate_limited")
		apierror.Write(w, apierror.Body{Error: apierror.Detail{
			Code:    apierror.CodeRateLimited,
			Message: "Too many requests. Please try again later.",
		}})
		return
	}

	var req usecase.CaptureLeadInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		apierror.BadRequest(w, "Invalid JSON")
		return
	}

	ctx := r.Context()
	settings, err := h.webhooks.Get(ctx)
	if err != nil {
		middleware.RecordCapture("error")
		apierror.WriteError(w, err)
		return
	}

	out, err := h.capture.Execute(ctx, req, settings.CaptureURL, captureSource(r))
	h.writeCaptureResult(w, out, err)
}

// ResumeCapture reexecuta os passos pendentes de uma captura.
func (h *LeadHandler) ResumeCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.webhooks.Get(ctx)
	if err != nil {
		apierror.WriteError(w, err)
		return
	}

	out, err := h.capture.ResumeCapture(ctx, chi.URLParam(r, "id"), settings.CaptureURL)
	h.writeCaptureResult(w, out, err)
}

func (h *LeadHandler) writeCaptureResult(w http.ResponseWriter, out *usecase.CaptureLeadOutput, err error) {
	if err != nil {
		code := usecase.ErrorCode(err)
		if code == "" {
			h.logger.Error("erro inesperado na captura", zap.Error(err))
		}
		if code == usecase.CodeNotification {
			middleware.RecordWebhookError("capture")
		}
		middleware.RecordCapture(strings.ToLower(codeOrInternal(code)))

		body := apierror.FromError(err)
		if out != nil {
			body.LeadID = out.LeadID
			body.Report = &out.Report
		}
		apierror.Write(w, body)
		return
	}

	middleware.RecordCapture("success")
	writeJSON(w, http.StatusCreated, CaptureLeadResponse{
		Success:  out.Success,
		LeadID:   out.LeadID,
		Report:   out.Report,
		Warnings: out.Warnings,
	})
}

// WebhookStatus diz ao formulário se a captura está habilitada.
func (h *LeadHandler) WebhookStatus(w http.ResponseWriter, r *http.Request) {
	settings, err := h.webhooks.Get(r.Context())
	if err != nil {
		apierror.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WebhookStatusResponse{CaptureConfigured: settings.CaptureURL != ""})
}

func captureSource(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return usecase.CaptureSource
}

func codeOrInternal(code string) string {
	if code == "" {
		return apierror.CodeInternal
	}
	return code
}

// getClientIP usa o RemoteAddr já resolvido pelo RealIP do router.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimiter mantém um token bucket por IP. Visitantes parados expiram do cache.
type RateLimiter struct {
	mu       sync.Mutex
	visitors *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	return &RateLimiter{
		visitors: expirable.NewLRU[string, *rate.Limiter](10000, nil, window*2),
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.visitors.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.visitors.Add(ip, limiter)
	}
	return limiter.Allow()
}
