package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/http/apierror"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type AdminHandler struct {
	gate         *usecase.AdminGate
	review       *usecase.ReviewService
	webhooks     *usecase.WebhookConfigService
	cookieSecure bool
	logger       *zap.Logger
}

func NewAdminHandler(gate *usecase.AdminGate, review *usecase.ReviewService, webhooks *usecase.WebhookConfigService, cookieSecure bool, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		gate:         gate,
		review:       review,
		webhooks:     webhooks,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UpdateWebhooksRequest struct {
	CaptureURL  *string `json:"capture_url"`
	OutreachURL *string `json:"outreach_url"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		apierror.BadRequest(w, "Invalid JSON")
		return
	}

	session, token, err := h.gate.Login(r.Context(), req.Password)
	if err != nil {
		apierror.WriteError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, session.ExpiresAt))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: session.ExpiresAt})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if err := h.gate.Logout(r.Context(), session); err != nil {
		apierror.WriteError(w, err)
		return
	}
	if session != nil {
		h.review.Close(session.ID)
	}

	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

func (h *AdminHandler) GetWebhooks(w http.ResponseWriter, r *http.Request) {
	settings, err := h.webhooks.Get(r.Context())
	if err != nil {
		apierror.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpdateWebhooks(w http.ResponseWriter, r *http.Request) {
	var req UpdateWebhooksRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		apierror.BadRequest(w, "Invalid JSON")
		return
	}
	if req.CaptureURL == nil && req.OutreachURL == nil {
		apierror.Write(w, apierror.FromError(usecase.NewValidationError(map[string]string{
			usecase.FieldCaptureURL: "Webhook URL is required",
		})))
		return
	}

	settings, err := h.webhooks.Update(r.Context(), req.CaptureURL, req.OutreachURL)
	if err != nil {
		apierror.WriteError(w, err)
		return
	}

	h.logger.Info("webhooks atualizados pelo admin",
		zap.String("session_id", sessionID(r)),
		zap.Bool("capture", req.CaptureURL != nil),
		zap.Bool("outreach", req.OutreachURL != nil),
	)
	writeJSON(w, http.StatusOK, settings)
}

func sessionID(r *http.Request) string {
	if s := middleware.SessionFromContext(r.Context()); s != nil {
		return s.ID
	}
	return ""
}
