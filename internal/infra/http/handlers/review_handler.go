package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/apierror"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ReviewHandler struct {
	review *usecase.ReviewService
	logger *zap.Logger
}

func NewReviewHandler(review *usecase.ReviewService, logger *zap.Logger) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewHandler{review: review, logger: logger}
}

type LeadListResponse struct {
	Leads []entity.Lead     `json:"leads"`
	Total int               `json:"total"`
	Stats usecase.LeadStats `json:"stats"`
	Error *apierror.Detail  `json:"error,omitempty"`
	Stale bool              `json:"stale,omitempty"`
}

type SetStatusRequest struct {
	Status entity.LeadStatus `json:"status"`
}

func (h *ReviewHandler) open(w http.ResponseWriter, r *http.Request) (*usecase.LeadReview, bool) {
	view, err := h.review.Open(middleware.SessionFromContext(r.Context()))
	if err != nil {
		apierror.WriteError(w, err)
		return nil, false
	}
	return view, true
}

// ListLeads recarrega a lista e aplica os filtros da query string.
// Se a leitura falhar, responde 503 com a última lista carregada.
func (h *ReviewHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := usecase.LeadFilter{
		Search: q.Get("search"),
		Band:   q.Get("band"),
		Label:  q.Get("label"),
	}

	leads, err := view.ListLeads(r.Context())
	resp := LeadListResponse{
		Leads: usecase.FilterLeads(leads, filter),
		Total: len(leads),
		Stats: usecase.Stats(leads),
	}

	if err != nil {
		body := apierror.FromError(err)
		resp.Error = &body.Error
		resp.Stale = true
		writeJSON(w, apierror.Status(body.Error.Code), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}

	detail, err := view.SelectLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("falha ao abrir lead", zap.String("lead_id", chi.URLParam(r, "id")), zap.Error(err))
		apierror.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ReviewHandler) SendOutreach(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}

	out, err := view.SendOutreach(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := usecase.ErrorCode(err)
		if code == usecase.CodeNotification {
			middleware.RecordWebhookError("outreach")
		}
		middleware.RecordOutreach(strings.ToLower(codeOrInternal(code)))

		body := apierror.FromError(err)
		if out != nil {
			body.LeadID = out.Lead.ID
			body.Report = &out.Report
		}
		apierror.Write(w, body)
		return
	}

	middleware.RecordOutreach("success")
	writeJSON(w, http.StatusOK, out)
}

func (h *ReviewHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	view, ok := h.open(w, r)
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		apierror.BadRequest(w, "Invalid JSON")
		return
	}

	out, err := view.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		apierror.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
