package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	defaultViewCacheSize = 256
	defaultViewTTL       = 12 * time.Hour
	defaultOutreachTTL   = 30 * time.Second
)

// reviewView é o estado da tela de revisão de uma sessão de admin.
type reviewView struct {
	mu        sync.Mutex
	leads     []entity.Lead
	listGen   uint64
	selected  *LeadDetail
	selectGen uint64
}

func (v *reviewView) beginList() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listGen++
	return v.listGen
}

// commitList só aplica o resultado se nenhuma requisição mais nova foi iniciada.
func (v *reviewView) commitList(gen uint64, leads []entity.Lead) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.listGen {
		return false
	}
	v.leads = leads
	return true
}

func (v *reviewView) snapshot() []entity.Lead {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]entity.Lead, len(v.leads))
	copy(out, v.leads)
	return out
}

func (v *reviewView) findLead(id string) (entity.Lead, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, lead := range v.leads {
		if lead.ID == id {
			return lead, true
		}
	}
	return entity.Lead{}, false
}

func (v *reviewView) beginSelect() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectGen++
	return v.selectGen
}

func (v *reviewView) commitSelect(gen uint64, detail *LeadDetail) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.selectGen {
		return false
	}
	v.selected = detail
	return true
}

func (v *reviewView) selection() *LeadDetail {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return nil
	}
	detail := *v.selected
	return &detail
}

// updateLead troca a cópia em memória do lead, na lista e na seleção.
func (v *reviewView) updateLead(lead entity.Lead) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.leads {
		if v.leads[i].ID == lead.ID {
			// a lista pode ser compartilhada com um snapshot antigo
			leads := make([]entity.Lead, len(v.leads))
			copy(leads, v.leads)
			leads[i] = lead
			v.leads = leads
			break
		}
	}
	if v.selected != nil && v.selected.Lead.ID == lead.ID {
		detail := *v.selected
		detail.Lead = lead
		v.selected = &detail
	}
}

type ReviewService struct {
	Repo      LeadRepository
	EventRepo LeadEventRepository
	Notifier  WebhookNotifier
	Webhooks  *WebhookConfigService
	Reporter  InconsistencyReporter
	Journal   *StepJournal
	Logger    *zap.Logger
	Now       Clock

	// OutreachTimeout limita o envio compartilhado, que não depende do ctx de quem chamou.
	OutreachTimeout time.Duration

	viewsMu sync.Mutex
	views   *expirable.LRU[string, *reviewView]
	flight  singleflight.Group
}

// NewReviewService: reporter é opcional. viewTTL normalmente acompanha o TTL da sessão.
func NewReviewService(
	repo LeadRepository,
	eventRepo LeadEventRepository,
	notifier WebhookNotifier,
	webhooks *WebhookConfigService,
	reporter InconsistencyReporter,
	journal *StepJournal,
	logger *zap.Logger,
	viewTTL time.Duration,
) *ReviewService {
	if journal == nil {
		journal = NewStepJournal(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if viewTTL <= 0 {
		viewTTL = defaultViewTTL
	}
	return &ReviewService{
		Repo:      repo,
		EventRepo: eventRepo,
		Notifier:  notifier,
		Webhooks:  webhooks,
		Reporter:  reporter,
		Journal:   journal,
		Logger:    logger.With(zap.String("flow", "review")),
		Now:       time.Now,
		views:     expirable.NewLRU[string, *reviewView](defaultViewCacheSize, nil, viewTTL),

		OutreachTimeout: defaultOutreachTTL,
	}
}

// Open devolve a visão de revisão da sessão. Sessão ausente ou expirada é rejeitada.
func (s *ReviewService) Open(session *entity.AdminSession) (*LeadReview, error) {
	if session == nil {
		return nil, NewUnauthorizedError("admin session required")
	}
	if session.ExpiredAt(s.Now()) {
		return nil, NewUnauthorizedError(entity.ErrSessionExpired.Error())
	}

	s.viewsMu.Lock()
	view, ok := s.views.Get(session.ID)
	if !ok {
		view = &reviewView{}
		s.views.Add(session.ID, view)
	}
	s.viewsMu.Unlock()

	return &LeadReview{svc: s, session: session, view: view}, nil
}

// Close descarta o estado da visão (logout).
func (s *ReviewService) Close(sessionID string) {
	s.views.Remove(sessionID)
}

// LeadReview é a visão de revisão de uma sessão de admin.
type LeadReview struct {
	svc     *ReviewService
	session *entity.AdminSession
	view    *reviewView
}

func (r *LeadReview) Session() entity.AdminSession {
	return *r.session
}

// ListLeads recarrega a lista. Em caso de falha devolve a última lista
// carregada junto com o FetchError.
func (r *LeadReview) ListLeads(ctx context.Context) ([]entity.Lead, error) {
	gen := r.view.beginList()

	leads, err := r.svc.Repo.ListRecent(ctx)
	if err != nil {
		r.svc.Logger.Error("falha ao carregar leads", zap.String("session_id", r.session.ID), zap.Error(err))
		return r.view.snapshot(), NewFetchError("failed to load leads", err)
	}

	if !r.view.commitList(gen, leads) {
		r.svc.Logger.Debug("lista descartada, requisição mais nova em andamento", zap.Uint64("gen", gen))
	}
	return leads, nil
}

func (r *LeadReview) Leads() []entity.Lead {
	return r.view.snapshot()
}

func (r *LeadReview) Filter(f LeadFilter) []entity.Lead {
	return FilterLeads(r.view.snapshot(), f)
}

func (r *LeadReview) Stats() LeadStats {
	return Stats(r.view.snapshot())
}

func (r *LeadReview) Selected() *LeadDetail {
	return r.view.selection()
}

// SelectLead carrega os eventos do lead. Em caso de falha a seleção anterior
// é mantida e devolvida junto com o erro.
func (r *LeadReview) SelectLead(ctx context.Context, id string) (*LeadDetail, error) {
	gen := r.view.beginSelect()

	lead, ok := r.view.findLead(id)
	if !ok {
		found, err := r.svc.Repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, entity.ErrLeadNotFound) {
				return r.view.selection(), NewNotFoundError("lead " + id + " not found")
			}
			return r.view.selection(), NewFetchError("failed to load lead", err)
		}
		lead = *found
	}

	events, err := r.svc.EventRepo.ListByLead(ctx, id)
	if err != nil {
		r.svc.Logger.Error("falha ao carregar eventos", zap.String("lead_id", id), zap.Error(err))
		return r.view.selection(), NewFetchError("failed to load lead events", err)
	}
	if events == nil {
		events = []entity.LeadEvent{}
	}

	detail := &LeadDetail{Lead: lead, Events: events}
	r.view.commitSelect(gen, detail)
	return detail, nil
}
