package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func newSession() *entity.AdminSession {
	now := time.Now().UTC()
	return &entity.AdminSession{ID: "sess-1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
}

func seedLead(t *testing.T, store *memory.Store, id string, status entity.LeadStatus) entity.Lead {
	t.Helper()
	lead := &entity.Lead{ID: id, Name: "Ana Lee", Email: "ana@x.com", ProblemText: "Need automation", Status: status}
	require.NoError(t, store.Create(context.Background(), lead))
	return *lead
}

func openReview(t *testing.T, svc *usecase.ReviewService) *usecase.LeadReview {
	t.Helper()
	review, err := svc.Open(newSession())
	require.NoError(t, err)
	return review
}

func countEvents(events []entity.LeadEvent, eventType entity.EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// ============ TESTES DA LISTA ============

// TestReviewOpenRequiresSession - Sem sessão válida não há visão de revisão
func TestReviewOpenRequiresSession(t *testing.T) {
	store := memory.NewStore()
	svc := usecase.NewReviewService(store, store, nil, nil, nil, nil, nil, 0)

	_, err := svc.Open(nil)
	assert.True(t, usecase.HasCode(err, usecase.CodeUnauthorized))

	expired := &entity.AdminSession{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	_, err = svc.Open(expired)
	assert.True(t, usecase.HasCode(err, usecase.CodeUnauthorized))
}

// TestListLeadsKeepsLastListOnFailure - Falha na leitura devolve a última lista carregada
func TestListLeadsKeepsLastListOnFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockLeadRepository)
	loaded := []entity.Lead{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Bob"}}

	mockRepo.On("ListRecent", ctx).Return(loaded, nil).Once()
	mockRepo.On("ListRecent", ctx).Return(nil, errors.New("db down")).Once()

	svc := usecase.NewReviewService(mockRepo, nil, nil, nil, nil, nil, nil, 0)
	review := openReview(t, svc)

	leads, err := review.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	leads, err = review.ListLeads(ctx)
	assert.True(t, usecase.HasCode(err, usecase.CodeFetch))
	assert.Equal(t, loaded, leads)
	assert.Equal(t, loaded, review.Leads())
}

// TestListLeadsLastRequestWins - Resposta atrasada de uma requisição antiga é descartada
func TestListLeadsLastRequestWins(t *testing.T) {
	mockRepo := new(MockLeadRepository)
	stale := []entity.Lead{{ID: "old"}}
	fresh := []entity.Lead{{ID: "new"}}

	started := make(chan struct{})
	release := make(chan struct{})
	mockRepo.On("ListRecent", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(stale, nil).Once()
	mockRepo.On("ListRecent", mock.Anything).Return(fresh, nil).Once()

	svc := usecase.NewReviewService(mockRepo, nil, nil, nil, nil, nil, nil, 0)
	review := openReview(t, svc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = review.ListLeads(context.Background())
	}()

	<-started
	_, err := review.ListLeads(context.Background())
	require.NoError(t, err)

	close(release)
	<-done

	assert.Equal(t, fresh, review.Leads())
}

// TestReviewViewsAreIsolatedPerSession - Cada sessão tem a sua lista
func TestReviewViewsAreIsolatedPerSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)

	svc := usecase.NewReviewService(store, store, nil, nil, nil, nil, nil, 0)
	first := openReview(t, svc)
	_, err := first.ListLeads(ctx)
	require.NoError(t, err)

	now := time.Now()
	second, err := svc.Open(&entity.AdminSession{ID: "sess-2", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	assert.Len(t, first.Leads(), 1)
	assert.Empty(t, second.Leads())

	svc.Close("sess-1")
	reopened := openReview(t, svc)
	assert.Empty(t, reopened.Leads())
}

// ============ TESTES DA SELEÇÃO ============

// TestSelectLeadLoadsEvents - Eventos mais recentes primeiro
func TestSelectLeadLoadsEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)

	first, _ := entity.NewLeadEvent("lead-1", entity.LeadCapturedPayload{Source: "website", FormVersion: "v1"})
	second, _ := entity.NewLeadEvent("lead-1", entity.StatusChangedPayload{From: entity.LeadStatusNew, To: entity.LeadStatusQualified})
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	svc := usecase.NewReviewService(store, store, nil, nil, nil, nil, nil, 0)
	review := openReview(t, svc)

	detail, err := review.SelectLead(ctx, "lead-1")

	require.NoError(t, err)
	assert.Equal(t, "lead-1", detail.Lead.ID)
	require.Len(t, detail.Events, 2)
	assert.Equal(t, entity.EventStatusChanged, detail.Events[0].Type)
	assert.Equal(t, entity.EventLeadCaptured, detail.Events[1].Type)
	assert.Equal(t, "lead-1", review.Selected().Lead.ID)
}

// TestSelectLeadFailureKeepsPreviousSelection - Erro não limpa a seleção atual
func TestSelectLeadFailureKeepsPreviousSelection(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	seedLead(t, store, "lead-2", entity.LeadStatusNew)

	mockEvents := new(MockLeadEventRepository)
	mockEvents.On("ListByLead", ctx, "lead-1").Return(nil, nil)
	mockEvents.On("ListByLead", ctx, "lead-2").Return(nil, errors.New("timeout"))

	svc := usecase.NewReviewService(store, mockEvents, nil, nil, nil, nil, nil, 0)
	review := openReview(t, svc)

	detail, err := review.SelectLead(ctx, "lead-1")
	require.NoError(t, err)
	assert.NotNil(t, detail.Events)
	assert.Empty(t, detail.Events)

	previous, err := review.SelectLead(ctx, "lead-2")
	assert.True(t, usecase.HasCode(err, usecase.CodeFetch))
	require.NotNil(t, previous)
	assert.Equal(t, "lead-1", previous.Lead.ID)

	_, err = review.SelectLead(ctx, "missing")
	assert.True(t, usecase.HasCode(err, usecase.CodeNotFound))
	assert.Equal(t, "lead-1", review.Selected().Lead.ID)
}

// ============ TESTES DO OUTREACH ============

func newOutreachService(store *memory.Store, outreachURL string) *usecase.ReviewService {
	webhooks := usecase.NewWebhookConfigService(store, entity.WebhookSettings{OutreachURL: outreachURL}, nil)
	return usecase.NewReviewService(store, store, n8n.NewClient(0, nil), webhooks, nil, nil, nil, 0)
}

// TestSendOutreachSuccess - Webhook 200 marca contacted e registra outreach_sent
func TestSendOutreachSuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	hook, url := newWebhook(t, http.StatusOK)

	review := openReview(t, newOutreachService(store, url))
	_, err := review.ListLeads(ctx)
	require.NoError(t, err)

	out, err := review.SendOutreach(ctx, "lead-1")

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, out.Lead.Status)
	assert.Empty(t, out.Warnings)

	lead, _ := store.FindByID(ctx, "lead-1")
	assert.Equal(t, entity.LeadStatusContacted, lead.Status)

	events := eventsOf(store, "lead-1")
	require.Len(t, events, 1)
	payload, err := events[0].Payload()
	require.NoError(t, err)
	assert.Equal(t, usecase.OutreachChannel, payload.(entity.OutreachSentPayload).Channel)

	payloads := hook.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, map[string]any{"lead_id": "lead-1"}, payloads[0])

	// a visão em memória já reflete o novo status
	assert.Equal(t, entity.LeadStatusContacted, review.Leads()[0].Status)
	assert.Equal(t, 1, review.Stats().Contacted)
}

// TestSendOutreachWebhookFailure - Webhook 500 mantém o lead como new e sem evento
func TestSendOutreachWebhookFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	_, url := newWebhook(t, http.StatusInternalServerError)

	review := openReview(t, newOutreachService(store, url))

	out, err := review.SendOutreach(ctx, "lead-1")

	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeNotification))
	require.NotNil(t, out)
	assert.Equal(t, usecase.StepFailed, out.Report.Status(usecase.StepNotifyOutreach))
	assert.Equal(t, usecase.StepSkipped, out.Report.Status(usecase.StepUpdateStatus))

	lead, _ := store.FindByID(ctx, "lead-1")
	assert.Equal(t, entity.LeadStatusNew, lead.Status)
	assert.Equal(t, 0, countEvents(eventsOf(store, "lead-1"), entity.EventOutreachSent))
}

// TestSendOutreachIsIdempotent - Segundo envio não chama o webhook de novo
func TestSendOutreachIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	hook, url := newWebhook(t, http.StatusOK)

	review := openReview(t, newOutreachService(store, url))

	_, err := review.SendOutreach(ctx, "lead-1")
	require.NoError(t, err)

	out, err := review.SendOutreach(ctx, "lead-1")

	assert.Nil(t, out)
	assert.True(t, usecase.HasCode(err, usecase.CodeAlreadyContacted))
	assert.Len(t, hook.received(), 1)
	assert.Equal(t, 1, countEvents(eventsOf(store, "lead-1"), entity.EventOutreachSent))
}

// TestSendOutreachWithoutWebhook - URL de outreach vazia é erro de configuração
func TestSendOutreachWithoutWebhook(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)

	review := openReview(t, newOutreachService(store, ""))

	_, err := review.SendOutreach(ctx, "lead-1")

	assert.True(t, usecase.HasCode(err, usecase.CodeConfiguration))
	lead, _ := store.FindByID(ctx, "lead-1")
	assert.Equal(t, entity.LeadStatusNew, lead.Status)
}

// TestSendOutreachUnknownLead - Lead inexistente
func TestSendOutreachUnknownLead(t *testing.T) {
	store := memory.NewStore()
	review := openReview(t, newOutreachService(store, "https://hooks.test/outreach"))

	_, err := review.SendOutreach(context.Background(), "missing")

	assert.True(t, usecase.HasCode(err, usecase.CodeNotFound))
}

// TestSendOutreachResumesAfterStatusFailure - Retomada não reenvia o webhook já entregue
func TestSendOutreachResumesAfterStatusFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mockRepo := new(MockLeadRepository)
	mockEvents := new(MockLeadEventRepository)
	mockNotifier := new(MockWebhookNotifier)
	mockReporter := new(MockReporter)

	lead := &entity.Lead{ID: "lead-1", Name: "Ana", Email: "ana@x.com", Status: entity.LeadStatusNew}
	mockRepo.On("FindByID", ctx, "lead-1").Return(lead, nil)
	mockRepo.On("UpdateStatus", ctx, "lead-1", entity.LeadStatusNew, entity.LeadStatusContacted).Return(errors.New("deadlock")).Once()
	mockRepo.On("UpdateStatus", ctx, "lead-1", entity.LeadStatusNew, entity.LeadStatusContacted).Return(nil).Once()
	mockNotifier.On("NotifyOutreach", ctx, "https://hooks.test/outreach", n8n.OutreachPayload{LeadID: "lead-1"}).Return(nil).Once()
	mockEvents.On("Append", ctx, mock.MatchedBy(func(e *entity.LeadEvent) bool {
		return e.Type == entity.EventOutreachSent
	})).Return(nil).Once()
	mockReporter.On("ReportInconsistency", ctx, "outreach", "lead-1", mock.Anything).Return().Once()

	webhooks := usecase.NewWebhookConfigService(store, entity.WebhookSettings{OutreachURL: "https://hooks.test/outreach"}, nil)
	svc := usecase.NewReviewService(mockRepo, mockEvents, mockNotifier, webhooks, mockReporter, nil, nil, 0)
	review := openReview(t, svc)

	out, err := review.SendOutreach(ctx, "lead-1")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodePersistence))
	assert.Equal(t, usecase.StepDone, out.Report.Status(usecase.StepNotifyOutreach))
	assert.Equal(t, usecase.StepFailed, out.Report.Status(usecase.StepUpdateStatus))

	out, err = review.SendOutreach(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, out.Lead.Status)

	mockNotifier.AssertNumberOfCalls(t, "NotifyOutreach", 1)
	mockRepo.AssertNumberOfCalls(t, "UpdateStatus", 2)
	mockEvents.AssertExpectations(t)
	mockReporter.AssertExpectations(t)
}

// TestSendOutreachEventFailureIsWarning - Lead contacted mesmo sem outreach_sent; a retomada só regrava o evento
func TestSendOutreachEventFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	mockEvents := new(MockLeadEventRepository)
	mockNotifier := new(MockWebhookNotifier)
	mockReporter := new(MockReporter)

	mockNotifier.On("NotifyOutreach", ctx, mock.Anything, mock.Anything).Return(nil)
	mockEvents.On("Append", ctx, mock.Anything).Return(errors.New("disk full")).Once()
	mockEvents.On("Append", ctx, mock.Anything).Return(nil).Once()
	mockReporter.On("ReportInconsistency", ctx, "outreach", "lead-1", mock.Anything).Return().Once()

	webhooks := usecase.NewWebhookConfigService(store, entity.WebhookSettings{OutreachURL: "https://hooks.test/outreach"}, nil)
	svc := usecase.NewReviewService(store, mockEvents, mockNotifier, webhooks, mockReporter, nil, nil, 0)
	review := openReview(t, svc)

	out, err := review.SendOutreach(ctx, "lead-1")

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, out.Lead.Status)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, usecase.CodeEventLog, out.Warnings[0].Code)

	// retomada: só o evento pendente roda
	out, err = review.SendOutreach(ctx, "lead-1")
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, usecase.StepDone, out.Report.Status(usecase.StepAppendEvent))

	// nada mais pendente
	_, err = review.SendOutreach(ctx, "lead-1")
	assert.True(t, usecase.HasCode(err, usecase.CodeAlreadyContacted))

	mockNotifier.AssertNumberOfCalls(t, "NotifyOutreach", 1)
	mockEvents.AssertExpectations(t)
	mockReporter.AssertExpectations(t)
}

// ============ TESTES DE STATUS MANUAL ============

// TestSetStatus - Troca manual registra status_changed
func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusContacted)

	svc := usecase.NewReviewService(store, store, nil, nil, nil, nil, nil, 0)
	review := openReview(t, svc)

	out, err := review.SetStatus(ctx, "lead-1", entity.LeadStatusQualified)

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusQualified, out.Lead.Status)

	events := eventsOf(store, "lead-1")
	require.Len(t, events, 1)
	payload, err := events[0].Payload()
	require.NoError(t, err)
	assert.Equal(t, entity.StatusChangedPayload{From: entity.LeadStatusContacted, To: entity.LeadStatusQualified}, payload)

	// mesmo status: nada muda
	_, err = review.SetStatus(ctx, "lead-1", entity.LeadStatusQualified)
	require.NoError(t, err)
	assert.Len(t, eventsOf(store, "lead-1"), 1)
}

// TestSetStatusInvalid - Status fora do conjunto é erro de validação
func TestSetStatusInvalid(t *testing.T) {
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	review := openReview(t, usecase.NewReviewService(store, store, nil, nil, nil, nil, nil, 0))

	_, err := review.SetStatus(context.Background(), "lead-1", entity.LeadStatus("archived"))

	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))
}

// TestSetStatusRejectsOutreachStatuses - contacted e new não passam pela troca manual
func TestSetStatusRejectsOutreachStatuses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	seedLead(t, store, "lead-2", entity.LeadStatusContacted)
	hook, url := newWebhook(t, http.StatusOK)

	review := openReview(t, newOutreachService(store, url))

	_, err := review.SetStatus(ctx, "lead-1", entity.LeadStatusContacted)
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))

	_, err = review.SetStatus(ctx, "lead-2", entity.LeadStatusNew)
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))

	lead, _ := store.FindByID(ctx, "lead-1")
	assert.Equal(t, entity.LeadStatusNew, lead.Status)
	lead, _ = store.FindByID(ctx, "lead-2")
	assert.Equal(t, entity.LeadStatusContacted, lead.Status)
	assert.Empty(t, eventsOf(store, "lead-1"))
	assert.Empty(t, eventsOf(store, "lead-2"))

	// lead contacted continua protegido contra novo envio
	_, err = review.SendOutreach(ctx, "lead-2")
	assert.True(t, usecase.HasCode(err, usecase.CodeAlreadyContacted))
	assert.Empty(t, hook.received())

	_, err = review.SetStatus(ctx, "lead-1", entity.LeadStatusClosed)
	require.NoError(t, err)
}

// TestSendOutreachIgnoresCallerCancellation - Envio compartilhado não morre com o ctx de quem chamou
func TestSendOutreachIgnoresCallerCancellation(t *testing.T) {
	store := memory.NewStore()
	seedLead(t, store, "lead-1", entity.LeadStatusNew)
	hook, url := newWebhook(t, http.StatusOK)

	review := openReview(t, newOutreachService(store, url))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := review.SendOutreach(ctx, "lead-1")

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, out.Lead.Status)
	assert.Len(t, hook.received(), 1)
	assert.Equal(t, 1, countEvents(eventsOf(store, "lead-1"), entity.EventOutreachSent))
}
