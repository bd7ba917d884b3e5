package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ListRecent(ctx context.Context) ([]entity.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LeadStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockLeadRepository) ApplyEnrichment(ctx context.Context, e entity.Enrichment) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

// MockLeadEventRepository
type MockLeadEventRepository struct {
	mock.Mock
}

func (m *MockLeadEventRepository) Append(ctx context.Context, event *entity.LeadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLeadEventRepository) ListByLead(ctx context.Context, leadID string) ([]entity.LeadEvent, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeadEvent), args.Error(1)
}

// MockWebhookNotifier
type MockWebhookNotifier struct {
	mock.Mock
}

func (m *MockWebhookNotifier) NotifyCapture(ctx context.Context, url string, payload n8n.CapturePayload) error {
	args := m.Called(ctx, url, payload)
	return args.Error(0)
}

func (m *MockWebhookNotifier) NotifyOutreach(ctx context.Context, url string, payload n8n.OutreachPayload) error {
	args := m.Called(ctx, url, payload)
	return args.Error(0)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLeadCaptured(ctx context.Context, msg queue.LeadCapturedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockReporter
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) ReportInconsistency(ctx context.Context, flow, leadID string, err error) {
	m.Called(ctx, flow, leadID, err)
}

// MockSettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockRevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	args := m.Called(ctx, sessionID, until)
	return args.Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// eventsOf lê os eventos de um lead direto do store de teste.
func eventsOf(repo interface {
	ListByLead(ctx context.Context, leadID string) ([]entity.LeadEvent, error)
}, leadID string) []entity.LeadEvent {
	events, _ := repo.ListByLead(context.Background(), leadID)
	return events
}

func intPtr(v int) *int { return &v }
