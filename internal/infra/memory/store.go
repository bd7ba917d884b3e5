package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

var (
	ErrDuplicate = errors.New("record already exists")
	ErrMissingID = errors.New("id is required")
)

// Store guarda leads, eventos e configurações em memória. Usado em
// desenvolvimento (STORE_DRIVER=memory) e nos testes.
type Store struct {
	mu sync.RWMutex

	leads    map[string]leadRecord
	events   map[string][]eventRecord
	settings map[string]string
	seq      uint64

	Now func() time.Time
}

type leadRecord struct {
	Lead     entity.Lead
	Enriched bool
	seq      uint64
}

type eventRecord struct {
	Event entity.LeadEvent
	seq   uint64
}

func NewStore() *Store {
	return &Store{
		leads:    make(map[string]leadRecord),
		events:   make(map[string][]eventRecord),
		settings: make(map[string]string),
		Now:      time.Now,
	}
}

func (s *Store) Create(_ context.Context, lead *entity.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(lead.ID)
	if id == "" {
		return ErrMissingID
	}
	if _, exists := s.leads[id]; exists {
		return ErrDuplicate
	}

	now := s.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = entity.LeadStatusNew
	}

	s.seq++
	s.leads[id] = leadRecord{Lead: *lead, seq: s.seq}
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	lead := rec.Lead
	return &lead, nil
}

// ListRecent ordena por created_at desc; empates saem pela ordem de inserção inversa.
func (s *Store) ListRecent(_ context.Context) ([]entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]leadRecord, 0, len(s.leads))
	for _, rec := range s.leads {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Lead.CreatedAt.Equal(recs[j].Lead.CreatedAt) {
			return recs[i].Lead.CreatedAt.After(recs[j].Lead.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	leads := make([]entity.Lead, 0, len(recs))
	for _, rec := range recs {
		leads = append(leads, rec.Lead)
	}
	return leads, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, from, to entity.LeadStatus) error {
	if !to.Valid() {
		return entity.ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if rec.Lead.Status != from {
		return entity.ErrStatusConflict
	}
	rec.Lead.Status = to
	rec.Lead.UpdatedAt = s.Now().UTC()
	s.leads[id] = rec
	return nil
}

func (s *Store) ApplyEnrichment(_ context.Context, e entity.Enrichment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.leads[e.LeadID]
	if !ok {
		return false, entity.ErrLeadNotFound
	}
	if rec.Enriched {
		return false, nil
	}

	if e.Score != nil {
		score := *e.Score
		rec.Lead.Score = &score
	}
	rec.Lead.Band = e.Band
	rec.Lead.Label = e.Label
	rec.Lead.ModelRationale = e.ModelRationale
	rec.Lead.CompanySize = e.CompanySize
	rec.Lead.Industry = e.Industry
	rec.Lead.UpdatedAt = s.Now().UTC()
	rec.Enriched = true
	s.leads[e.LeadID] = rec
	return true, nil
}

// Append exige que o lead exista, como a FK da tabela lead_events.
func (s *Store) Append(_ context.Context, event *entity.LeadEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[event.LeadID]; !ok {
		return entity.ErrLeadNotFound
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	for _, rec := range s.events[event.LeadID] {
		if rec.Event.ID == event.ID {
			return ErrDuplicate
		}
	}

	event.CreatedAt = s.Now().UTC()
	stored := *event
	if event.Data != nil {
		stored.Data = append([]byte(nil), event.Data...)
	}

	s.seq++
	s.events[event.LeadID] = append(s.events[event.LeadID], eventRecord{Event: stored, seq: s.seq})
	return nil
}

func (s *Store) ListByLead(_ context.Context, leadID string) ([]entity.LeadEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := append([]eventRecord(nil), s.events[leadID]...)
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Event.CreatedAt.Equal(recs[j].Event.CreatedAt) {
			return recs[i].Event.CreatedAt.After(recs[j].Event.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	events := make([]entity.LeadEvent, 0, len(recs))
	for _, rec := range recs {
		events = append(events, rec.Event)
	}
	return events, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	if !ok {
		return "", entity.ErrSettingNotFound
	}
	return value, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}
