package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLeadCaptured  EventType = "lead_captured"
	EventLeadScored    EventType = "lead_scored"
	EventOutreachSent  EventType = "outreach_sent"
	EventStatusChanged EventType = "status_changed"
)

// Title formata o tipo para exibição: "lead_captured" -> "Lead Captured".
func (t EventType) Title() string {
	parts := strings.Split(string(t), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}

// LeadEvent é imutável depois de gravado.
type LeadEvent struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"lead_id"`
	Type      EventType       `json:"event_type"`
	Data      json.RawMessage `json:"event_data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Payload decodifica Data de acordo com o tipo do evento.
func (e LeadEvent) Payload() (EventPayload, error) {
	return DecodeEventPayload(e.Type, e.Data)
}

// EventPayload é a união dos payloads conhecidos. Tipos produzidos por
// sistemas externos que não conhecemos caem em OpaquePayload.
type EventPayload interface {
	EventType() EventType
}

type LeadCapturedPayload struct {
	Source      string `json:"source"`
	FormVersion string `json:"form_version"`
}

func (LeadCapturedPayload) EventType() EventType { return EventLeadCaptured }

type LeadScoredPayload struct {
	Score *int  `json:"score,omitempty"`
	Band  Band  `json:"band,omitempty"`
	Label Label `json:"label,omitempty"`
}

func (LeadScoredPayload) EventType() EventType { return EventLeadScored }

type OutreachSentPayload struct {
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}

func (OutreachSentPayload) EventType() EventType { return EventOutreachSent }

type StatusChangedPayload struct {
	From LeadStatus `json:"from"`
	To   LeadStatus `json:"to"`
}

func (StatusChangedPayload) EventType() EventType { return EventStatusChanged }

type OpaquePayload struct {
	Type EventType
	Raw  json.RawMessage
}

func (p OpaquePayload) EventType() EventType { return p.Type }

func (p OpaquePayload) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return []byte("null"), nil
	}
	return p.Raw, nil
}

func DecodeEventPayload(t EventType, raw json.RawMessage) (EventPayload, error) {
	var target EventPayload
	switch t {
	case EventLeadCaptured:
		var p LeadCapturedPayload
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		target = p
	case EventLeadScored:
		var p LeadScoredPayload
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		target = p
	case EventOutreachSent:
		var p OutreachSentPayload
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		target = p
	case EventStatusChanged:
		var p StatusChangedPayload
		if err := unmarshalPayload(raw, &p); err != nil {
			return nil, err
		}
		target = p
	default:
		target = OpaquePayload{Type: t, Raw: raw}
	}
	return target, nil
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("payload inválido: %w", err)
	}
	return nil
}

// NewLeadEvent monta um evento a partir de um payload tipado.
func NewLeadEvent(leadID string, payload EventPayload) (*LeadEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar payload %s: %w", payload.EventType(), err)
	}
	return &LeadEvent{
		ID:     uuid.New().String(),
		LeadID: leadID,
		Type:   payload.EventType(),
		Data:   data,
	}, nil
}

type LeadEventRepositoryInterface interface {
	Append(ctx context.Context, event *LeadEvent) error
	ListByLead(ctx context.Context, leadID string) ([]LeadEvent, error)
}
