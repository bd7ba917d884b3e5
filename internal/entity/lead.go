package entity

import (
	"context"
	"errors"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosed    LeadStatus = "closed"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusClosed:
		return true
	}
	return false
}

// Manual diz se o status pode ser aplicado pela troca manual do painel.
// new -> contacted só acontece pelo outreach.
func (s LeadStatus) Manual() bool {
	return s == LeadStatusQualified || s == LeadStatusClosed
}

type Band string

const (
	BandHigh   Band = "High"
	BandMedium Band = "Medium"
	BandLow    Band = "Low"
)

func (b Band) Valid() bool {
	return b == BandHigh || b == BandMedium || b == BandLow
}

type Label string

const (
	LabelInternalAutomation Label = "Internal automation"
	LabelCustomerSupport    Label = "Customer support"
	LabelDataProcessing     Label = "Data processing"
	LabelSalesOps           Label = "Sales ops"
	LabelOther              Label = "Other"
)

func (l Label) Valid() bool {
	switch l {
	case LabelInternalAutomation, LabelCustomerSupport, LabelDataProcessing, LabelSalesOps, LabelOther:
		return true
	}
	return false
}

var (
	ErrLeadNotFound   = errors.New("lead not found")
	ErrStatusConflict = errors.New("lead status changed concurrently")
	ErrInvalidStatus  = errors.New("invalid lead status")

	ErrInvalidEnrichment = errors.New("invalid enrichment")
)

// Lead é uma submissão do formulário. Os campos de enriquecimento
// (score, band, label, rationale, company size, industry) só são
// preenchidos pelo pipeline de enriquecimento, nunca pela captura.
type Lead struct {
	ID             string     `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Company        string     `json:"company,omitempty"`
	Website        string     `json:"website,omitempty"`
	ProblemText    string     `json:"problem_text"`
	Score          *int       `json:"score,omitempty"`
	Band           Band       `json:"band,omitempty"`
	Label          Label      `json:"label,omitempty"`
	Status         LeadStatus `json:"status"`
	ModelRationale string     `json:"model_rationale,omitempty"`
	CompanySize    string     `json:"company_size,omitempty"`
	Industry       string     `json:"industry,omitempty"`
}

func (l *Lead) Enriched() bool {
	return l.Score != nil || l.Band != "" || l.Label != ""
}

// Enrichment carrega o resultado do pipeline externo de scoring.
type Enrichment struct {
	LeadID         string `json:"lead_id"`
	Score          *int   `json:"score,omitempty"`
	Band           Band   `json:"band,omitempty"`
	Label          Label  `json:"label,omitempty"`
	ModelRationale string `json:"model_rationale,omitempty"`
	CompanySize    string `json:"company_size,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

type LeadRepositoryInterface interface {
	// Create insere o lead e devolve a linha persistida (created_at vem do banco).
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	ListRecent(ctx context.Context) ([]Lead, error)
	// UpdateStatus só altera se o status atual ainda for "from".
	UpdateStatus(ctx context.Context, id string, from, to LeadStatus) error
	// ApplyEnrichment grava os campos de enriquecimento apenas uma vez.
	ApplyEnrichment(ctx context.Context, e Enrichment) (bool, error)
}
