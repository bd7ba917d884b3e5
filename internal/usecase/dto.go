package usecase

import "github.com/xavierca1/ligue-leads/internal/entity"

// Warning é uma falha não fatal: a operação principal já foi persistida.
type Warning struct {
	Step    string `json:"step"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CaptureLeadOutput struct {
	LeadID   string    `json:"lead_id,omitempty"`
	Success  bool      `json:"success"`
	Report   Report    `json:"report"`
	Warnings []Warning `json:"warnings,omitempty"`
}

type LeadUpdateOutput struct {
	Lead     entity.Lead `json:"lead"`
	Report   Report      `json:"report"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

type LeadDetail struct {
	Lead   entity.Lead        `json:"lead"`
	Events []entity.LeadEvent `json:"events"`
}

type LeadStats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Contacted int `json:"contacted"`
	HighBand  int `json:"high_band"`
}
