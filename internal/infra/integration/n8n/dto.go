package n8n

// CapturePayload é o corpo enviado ao webhook de captura.
type CapturePayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Website   string `json:"website,omitempty"`
	Problem   string `json:"problem"`
	LeadID    string `json:"lead_id"`
	Timestamp string `json:"timestamp"` // ISO-8601
	Source    string `json:"source"`    // origem da submissão
}

type OutreachPayload struct {
	LeadID string `json:"lead_id"`
}
