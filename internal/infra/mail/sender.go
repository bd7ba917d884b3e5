package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

//go:embed templates/*.html
var templatesFS embed.FS

var newLeadTemplate = template.Must(template.ParseFS(templatesFS, "templates/new_lead.html"))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// SendNewLeadAlert avisa o time comercial que um lead novo chegou.
func (s *EmailSender) SendNewLeadAlert(lead entity.Lead) error {
	if len(s.To) == 0 {
		return nil
	}

	body, err := renderNewLead(NewLeadAlertData{
		LeadID:   lead.ID,
		Name:     lead.Name,
		Email:    lead.Email,
		Company:  lead.Company,
		Website:  lead.Website,
		Problem:  lead.ProblemText,
		AdminURL: s.AdminURL,
	})
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Reply-To", lead.Email)
	m.SetHeader("Subject", fmt.Sprintf("Novo lead: %s 🚀", lead.Name))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func renderNewLead(data NewLeadAlertData) (string, error) {
	var body bytes.Buffer
	if err := newLeadTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("erro ao processar template: %w", err)
	}
	return body.String(), nil
}
