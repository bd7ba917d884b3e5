package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
)

const (
	flowOutreach = "outreach"

	StepNotifyOutreach = "notify_outreach"
	StepUpdateStatus   = "update_status"

	OutreachChannel = "email"
)

// SendOutreach dispara o webhook de outreach e marca o lead como contacted.
// Envios concorrentes para o mesmo lead compartilham uma única execução,
// que roda desligada do cancelamento de quem chegou primeiro.
func (r *LeadReview) SendOutreach(ctx context.Context, id string) (*LeadUpdateOutput, error) {
	v, err, shared := r.svc.flight.Do(flowOutreach+":"+id, func() (interface{}, error) {
		timeout := r.svc.OutreachTimeout
		if timeout <= 0 {
			timeout = defaultOutreachTTL
		}
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return r.svc.sendOutreach(sendCtx, id)
	})
	if shared {
		r.svc.Logger.Debug("outreach concorrente agrupado", zap.String("lead_id", id))
	}

	out, _ := v.(*LeadUpdateOutput)
	if out != nil && out.Report.Status(StepUpdateStatus) == StepDone {
		r.view.updateLead(out.Lead)
	}
	return out, err
}

func (s *ReviewService) sendOutreach(ctx context.Context, id string) (*LeadUpdateOutput, error) {
	lead, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, NewNotFoundError("lead " + id + " not found")
		}
		return nil, NewFetchError("failed to load lead", err)
	}

	// só há retomada se o webhook já saiu numa tentativa anterior
	entry, ok := s.Journal.load(flowOutreach, id)
	resuming := ok && entry.Done[StepNotifyOutreach]

	if lead.Status == entity.LeadStatusContacted && !resuming {
		return nil, NewAlreadyContactedError(id)
	}

	done := map[string]bool{}
	if resuming {
		for step := range entry.Done {
			done[step] = true
		}
		if lead.Status == entity.LeadStatusContacted {
			done[StepUpdateStatus] = true
		}
	}

	var webhookURL string
	if !done[StepNotifyOutreach] {
		settings, err := s.Webhooks.Get(ctx)
		if err != nil {
			return nil, err
		}
		webhookURL = strings.TrimSpace(settings.OutreachURL)
		if webhookURL == "" {
			return nil, NewConfigurationError("outreach webhook URL is not configured")
		}
	}

	from := lead.Status
	txn := NewTransaction()

	txn.AddOperation(StepNotifyOutreach, true, func(ctx context.Context) error {
		if err := s.Notifier.NotifyOutreach(ctx, webhookURL, n8n.OutreachPayload{LeadID: id}); err != nil {
			return NewNotificationError("outreach webhook failed", err)
		}
		return nil
	})

	txn.AddOperation(StepUpdateStatus, true, func(ctx context.Context) error {
		if err := s.Repo.UpdateStatus(ctx, id, from, entity.LeadStatusContacted); err != nil {
			return NewPersistenceError("failed to update lead status", err)
		}
		return nil
	})

	txn.AddOperation(StepAppendEvent, false, func(ctx context.Context) error {
		event, err := entity.NewLeadEvent(id, entity.OutreachSentPayload{
			Channel:   OutreachChannel,
			Timestamp: s.Now().UTC(),
		})
		if err != nil {
			return NewEventLogError("failed to build outreach_sent event", err)
		}
		if err := s.EventRepo.Append(ctx, event); err != nil {
			return NewEventLogError("failed to append outreach_sent event", err)
		}
		return nil
	})

	report, fatalErr := txn.Execute(ctx, done)

	if report.Status(StepNotifyOutreach) == StepDone {
		s.Journal.record(flowOutreach, id, report, journalEntry{})
	} else {
		s.Journal.forget(flowOutreach, id)
	}

	out := &LeadUpdateOutput{Lead: *lead, Report: report}

	if fatalErr != nil {
		if report.Status(StepUpdateStatus) == StepFailed {
			// webhook saiu mas o status não mudou
			s.Logger.Error("outreach enviado sem atualizar status", zap.String("lead_id", id), zap.Error(fatalErr))
			if s.Reporter != nil {
				s.Reporter.ReportInconsistency(ctx, flowOutreach, id, fatalErr)
			}
		} else {
			s.Logger.Error("falha no outreach", zap.String("lead_id", id), zap.Error(fatalErr))
		}
		return out, fatalErr
	}

	out.Lead.Status = entity.LeadStatusContacted
	out.Lead.UpdatedAt = s.Now().UTC()

	if step := report.FirstFailure(); step != nil {
		out.Warnings = append(out.Warnings, Warning{Step: step.Name, Code: ErrorCode(step.Err()), Message: step.Error})
		s.Logger.Error("lead contacted sem evento outreach_sent", zap.String("lead_id", id), zap.Error(step.Err()))
		if s.Reporter != nil {
			s.Reporter.ReportInconsistency(ctx, flowOutreach, id, step.Err())
		}
	}

	s.Logger.Info("outreach enviado", zap.String("lead_id", id))
	return out, nil
}

// SetStatus é a troca manual de status. Só aceita qualified e closed.
func (r *LeadReview) SetStatus(ctx context.Context, id string, status entity.LeadStatus) (*LeadUpdateOutput, error) {
	if !status.Valid() {
		return nil, NewValidationError(map[string]string{"status": entity.ErrInvalidStatus.Error()})
	}
	if !status.Manual() {
		return nil, NewValidationError(map[string]string{"status": "Status can only be set manually to qualified or closed"})
	}

	s := r.svc
	lead, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, NewNotFoundError("lead " + id + " not found")
		}
		return nil, NewFetchError("failed to load lead", err)
	}

	if lead.Status == status {
		return &LeadUpdateOutput{Lead: *lead}, nil
	}

	from := lead.Status
	txn := NewTransaction()

	txn.AddOperation(StepUpdateStatus, true, func(ctx context.Context) error {
		if err := s.Repo.UpdateStatus(ctx, id, from, status); err != nil {
			return NewPersistenceError("failed to update lead status", err)
		}
		return nil
	})

	txn.AddOperation(StepAppendEvent, false, func(ctx context.Context) error {
		event, err := entity.NewLeadEvent(id, entity.StatusChangedPayload{From: from, To: status})
		if err != nil {
			return NewEventLogError("failed to build status_changed event", err)
		}
		if err := s.EventRepo.Append(ctx, event); err != nil {
			return NewEventLogError("failed to append status_changed event", err)
		}
		return nil
	})

	report, fatalErr := txn.Execute(ctx, nil)
	out := &LeadUpdateOutput{Lead: *lead, Report: report}
	if fatalErr != nil {
		s.Logger.Error("falha ao alterar status", zap.String("lead_id", id), zap.Error(fatalErr))
		return out, fatalErr
	}

	out.Lead.Status = status
	out.Lead.UpdatedAt = s.Now().UTC()
	if step := report.FirstFailure(); step != nil {
		out.Warnings = append(out.Warnings, Warning{Step: step.Name, Code: ErrorCode(step.Err()), Message: step.Error})
		s.Logger.Warn("status alterado sem evento", zap.String("lead_id", id), zap.Error(step.Err()))
	}

	r.view.updateLead(out.Lead)
	s.Logger.Info("status alterado",
		zap.String("lead_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return out, nil
}
