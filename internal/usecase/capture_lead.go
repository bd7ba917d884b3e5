package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/integration/n8n"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

const (
	flowCapture = "capture"

	StepInsertLead        = "insert_lead"
	StepAppendEvent       = "append_event"
	StepNotifyWebhook     = "notify_webhook"
	StepPublishEnrichment = "publish_enrichment"

	CaptureSource      = "website"
	CaptureFormVersion = "v1"
)

type CaptureLeadUseCase struct {
	Repo         LeadRepository
	EventRepo    LeadEventRepository
	Notifier     WebhookNotifier
	Publisher    EnrichmentPublisher
	EmailService EmailService
	Reporter     InconsistencyReporter
	Journal      *StepJournal
	Logger       *zap.Logger
	Now          Clock
}

// NewCaptureLeadUseCase: publisher e emailService são opcionais (nil desliga o passo).
func NewCaptureLeadUseCase(
	repo LeadRepository,
	eventRepo LeadEventRepository,
	notifier WebhookNotifier,
	publisher EnrichmentPublisher,
	emailService EmailService,
	journal *StepJournal,
	logger *zap.Logger,
) *CaptureLeadUseCase {
	if journal == nil {
		journal = NewStepJournal(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureLeadUseCase{
		Repo:         repo,
		EventRepo:    eventRepo,
		Notifier:     notifier,
		Publisher:    publisher,
		EmailService: emailService,
		Journal:      journal,
		Logger:       logger.With(zap.String("flow", flowCapture)),
		Now:          time.Now,
	}
}

// Execute valida, grava o lead, registra lead_captured e notifica o webhook.
// source é a origem da submissão enviada ao webhook.
func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput, webhookURL, source string) (*CaptureLeadOutput, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, NewConfigurationError("capture webhook URL is not configured")
	}

	normalized, fieldErrs := ValidateCaptureLeadInput(input)
	if len(fieldErrs) > 0 {
		return nil, NewValidationError(fieldErrs)
	}

	lead := &entity.Lead{
		ID:          uuid.New().String(),
		Name:        normalized.Name,
		Email:       normalized.Email,
		Company:     normalized.Company,
		Website:     normalized.Website,
		ProblemText: normalized.Problem,
		Status:      entity.LeadStatusNew,
	}

	out, err := uc.run(ctx, lead, normalized, strings.TrimSpace(webhookURL), source, nil)

	if out != nil && out.Report.Status(StepInsertLead) == StepDone && uc.EmailService != nil {
		alerted := *lead
		go func() {
			if err := uc.EmailService.SendNewLeadAlert(alerted); err != nil {
				uc.Logger.Warn("falha ao enviar alerta de novo lead", zap.String("lead_id", alerted.ID), zap.Error(err))
			}
		}()
	}

	return out, err
}

// ResumeCapture reexecuta apenas os passos que falharam numa captura anterior.
func (uc *CaptureLeadUseCase) ResumeCapture(ctx context.Context, leadID, webhookURL string) (*CaptureLeadOutput, error) {
	entry, ok := uc.Journal.load(flowCapture, leadID)
	if !ok || entry.Capture == nil {
		return nil, NewNotFoundError("no pending capture steps for lead " + leadID)
	}
	if !entry.Done[StepNotifyWebhook] && strings.TrimSpace(webhookURL) == "" {
		return nil, NewConfigurationError("capture webhook URL is not configured")
	}

	lead, err := uc.Repo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			uc.Journal.forget(flowCapture, leadID)
			return nil, NewNotFoundError("lead " + leadID + " not found")
		}
		return nil, NewFetchError("failed to load lead", err)
	}

	return uc.run(ctx, lead, *entry.Capture, strings.TrimSpace(webhookURL), entry.Source, entry.Done)
}

func (uc *CaptureLeadUseCase) run(
	ctx context.Context,
	lead *entity.Lead,
	input CaptureLeadInput,
	webhookURL, source string,
	done map[string]bool,
) (*CaptureLeadOutput, error) {
	txn := NewTransaction()

	txn.AddOperation(StepInsertLead, true, func(ctx context.Context) error {
		if err := uc.Repo.Create(ctx, lead); err != nil {
			return NewPersistenceError("failed to store lead", err)
		}
		return nil
	})

	txn.AddOperation(StepAppendEvent, false, func(ctx context.Context) error {
		event, err := entity.NewLeadEvent(lead.ID, entity.LeadCapturedPayload{
			Source:      CaptureSource,
			FormVersion: CaptureFormVersion,
		})
		if err != nil {
			return NewEventLogError("failed to build lead_captured event", err)
		}
		if err := uc.EventRepo.Append(ctx, event); err != nil {
			return NewEventLogError("failed to append lead_captured event", err)
		}
		return nil
	})

	txn.AddOperation(StepNotifyWebhook, false, func(ctx context.Context) error {
		payload := n8n.CapturePayload{
			Name:      input.Name,
			Email:     input.Email,
			Company:   input.Company,
			Website:   input.Website,
			Problem:   input.Problem,
			LeadID:    lead.ID,
			Timestamp: uc.Now().UTC().Format(time.RFC3339Nano),
			Source:    source,
		}
		if err := uc.Notifier.NotifyCapture(ctx, webhookURL, payload); err != nil {
			return NewNotificationError("capture webhook failed", err)
		}
		return nil
	})

	if uc.Publisher != nil {
		txn.AddOperation(StepPublishEnrichment, false, func(ctx context.Context) error {
			err := uc.Publisher.PublishLeadCaptured(ctx, queue.LeadCapturedMessage{
				LeadID:     lead.ID,
				Name:       lead.Name,
				Email:      lead.Email,
				Company:    lead.Company,
				Website:    lead.Website,
				Problem:    lead.ProblemText,
				CapturedAt: lead.CreatedAt.UTC().Format(time.RFC3339Nano),
			})
			if err != nil {
				return &TechnicalError{Code: CodeQueue, Message: "failed to publish lead for enrichment", Err: err}
			}
			return nil
		})
	}

	report, fatalErr := txn.Execute(ctx, done)
	out := &CaptureLeadOutput{Report: report}

	if fatalErr != nil {
		uc.Logger.Error("falha ao gravar lead", zap.Error(fatalErr))
		return out, fatalErr
	}

	out.LeadID = lead.ID
	uc.Journal.record(flowCapture, lead.ID, report, journalEntry{Capture: &input, Source: source})

	var notifyErr error
	for _, step := range report.Steps {
		if step.Status != StepFailed {
			continue
		}
		switch step.Name {
		case StepNotifyWebhook:
			notifyErr = step.Err()
		default:
			// lead já existe: log de eventos e fila não desfazem a captura
			out.Warnings = append(out.Warnings, Warning{Step: step.Name, Code: ErrorCode(step.Err()), Message: step.Error})
			uc.Logger.Warn("passo não fatal falhou",
				zap.String("lead_id", lead.ID),
				zap.String("step", step.Name),
				zap.Error(step.Err()),
			)
			if step.Name == StepAppendEvent && uc.Reporter != nil {
				uc.Reporter.ReportInconsistency(ctx, flowCapture, lead.ID, step.Err())
			}
		}
	}

	if notifyErr != nil {
		uc.Logger.Error("lead gravado mas webhook falhou", zap.String("lead_id", lead.ID), zap.Error(notifyErr))
		return out, notifyErr
	}

	out.Success = true
	uc.Logger.Info("lead capturado", zap.String("lead_id", lead.ID))
	return out, nil
}
