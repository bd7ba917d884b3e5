package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// EnrichmentUseCase grava o resultado do scoring externo no lead.
type EnrichmentUseCase struct {
	Repo      LeadRepository
	EventRepo LeadEventRepository
	Logger    *zap.Logger
}

func NewEnrichmentUseCase(repo LeadRepository, eventRepo LeadEventRepository, logger *zap.Logger) *EnrichmentUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichmentUseCase{Repo: repo, EventRepo: eventRepo, Logger: logger.With(zap.String("flow", "enrichment"))}
}

func validateEnrichment(e entity.Enrichment) error {
	if e.LeadID == "" {
		return fmt.Errorf("%w: lead_id is required", entity.ErrInvalidEnrichment)
	}
	if e.Score != nil && (*e.Score < 0 || *e.Score > 100) {
		return fmt.Errorf("%w: score %d out of range", entity.ErrInvalidEnrichment, *e.Score)
	}
	if e.Band != "" && !e.Band.Valid() {
		return fmt.Errorf("%w: unknown band %q", entity.ErrInvalidEnrichment, e.Band)
	}
	if e.Label != "" && !e.Label.Valid() {
		return fmt.Errorf("%w: unknown label %q", entity.ErrInvalidEnrichment, e.Label)
	}
	return nil
}

// Apply é idempotente: um lead já enriquecido não é sobrescrito e não
// ganha outro lead_scored.
func (uc *EnrichmentUseCase) Apply(ctx context.Context, e entity.Enrichment) error {
	if err := validateEnrichment(e); err != nil {
		return err
	}

	applied, err := uc.Repo.ApplyEnrichment(ctx, e)
	if err != nil {
		return err
	}
	if !applied {
		uc.Logger.Info("lead já enriquecido, ignorando", zap.String("lead_id", e.LeadID))
		return nil
	}

	event, err := entity.NewLeadEvent(e.LeadID, entity.LeadScoredPayload{Score: e.Score, Band: e.Band, Label: e.Label})
	if err == nil {
		err = uc.EventRepo.Append(ctx, event)
	}
	if err != nil {
		// o enriquecimento já foi gravado; reprocessar não recriaria o evento
		uc.Logger.Error("lead enriquecido sem evento lead_scored", zap.String("lead_id", e.LeadID), zap.Error(err))
		return nil
	}

	uc.Logger.Info("lead enriquecido", zap.String("lead_id", e.LeadID))
	return nil
}
