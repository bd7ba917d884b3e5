package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const leadColumns = `id, created_at, updated_at, name, email, company, website, problem_text,
	score, band, label, status, model_rationale, company_size, industry`

type LeadRepository struct {
	DB      *sql.DB
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewLeadRepository(db *sql.DB, timeout time.Duration, logger *zap.Logger) *LeadRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadRepository{DB: db, Timeout: timeout, Logger: logger}
}

// Create insere o lead e lê de volta os campos preenchidos pelo banco.
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query := `
		INSERT INTO leads (id, name, email, company, website, problem_text, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at, status
	`

	status := lead.Status
	if status == "" {
		status = entity.LeadStatusNew
	}

	err := r.DB.QueryRowContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		nullString(lead.Company),
		nullString(lead.Website),
		lead.ProblemText,
		string(status),
	).Scan(&lead.CreatedAt, &lead.UpdatedAt, &lead.Status)
	if err != nil {
		r.Logger.Error("erro ao inserir lead", zap.String("lead_id", lead.ID), zap.Error(err))
		return classify(err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		// id que não é uuid também é "não encontrado"
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidText {
			return nil, entity.ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) ListRecent(ctx context.Context) ([]entity.Lead, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// UpdateStatus é compare-and-set: só grava se o status ainda for "from".
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LeadStatus) error {
	if !to.Valid() {
		return entity.ErrInvalidStatus
	}

	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return classify(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	return r.missingOr(ctx, id, entity.ErrStatusConflict)
}

// ApplyEnrichment grava o enriquecimento uma única vez (enriched_at IS NULL).
func (r *LeadRepository) ApplyEnrichment(ctx context.Context, e entity.Enrichment) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var score *int64
	if e.Score != nil {
		v := int64(*e.Score)
		score = &v
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET
			score = $2,
			band = $3,
			label = $4,
			model_rationale = $5,
			company_size = $6,
			industry = $7,
			enriched_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND enriched_at IS NULL
	`,
		e.LeadID,
		score,
		nullString(string(e.Band)),
		nullString(string(e.Label)),
		nullString(e.ModelRationale),
		nullString(e.CompanySize),
		nullString(e.Industry),
	)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return false, entity.ErrLeadNotFound
		}
		return false, classify(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}
	return false, r.missingOr(ctx, e.LeadID, nil)
}

// missingOr diferencia "lead não existe" de "lead existe mas a condição falhou".
func (r *LeadRepository) missingOr(ctx context.Context, leadID string, otherwise error) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, leadID).Scan(&exists)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return entity.ErrLeadNotFound
		}
		return err
	}
	if !exists {
		return entity.ErrLeadNotFound
	}
	return otherwise
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead                             entity.Lead
		company, website, band, label    sql.NullString
		rationale, companySize, industry sql.NullString
		status                           sql.NullString
		score                            sql.NullInt64
	)

	err := row.Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&lead.Name,
		&lead.Email,
		&company,
		&website,
		&lead.ProblemText,
		&score,
		&band,
		&label,
		&status,
		&rationale,
		&companySize,
		&industry,
	)
	if err != nil {
		return nil, err
	}

	lead.Company = company.String
	lead.Website = website.String
	lead.Band = entity.Band(band.String)
	lead.Label = entity.Label(label.String)
	lead.Status = entity.LeadStatus(status.String)
	lead.ModelRationale = rationale.String
	lead.CompanySize = companySize.String
	lead.Industry = industry.String
	if score.Valid {
		v := int(score.Int64)
		lead.Score = &v
	}
	return &lead, nil
}
