package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// SettingsRepository é a tabela chave/valor app_settings.
type SettingsRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewSettingsRepository(db *sql.DB, timeout time.Duration) *SettingsRepository {
	return &SettingsRepository{DB: db, Timeout: timeout}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", entity.ErrSettingNotFound
		}
		return "", fmt.Errorf("erro ao ler app_settings[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("erro ao gravar app_settings[%s]: %w", key, err)
	}
	return nil
}
