package app

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
)

// Stores agrupa os repositórios escolhidos por STORE_DRIVER.
type Stores struct {
	DB       *sql.DB
	Leads    entity.LeadRepositoryInterface
	Events   entity.LeadEventRepositoryInterface
	Settings entity.SettingsRepositoryInterface
}

func OpenStores(cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("usando store em memória, dados somem ao reiniciar")
		store := memory.NewStore()
		return &Stores{Leads: store, Events: store, Settings: store}, nil
	}

	db, err := database.NewDBConnection(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar no banco: %w", err)
	}

	if cfg.DBAutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	logger.Info("✅ banco conectado", zap.String("driver", cfg.DBDriver))
	return &Stores{
		DB:       db,
		Leads:    database.NewLeadRepository(db, cfg.StoreTimeout, logger),
		Events:   database.NewLeadEventRepository(db, cfg.StoreTimeout),
		Settings: database.NewSettingsRepository(db, cfg.StoreTimeout),
	}, nil
}

func (s *Stores) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
