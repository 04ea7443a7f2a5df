package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/viktsys/b3history/models"
)

// EnsureSchema cria a tabela stocks_history e o índice único (ticker, date) se não existirem
func (s *GormStore) EnsureSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.AutoMigrate(&models.StockHistory{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if !db.Migrator().HasIndex(&models.StockHistory{}, "uidx_stocks_history_ticker_date") {
		return fmt.Errorf("unique index on (ticker, date) is missing after migration")
	}

	// Refresh planner statistics so ticker lookups pick the composite index
	if err := db.Exec(analyzeStatement(s.driver)).Error; err != nil {
		log.Warn().Err(err).Msg("Could not analyze stocks_history")
	}

	log.Info().Str("driver", s.driver).Msg("Database schema ready")
	return nil
}

func analyzeStatement(driver string) string {
	if driver == DriverMySQL {
		return "ANALYZE TABLE stocks_history"
	}
	return "ANALYZE stocks_history"
}
