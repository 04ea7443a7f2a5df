package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/viktsys/b3history/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize keeps a single INSERT under SQLite's bound-parameter limit (14 params per row)
const upsertBatchSize = 500

var ErrEmptyTicker = errors.New("ticker cannot be empty")

// Store is the storage capability shared by every backend
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []models.StockHistory) (int64, error)
	QueryByTicker(ctx context.Context, ticker string) ([]models.StockHistory, error)
	DeleteByTicker(ctx context.Context, ticker string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	ListTickers(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Driver() string
	Close() error
}

// GormStore implements Store on any gorm dialect
type GormStore struct {
	db     *gorm.DB
	driver string
}

func NewGormStore(db *gorm.DB, driver string) *GormStore {
	return &GormStore{db: db, driver: driver}
}

func (s *GormStore) Driver() string {
	return s.driver
}

// UpsertBatch writes the whole batch in one transaction; any failure rolls everything back.
// Records repeating a (ticker, date) pair collapse to the last occurrence.
func (s *GormStore) UpsertBatch(ctx context.Context, records []models.StockHistory) (int64, error) {
	rows := collapseDuplicates(records)
	if len(rows) == 0 {
		return 0, nil
	}

	for i := range rows {
		if rows[i].Ticker == "" {
			return 0, fmt.Errorf("record %d: %w", i, ErrEmptyTicker)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns(models.ValueColumns()),
		}).CreateInBatches(&rows, upsertBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert stock history: %w", err)
	}

	return int64(len(rows)), nil
}

func (s *GormStore) QueryByTicker(ctx context.Context, ticker string) ([]models.StockHistory, error) {
	history := make([]models.StockHistory, 0)
	err := s.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("date ASC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", ticker, err)
	}
	return history, nil
}

func (s *GormStore) DeleteByTicker(ctx context.Context, ticker string) (int64, error) {
	result := s.db.WithContext(ctx).Where("ticker = ?", ticker).Delete(&models.StockHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", ticker, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Exec("DELETE FROM stocks_history")
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stock history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) ListTickers(ctx context.Context) ([]string, error) {
	var tickers []string
	err := s.db.WithContext(ctx).
		Model(&models.StockHistory{}).
		Distinct("ticker").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	if tickers == nil {
		tickers = []string{}
	}
	return tickers, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// collapseDuplicates keeps the last record per (ticker, date), in first-seen order
func collapseDuplicates(records []models.StockHistory) []models.StockHistory {
	type key struct {
		ticker string
		date   int64
	}

	index := make(map[key]int, len(records))
	rows := make([]models.StockHistory, 0, len(records))
	for _, r := range records {
		r.ID = 0
		k := key{r.Ticker, r.Date}
		if i, ok := index[k]; ok {
			rows[i] = r
			continue
		}
		index[k] = len(rows)
		rows = append(rows, r)
	}
	return rows
}
