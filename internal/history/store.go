// Package history persists pipeline runs in SQLite.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/services/cost"
)

var _ cost.SpendSource = (*Store)(nil)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

type Stats struct {
	Runs          int     `json:"runs"`
	SuccessRate   float64 `json:"success_rate"`
	AvgIterations float64 `json:"avg_iterations"`
	AvgQuality    float64 `json:"avg_quality"`
	AvgAccuracy   float64 `json:"avg_accuracy"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
}

// Open opens (creating if needed) the history database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.ErrHistoryOpen.WithError(err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.ErrHistoryOpen.WithError(err).WithContext("path", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrHistoryOpen.WithError(err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}); err != nil {
		_ = sqlDB.Close()
		return nil, errors.ErrHistoryOpen.WithError(fmt.Errorf("auto migrate: %w", err))
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return errors.ErrHistorySave.WithError(err).WithContext("run_id", run.RunID)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []Run
	res := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&runs)
	if res.Error != nil {
		return nil, errors.ErrHistoryRead.WithError(res.Error)
	}
	return runs, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	res := s.db.WithContext(ctx).Model(&Run{}).Select(
		"COUNT(*) AS runs, " +
			"COALESCE(AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END), 0) AS success_rate, " +
			"COALESCE(AVG(iterations), 0) AS avg_iterations, " +
			"COALESCE(AVG(quality_score), 0) AS avg_quality, " +
			"COALESCE(AVG(accuracy), 0) AS avg_accuracy, " +
			"COALESCE(SUM(cost_usd), 0) AS total_cost_usd",
	).Scan(&stats)
	if res.Error != nil {
		return Stats{}, errors.ErrHistoryRead.WithError(res.Error)
	}
	return stats, nil
}

// DailySpend sums the recorded cost of runs created on the local calendar day
// containing day.
func (s *Store) DailySpend(ctx context.Context, day time.Time) (float64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var total float64
	res := s.db.WithContext(ctx).Model(&Run{}).
		Select("COALESCE(SUM(cost_usd), 0)").
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Scan(&total)
	if res.Error != nil {
		return 0, errors.ErrHistoryRead.WithError(res.Error)
	}
	return total, nil
}
