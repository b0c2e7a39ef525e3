package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planwise/internal/database"
	"planwise/internal/models"

	"github.com/shopspring/decimal"
)

// StatsRepository persists the derived per-day completion stats
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

const statColumns = "id, user_id, date, completion_rate, streak, total_tasks, completed_tasks, created_at"

func scanStat(row interface{ Scan(...interface{}) error }) (*models.DailyStat, error) {
	s := &models.DailyStat{}
	err := row.Scan(&s.ID, &s.UserID, &s.Date, &s.CompletionRate, &s.Streak, &s.TotalTasks, &s.CompletedTasks, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert writes the (user, date) row, replacing any previous values
func (r *StatsRepository) Upsert(ctx context.Context, s models.DailyStat) error {
	query := r.db.Dialect.Upsert("stats",
		[]string{"user_id", "date", "completion_rate", "streak", "total_tasks", "completed_tasks"},
		[]string{"user_id", "date"},
		[]string{"completion_rate", "streak", "total_tasks", "completed_tasks"},
	)
	_, err := r.db.ExecContext(ctx, query,
		s.UserID, s.Date, s.CompletionRate.StringFixed(2), s.Streak, s.TotalTasks, s.CompletedTasks)
	if err != nil {
		return fmt.Errorf("failed to upsert stat: %w", err)
	}
	return nil
}

// Get returns the stat of a user on date, nil if none
func (r *StatsRepository) Get(ctx context.Context, userID int64, date models.Date) (*models.DailyStat, error) {
	s, err := scanStat(r.db.QueryRowContext(ctx,
		"SELECT "+statColumns+" FROM stats WHERE user_id = ? AND date = ?", userID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stat: %w", err)
	}
	return s, nil
}

// QualifyingHistory returns up to limit stats dated on or before upTo whose
// rate is at least threshold, most recent first
func (r *StatsRepository) QualifyingHistory(ctx context.Context, userID int64, upTo models.Date, threshold decimal.Decimal, limit int) ([]models.DayRate, error) {
	query := `
		SELECT date, completion_rate
		FROM stats
		WHERE user_id = ? AND completion_rate >= ? AND date <= ?
		ORDER BY date DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, threshold.InexactFloat64(), upTo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load stat history: %w", err)
	}
	defer rows.Close()

	var history []models.DayRate
	for rows.Next() {
		var d models.DayRate
		if err := rows.Scan(&d.Date, &d.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan stat history: %w", err)
		}
		history = append(history, d)
	}
	return history, rows.Err()
}

// ListRange returns the user's stats with from <= date <= to, oldest first
func (r *StatsRepository) ListRange(ctx context.Context, userID int64, from, to models.Date) ([]models.DailyStat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statColumns+" FROM stats WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC",
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	stats := []models.DailyStat{}
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		stats = append(stats, *s)
	}
	return stats, rows.Err()
}

// ListSince returns the user's stats dated on or after from, oldest first
func (r *StatsRepository) ListSince(ctx context.Context, userID int64, from models.Date) ([]models.DailyStat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statColumns+" FROM stats WHERE user_id = ? AND date >= ? ORDER BY date ASC",
		userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	stats := []models.DailyStat{}
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		stats = append(stats, *s)
	}
	return stats, rows.Err()
}

// ListAll returns every stat of the user, oldest first
func (r *StatsRepository) ListAll(ctx context.Context, userID int64) ([]models.DailyStat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statColumns+" FROM stats WHERE user_id = ? ORDER BY date ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer rows.Close()

	stats := []models.DailyStat{}
	for rows.Next() {
		s, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		stats = append(stats, *s)
	}
	return stats, rows.Err()
}
