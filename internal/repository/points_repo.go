package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planwise/internal/database"
	"planwise/internal/models"
)

// PointsRepository persists the per-user points ledger
type PointsRepository struct {
	db *database.DB
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(db *database.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Get returns the ledger of a user, nil if none exists
func (r *PointsRepository) Get(ctx context.Context, userID int64) (*models.PointsLedger, error) {
	return getLedger(ctx, r.db, userID)
}

// EnsureExists creates a default ledger row when the user has none
func (r *PointsRepository) EnsureExists(ctx context.Context, userID int64) error {
	return ensureLedger(ctx, r.db, userID)
}

// RecordStreak sets current_streak and raises longest_streak to at least streak,
// creating the row first if it is missing. The max is computed by the database
// in a single statement so concurrent writers cannot lower longest_streak.
func (r *PointsRepository) RecordStreak(ctx context.Context, userID int64, streak int) error {
	if err := ensureLedger(ctx, r.db, userID); err != nil {
		return err
	}

	query := `
		UPDATE user_points
		SET current_streak = ?,
			longest_streak = ` + r.db.Dialect.Greatest("longest_streak", "?") + `,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, streak, streak, userID); err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// RaiseLongest raises longest_streak to at least streak without touching current_streak
func (r *PointsRepository) RaiseLongest(ctx context.Context, userID int64, streak int) error {
	if err := ensureLedger(ctx, r.db, userID); err != nil {
		return err
	}

	query := "UPDATE user_points SET longest_streak = " + r.db.Dialect.Greatest("longest_streak", "?") +
		", updated_at = CURRENT_TIMESTAMP WHERE user_id = ?"
	if _, err := r.db.ExecContext(ctx, query, streak, userID); err != nil {
		return fmt.Errorf("failed to raise longest streak: %w", err)
	}
	return nil
}

// Leaderboard lists users by total points, then current streak
func (r *PointsRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.username, COALESCE(u.avatar, ''), up.total_points, up.level, up.current_streak, up.longest_streak
		FROM user_points up
		JOIN users u ON up.user_id = u.id
		ORDER BY up.total_points DESC, up.current_streak DESC, u.id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Avatar, &e.TotalPoints, &e.Level, &e.CurrentStreak, &e.LongestStreak); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func getLedger(ctx context.Context, q database.DBTX, userID int64) (*models.PointsLedger, error) {
	query := `
		SELECT user_id, total_points, level, current_streak, longest_streak, updated_at
		FROM user_points
		WHERE user_id = ?
	`
	ledger := &models.PointsLedger{}
	err := q.QueryRowContext(ctx, query, userID).Scan(
		&ledger.UserID,
		&ledger.TotalPoints,
		&ledger.Level,
		&ledger.CurrentStreak,
		&ledger.LongestStreak,
		&ledger.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get points ledger: %w", err)
	}
	return ledger, nil
}

func ensureLedger(ctx context.Context, q database.DBTX, userID int64) error {
	query := q.GetDialect().InsertIgnore("user_points", []string{"user_id"}, []string{"user_id"})
	if _, err := q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to create points ledger: %w", err)
	}
	return nil
}
