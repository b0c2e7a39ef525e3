package repository

import (
	"context"
	"fmt"
	"time"

	"planwise/internal/database"
	"planwise/internal/models"
)

// AchievementRepository persists unlocked badges
type AchievementRepository struct {
	db *database.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Unlock records a badge unless the user already has it. It reports whether
// the badge was newly inserted; an existing row is left untouched.
func (r *AchievementRepository) Unlock(ctx context.Context, a models.Achievement) (bool, error) {
	query := r.db.Dialect.InsertIgnore("achievements",
		[]string{"user_id", "badge_type", "badge_name", "badge_description", "unlocked_at"},
		[]string{"user_id", "badge_type"},
	)
	result, err := r.db.ExecContext(ctx, query,
		a.UserID, a.BadgeType, a.BadgeName, a.BadgeDescription, a.UnlockedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement %s: %w", a.BadgeType, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByUser returns a user's badges, most recent first
func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]models.Achievement, error) {
	return r.list(ctx, "user_id = ?", userID)
}

// ListSince returns badges unlocked at or after since, most recent first
func (r *AchievementRepository) ListSince(ctx context.Context, userID int64, since time.Time) ([]models.Achievement, error) {
	return r.list(ctx, "user_id = ? AND unlocked_at >= ?", userID, since.UTC())
}

func (r *AchievementRepository) list(ctx context.Context, where string, args ...interface{}) ([]models.Achievement, error) {
	query := `
		SELECT id, user_id, badge_type, badge_name, COALESCE(badge_description, ''), unlocked_at
		FROM achievements
		WHERE ` + where + `
		ORDER BY unlocked_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.BadgeType, &a.BadgeName, &a.BadgeDescription, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}
