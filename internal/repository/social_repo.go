package repository

import (
	"context"
	"fmt"

	"planwise/internal/database"
	"planwise/internal/models"
)

// SocialRepository handles follows, likes and comments
type SocialRepository struct {
	db *database.DB
}

// NewSocialRepository creates a new social repository
func NewSocialRepository(db *database.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// toggle removes the pair if present, otherwise inserts it. It returns the new state.
func (r *SocialRepository) toggle(ctx context.Context, table string, cols []string, a, b int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE "+cols[0]+" = ? AND "+cols[1]+" = ?", a, b)
	if err != nil {
		return false, err
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return false, nil
	}

	// a concurrent insert of the same pair is fine, the row exists either way
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.InsertIgnore(table, cols, cols), a, b); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleFollow follows or unfollows a user and reports whether follower now follows
func (r *SocialRepository) ToggleFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	following, err := r.toggle(ctx, "follows", []string{"follower_id", "following_id"}, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle follow: %w", err)
	}
	return following, nil
}

// IsFollowing reports whether followerID follows followingID
func (r *SocialRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM follows WHERE follower_id = ? AND following_id = ?", followerID, followingID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return count > 0, nil
}

// Followers lists the users following userID, newest first
func (r *SocialRepository) Followers(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.username, COALESCE(u.avatar, ''), COALESCE(u.bio, '')
		FROM follows f
		JOIN users u ON f.follower_id = u.id
		WHERE f.following_id = ?
		ORDER BY f.created_at DESC, f.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	defer rows.Close()
	return scanUserSummaries(rows)
}

// Following lists the users userID follows, newest first
func (r *SocialRepository) Following(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.username, COALESCE(u.avatar, ''), COALESCE(u.bio, '')
		FROM follows f
		JOIN users u ON f.following_id = u.id
		WHERE f.follower_id = ?
		ORDER BY f.created_at DESC, f.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	defer rows.Close()
	return scanUserSummaries(rows)
}

// ToggleLike likes or unlikes a planning and reports whether it is now liked
func (r *SocialRepository) ToggleLike(ctx context.Context, userID, planningID int64) (bool, error) {
	liked, err := r.toggle(ctx, "likes", []string{"user_id", "planning_id"}, userID, planningID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	return liked, nil
}

// HasLiked reports whether userID likes the planning
func (r *SocialRepository) HasLiked(ctx context.Context, userID, planningID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE user_id = ? AND planning_id = ?", userID, planningID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return count > 0, nil
}

// CountLikes counts the likes of a planning
func (r *SocialRepository) CountLikes(ctx context.Context, planningID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes WHERE planning_id = ?", planningID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// AddComment stores a comment and returns it joined with its author
func (r *SocialRepository) AddComment(ctx context.Context, userID, planningID int64, content string) (*models.Comment, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO comments (user_id, planning_id, content) VALUES (?, ?, ?)", userID, planningID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	comments, err := r.listComments(ctx, "c.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, fmt.Errorf("comment %d vanished after insert", id)
	}
	return &comments[0], nil
}

// ListComments returns the comments of a planning, newest first
func (r *SocialRepository) ListComments(ctx context.Context, planningID int64) ([]models.Comment, error) {
	return r.listComments(ctx, "c.planning_id = ?", planningID)
}

func (r *SocialRepository) listComments(ctx context.Context, where string, args ...interface{}) ([]models.Comment, error) {
	query := `
		SELECT c.id, c.user_id, c.planning_id, c.content, c.created_at, u.username, COALESCE(u.avatar, '')
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE ` + where + `
		ORDER BY c.created_at DESC, c.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.PlanningID, &c.Content, &c.CreatedAt, &c.Username, &c.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
