package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"planwise/internal/database"
	"planwise/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, COALESCE(avatar, ''), COALESCE(bio, ''), settings,
	COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at, last_login`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	var settings string
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.Bio,
		&settings,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if settings == "" {
		settings = "{}"
	}
	user.Settings = json.RawMessage(settings)
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

// Create inserts a new user and returns it with its ledger row created
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var user *models.User
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		id, err := tx.ExecReturningID(ctx,
			"INSERT INTO users (username, email, password_hash, settings) VALUES (?, ?, ?, ?)",
			username, email, passwordHash, "{}")
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if err := ensureLedger(ctx, tx, id); err != nil {
			return err
		}

		user, err = scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
		if err != nil {
			return fmt.Errorf("failed to reload user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateOAuth inserts a user signed up through an OAuth provider
func (r *UserRepository) CreateOAuth(ctx context.Context, username, email, provider, subject string) (*models.User, error) {
	var user *models.User
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		id, err := tx.ExecReturningID(ctx,
			"INSERT INTO users (username, email, settings, oauth_provider, oauth_subject) VALUES (?, ?, ?, ?, ?)",
			username, email, "{}", provider, subject)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := ensureLedger(ctx, tx, id); err != nil {
			return err
		}
		user, err = scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID, nil if absent
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email address, nil if absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByUsername retrieves a user by username, nil if absent
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = ?", username)
}

// GetByOAuth retrieves a user linked to an OAuth identity, nil if absent
func (r *UserRepository) GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE oauth_provider = ? AND oauth_subject = ?", provider, subject))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// LinkOAuth attaches an OAuth identity to an existing account
func (r *UserRepository) LinkOAuth(ctx context.Context, userID int64, provider, subject string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		provider, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth identity: %w", err)
	}
	return nil
}

// UpdateProfile sets the editable profile fields; nil leaves a field unchanged
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, avatar, bio *string, settings json.RawMessage) (*models.User, error) {
	query := "UPDATE users SET updated_at = CURRENT_TIMESTAMP"
	var args []interface{}
	if avatar != nil {
		query += ", avatar = ?"
		args = append(args, *avatar)
	}
	if bio != nil {
		query += ", bio = ?"
		args = append(args, *bio)
	}
	if settings != nil {
		query += ", settings = ?"
		args = append(args, string(settings))
	}
	query += " WHERE id = ?"
	args = append(args, userID)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return r.GetByID(ctx, userID)
}

// TouchLastLogin records a successful login
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?", userID)
	return err
}

// Search finds users whose username or email contains q
func (r *UserRepository) Search(ctx context.Context, q string, limit int) ([]models.UserSummary, error) {
	like := r.db.Dialect.LikeOperator()
	query := `
		SELECT id, username, COALESCE(avatar, ''), COALESCE(bio, '')
		FROM users
		WHERE username ` + like + ` ? OR email ` + like + ` ?
		ORDER BY username
		LIMIT ?
	`
	pattern := "%" + q + "%"
	rows, err := r.db.QueryContext(ctx, query, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()
	return scanUserSummaries(rows)
}

// Stats counts the profile counters of a user
func (r *UserRepository) Stats(ctx context.Context, userID int64) (models.UserStats, error) {
	stats := models.UserStats{Points: models.NewPointsLedger(userID)}

	query := `
		SELECT
			(SELECT COUNT(*) FROM achievements WHERE user_id = ?),
			(SELECT COUNT(*) FROM follows WHERE following_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?),
			(SELECT COUNT(*) FROM plannings WHERE user_id = ?)
	`
	err := r.db.QueryRowContext(ctx, query, userID, userID, userID, userID).Scan(
		&stats.Achievements, &stats.Followers, &stats.Following, &stats.Plannings)
	if err != nil {
		return stats, fmt.Errorf("failed to count user stats: %w", err)
	}

	ledger, err := getLedger(ctx, r.db, userID)
	if err != nil {
		return stats, err
	}
	if ledger != nil {
		stats.Points = *ledger
	}
	return stats, nil
}

// ListIDs returns every user id in ascending order
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanUserSummaries(rows *sql.Rows) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Avatar, &u.Bio); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
