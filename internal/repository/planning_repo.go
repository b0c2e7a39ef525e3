package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planwise/internal/database"
	"planwise/internal/models"
)

// PlanningRepository handles database operations for plannings
type PlanningRepository struct {
	db *database.DB
}

// NewPlanningRepository creates a new planning repository
func NewPlanningRepository(db *database.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

const planningColumns = `p.id, p.user_id, p.title, COALESCE(p.description, ''), p.is_public, p.template_type,
	p.visibility, p.share_token, p.created_at, p.updated_at`

func scanPlanning(row interface{ Scan(...interface{}) error }, extra ...interface{}) (*models.Planning, error) {
	p := &models.Planning{}
	var shareToken sql.NullString
	dest := []interface{}{
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.IsPublic,
		&p.TemplateType,
		&p.Visibility,
		&shareToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if shareToken.Valid {
		p.ShareToken = &shareToken.String
	}
	return p, nil
}

// Create inserts a planning
func (r *PlanningRepository) Create(ctx context.Context, p *models.Planning) (*models.Planning, error) {
	return createPlanning(ctx, r.db, p)
}

func createPlanning(ctx context.Context, q database.DBTX, p *models.Planning) (*models.Planning, error) {
	if p.TemplateType == "" {
		p.TemplateType = "custom"
	}
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPrivate
	}

	query := `
		INSERT INTO plannings (user_id, title, description, is_public, template_type, visibility, share_token)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(ctx, query,
		p.UserID, p.Title, p.Description, p.IsPublic, p.TemplateType, p.Visibility, p.ShareToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create planning: %w", err)
	}

	created, err := scanPlanning(q.QueryRowContext(ctx, "SELECT "+planningColumns+" FROM plannings p WHERE p.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload planning: %w", err)
	}
	return created, nil
}

// GetByID returns a planning joined with its owner, nil if absent
func (r *PlanningRepository) GetByID(ctx context.Context, id int64) (*models.Planning, error) {
	query := `
		SELECT ` + planningColumns + `, u.username, COALESCE(u.avatar, '')
		FROM plannings p
		JOIN users u ON p.user_id = u.id
		WHERE p.id = ?
	`
	var username, avatar string
	p, err := scanPlanning(r.db.QueryRowContext(ctx, query, id), &username, &avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planning: %w", err)
	}
	p.Username = username
	p.Avatar = avatar
	return p, nil
}

// GetByShareToken returns the planning published under token, nil if absent
func (r *PlanningRepository) GetByShareToken(ctx context.Context, token string) (*models.Planning, error) {
	p, err := scanPlanning(r.db.QueryRowContext(ctx,
		"SELECT "+planningColumns+" FROM plannings p WHERE p.share_token = ?", token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planning: %w", err)
	}
	return p, nil
}

// ListByUser returns a user's plannings, newest first
func (r *PlanningRepository) ListByUser(ctx context.Context, userID int64, includePrivate bool) ([]models.Planning, error) {
	query := "SELECT " + planningColumns + " FROM plannings p WHERE p.user_id = ?"
	if !includePrivate {
		query += " AND p.is_public = " + r.db.Dialect.BoolValue(true)
	}
	query += " ORDER BY p.created_at DESC, p.id DESC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plannings: %w", err)
	}
	defer rows.Close()

	plannings := []models.Planning{}
	for rows.Next() {
		p, err := scanPlanning(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planning: %w", err)
		}
		plannings = append(plannings, *p)
	}
	return plannings, rows.Err()
}

// IDsByUser returns the ids of every planning owned by the user
func (r *PlanningRepository) IDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM plannings WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planning ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPublic returns the discover feed with like and comment counters
func (r *PlanningRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Planning, error) {
	query := `
		SELECT ` + planningColumns + `, u.username, COALESCE(u.avatar, ''),
			(SELECT COUNT(*) FROM likes l WHERE l.planning_id = p.id),
			(SELECT COUNT(*) FROM comments c WHERE c.planning_id = p.id)
		FROM plannings p
		JOIN users u ON p.user_id = u.id
		WHERE p.is_public = ` + r.db.Dialect.BoolValue(true) + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public plannings: %w", err)
	}
	defer rows.Close()

	plannings := []models.Planning{}
	for rows.Next() {
		var username, avatar string
		var likes, comments int
		p, err := scanPlanning(rows, &username, &avatar, &likes, &comments)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planning: %w", err)
		}
		p.Username, p.Avatar = username, avatar
		p.LikesCount, p.CommentsCount = &likes, &comments
		plannings = append(plannings, *p)
	}
	return plannings, rows.Err()
}

// Search finds public plannings whose title or description contains q
func (r *PlanningRepository) Search(ctx context.Context, q string, limit int) ([]models.Planning, error) {
	like := r.db.Dialect.LikeOperator()
	query := `
		SELECT ` + planningColumns + `, u.username, COALESCE(u.avatar, '')
		FROM plannings p
		JOIN users u ON p.user_id = u.id
		WHERE p.is_public = ` + r.db.Dialect.BoolValue(true) + `
			AND (p.title ` + like + ` ? OR p.description ` + like + ` ?)
		ORDER BY p.created_at DESC
		LIMIT ?
	`
	pattern := "%" + q + "%"
	rows, err := r.db.QueryContext(ctx, query, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search plannings: %w", err)
	}
	defer rows.Close()

	plannings := []models.Planning{}
	for rows.Next() {
		var username, avatar string
		p, err := scanPlanning(rows, &username, &avatar)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planning: %w", err)
		}
		p.Username, p.Avatar = username, avatar
		plannings = append(plannings, *p)
	}
	return plannings, rows.Err()
}

// Update applies a partial update and returns the stored planning
func (r *PlanningRepository) Update(ctx context.Context, id int64, u models.PlanningUpdate) (*models.Planning, error) {
	if !u.IsEmpty() {
		query := "UPDATE plannings SET updated_at = CURRENT_TIMESTAMP"
		var args []interface{}
		if u.Title != nil {
			query += ", title = ?"
			args = append(args, *u.Title)
		}
		if u.Description != nil {
			query += ", description = ?"
			args = append(args, *u.Description)
		}
		if u.IsPublic != nil {
			query += ", is_public = ?"
			args = append(args, *u.IsPublic)
		}
		if u.Visibility != nil {
			query += ", visibility = ?"
			args = append(args, *u.Visibility)
		}
		query += " WHERE id = ?"
		args = append(args, id)

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update planning: %w", err)
		}
	}
	return r.GetByID(ctx, id)
}

// SetShareToken stores or clears the share token of a planning
func (r *PlanningRepository) SetShareToken(ctx context.Context, id int64, token *string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE plannings SET share_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", token, id)
	if err != nil {
		return fmt.Errorf("failed to set share token: %w", err)
	}
	return nil
}

// Delete removes a planning; its tasks, likes and comments cascade
func (r *PlanningRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plannings WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete planning: %w", err)
	}
	return nil
}

// Duplicate copies src and all its tasks into a new private planning owned by userID.
// Copied tasks are incomplete and scheduled on date.
func (r *PlanningRepository) Duplicate(ctx context.Context, src *models.Planning, userID int64, date models.Date) (*models.Planning, error) {
	var copied *models.Planning
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		copied, err = createPlanning(ctx, tx, &models.Planning{
			UserID:       userID,
			Title:        src.Title + " (Copy)",
			Description:  src.Description,
			TemplateType: src.TemplateType,
			Visibility:   models.VisibilityPrivate,
		})
		if err != nil {
			return err
		}

		tasks, err := listTasks(ctx, tx, "t.planning_id = ?", src.ID)
		if err != nil {
			return err
		}
		for i := range tasks {
			task := tasks[i]
			task.PlanningID = copied.ID
			task.Date = date
			task.Completed = false
			if _, err := insertTask(ctx, tx, &task); err != nil {
				return fmt.Errorf("failed to copy task %d: %w", tasks[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}
