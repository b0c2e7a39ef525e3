package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"planwise/internal/database"
	"planwise/internal/models"
)

// ErrTaskNotOwned is returned when a task does not exist or belongs to another user
var ErrTaskNotOwned = errors.New("task not found or not owned by user")

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `t.id, t.planning_id, t.title, t.scheduled_time, t.category, t.icon, t.completed, t.completed_at,
	COALESCE(t.notes, ''), t.duration_estimate, t.position, t.date, t.created_at, t.updated_at`

func scanTask(row interface{ Scan(...interface{}) error }, extra ...interface{}) (*models.Task, error) {
	t := &models.Task{}
	var scheduled sql.NullString
	var completedAt sql.NullTime
	var duration sql.NullInt64
	dest := []interface{}{
		&t.ID,
		&t.PlanningID,
		&t.Title,
		&scheduled,
		&t.Category,
		&t.Icon,
		&t.Completed,
		&completedAt,
		&t.Notes,
		&duration,
		&t.Position,
		&t.Date,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if scheduled.Valid {
		t.Time = &scheduled.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if duration.Valid {
		d := int(duration.Int64)
		t.DurationEstimate = &d
	}
	return t, nil
}

func listTasks(ctx context.Context, q database.DBTX, where string, args ...interface{}) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN plannings p ON t.planning_id = p.id
		WHERE ` + where + `
		ORDER BY t.position ASC, t.scheduled_time ASC, t.id ASC
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// insertTask applies create defaults and inserts t, returning the new id
func insertTask(ctx context.Context, q database.DBTX, t *models.Task) (int64, error) {
	if t.Category == "" {
		t.Category = models.DefaultTaskCategory
	}
	if t.Icon == "" {
		t.Icon = models.DefaultTaskIcon
	}
	var scheduled interface{}
	if t.Time != nil && *t.Time != "" {
		scheduled = *t.Time
	}
	var duration interface{}
	if t.DurationEstimate != nil {
		duration = *t.DurationEstimate
	}

	query := `
		INSERT INTO tasks (planning_id, title, scheduled_time, category, icon, notes, duration_estimate, position, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return q.ExecReturningID(ctx, query,
		t.PlanningID, t.Title, scheduled, t.Category, t.Icon, t.Notes, duration, t.Position, t.Date)
}

// Create inserts a task and returns the stored row
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	id, err := insertTask(ctx, r.db, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	created, _, err := r.GetWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("task %d vanished after insert", id)
	}
	return created, nil
}

// GetWithOwner returns a task and the id of the user owning its planning.
// The task is nil when it does not exist.
func (r *TaskRepository) GetWithOwner(ctx context.Context, id int64) (*models.Task, int64, error) {
	query := `
		SELECT ` + taskColumns + `, p.user_id
		FROM tasks t
		JOIN plannings p ON t.planning_id = p.id
		WHERE t.id = ?
	`
	var ownerID int64
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id), &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get task: %w", err)
	}
	return t, ownerID, nil
}

// ListByPlanning returns the tasks of a planning ordered by position then time
func (r *TaskRepository) ListByPlanning(ctx context.Context, planningID int64) ([]models.Task, error) {
	return listTasks(ctx, r.db, "t.planning_id = ?", planningID)
}

// ListByPlanningAndDate returns the tasks of a planning scheduled on date
func (r *TaskRepository) ListByPlanningAndDate(ctx context.Context, planningID int64, date models.Date) ([]models.Task, error) {
	return listTasks(ctx, r.db, "t.planning_id = ? AND t.date = ?", planningID, date)
}

// ListByUserSince returns every task of the user dated on or after from
func (r *TaskRepository) ListByUserSince(ctx context.Context, userID int64, from models.Date) ([]models.Task, error) {
	return listTasks(ctx, r.db, "p.user_id = ? AND t.date >= ?", userID, from)
}

// Update applies a partial update. Completed also sets or clears completed_at.
func (r *TaskRepository) Update(ctx context.Context, id int64, u models.TaskUpdate) (*models.Task, error) {
	if !u.IsEmpty() {
		query := "UPDATE tasks SET updated_at = CURRENT_TIMESTAMP"
		var args []interface{}
		if u.Title != nil {
			query += ", title = ?"
			args = append(args, *u.Title)
		}
		if u.Time != nil {
			query += ", scheduled_time = ?"
			if *u.Time == "" {
				args = append(args, nil)
			} else {
				args = append(args, *u.Time)
			}
		}
		if u.Category != nil {
			query += ", category = ?"
			args = append(args, *u.Category)
		}
		if u.Icon != nil {
			query += ", icon = ?"
			args = append(args, *u.Icon)
		}
		if u.Notes != nil {
			query += ", notes = ?"
			args = append(args, *u.Notes)
		}
		if u.DurationEstimate != nil {
			query += ", duration_estimate = ?"
			args = append(args, *u.DurationEstimate)
		}
		if u.Date != nil {
			query += ", date = ?"
			args = append(args, *u.Date)
		}
		if u.Position != nil {
			query += ", position = ?"
			args = append(args, *u.Position)
		}
		if u.Completed != nil {
			query += ", completed = ?"
			args = append(args, *u.Completed)
			if *u.Completed {
				query += ", completed_at = CURRENT_TIMESTAMP"
			} else {
				query += ", completed_at = NULL"
			}
		}
		query += " WHERE id = ?"
		args = append(args, id)

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	t, _, err := r.GetWithOwner(ctx, id)
	return t, err
}

// Toggle flips completion of a task in one statement. completed_at is assigned
// first so it still sees the old completed value on mysql.
func (r *TaskRepository) Toggle(ctx context.Context, id int64) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET completed_at = CASE WHEN completed THEN NULL ELSE CURRENT_TIMESTAMP END,
			completed = NOT completed,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	t, _, err := r.GetWithOwner(ctx, id)
	return t, err
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Reorder sets the position of every listed task in one transaction. Each task
// is checked against userID inside the transaction; a missing or foreign task
// aborts the whole batch with ErrTaskNotOwned.
func (r *TaskRepository) Reorder(ctx context.Context, userID int64, updates []models.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, u := range updates {
			var ownerID int64
			err := tx.QueryRowContext(ctx,
				"SELECT p.user_id FROM tasks t JOIN plannings p ON t.planning_id = p.id WHERE t.id = ?", u.ID).Scan(&ownerID)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && ownerID != userID) {
				return fmt.Errorf("task %d: %w", u.ID, ErrTaskNotOwned)
			}
			if err != nil {
				return fmt.Errorf("failed to check task %d: %w", u.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				"UPDATE tasks SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", u.Position, u.ID); err != nil {
				return fmt.Errorf("failed to update position of task %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// CountForDate counts a user's tasks on date across all plannings
func (r *TaskRepository) CountForDate(ctx context.Context, userID int64, date models.Date) (total, completed int, err error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN t.completed THEN 1 ELSE 0 END), 0)
		FROM tasks t
		JOIN plannings p ON t.planning_id = p.id
		WHERE p.user_id = ? AND t.date = ?
	`
	if err := r.db.QueryRowContext(ctx, query, userID, date).Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, completed, nil
}

// CountCompleted counts every completed task of the user
func (r *TaskRepository) CountCompleted(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks t
		JOIN plannings p ON t.planning_id = p.id
		WHERE p.user_id = ? AND t.completed = ` + r.db.Dialect.BoolValue(true)
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return count, nil
}

// DistinctDates returns every date on which the user has tasks, ascending
func (r *TaskRepository) DistinctDates(ctx context.Context, userID int64) ([]models.Date, error) {
	query := `
		SELECT DISTINCT t.date
		FROM tasks t
		JOIN plannings p ON t.planning_id = p.id
		WHERE p.user_id = ?
		ORDER BY t.date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task dates: %w", err)
	}
	defer rows.Close()

	var dates []models.Date
	for rows.Next() {
		var d models.Date
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
