package service

import (
	"context"
	"errors"
	"log"

	"planwise/internal/models"
	"planwise/internal/repository"
)

// Progress is the part of the progress engine driven by task mutations
type Progress interface {
	Recompute(ctx context.Context, userID int64, date models.Date) (models.DailyStat, error)
	Evaluate(ctx context.Context, userID int64) ([]models.Achievement, error)
}

// refreshStats recomputes the user's stat for every distinct date. Failures are
// logged and never reach the caller; the mutation that triggered them stands.
func refreshStats(ctx context.Context, p Progress, userID int64, dates ...models.Date) {
	seen := make(map[string]bool, len(dates))
	for _, date := range dates {
		if date.IsZero() || seen[date.String()] {
			continue
		}
		seen[date.String()] = true

		if _, err := p.Recompute(ctx, userID, date); err != nil {
			log.Printf("Warning: stats recompute failed: %v", err)
		}
	}
}

func checkAchievements(ctx context.Context, p Progress, userID int64) {
	if _, err := p.Evaluate(ctx, userID); err != nil {
		log.Printf("Warning: achievement evaluation failed: %v", err)
	}
}

// TaskService handles task CRUD and keeps derived progress in step
type TaskService struct {
	tasks     *repository.TaskRepository
	plannings *repository.PlanningRepository
	progress  Progress
}

func NewTaskService(tasks *repository.TaskRepository, plannings *repository.PlanningRepository, p Progress) *TaskService {
	return &TaskService{tasks: tasks, plannings: plannings, progress: p}
}

// readablePlanning loads a planning the viewer may read: their own or a public one
func (s *TaskService) readablePlanning(ctx context.Context, planningID, viewerID int64) (*models.Planning, error) {
	p, err := s.plannings.GetByID(ctx, planningID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.UserID != viewerID && !p.IsPublic {
		return nil, ErrForbidden
	}
	return p, nil
}

// ownedTask loads a task and checks its planning belongs to userID
func (s *TaskService) ownedTask(ctx context.Context, id, userID int64) (*models.Task, error) {
	t, ownerID, err := s.tasks.GetWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	return t, nil
}

// ListByPlanning returns the tasks of a planning the viewer may read
func (s *TaskService) ListByPlanning(ctx context.Context, planningID, viewerID int64) ([]models.Task, error) {
	if _, err := s.readablePlanning(ctx, planningID, viewerID); err != nil {
		return nil, err
	}
	return s.tasks.ListByPlanning(ctx, planningID)
}

// ListByDate returns the tasks of a planning scheduled on date
func (s *TaskService) ListByDate(ctx context.Context, planningID, viewerID int64, date models.Date) ([]models.Task, error) {
	if _, err := s.readablePlanning(ctx, planningID, viewerID); err != nil {
		return nil, err
	}
	return s.tasks.ListByPlanningAndDate(ctx, planningID, date)
}

// Create adds a task to one of the user's plannings
func (s *TaskService) Create(ctx context.Context, userID int64, t *models.Task) (*models.Task, error) {
	p, err := s.plannings.GetByID(ctx, t.PlanningID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, ErrForbidden
	}

	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return nil, err
	}

	refreshStats(ctx, s.progress, userID, created.Date)
	return created, nil
}

// Update applies a partial update. Both the old and the new date are
// recomputed when the task moves, and badges are evaluated when it is completed.
func (s *TaskService) Update(ctx context.Context, id, userID int64, u models.TaskUpdate) (*models.Task, error) {
	before, err := s.ownedTask(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	if !u.IsEmpty() {
		refreshStats(ctx, s.progress, userID, updated.Date, before.Date)
		if u.Completed != nil && *u.Completed {
			checkAchievements(ctx, s.progress, userID)
		}
	}
	return updated, nil
}

// Toggle flips completion of a task
func (s *TaskService) Toggle(ctx context.Context, id, userID int64) (*models.Task, error) {
	if _, err := s.ownedTask(ctx, id, userID); err != nil {
		return nil, err
	}

	toggled, err := s.tasks.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	if toggled == nil {
		return nil, ErrNotFound
	}

	refreshStats(ctx, s.progress, userID, toggled.Date)
	if toggled.Completed {
		checkAchievements(ctx, s.progress, userID)
	}
	return toggled, nil
}

// Delete removes a task and recomputes its date
func (s *TaskService) Delete(ctx context.Context, id, userID int64) error {
	t, err := s.ownedTask(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	refreshStats(ctx, s.progress, userID, t.Date)
	return nil
}

// Reorder sets task positions all-or-nothing
func (s *TaskService) Reorder(ctx context.Context, userID int64, updates []models.PositionUpdate) error {
	err := s.tasks.Reorder(ctx, userID, updates)
	if errors.Is(err, repository.ErrTaskNotOwned) {
		return ErrForbidden
	}
	return err
}
