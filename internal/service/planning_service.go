package service

import (
	"context"
	"fmt"
	"log"

	"planwise/internal/models"
	"planwise/internal/progress"
	"planwise/internal/repository"
	"planwise/internal/security"
)

const (
	DefaultPublicLimit = 50
	searchLimit        = 20
)

// PlanningService handles plannings and the likes and comments on them
type PlanningService struct {
	plannings     *repository.PlanningRepository
	tasks         *repository.TaskRepository
	social        *repository.SocialRepository
	users         *repository.UserRepository
	notifications *NotificationService
	progress      Progress
	clock         progress.Clock
}

func NewPlanningService(
	plannings *repository.PlanningRepository,
	tasks *repository.TaskRepository,
	social *repository.SocialRepository,
	users *repository.UserRepository,
	notifications *NotificationService,
	p Progress,
	clock progress.Clock,
) *PlanningService {
	if clock == nil {
		clock = progress.RealClock{}
	}
	return &PlanningService{
		plannings:     plannings,
		tasks:         tasks,
		social:        social,
		users:         users,
		notifications: notifications,
		progress:      p,
		clock:         clock,
	}
}

func (s *PlanningService) get(ctx context.Context, id int64) (*models.Planning, error) {
	p, err := s.plannings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *PlanningService) owned(ctx context.Context, id, userID int64) (*models.Planning, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

// public loads a planning that others may interact with. Private plannings
// look missing to everyone.
func (s *PlanningService) public(ctx context.Context, id int64) (*models.Planning, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic {
		return nil, ErrNotFound
	}
	return p, nil
}

// List returns every planning of the user
func (s *PlanningService) List(ctx context.Context, userID int64) ([]models.Planning, error) {
	return s.plannings.ListByUser(ctx, userID, true)
}

// ListPublic is the discover feed
func (s *PlanningService) ListPublic(ctx context.Context, limit, offset int) ([]models.Planning, error) {
	if limit <= 0 {
		limit = DefaultPublicLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.plannings.ListPublic(ctx, limit, offset)
}

// Search looks through public plannings by title and description
func (s *PlanningService) Search(ctx context.Context, q string) ([]models.Planning, error) {
	return s.plannings.Search(ctx, q, searchLimit)
}

// Get returns a planning with its tasks and social data. Private plannings are
// only visible to their owner; viewerID 0 is an anonymous viewer.
func (s *PlanningService) Get(ctx context.Context, id, viewerID int64) (*models.PlanningDetail, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic && (viewerID == 0 || viewerID != p.UserID) {
		return nil, ErrForbidden
	}
	return s.detail(ctx, p, viewerID)
}

// GetShared returns the planning published under a share link, regardless of visibility
func (s *PlanningService) GetShared(ctx context.Context, token string) (*models.PlanningDetail, error) {
	p, err := s.plannings.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return s.detail(ctx, p, 0)
}

func (s *PlanningService) detail(ctx context.Context, p *models.Planning, viewerID int64) (*models.PlanningDetail, error) {
	tasks, err := s.tasks.ListByPlanning(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	likes, err := s.social.CountLikes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.social.ListComments(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	liked := false
	if viewerID != 0 {
		if liked, err = s.social.HasLiked(ctx, viewerID, p.ID); err != nil {
			return nil, err
		}
	}

	return &models.PlanningDetail{
		Planning:   *p,
		Tasks:      tasks,
		LikesCount: likes,
		Comments:   comments,
		UserLiked:  liked,
	}, nil
}

// Create stores a new planning for the user
func (s *PlanningService) Create(ctx context.Context, userID int64, p *models.Planning) (*models.Planning, error) {
	p.UserID = userID
	return s.plannings.Create(ctx, p)
}

// Update changes a planning owned by the user
func (s *PlanningService) Update(ctx context.Context, id, userID int64, u models.PlanningUpdate) (*models.Planning, error) {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.plannings.Update(ctx, id, u)
}

// Delete removes a planning with its tasks and recomputes the dates those tasks were on
func (s *PlanningService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}

	tasks, err := s.tasks.ListByPlanning(ctx, id)
	if err != nil {
		return err
	}
	if err := s.plannings.Delete(ctx, id); err != nil {
		return err
	}

	dates := make([]models.Date, len(tasks))
	for i, t := range tasks {
		dates[i] = t.Date
	}
	refreshStats(ctx, s.progress, userID, dates...)
	return nil
}

// Duplicate copies a public planning, or one of the user's own, into a new
// private planning whose tasks are scheduled today
func (s *PlanningService) Duplicate(ctx context.Context, id, userID int64) (*models.Planning, error) {
	src, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !src.IsPublic && src.UserID != userID {
		return nil, ErrNotFound
	}

	today := progress.Today(s.clock)
	copied, err := s.plannings.Duplicate(ctx, src, userID, today)
	if err != nil {
		return nil, err
	}

	refreshStats(ctx, s.progress, userID, today)
	return copied, nil
}

// Share publishes the planning under a new share token
func (s *PlanningService) Share(ctx context.Context, id, userID int64) (string, error) {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return "", err
	}
	token := security.NewID()
	if err := s.plannings.SetShareToken(ctx, id, &token); err != nil {
		return "", err
	}
	return token, nil
}

// Unshare revokes the share link of a planning
func (s *PlanningService) Unshare(ctx context.Context, id, userID int64) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.plannings.SetShareToken(ctx, id, nil)
}

// ToggleLike likes or unlikes a public planning and reports the new state.
// The owner is notified of new likes by others.
func (s *PlanningService) ToggleLike(ctx context.Context, id, userID int64) (bool, error) {
	p, err := s.public(ctx, id)
	if err != nil {
		return false, err
	}

	liked, err := s.social.ToggleLike(ctx, userID, id)
	if err != nil {
		return false, err
	}

	if liked && p.UserID != userID {
		s.notifyOwner(ctx, p, userID, models.NotificationLike, "New like", "%s liked your planning %q")
	}
	return liked, nil
}

// AddComment comments on a public planning and notifies its owner
func (s *PlanningService) AddComment(ctx context.Context, id, userID int64, content string) (*models.Comment, error) {
	p, err := s.public(ctx, id)
	if err != nil {
		return nil, err
	}

	comment, err := s.social.AddComment(ctx, userID, id, content)
	if err != nil {
		return nil, err
	}

	if p.UserID != userID {
		s.notifyOwner(ctx, p, userID, models.NotificationComment, "New comment", "%s commented on your planning %q")
	}
	return comment, nil
}

func (s *PlanningService) notifyOwner(ctx context.Context, p *models.Planning, actorID int64, kind, title, format string) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil || actor == nil {
		log.Printf("Warning: failed to load user %d for %s notification: %v", actorID, kind, err)
		return
	}

	data := map[string]interface{}{"planning_id": p.ID, "from_user": actor.Username}
	if err := s.notifications.Notify(ctx, p.UserID, kind, title, fmt.Sprintf(format, actor.Username, p.Title), data); err != nil {
		log.Printf("Warning: failed to create %s notification: %v", kind, err)
	}
}
