package service

import (
	"context"
	"fmt"
	"log"

	"planwise/internal/models"
	"planwise/internal/repository"
)

// SocialService covers user profiles, search and the follow graph
type SocialService struct {
	users         *repository.UserRepository
	plannings     *repository.PlanningRepository
	social        *repository.SocialRepository
	achievements  *repository.AchievementRepository
	notifications *NotificationService
}

func NewSocialService(
	users *repository.UserRepository,
	plannings *repository.PlanningRepository,
	social *repository.SocialRepository,
	achievements *repository.AchievementRepository,
	notifications *NotificationService,
) *SocialService {
	return &SocialService{
		users:         users,
		plannings:     plannings,
		social:        social,
		achievements:  achievements,
		notifications: notifications,
	}
}

// Search finds users by username
func (s *SocialService) Search(ctx context.Context, q string) ([]models.UserSummary, error) {
	return s.users.Search(ctx, q, searchLimit)
}

// Profile returns the public profile of username as seen by viewerID (0 for anonymous)
func (s *SocialService) Profile(ctx context.Context, username string, viewerID int64) (*models.UserProfile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	stats, err := s.users.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	plannings, err := s.plannings.ListByUser(ctx, user.ID, false)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != 0 && viewerID != user.ID {
		if following, err = s.social.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}

	return &models.UserProfile{
		User:        user.Public(),
		Stats:       stats,
		IsFollowing: following,
		Plannings:   plannings,
	}, nil
}

// ToggleFollow follows or unfollows targetID and reports the new state.
// New follows notify the target.
func (s *SocialService) ToggleFollow(ctx context.Context, followerID, targetID int64) (bool, error) {
	if followerID == targetID {
		return false, ErrSelfFollow
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, ErrNotFound
	}

	following, err := s.social.ToggleFollow(ctx, followerID, targetID)
	if err != nil {
		return false, err
	}

	if following {
		follower, err := s.users.GetByID(ctx, followerID)
		if err != nil || follower == nil {
			log.Printf("Warning: failed to load user %d for follow notification: %v", followerID, err)
			return following, nil
		}
		data := map[string]interface{}{"from_user": follower.Username, "from_user_id": follower.ID}
		if err := s.notifications.Notify(ctx, targetID, models.NotificationFollow, "New follower",
			fmt.Sprintf("%s started following you", follower.Username), data); err != nil {
			log.Printf("Warning: failed to create follow notification: %v", err)
		}
	}
	return following, nil
}

func (s *SocialService) Followers(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	return s.social.Followers(ctx, userID)
}

func (s *SocialService) Following(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	return s.social.Following(ctx, userID)
}

// Achievements lists a user's badges, most recent first
func (s *SocialService) Achievements(ctx context.Context, userID int64) ([]models.Achievement, error) {
	return s.achievements.ListByUser(ctx, userID)
}
