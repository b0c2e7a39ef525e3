package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"planwise/internal/models"
	"planwise/internal/repository"
)

const notificationListLimit = 50

// NotificationService writes in-app notifications and doubles as the badge
// unlock hook of the progress engine
type NotificationService struct {
	repo  *repository.NotificationRepository
	users *repository.UserRepository
	email *EmailService
}

func NewNotificationService(repo *repository.NotificationRepository, users *repository.UserRepository, email *EmailService) *NotificationService {
	return &NotificationService{repo: repo, users: users, email: email}
}

// Notify stores a notification for userID. data is encoded as JSON.
func (s *NotificationService) Notify(ctx context.Context, userID int64, kind, title, message string, data interface{}) error {
	n := &models.Notification{UserID: userID, Type: kind, Title: title, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode notification data: %w", err)
		}
		n.Data = raw
	}
	return s.repo.Create(ctx, n)
}

// AchievementsUnlocked records one achievement notification per badge and
// emails the user when email is enabled
func (s *NotificationService) AchievementsUnlocked(ctx context.Context, userID int64, unlocked []models.Achievement) error {
	for _, a := range unlocked {
		data := map[string]string{"badge_type": a.BadgeType}
		if err := s.Notify(ctx, userID, models.NotificationAchievement, "Achievement unlocked",
			fmt.Sprintf("You unlocked %s: %s", a.BadgeName, a.BadgeDescription), data); err != nil {
			return err
		}
	}

	if !s.email.IsEnabled() {
		return nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return nil
	}
	return s.email.SendAchievementEmail(ctx, user.Email, user.Username, unlocked)
}

// List returns the latest notifications of a user and how many are unread
func (s *NotificationService) List(ctx context.Context, userID int64) ([]models.Notification, int, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Prune deletes read notifications older than maxAge
func (s *NotificationService) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.repo.DeleteReadBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("Pruned %d read notifications", n)
	}
	return n, nil
}
