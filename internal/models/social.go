package models

import (
	"encoding/json"
	"time"
)

// Notification types
const (
	NotificationFollow      = "follow"
	NotificationLike        = "like"
	NotificationComment     = "comment"
	NotificationAchievement = "achievement"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// Comment on a planning, joined with its author
type Comment struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	PlanningID int64     `json:"planning_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Username   string    `json:"username"`
	Avatar     string    `json:"avatar"`
}

// UserSummary is a user as listed in follower and search results
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
}
