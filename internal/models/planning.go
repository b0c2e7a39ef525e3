package models

import "time"

// Visibility values of a planning
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
)

// Planning is a named list of tasks owned by a user
type Planning struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IsPublic     bool      `json:"is_public"`
	TemplateType string    `json:"template_type"`
	Visibility   string    `json:"visibility"`
	ShareToken   *string   `json:"share_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated by queries that join the owner and social counters
	Username      string `json:"username,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	LikesCount    *int   `json:"likes_count,omitempty"`
	CommentsCount *int   `json:"comments_count,omitempty"`
}

// PlanningUpdate carries the fields of a partial planning update; nil means unchanged
type PlanningUpdate struct {
	Title       *string
	Description *string
	IsPublic    *bool
	Visibility  *string
}

// IsEmpty reports whether the update changes nothing
func (u PlanningUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.IsPublic == nil && u.Visibility == nil
}

// PlanningDetail is a planning together with its tasks and social data
type PlanningDetail struct {
	Planning   Planning  `json:"planning"`
	Tasks      []Task    `json:"tasks"`
	LikesCount int       `json:"likes_count"`
	Comments   []Comment `json:"comments"`
	UserLiked  bool      `json:"user_liked"`
}
