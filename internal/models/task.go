package models

import "time"

// Task defaults applied on create
const (
	DefaultTaskCategory = "general"
	DefaultTaskIcon     = "circle"
)

// Task is a single item of a planning scheduled on a calendar date.
// Completed and CompletedAt are always written together.
type Task struct {
	ID               int64      `json:"id"`
	PlanningID       int64      `json:"planning_id"`
	Title            string     `json:"title"`
	Time             *string    `json:"time"`
	Category         string     `json:"category"`
	Icon             string     `json:"icon"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at"`
	Notes            string     `json:"notes"`
	DurationEstimate *int       `json:"duration_estimate"`
	Position         int        `json:"position"`
	Date             Date       `json:"date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TaskUpdate carries the allowed fields of a partial task update; nil means unchanged.
// An empty Time clears the scheduled time.
type TaskUpdate struct {
	Title            *string
	Time             *string
	Category         *string
	Icon             *string
	Notes            *string
	DurationEstimate *int
	Date             *Date
	Position         *int
	Completed        *bool
}

// IsEmpty reports whether the update changes nothing
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Time == nil && u.Category == nil && u.Icon == nil &&
		u.Notes == nil && u.DurationEstimate == nil && u.Date == nil && u.Position == nil &&
		u.Completed == nil
}

// PositionUpdate is one entry of a bulk reorder
type PositionUpdate struct {
	ID       int64 `json:"id" binding:"required"`
	Position int   `json:"position" binding:"min=0"`
}
