package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyStat is the derived completion record of one user on one date
type DailyStat struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Date           Date            `json:"date"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
	Streak         int             `json:"streak"`
	TotalTasks     int             `json:"total_tasks"`
	CompletedTasks int             `json:"completed_tasks"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DayRate is the input of the streak calculation
type DayRate struct {
	Date Date
	Rate decimal.Decimal
}

// PointsLedger is the per-user running gamification state
type PointsLedger struct {
	UserID        int64     `json:"user_id"`
	TotalPoints   int       `json:"total_points"`
	Level         int       `json:"level"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewPointsLedger returns the state of a user who has no ledger row yet
func NewPointsLedger(userID int64) PointsLedger {
	return PointsLedger{UserID: userID, Level: 1}
}

// Achievement is a badge unlocked by a user. Rows are never updated or removed.
type Achievement struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	BadgeType        string    `json:"badge_type"`
	BadgeName        string    `json:"badge_name"`
	BadgeDescription string    `json:"badge_description"`
	UnlockedAt       time.Time `json:"unlocked_at"`
}

// DashboardSummary aggregates a period of daily stats with the ledger
type DashboardSummary struct {
	TotalTasks     int             `json:"totalTasks"`
	CompletedTasks int             `json:"completedTasks"`
	CompletionRate decimal.Decimal `json:"completionRate"`
	CurrentStreak  int             `json:"currentStreak"`
	LongestStreak  int             `json:"longestStreak"`
	TotalPoints    int             `json:"totalPoints"`
	Level          int             `json:"level"`
}

// Dashboard is the stats overview for a period
type Dashboard struct {
	Stats   []DailyStat      `json:"stats"`
	Summary DashboardSummary `json:"summary"`
}

// WeeklyTotals sums the last seven days of stats
type WeeklyTotals struct {
	TotalTasks     int             `json:"totalTasks"`
	CompletedTasks int             `json:"completedTasks"`
	CompletionRate decimal.Decimal `json:"completionRate"`
}

// WeeklyReport covers the seven days up to today
type WeeklyReport struct {
	DailyStats   []DailyStat   `json:"dailyStats"`
	WeeklyStats  WeeklyTotals  `json:"weeklyStats"`
	Achievements []Achievement `json:"achievements"`
}

// HeatmapDay is one cell of the yearly heatmap
type HeatmapDay struct {
	Date           Date            `json:"date"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
}

// CategoryStat is the completion breakdown of one task category
type CategoryStat struct {
	Category       string          `json:"category"`
	Total          int             `json:"total"`
	Completed      int             `json:"completed"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
}

// HourStat is the completion breakdown of tasks scheduled in one hour of the day
type HourStat struct {
	Hour      int `json:"hour"`
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// LeaderboardEntry is one row of the global leaderboard
type LeaderboardEntry struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	TotalPoints   int    `json:"total_points"`
	Level         int    `json:"level"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// UserExport is the derived progress state of a user
type UserExport struct {
	User         PublicUser    `json:"user"`
	Ledger       PointsLedger  `json:"ledger"`
	Stats        []DailyStat   `json:"stats"`
	Achievements []Achievement `json:"achievements"`
	ExportedAt   time.Time     `json:"exported_at"`
}
