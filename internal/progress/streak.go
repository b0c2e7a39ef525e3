package progress

import (
	"sort"

	"planwise/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// StreakLookbackDays bounds both the history query and the walk
	StreakLookbackDays = 365
)

// StreakThreshold is the minimum completion rate of a day that counts toward a streak
var StreakThreshold = decimal.NewFromInt(70)

// CompletionRate is completed/total as a percentage rounded half away from zero
// to two places, or 0 when there are no tasks.
func CompletionRate(completed, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(completed) * 100).DivRound(decimal.NewFromInt(int64(total)), 2)
}

// CalculateStreak counts consecutive qualifying days ending today.
//
// history must be ordered by date descending. Starting at today, each row has
// to fall on exactly the next expected day and reach StreakThreshold; the first
// row that does not ends the walk. Rows dated after today are ignored.
func CalculateStreak(today models.Date, history []models.DayRate) int {
	streak := 0
	expected := today

	for _, day := range history {
		if day.Date.After(today) {
			continue
		}
		if streak >= StreakLookbackDays {
			break
		}
		if !day.Date.Equal(expected) || day.Rate.LessThan(StreakThreshold) {
			break
		}
		streak++
		expected = expected.AddDays(-1)
	}

	return streak
}

// LongestRun returns the longest run of consecutive qualifying days anywhere in
// history, which may be in any order.
func LongestRun(history []models.DayRate) int {
	days := make([]models.DayRate, 0, len(history))
	for _, d := range history {
		if !d.Rate.LessThan(StreakThreshold) {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	longest, run := 0, 0
	for i, d := range days {
		switch {
		case i > 0 && d.Date.Equal(days[i-1].Date):
			continue
		case i > 0 && d.Date.Equal(days[i-1].Date.AddDays(1)):
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// withPending returns history with the row for pending.Date replaced by
// pending, keeping descending date order.
func withPending(history []models.DayRate, pending models.DayRate) []models.DayRate {
	merged := make([]models.DayRate, 0, len(history)+1)
	inserted := false
	for _, d := range history {
		if d.Date.Equal(pending.Date) {
			continue
		}
		if !inserted && d.Date.Before(pending.Date) {
			merged = append(merged, pending)
			inserted = true
		}
		merged = append(merged, d)
	}
	if !inserted {
		merged = append(merged, pending)
	}
	return merged
}
