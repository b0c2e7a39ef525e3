package progress

import (
	"context"
	"sort"

	"planwise/internal/models"
)

// Stores bundles the persistence the engine works against
type Stores struct {
	Plannings    PlanningIndex
	Tasks        TaskCounter
	Stats        StatStore
	Ledger       LedgerStore
	Achievements AchievementStore
}

// Engine is the entry point used by task mutations
type Engine struct {
	aggregator *Aggregator
	evaluator  *Evaluator
	stores     Stores
}

// NewEngine wires an aggregator and evaluator over stores. A nil catalog
// selects DefaultCatalog and a nil clock the real time.
func NewEngine(stores Stores, catalog []Badge, clock Clock) *Engine {
	return &Engine{
		aggregator: NewAggregator(stores.Plannings, stores.Tasks, stores.Stats, stores.Ledger, clock),
		evaluator:  NewEvaluator(stores.Ledger, stores.Tasks, stores.Achievements, catalog, clock),
		stores:     stores,
	}
}

// SetUnlockHook installs the hook notified about new badges
func (e *Engine) SetUnlockHook(hook UnlockHook) {
	e.evaluator.SetHook(hook)
}

func (e *Engine) Recompute(ctx context.Context, userID int64, date models.Date) (models.DailyStat, error) {
	return e.aggregator.Recompute(ctx, userID, date)
}

func (e *Engine) Evaluate(ctx context.Context, userID int64) ([]models.Achievement, error) {
	return e.evaluator.Evaluate(ctx, userID)
}

// RebuildReport summarises a Rebuild
type RebuildReport struct {
	Dates       int                  `json:"dates"`
	LongestRun  int                  `json:"longest_run"`
	Unlocked    []models.Achievement `json:"unlocked"`
	FinalStreak int                  `json:"final_streak"`
}

// Rebuild replays Recompute for every date the user has tasks or a stored
// stat on, oldest first, raises longest_streak to the longest qualifying run
// found in the rebuilt history and re-evaluates badges. Stored dates without
// tasks are rewritten as empty days.
func (e *Engine) Rebuild(ctx context.Context, userID int64) (RebuildReport, error) {
	var report RebuildReport

	dates, err := e.stores.Tasks.DistinctDates(ctx, userID)
	if err != nil {
		return report, &AggregationError{UserID: userID, Op: "list task dates", Err: err}
	}
	stored, err := e.stores.Stats.ListAll(ctx, userID)
	if err != nil {
		return report, &AggregationError{UserID: userID, Op: "list stats", Err: err}
	}
	for _, s := range stored {
		dates = append(dates, s.Date)
	}
	dates = uniqueDates(dates)

	for _, date := range dates {
		stat, err := e.aggregator.Recompute(ctx, userID, date)
		if err != nil {
			return report, err
		}
		report.Dates++
		report.FinalStreak = stat.Streak
	}

	stats, err := e.stores.Stats.ListAll(ctx, userID)
	if err != nil {
		return report, &AggregationError{UserID: userID, Op: "list stats", Err: err}
	}
	history := make([]models.DayRate, len(stats))
	for i, s := range stats {
		history[i] = models.DayRate{Date: s.Date, Rate: s.CompletionRate}
	}
	report.LongestRun = LongestRun(history)
	if err := e.stores.Ledger.RaiseLongest(ctx, userID, report.LongestRun); err != nil {
		return report, &AggregationError{UserID: userID, Op: "raise longest streak", Err: err}
	}

	report.Unlocked, err = e.evaluator.Evaluate(ctx, userID)
	return report, err
}

// uniqueDates sorts dates ascending and drops repeats
func uniqueDates(dates []models.Date) []models.Date {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:0]
	for _, d := range dates {
		if len(out) > 0 && d.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}
