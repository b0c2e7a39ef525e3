package progress

import (
	"context"

	"planwise/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// PlanningIndex lists the plannings owned by a user
type PlanningIndex interface {
	IDsByUser(ctx context.Context, userID int64) ([]int64, error)
}

// TaskCounter aggregates a user's tasks across all their plannings
type TaskCounter interface {
	CountForDate(ctx context.Context, userID int64, date models.Date) (total, completed int, err error)
	CountCompleted(ctx context.Context, userID int64) (int, error)
	DistinctDates(ctx context.Context, userID int64) ([]models.Date, error)
}

// StatStore persists DailyStat rows
type StatStore interface {
	Upsert(ctx context.Context, s models.DailyStat) error
	QualifyingHistory(ctx context.Context, userID int64, upTo models.Date, threshold decimal.Decimal, limit int) ([]models.DayRate, error)
	ListAll(ctx context.Context, userID int64) ([]models.DailyStat, error)
}

// LedgerStore persists the points ledger. Both writes must be single atomic
// statements that never lower longest_streak.
type LedgerStore interface {
	Get(ctx context.Context, userID int64) (*models.PointsLedger, error)
	RecordStreak(ctx context.Context, userID int64, streak int) error
	RaiseLongest(ctx context.Context, userID int64, streak int) error
}

// Aggregator recomputes the DailyStat of a (user, date) and the ledger streaks
type Aggregator struct {
	plannings PlanningIndex
	tasks     TaskCounter
	stats     StatStore
	ledger    LedgerStore
	clock     Clock
}

func NewAggregator(plannings PlanningIndex, tasks TaskCounter, stats StatStore, ledger LedgerStore, clock Clock) *Aggregator {
	if clock == nil {
		clock = RealClock{}
	}
	return &Aggregator{plannings: plannings, tasks: tasks, stats: stats, ledger: ledger, clock: clock}
}

// Recompute derives the stat for date from the current task state, upserts it,
// and records the resulting streak in the ledger. Calling it again without task
// changes writes the same row.
func (a *Aggregator) Recompute(ctx context.Context, userID int64, date models.Date) (models.DailyStat, error) {
	timer := prometheus.NewTimer(RecomputeDuration)
	defer timer.ObserveDuration()

	stat := models.DailyStat{UserID: userID, Date: date, CompletionRate: decimal.Zero}
	fail := func(op string, err error) (models.DailyStat, error) {
		RecomputeTotal.WithLabelValues("error").Inc()
		return stat, &AggregationError{UserID: userID, Date: date, Op: op, Err: err}
	}

	ids, err := a.plannings.IDsByUser(ctx, userID)
	if err != nil {
		return fail("list plannings", err)
	}
	// without plannings the date has no tasks; the zero row still replaces
	// whatever was derived before the last planning went away
	if len(ids) > 0 {
		total, completed, err := a.tasks.CountForDate(ctx, userID, date)
		if err != nil {
			return fail("count tasks", err)
		}
		stat.TotalTasks = total
		stat.CompletedTasks = completed
	}
	stat.CompletionRate = CompletionRate(stat.CompletedTasks, stat.TotalTasks)

	today := Today(a.clock)
	history, err := a.stats.QualifyingHistory(ctx, userID, today, StreakThreshold, StreakLookbackDays)
	if err != nil {
		return fail("load history", err)
	}
	// the stored row for date is stale until the upsert below
	history = withPending(history, models.DayRate{Date: date, Rate: stat.CompletionRate})
	stat.Streak = CalculateStreak(today, history)

	if err := a.stats.Upsert(ctx, stat); err != nil {
		return fail("upsert stat", err)
	}
	if err := a.ledger.RecordStreak(ctx, userID, stat.Streak); err != nil {
		return fail("record streak", err)
	}

	RecomputeTotal.WithLabelValues("ok").Inc()
	return stat, nil
}
