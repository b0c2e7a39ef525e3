package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"planwise/internal/database"
	"planwise/internal/models"
	"planwise/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine    *Engine
	clock     *FakeClock
	users     *repository.UserRepository
	plannings *repository.PlanningRepository
	tasks     *repository.TaskRepository
	stats     *repository.StatsRepository
	points    *repository.PointsRepository
	badges    *repository.AchievementRepository
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &engineFixture{
		clock:     NewFakeClock(time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)),
		users:     repository.NewUserRepository(db),
		plannings: repository.NewPlanningRepository(db),
		tasks:     repository.NewTaskRepository(db),
		stats:     repository.NewStatsRepository(db),
		points:    repository.NewPointsRepository(db),
		badges:    repository.NewAchievementRepository(db),
	}
	f.engine = NewEngine(Stores{
		Plannings:    f.plannings,
		Tasks:        f.tasks,
		Stats:        f.stats,
		Ledger:       f.points,
		Achievements: f.badges,
	}, nil, f.clock)
	return f
}

func (f *engineFixture) user(t *testing.T) (*models.User, *models.Planning) {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.Create(ctx, "ada", "ada@example.com", "hash")
	require.NoError(t, err)
	p, err := f.plannings.Create(ctx, &models.Planning{UserID: u.ID, Title: "Daily"})
	require.NoError(t, err)
	return u, p
}

// addTasks creates n tasks on date, the first done of them completed
func (f *engineFixture) addTasks(t *testing.T, planningID int64, date models.Date, n, done int) {
	t.Helper()
	ctx := context.Background()
	completed := true
	for i := 0; i < n; i++ {
		task, err := f.tasks.Create(ctx, &models.Task{PlanningID: planningID, Title: "task", Date: date})
		require.NoError(t, err)
		if i < done {
			_, err = f.tasks.Update(ctx, task.ID, models.TaskUpdate{Completed: &completed})
			require.NoError(t, err)
		}
	}
}

func (f *engineFixture) today() models.Date {
	return Today(f.clock)
}

func badgeTypes(achievements []models.Achievement) []string {
	types := make([]string, len(achievements))
	for i, a := range achievements {
		types[i] = a.BadgeType
	}
	return types
}

func TestRecomputeWithoutPlanningsWritesEmptyDay(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, err := f.users.Create(ctx, "bob", "bob@example.com", "hash")
	require.NoError(t, err)

	stat, err := f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)
	assert.Equal(t, 0, stat.TotalTasks)
	assert.True(t, stat.CompletionRate.IsZero())

	stored, err := f.stats.Get(ctx, u.ID, f.today())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.TotalTasks)
	assert.Equal(t, 0, stored.Streak)
}

func TestRecomputeAfterLastPlanningDeleted(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	f.addTasks(t, p.ID, f.today(), 1, 1)

	stat, err := f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)
	require.Equal(t, 1, stat.Streak)

	require.NoError(t, f.plannings.Delete(ctx, p.ID))
	_, err = f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)

	stored, err := f.stats.Get(ctx, u.ID, f.today())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.TotalTasks)
	assert.Equal(t, 0, stored.CompletedTasks)
	assert.True(t, stored.CompletionRate.IsZero())
	assert.Equal(t, 0, stored.Streak)

	ledger, err := f.points.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.CurrentStreak)
	assert.Equal(t, 1, ledger.LongestStreak)
}

func TestRecomputeRateAndCounts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	f.addTasks(t, p.ID, f.today(), 3, 2)

	stat, err := f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)
	assert.Equal(t, 3, stat.TotalTasks)
	assert.Equal(t, 2, stat.CompletedTasks)
	assert.True(t, decimal.RequireFromString("66.67").Equal(stat.CompletionRate))
	assert.Equal(t, 0, stat.Streak)

	stored, err := f.stats.Get(ctx, u.ID, f.today())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.LessOrEqual(t, stored.CompletedTasks, stored.TotalTasks)
	assert.True(t, stat.CompletionRate.Equal(stored.CompletionRate))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	f.addTasks(t, p.ID, f.today(), 4, 3)

	_, err := f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)
	first, err := f.stats.Get(ctx, u.ID, f.today())
	require.NoError(t, err)

	_, err = f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)
	second, err := f.stats.Get(ctx, u.ID, f.today())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TotalTasks, second.TotalTasks)
	assert.Equal(t, first.CompletedTasks, second.CompletedTasks)
	assert.Equal(t, first.Streak, second.Streak)
	assert.Equal(t, first.CompletionRate.String(), second.CompletionRate.String())
}

func TestRecomputeStreakBreaksOnFailingDay(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	today := f.today()

	// D-3: 100, D-2: 40, D-1: 100, D: 100
	f.addTasks(t, p.ID, today.AddDays(-3), 1, 1)
	f.addTasks(t, p.ID, today.AddDays(-2), 5, 2)
	f.addTasks(t, p.ID, today.AddDays(-1), 1, 1)
	f.addTasks(t, p.ID, today, 2, 2)
	for i := 3; i >= 0; i-- {
		_, err := f.engine.Recompute(ctx, u.ID, today.AddDays(-i))
		require.NoError(t, err)
	}

	stat, err := f.stats.Get(ctx, u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Streak)

	ledger, err := f.points.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.CurrentStreak)
}

func TestLongestStreakNeverDecreases(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, _ := f.user(t)

	for _, streak := range []int{3, 7, 2} {
		require.NoError(t, f.points.RecordStreak(ctx, u.ID, streak))
	}

	ledger, err := f.points.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.CurrentStreak)
	assert.Equal(t, 7, ledger.LongestStreak)
}

func TestEvaluateThresholds(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)

	f.addTasks(t, p.ID, f.today().AddDays(-30), 10, 10)
	unlocked, err := f.engine.Evaluate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks_10"}, badgeTypes(unlocked))

	f.addTasks(t, p.ID, f.today().AddDays(-29), 90, 90)
	unlocked, err = f.engine.Evaluate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks_100"}, badgeTypes(unlocked))

	all, err := f.badges.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tasks_10", "tasks_100"}, badgeTypes(all))
}

func TestEvaluateIsWriteOnce(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, _ := f.user(t)

	for _, streak := range []int{7, 2, 8} {
		require.NoError(t, f.points.RecordStreak(ctx, u.ID, streak))
		_, err := f.engine.Evaluate(ctx, u.ID)
		require.NoError(t, err)
	}

	all, err := f.badges.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"streak_7"}, badgeTypes(all))
}

type recordingHook struct {
	calls [][]models.Achievement
	err   error
}

func (h *recordingHook) AchievementsUnlocked(ctx context.Context, userID int64, unlocked []models.Achievement) error {
	h.calls = append(h.calls, unlocked)
	return h.err
}

func TestUnlockHookSeesOnlyNewBadges(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	hook := &recordingHook{err: errors.New("smtp down")}
	f.engine.SetUnlockHook(hook)

	f.addTasks(t, p.ID, f.today().AddDays(-3), 10, 10)
	unlocked, err := f.engine.Evaluate(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, unlocked, 1)

	_, err = f.engine.Evaluate(ctx, u.ID)
	require.NoError(t, err)

	require.Len(t, hook.calls, 1)
	assert.Equal(t, "tasks_10", hook.calls[0][0].BadgeType)
}

func TestSevenDayScenario(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)

	// three days of two tasks, then four days of one: the 10th completion lands on day 7
	perDay := []int{2, 2, 2, 1, 1, 1, 1}
	var days []models.Date
	for i, n := range perDay {
		if i > 0 {
			f.clock.Advance(24 * time.Hour)
		}
		today := f.today()
		days = append(days, today)

		for j := 0; j < n; j++ {
			task, err := f.tasks.Create(ctx, &models.Task{PlanningID: p.ID, Title: "habit", Date: today})
			require.NoError(t, err)
			_, err = f.engine.Recompute(ctx, u.ID, today)
			require.NoError(t, err)

			completed := true
			_, err = f.tasks.Update(ctx, task.ID, models.TaskUpdate{Completed: &completed})
			require.NoError(t, err)
			_, err = f.engine.Recompute(ctx, u.ID, today)
			require.NoError(t, err)
			_, err = f.engine.Evaluate(ctx, u.ID)
			require.NoError(t, err)
		}

		all, err := f.badges.ListByUser(ctx, u.ID)
		require.NoError(t, err)
		if i < 6 {
			assert.Empty(t, all, "day %d", i+1)
		} else {
			assert.ElementsMatch(t, []string{"streak_7", "tasks_10"}, badgeTypes(all))
		}
	}

	for _, d := range days {
		stat, err := f.stats.Get(ctx, u.ID, d)
		require.NoError(t, err)
		require.NotNil(t, stat)
		assert.True(t, decimal.NewFromInt(100).Equal(stat.CompletionRate), "date %s", d)
	}

	ledger, err := f.points.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, ledger.CurrentStreak)
	assert.Equal(t, 7, ledger.LongestStreak)
}

func TestRebuild(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	today := f.today()

	// an old run of four qualifying days, then a failing day, then today
	for i := 10; i >= 7; i-- {
		f.addTasks(t, p.ID, today.AddDays(-i), 1, 1)
	}
	f.addTasks(t, p.ID, today.AddDays(-6), 2, 0)
	f.addTasks(t, p.ID, today, 1, 1)

	report, err := f.engine.Rebuild(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Dates)
	assert.Equal(t, 4, report.LongestRun)
	assert.Equal(t, 1, report.FinalStreak)

	ledger, err := f.points.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.CurrentStreak)
	assert.Equal(t, 4, ledger.LongestStreak)

	stats, err := f.stats.ListAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, stats, 6)
}

func TestRebuildClearsDaysWithoutTasks(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	u, p := f.user(t)
	f.addTasks(t, p.ID, f.today(), 1, 1)
	_, err := f.engine.Recompute(ctx, u.ID, f.today())
	require.NoError(t, err)

	// remove the tasks behind the engine's back
	require.NoError(t, f.plannings.Delete(ctx, p.ID))

	report, err := f.engine.Rebuild(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dates)
	assert.Equal(t, 0, report.FinalStreak)

	stored, err := f.stats.Get(ctx, u.ID, f.today())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.TotalTasks)

	ledger, err := f.points.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.CurrentStreak)
}
