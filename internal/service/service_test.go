package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"planwise/internal/database"
	"planwise/internal/models"
	"planwise/internal/progress"
	"planwise/internal/repository"
	"planwise/internal/security"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProgress remembers which dates were recomputed and how often badges were evaluated
type recordingProgress struct {
	mu        sync.Mutex
	dates     []string
	evaluated int
	err       error
}

func (p *recordingProgress) Recompute(ctx context.Context, userID int64, date models.Date) (models.DailyStat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dates = append(p.dates, date.String())
	return models.DailyStat{}, p.err
}

func (p *recordingProgress) Evaluate(ctx context.Context, userID int64) ([]models.Achievement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated++
	return nil, p.err
}

type memRevoker struct {
	revoked map[string]time.Time
}

func (m *memRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

type memCache struct {
	values map[string]interface{}
	gets   int
	sets   int
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	*(dest.(*[]models.LeaderboardEntry)) = v.([]models.LeaderboardEntry)
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	c.values[key] = value
	return nil
}

type serviceFixture struct {
	clock         *progress.FakeClock
	users         *repository.UserRepository
	planningRepo  *repository.PlanningRepository
	taskRepo      *repository.TaskRepository
	notes         *repository.NotificationRepository
	engine        *progress.Engine
	recorder      *recordingProgress
	auth          *AuthService
	revoker       *memRevoker
	notifications *NotificationService
	plannings     *PlanningService
	tasks         *TaskService
	stats         *StatsService
	social        *SocialService
}

// newServiceFixture wires the services on a fresh sqlite database. With
// realEngine false the services drive a recordingProgress instead.
func newServiceFixture(t *testing.T, realEngine bool) *serviceFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &serviceFixture{
		clock:        progress.NewFakeClock(time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)),
		users:        repository.NewUserRepository(db),
		planningRepo: repository.NewPlanningRepository(db),
		taskRepo:     repository.NewTaskRepository(db),
		notes:        repository.NewNotificationRepository(db),
		recorder:     &recordingProgress{},
		revoker:      &memRevoker{revoked: map[string]time.Time{}},
	}
	stats := repository.NewStatsRepository(db)
	points := repository.NewPointsRepository(db)
	badges := repository.NewAchievementRepository(db)
	social := repository.NewSocialRepository(db)

	f.engine = progress.NewEngine(progress.Stores{
		Plannings:    f.planningRepo,
		Tasks:        f.taskRepo,
		Stats:        stats,
		Ledger:       points,
		Achievements: badges,
	}, nil, f.clock)

	var p Progress = f.recorder
	if realEngine {
		p = f.engine
	}

	f.notifications = NewNotificationService(f.notes, f.users, nil)
	f.engine.SetUnlockHook(f.notifications)
	f.auth = NewAuthService(f.users, security.NewTokenManager("test-secret", time.Hour), f.revoker, nil)
	f.plannings = NewPlanningService(f.planningRepo, f.taskRepo, social, f.users, f.notifications, p, f.clock)
	f.tasks = NewTaskService(f.taskRepo, f.planningRepo, p)
	f.stats = NewStatsService(stats, f.taskRepo, f.planningRepo, points, badges, f.users, f.clock)
	f.social = NewSocialService(f.users, f.planningRepo, social, badges, f.notifications)
	return f
}

func (f *serviceFixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, name+"@example.com", "hash")
	require.NoError(t, err)
	return u
}

func (f *serviceFixture) planning(t *testing.T, userID int64, public bool) *models.Planning {
	t.Helper()
	p, err := f.plannings.Create(context.Background(), userID, &models.Planning{Title: "Daily", IsPublic: public})
	require.NoError(t, err)
	return p
}

func (f *serviceFixture) task(t *testing.T, userID, planningID int64, date models.Date) *models.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), userID, &models.Task{PlanningID: planningID, Title: "task", Date: date})
	require.NoError(t, err)
	return task
}

func (f *serviceFixture) notificationTypes(t *testing.T, userID int64) []string {
	t.Helper()
	list, _, err := f.notifications.List(context.Background(), userID)
	require.NoError(t, err)
	types := make([]string, len(list))
	for i, n := range list {
		types[i] = n.Type
	}
	return types
}

func TestRegisterAndLogin(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, "ada", "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ada@example.com", res.User.Email)

	_, err = f.auth.Register(ctx, "other", "ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = f.auth.Register(ctx, "ada", "new@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = f.auth.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := f.auth.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)

	claims, userID, err := f.auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)
	assert.Equal(t, "ada", claims.Username)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, "ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	claims, _, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims))

	_, _, err = f.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestOAuthLogin(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	google := func(subject, email, name string) OAuthIdentity {
		return OAuthIdentity{Provider: "google", Subject: subject, Email: email, Name: name, EmailVerified: true}
	}

	t.Run("creates an account with a free username", func(t *testing.T) {
		f.user(t, "Grace_Hopper")
		res, err := f.auth.OAuthLogin(ctx, google("sub-1", "grace@example.com", "Grace Hopper"))
		require.NoError(t, err)
		assert.Equal(t, "Grace_Hopper2", res.User.Username)

		again, err := f.auth.OAuthLogin(ctx, google("sub-1", "grace@example.com", "Grace Hopper"))
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, again.User.ID)
	})

	t.Run("refuses to link an unverified email", func(t *testing.T) {
		existing := f.user(t, "alan")
		id := google("sub-5", "alan@example.com", "Alan")
		id.EmailVerified = false
		_, err := f.auth.OAuthLogin(ctx, id)
		assert.ErrorIs(t, err, ErrEmailUnverified)

		linked, err := f.users.GetByOAuth(ctx, "google", "sub-5")
		require.NoError(t, err)
		assert.Nil(t, linked)
		reloaded, err := f.users.GetByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.OAuthProvider)
	})

	t.Run("refuses to create an account for an unverified email", func(t *testing.T) {
		id := google("sub-6", "nobody-yet@example.com", "Nobody Yet")
		id.EmailVerified = false
		_, err := f.auth.OAuthLogin(ctx, id)
		assert.ErrorIs(t, err, ErrEmailUnverified)

		u, err := f.users.GetByEmail(ctx, "nobody-yet@example.com")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("links an existing password account", func(t *testing.T) {
		existing := f.user(t, "linus")
		res, err := f.auth.OAuthLogin(ctx, google("sub-2", "linus@example.com", "Linus"))
		require.NoError(t, err)
		assert.Equal(t, existing.ID, res.User.ID)
	})

	t.Run("signs in a linked identity without rechecking the email", func(t *testing.T) {
		id := google("sub-2", "linus@example.com", "Linus")
		id.EmailVerified = false
		res, err := f.auth.OAuthLogin(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "linus", res.User.Username)
	})

	t.Run("rejects an account linked to another provider", func(t *testing.T) {
		id := google("sub-3", "linus@example.com", "Linus")
		id.Provider = "github"
		_, err := f.auth.OAuthLogin(ctx, id)
		assert.ErrorIs(t, err, ErrOAuthAccount)
	})

	t.Run("requires an email", func(t *testing.T) {
		_, err := f.auth.OAuthLogin(ctx, google("sub-4", "", "Nobody"))
		assert.Error(t, err)
	})
}

func TestTaskMutationsRecomputeDates(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	u := f.user(t, "ada")
	p := f.planning(t, u.ID, false)
	day := models.NewDate(2024, time.March, 8)

	task := f.task(t, u.ID, p.ID, day)
	assert.Equal(t, []string{"2024-03-08"}, f.recorder.dates)

	moved := models.NewDate(2024, time.March, 9)
	done := true
	_, err := f.tasks.Update(ctx, task.ID, u.ID, models.TaskUpdate{Date: &moved, Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-08", "2024-03-09", "2024-03-08"}, f.recorder.dates)
	assert.Equal(t, 1, f.recorder.evaluated)

	_, err = f.tasks.Update(ctx, task.ID, u.ID, models.TaskUpdate{})
	require.NoError(t, err)
	assert.Len(t, f.recorder.dates, 3, "an empty update recomputes nothing")

	toggled, err := f.tasks.Toggle(ctx, task.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	assert.Equal(t, 1, f.recorder.evaluated, "uncompleting does not evaluate badges")

	require.NoError(t, f.tasks.Delete(ctx, task.ID, u.ID))
	assert.Equal(t, "2024-03-09", f.recorder.dates[len(f.recorder.dates)-1])
}

func TestTaskMutationSurvivesProgressFailure(t *testing.T) {
	f := newServiceFixture(t, false)
	u := f.user(t, "ada")
	p := f.planning(t, u.ID, false)
	f.recorder.err = errors.New("stats store down")

	task := f.task(t, u.ID, p.ID, models.NewDate(2024, time.March, 8))
	toggled, err := f.tasks.Toggle(context.Background(), task.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
}

func TestTaskOwnership(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "ada")
	other := f.user(t, "bob")
	private := f.planning(t, owner.ID, false)
	task := f.task(t, owner.ID, private.ID, models.NewDate(2024, time.March, 8))

	_, err := f.tasks.Create(ctx, other.ID, &models.Task{PlanningID: private.ID, Title: "x", Date: task.Date})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.tasks.Toggle(ctx, task.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.tasks.Toggle(ctx, 9999, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.tasks.ListByPlanning(ctx, private.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.tasks.Reorder(ctx, other.ID, []models.PositionUpdate{{ID: task.ID, Position: 3}})
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, f.tasks.Reorder(ctx, owner.ID, []models.PositionUpdate{{ID: task.ID, Position: 3}}))

	public := f.planning(t, owner.ID, true)
	f.task(t, owner.ID, public.ID, task.Date)
	tasks, err := f.tasks.ListByPlanning(ctx, public.ID, other.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestPlanningVisibility(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "ada")
	other := f.user(t, "bob")
	private := f.planning(t, owner.ID, false)

	_, err := f.plannings.Get(ctx, private.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.plannings.Get(ctx, private.ID, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	detail, err := f.plannings.Get(ctx, private.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, detail.Planning.ID)

	_, err = f.plannings.ToggleLike(ctx, private.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.plannings.AddComment(ctx, private.ID, other.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.plannings.Update(ctx, private.ID, other.ID, models.PlanningUpdate{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.plannings.Delete(ctx, private.ID, other.ID), ErrForbidden)
}

func TestPlanningShareLink(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "ada")
	p := f.planning(t, owner.ID, false)

	token, err := f.plannings.Share(ctx, p.ID, owner.ID)
	require.NoError(t, err)

	shared, err := f.plannings.GetShared(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, shared.Planning.ID)

	require.NoError(t, f.plannings.Unshare(ctx, p.ID, owner.ID))
	_, err = f.plannings.GetShared(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikesAndCommentsNotifyOwner(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "ada")
	fan := f.user(t, "bob")
	p := f.planning(t, owner.ID, true)

	liked, err := f.plannings.ToggleLike(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = f.plannings.AddComment(ctx, p.ID, fan.ID, "nice")
	require.NoError(t, err)

	liked, err = f.plannings.ToggleLike(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = f.plannings.ToggleLike(ctx, p.ID, owner.ID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{models.NotificationLike, models.NotificationComment}, f.notificationTypes(t, owner.ID))

	detail, err := f.plannings.Get(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.LikesCount)
	assert.True(t, detail.UserLiked)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "bob", detail.Comments[0].Username)
}

func TestDuplicateSchedulesToday(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "ada")
	other := f.user(t, "bob")
	public := f.planning(t, owner.ID, true)
	f.task(t, owner.ID, public.ID, models.NewDate(2024, time.January, 2))

	copied, err := f.plannings.Duplicate(ctx, public.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, copied.UserID)
	assert.False(t, copied.IsPublic)

	tasks, err := f.taskRepo.ListByPlanning(ctx, copied.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "2024-03-10", tasks[0].Date.String())
	assert.Equal(t, "2024-03-10", f.recorder.dates[len(f.recorder.dates)-1])

	private := f.planning(t, owner.ID, false)
	_, err = f.plannings.Duplicate(ctx, private.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLastPlanningResetsProgress(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	u := f.user(t, "ada")
	p := f.planning(t, u.ID, false)
	today := progress.Today(f.clock)

	task := f.task(t, u.ID, p.ID, today)
	_, err := f.tasks.Toggle(ctx, task.ID, u.ID)
	require.NoError(t, err)

	dash, err := f.stats.Dashboard(ctx, u.ID, DefaultStatsPeriod)
	require.NoError(t, err)
	require.Equal(t, 1, dash.Summary.CurrentStreak)

	require.NoError(t, f.plannings.Delete(ctx, p.ID, u.ID))

	export, err := f.stats.Export(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, export.Stats, 1)
	assert.Equal(t, 0, export.Stats[0].TotalTasks)
	assert.Equal(t, 0, export.Stats[0].CompletedTasks)
	assert.True(t, export.Stats[0].CompletionRate.IsZero())
	assert.Equal(t, 0, export.Ledger.CurrentStreak)
	assert.Equal(t, 1, export.Ledger.LongestStreak)
}

func TestFollow(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")

	_, err := f.social.ToggleFollow(ctx, ada.ID, ada.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)
	_, err = f.social.ToggleFollow(ctx, ada.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	following, err := f.social.ToggleFollow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Equal(t, []string{models.NotificationFollow}, f.notificationTypes(t, bob.ID))

	profile, err := f.social.Profile(ctx, "bob", ada.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, 1, profile.Stats.Followers)

	followers, err := f.social.Followers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "ada", followers[0].Username)

	following, err = f.social.ToggleFollow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	_, err = f.social.Profile(ctx, "nobody", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkRead(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")

	require.NoError(t, f.notifications.Notify(ctx, ada.ID, models.NotificationFollow, "t", "m", nil))
	list, unread, err := f.notifications.List(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, unread)

	assert.ErrorIs(t, f.notifications.MarkRead(ctx, list[0].ID, bob.ID), ErrNotFound)
	require.NoError(t, f.notifications.MarkRead(ctx, list[0].ID, ada.ID))
	require.NoError(t, f.notifications.MarkRead(ctx, list[0].ID, ada.ID), "marking twice is fine")

	_, unread, err = f.notifications.List(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestDashboardAndBreakdowns(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	u := f.user(t, "ada")

	empty, err := f.stats.Dashboard(ctx, u.ID, DefaultStatsPeriod)
	require.NoError(t, err)
	assert.Empty(t, empty.Stats)
	assert.Equal(t, 1, empty.Summary.Level)

	p := f.planning(t, u.ID, false)
	yesterday := models.NewDate(2024, time.March, 9)
	today := models.NewDate(2024, time.March, 10)

	morning := "08:15"
	a, err := f.tasks.Create(ctx, u.ID, &models.Task{PlanningID: p.ID, Title: "run", Time: &morning, Category: "health", Date: yesterday})
	require.NoError(t, err)
	f.task(t, u.ID, p.ID, yesterday)
	b := f.task(t, u.ID, p.ID, today)

	_, err = f.tasks.Toggle(ctx, a.ID, u.ID)
	require.NoError(t, err)
	_, err = f.tasks.Toggle(ctx, b.ID, u.ID)
	require.NoError(t, err)

	dash, err := f.stats.Dashboard(ctx, u.ID, DefaultStatsPeriod)
	require.NoError(t, err)
	require.Len(t, dash.Stats, 2)
	assert.Equal(t, 3, dash.Summary.TotalTasks)
	assert.Equal(t, 2, dash.Summary.CompletedTasks)
	assert.True(t, decimal.NewFromInt(75).Equal(dash.Summary.CompletionRate), "got %s", dash.Summary.CompletionRate)
	assert.Equal(t, 1, dash.Summary.CurrentStreak)

	weekly, err := f.stats.WeeklyReport(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, weekly.WeeklyStats.TotalTasks)
	assert.True(t, decimal.RequireFromString("66.67").Equal(weekly.WeeklyStats.CompletionRate))

	heatmap, err := f.stats.Heatmap(ctx, u.ID, 2024)
	require.NoError(t, err)
	assert.Len(t, heatmap, 2)
	heatmap, err = f.stats.Heatmap(ctx, u.ID, 2023)
	require.NoError(t, err)
	assert.Empty(t, heatmap)

	categories, err := f.stats.ByCategory(ctx, u.ID, DefaultStatsPeriod)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, models.DefaultTaskCategory, categories[0].Category)
	assert.Equal(t, 2, categories[0].Total)
	assert.Equal(t, "health", categories[1].Category)
	assert.True(t, decimal.NewFromInt(100).Equal(categories[1].CompletionRate))

	hours, err := f.stats.ByHour(ctx, u.ID, DefaultStatsPeriod)
	require.NoError(t, err)
	assert.Equal(t, []models.HourStat{{Hour: 8, Total: 1, Completed: 1}}, hours)

	export, err := f.stats.Export(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", export.User.Username)
	assert.Len(t, export.Stats, 2)
}

func TestAchievementNotificationsFromEngine(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	u := f.user(t, "ada")
	p := f.planning(t, u.ID, false)

	for i := 0; i < 10; i++ {
		task := f.task(t, u.ID, p.ID, models.NewDate(2024, time.March, 10))
		_, err := f.tasks.Toggle(ctx, task.ID, u.ID)
		require.NoError(t, err)
	}

	badges, err := f.social.Achievements(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "tasks_10", badges[0].BadgeType)
	assert.Equal(t, []string{models.NotificationAchievement}, f.notificationTypes(t, u.ID))
}

func TestLeaderboardCache(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.user(t, fmt.Sprintf("user%d", i))
	}

	cache := &memCache{values: map[string]interface{}{}}
	f.stats.SetLeaderboardCache(cache, time.Minute)

	first, err := f.stats.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Equal(t, 1, cache.sets)

	f.user(t, "late")
	second, err := f.stats.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, second, 3, "served from cache")

	require.NoError(t, f.stats.WarmLeaderboard(ctx))
	third, err := f.stats.Leaderboard(ctx, DefaultLeaderboardLimit)
	require.NoError(t, err)
	assert.Len(t, third, 4)

	capped, err := f.stats.Leaderboard(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, capped, 4)
	assert.Contains(t, cache.values, fmt.Sprintf("leaderboard:%d", MaxLeaderboardLimit))
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		in   string
		hour int
		ok   bool
	}{
		{"08:15", 8, true},
		{"23:59", 23, true},
		{"00:00", 0, true},
		{"24:00", 0, false},
		{"noon", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, ok := parseHour(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.hour, hour)
		})
	}
}
