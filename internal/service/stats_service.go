package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"planwise/internal/models"
	"planwise/internal/progress"
	"planwise/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	DefaultStatsPeriod      = 30
	MaxStatsPeriod          = 3650
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// LeaderboardCache stores the leaderboard projection. Implementations may be remote.
type LeaderboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsService serves read-only projections of the derived progress state
type StatsService struct {
	stats        *repository.StatsRepository
	tasks        *repository.TaskRepository
	plannings    *repository.PlanningRepository
	points       *repository.PointsRepository
	achievements *repository.AchievementRepository
	users        *repository.UserRepository
	cache        LeaderboardCache
	cacheTTL     time.Duration
	clock        progress.Clock
}

func NewStatsService(
	stats *repository.StatsRepository,
	tasks *repository.TaskRepository,
	plannings *repository.PlanningRepository,
	points *repository.PointsRepository,
	achievements *repository.AchievementRepository,
	users *repository.UserRepository,
	clock progress.Clock,
) *StatsService {
	if clock == nil {
		clock = progress.RealClock{}
	}
	return &StatsService{
		stats:        stats,
		tasks:        tasks,
		plannings:    plannings,
		points:       points,
		achievements: achievements,
		users:        users,
		clock:        clock,
	}
}

// SetLeaderboardCache enables caching of the leaderboard for ttl
func (s *StatsService) SetLeaderboardCache(cache LeaderboardCache, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

func (s *StatsService) ledger(ctx context.Context, userID int64) (models.PointsLedger, error) {
	l, err := s.points.Get(ctx, userID)
	if err != nil {
		return models.PointsLedger{}, err
	}
	if l == nil {
		return models.NewPointsLedger(userID), nil
	}
	return *l, nil
}

// Dashboard summarises the last period days. The summary rate is the average
// of the daily rates.
func (s *StatsService) Dashboard(ctx context.Context, userID int64, period int) (*models.Dashboard, error) {
	dash := &models.Dashboard{Stats: []models.DailyStat{}}
	dash.Summary.CompletionRate = decimal.Zero

	ids, err := s.plannings.IDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(ctx, userID)
	if err != nil {
		return nil, err
	}
	dash.Summary.CurrentStreak = ledger.CurrentStreak
	dash.Summary.LongestStreak = ledger.LongestStreak
	dash.Summary.TotalPoints = ledger.TotalPoints
	dash.Summary.Level = ledger.Level
	if len(ids) == 0 {
		return dash, nil
	}

	from := progress.Today(s.clock).AddDays(-period)
	if dash.Stats, err = s.stats.ListSince(ctx, userID, from); err != nil {
		return nil, err
	}

	rateSum := decimal.Zero
	for _, st := range dash.Stats {
		dash.Summary.TotalTasks += st.TotalTasks
		dash.Summary.CompletedTasks += st.CompletedTasks
		rateSum = rateSum.Add(st.CompletionRate)
	}
	if n := len(dash.Stats); n > 0 {
		dash.Summary.CompletionRate = rateSum.DivRound(decimal.NewFromInt(int64(n)), 2)
	}
	return dash, nil
}

// WeeklyReport covers the last seven days and the badges unlocked in them
func (s *StatsService) WeeklyReport(ctx context.Context, userID int64) (*models.WeeklyReport, error) {
	from := progress.Today(s.clock).AddDays(-7)

	daily, err := s.stats.ListSince(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	achievements, err := s.achievements.ListSince(ctx, userID, from.Time())
	if err != nil {
		return nil, err
	}

	report := &models.WeeklyReport{DailyStats: daily, Achievements: achievements}
	for _, st := range daily {
		report.WeeklyStats.TotalTasks += st.TotalTasks
		report.WeeklyStats.CompletedTasks += st.CompletedTasks
	}
	report.WeeklyStats.CompletionRate = progress.CompletionRate(report.WeeklyStats.CompletedTasks, report.WeeklyStats.TotalTasks)
	return report, nil
}

// Heatmap returns the daily rates of one calendar year
func (s *StatsService) Heatmap(ctx context.Context, userID int64, year int) ([]models.HeatmapDay, error) {
	if year == 0 {
		year = progress.Today(s.clock).Year()
	}
	stats, err := s.stats.ListRange(ctx, userID,
		models.NewDate(year, time.January, 1), models.NewDate(year, time.December, 31))
	if err != nil {
		return nil, err
	}

	days := make([]models.HeatmapDay, len(stats))
	for i, st := range stats {
		days[i] = models.HeatmapDay{Date: st.Date, CompletionRate: st.CompletionRate}
	}
	return days, nil
}

// ByCategory breaks down the tasks of the last period days by category, largest first
func (s *StatsService) ByCategory(ctx context.Context, userID int64, period int) ([]models.CategoryStat, error) {
	tasks, err := s.tasks.ListByUserSince(ctx, userID, progress.Today(s.clock).AddDays(-period))
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*models.CategoryStat)
	for _, t := range tasks {
		c, ok := byName[t.Category]
		if !ok {
			c = &models.CategoryStat{Category: t.Category}
			byName[t.Category] = c
		}
		c.Total++
		if t.Completed {
			c.Completed++
		}
	}

	categories := make([]models.CategoryStat, 0, len(byName))
	for _, c := range byName {
		c.CompletionRate = progress.CompletionRate(c.Completed, c.Total)
		categories = append(categories, *c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Total != categories[j].Total {
			return categories[i].Total > categories[j].Total
		}
		return categories[i].Category < categories[j].Category
	})
	return categories, nil
}

// ByHour breaks down the scheduled tasks of the last period days by hour of day
func (s *StatsService) ByHour(ctx context.Context, userID int64, period int) ([]models.HourStat, error) {
	tasks, err := s.tasks.ListByUserSince(ctx, userID, progress.Today(s.clock).AddDays(-period))
	if err != nil {
		return nil, err
	}

	byHour := make(map[int]*models.HourStat)
	for _, t := range tasks {
		if t.Time == nil {
			continue
		}
		hour, ok := parseHour(*t.Time)
		if !ok {
			continue
		}
		h, exists := byHour[hour]
		if !exists {
			h = &models.HourStat{Hour: hour}
			byHour[hour] = h
		}
		h.Total++
		if t.Completed {
			h.Completed++
		}
	}

	hours := make([]models.HourStat, 0, len(byHour))
	for _, h := range byHour {
		hours = append(hours, *h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Hour < hours[j].Hour })
	return hours, nil
}

func parseHour(hhmm string) (int, bool) {
	head, _, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// Leaderboard returns the top users by points then current streak. The result
// may be served from cache and be up to the cache TTL old.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	key := fmt.Sprintf("leaderboard:%d", limit)

	if s.cache != nil {
		var cached []models.LeaderboardEntry
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("Warning: leaderboard cache read failed: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	entries, err := s.points.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.cacheTTL); err != nil {
			log.Printf("Warning: leaderboard cache write failed: %v", err)
		}
	}
	return entries, nil
}

// WarmLeaderboard refreshes the cached default leaderboard
func (s *StatsService) WarmLeaderboard(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	entries, err := s.points.Leaderboard(ctx, DefaultLeaderboardLimit)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, fmt.Sprintf("leaderboard:%d", DefaultLeaderboardLimit), entries, s.cacheTTL)
}

// Export collects the derived progress state of a user
func (s *StatsService) Export(ctx context.Context, userID int64) (*models.UserExport, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	ledger, err := s.ledger(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	achievements, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserExport{
		User:         user.Public(),
		Ledger:       ledger,
		Stats:        stats,
		Achievements: achievements,
		ExportedAt:   s.clock.Now().UTC(),
	}, nil
}
