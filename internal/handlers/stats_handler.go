package handlers

import (
	"context"
	"time"

	"planwise/internal/progress"
	"planwise/internal/service"

	"github.com/gin-gonic/gin"
)

// Rebuilder replays a user's derived progress from their tasks
type Rebuilder interface {
	Rebuild(ctx context.Context, userID int64) (progress.RebuildReport, error)
}

// StatsHandler serves the read-only progress projections
type StatsHandler struct {
	stats     *service.StatsService
	rebuilder Rebuilder
}

func NewStatsHandler(stats *service.StatsService, rebuilder Rebuilder) *StatsHandler {
	return &StatsHandler{stats: stats, rebuilder: rebuilder}
}

func period(c *gin.Context) int {
	return queryInt(c, "period", service.DefaultStatsPeriod, 1, service.MaxStatsPeriod)
}

func (h *StatsHandler) Dashboard(c *gin.Context) {
	dash, err := h.stats.Dashboard(c.Request.Context(), currentUserID(c), period(c))
	if err != nil {
		serviceError(c, err, "load dashboard")
		return
	}
	ok(c, dash)
}

func (h *StatsHandler) WeeklyReport(c *gin.Context) {
	report, err := h.stats.WeeklyReport(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err, "load weekly report")
		return
	}
	ok(c, report)
}

func (h *StatsHandler) Heatmap(c *gin.Context) {
	year := queryInt(c, "year", time.Now().UTC().Year(), 1970, 9999)
	days, err := h.stats.Heatmap(c.Request.Context(), currentUserID(c), year)
	if err != nil {
		serviceError(c, err, "load heatmap")
		return
	}
	ok(c, days)
}

func (h *StatsHandler) ByCategory(c *gin.Context) {
	categories, err := h.stats.ByCategory(c.Request.Context(), currentUserID(c), period(c))
	if err != nil {
		serviceError(c, err, "load category stats")
		return
	}
	ok(c, categories)
}

func (h *StatsHandler) ByHour(c *gin.Context) {
	hours, err := h.stats.ByHour(c.Request.Context(), currentUserID(c), period(c))
	if err != nil {
		serviceError(c, err, "load hourly stats")
		return
	}
	ok(c, hours)
}

// Leaderboard is public
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit := queryInt(c, "limit", service.DefaultLeaderboardLimit, 1, service.MaxLeaderboardLimit)
	entries, err := h.stats.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		serviceError(c, err, "load leaderboard")
		return
	}
	ok(c, entries)
}

// Export downloads the user's derived progress as JSON
func (h *StatsHandler) Export(c *gin.Context) {
	export, err := h.stats.Export(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err, "export stats")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="planwise-progress.json"`)
	ok(c, export)
}

// Rebuild recomputes every stored stat of the user from their tasks
func (h *StatsHandler) Rebuild(c *gin.Context) {
	report, err := h.rebuilder.Rebuild(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err, "rebuild stats")
		return
	}
	ok(c, report)
}
