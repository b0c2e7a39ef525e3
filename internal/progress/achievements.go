package progress

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"planwise/internal/models"

	"gopkg.in/yaml.v3"
)

// Metric names a value a badge threshold is compared against
type Metric string

const (
	MetricCurrentStreak  Metric = "current_streak"
	MetricCompletedTasks Metric = "completed_tasks"
)

// Badge is one rule of the achievement catalog
type Badge struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Metric      Metric `yaml:"metric"`
	Threshold   int    `yaml:"threshold"`
}

//go:embed catalog.yaml
var defaultCatalog []byte

// LoadCatalog parses and validates a YAML badge catalog
func LoadCatalog(data []byte) ([]Badge, error) {
	var doc struct {
		Badges []Badge `yaml:"badges"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse badge catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Badges))
	for _, b := range doc.Badges {
		switch {
		case b.Type == "" || b.Name == "":
			return nil, fmt.Errorf("badge catalog: entry missing type or name")
		case seen[b.Type]:
			return nil, fmt.Errorf("badge catalog: duplicate badge %q", b.Type)
		case b.Metric != MetricCurrentStreak && b.Metric != MetricCompletedTasks:
			return nil, fmt.Errorf("badge catalog: %q has unknown metric %q", b.Type, b.Metric)
		case b.Threshold <= 0:
			return nil, fmt.Errorf("badge catalog: %q needs a positive threshold", b.Type)
		}
		seen[b.Type] = true
	}
	return doc.Badges, nil
}

// DefaultCatalog returns the built-in badges
func DefaultCatalog() []Badge {
	badges, err := LoadCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return badges
}

// AchievementStore records badges. Unlock must be a no-op returning false
// when the (user, badge_type) row already exists.
type AchievementStore interface {
	Unlock(ctx context.Context, a models.Achievement) (bool, error)
}

// UnlockHook is told about badges right after they are first recorded.
// Its errors are logged and never undo the unlock.
type UnlockHook interface {
	AchievementsUnlocked(ctx context.Context, userID int64, unlocked []models.Achievement) error
}

// Evaluator unlocks threshold badges
type Evaluator struct {
	ledger  LedgerStore
	tasks   TaskCounter
	store   AchievementStore
	catalog []Badge
	clock   Clock
	hook    UnlockHook
}

func NewEvaluator(ledger LedgerStore, tasks TaskCounter, store AchievementStore, catalog []Badge, clock Clock) *Evaluator {
	if clock == nil {
		clock = RealClock{}
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Evaluator{ledger: ledger, tasks: tasks, store: store, catalog: catalog, clock: clock}
}

// SetHook installs the unlock hook; nil disables it
func (e *Evaluator) SetHook(hook UnlockHook) {
	e.hook = hook
}

// Evaluate checks every badge against the user's current streak and completed
// task count and returns only the badges unlocked by this call.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) ([]models.Achievement, error) {
	ledger, err := e.ledger.Get(ctx, userID)
	if err != nil {
		return nil, &AggregationError{UserID: userID, Op: "load ledger", Err: err}
	}
	streak := 0
	if ledger != nil {
		streak = ledger.CurrentStreak
	}

	completed, err := e.tasks.CountCompleted(ctx, userID)
	if err != nil {
		return nil, &AggregationError{UserID: userID, Op: "count completed tasks", Err: err}
	}

	values := map[Metric]int{
		MetricCurrentStreak:  streak,
		MetricCompletedTasks: completed,
	}

	var unlocked []models.Achievement
	for _, b := range e.catalog {
		if values[b.Metric] < b.Threshold {
			continue
		}

		a := models.Achievement{
			UserID:           userID,
			BadgeType:        b.Type,
			BadgeName:        b.Name,
			BadgeDescription: b.Description,
			UnlockedAt:       e.clock.Now(),
		}
		isNew, err := e.store.Unlock(ctx, a)
		if err != nil {
			return unlocked, &AggregationError{UserID: userID, Op: "unlock " + b.Type, Err: err}
		}
		if isNew {
			AchievementsUnlocked.WithLabelValues(b.Type).Inc()
			unlocked = append(unlocked, a)
		}
	}

	if len(unlocked) > 0 && e.hook != nil {
		if err := e.hook.AchievementsUnlocked(ctx, userID, unlocked); err != nil {
			log.Printf("Warning: unlock hook failed for user %d: %v", userID, err)
		}
	}

	return unlocked, nil
}
