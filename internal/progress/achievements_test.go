package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	badges := DefaultCatalog()
	require.Len(t, badges, 6)

	byType := make(map[string]Badge)
	for _, b := range badges {
		byType[b.Type] = b
	}

	assert.Equal(t, Badge{"streak_7", "Week Warrior", "7 day streak!", MetricCurrentStreak, 7}, byType["streak_7"])
	assert.Equal(t, 30, byType["streak_30"].Threshold)
	assert.Equal(t, "Century Champion", byType["streak_100"].Name)
	assert.Equal(t, Badge{"tasks_10", "Getting Started", "Completed 10 tasks", MetricCompletedTasks, 10}, byType["tasks_10"])
	assert.Equal(t, "Centurion", byType["tasks_100"].Name)
	assert.Equal(t, 1000, byType["tasks_1000"].Threshold)
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "badges: [\n"},
		{"missing name", "badges:\n  - type: a\n    metric: current_streak\n    threshold: 1\n"},
		{"unknown metric", "badges:\n  - type: a\n    name: A\n    metric: points\n    threshold: 1\n"},
		{"zero threshold", "badges:\n  - type: a\n    name: A\n    metric: completed_tasks\n    threshold: 0\n"},
		{
			"duplicate",
			"badges:\n  - {type: a, name: A, metric: completed_tasks, threshold: 1}\n  - {type: a, name: B, metric: completed_tasks, threshold: 2}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
