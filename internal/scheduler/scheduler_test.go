package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(context.Background())

	err := s.Add("every now and then", Job{Name: "prune", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)

	err = s.Add("@every 1h", Job{Name: "empty"})
	assert.Error(t, err)

	require.NoError(t, s.Add("@every 1h", Job{Name: "prune", Run: func(context.Context) error { return nil }}))
	assert.Equal(t, 1, s.Len())
}

func TestRunAppliesTimeout(t *testing.T) {
	s := New(context.Background())

	var deadline bool
	s.run(Job{
		Name:    "slow",
		Timeout: time.Second,
		Run: func(ctx context.Context) error {
			_, deadline = ctx.Deadline()
			return errors.New("logged, not returned")
		},
	})
	assert.True(t, deadline)
}

func TestScheduledJobRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping timing test in short mode")
	}
	s := New(context.Background())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add("@every 1s", Job{Name: "tick", Run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}))

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
