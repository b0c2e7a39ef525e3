package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named maintenance task. Errors are logged; the schedule keeps running.
type Job struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs maintenance jobs on a cron schedule
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New returns a scheduler whose jobs run with contexts derived from ctx
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		ctx:  ctx,
	}
}

// Add registers job under a standard cron spec such as "@every 1h" or "0 3 * * *"
func (s *Scheduler) Add(spec string, job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", spec, job.Name, err)
	}
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx := s.ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Printf("Warning: scheduled job %s failed: %v", job.Name, err)
		return
	}
	log.Printf("Scheduled job %s finished in %v", job.Name, time.Since(start).Round(time.Millisecond))
}

// Len reports the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
