package sim

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"duskfall/server/internal/telemetry"
)

// Job is one recurring maintenance or combat step. Run errors are logged and
// the schedule continues; a panic is contained the same way.
type Job struct {
	Name   string
	Period time.Duration
	Run    func(now time.Time) error
}

// Scheduler drives each job on its own fixed period. The combat-critical
// tick runs sub-second; visibility around half a second; the guardian every
// few seconds; ledger cleanup around a minute.
type Scheduler struct {
	jobs   []Job
	logger telemetry.Logger
}

func NewScheduler(logger telemetry.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger}
}

// Run blocks until ctx is canceled. One failing job never cancels another;
// only context cancellation stops the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	group, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		if job.Run == nil || job.Period <= 0 {
			continue
		}
		job := job
		group.Go(func() error {
			ticker := time.NewTicker(job.Period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case now := <-ticker.C:
					s.step(job, now)
				}
			}
		})
	}
	err := group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (s *Scheduler) step(job Job, now time.Time) {
	defer func() {
		if recovered := recover(); recovered != nil && s.logger != nil {
			s.logger.Printf("sim: job %s panicked: %v", job.Name, recovered)
		}
	}()
	if err := job.Run(now); err != nil && s.logger != nil {
		s.logger.Printf("sim: job %s failed: %v", job.Name, err)
	}
}

// Validate reports misconfigured jobs before the scheduler starts.
func (s *Scheduler) Validate() error {
	if s == nil {
		return nil
	}
	for _, job := range s.jobs {
		if job.Name == "" {
			return fmt.Errorf("sim: job with empty name")
		}
		if job.Period <= 0 {
			return fmt.Errorf("sim: job %s has non-positive period", job.Name)
		}
		if job.Run == nil {
			return fmt.Errorf("sim: job %s has nil run func", job.Name)
		}
	}
	return nil
}
