package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oriolus/dwell/internal/jobs"
	"github.com/oriolus/dwell/internal/models"
)

// SchedulerService drives the periodic background jobs
type SchedulerService struct {
	cron   *cron.Cron
	runner *jobs.Runner

	discoveryEvery time.Duration
	routineEvery   time.Duration
	retentionEvery time.Duration
}

// NewSchedulerService creates a new scheduler. Intervals of zero
// disable the corresponding job.
func NewSchedulerService(runner *jobs.Runner, discoveryEvery, routineEvery, retentionEvery time.Duration) *SchedulerService {
	return &SchedulerService{
		cron:           cron.New(cron.WithLocation(time.Local)),
		runner:         runner,
		discoveryEvery: discoveryEvery,
		routineEvery:   routineEvery,
		retentionEvery: retentionEvery,
	}
}

// Start registers the job schedules and launches the cron loop
func (s *SchedulerService) Start(ctx context.Context) error {
	entries := []struct {
		name  string
		every time.Duration
		mode  string
	}{
		{jobs.JobPlaceDiscovery, s.discoveryEvery, models.JobModeIncremental},
		{jobs.JobRoutineDetection, s.routineEvery, models.JobModeIncremental},
		{jobs.JobFixRetention, s.retentionEvery, models.JobModeFullRecompute},
	}

	for _, e := range entries {
		if e.every <= 0 {
			continue
		}
		name, mode := e.name, e.mode
		spec := fmt.Sprintf("@every %s", e.every)
		if _, err := s.cron.AddFunc(spec, func() {
			if _, err := s.runner.Launch(ctx, name, "", mode); err != nil {
				log.Printf("[Scheduler] failed to launch %s: %v", name, err)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		log.Printf("[Scheduler] %s scheduled %s", name, spec)
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for in-flight schedule callbacks
func (s *SchedulerService) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
