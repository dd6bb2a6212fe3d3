package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/oriolus/dwell/internal/models"
)

// JobRoutineDetection refreshes cached routines for active users
const JobRoutineDetection = "routine_detection"

// RoutineRefresher recomputes routines for one user
type RoutineRefresher interface {
	RefreshRoutines(uid string) (int, error)
}

// RoutineJob walks active users and refreshes their routine cache
type RoutineJob struct {
	*BaseJob
	refresher  RoutineRefresher
	windowDays int
}

// NewRoutineJob creates the routine refresh job
func NewRoutineJob(db *sql.DB, refresher RoutineRefresher, windowDays int) *RoutineJob {
	return &RoutineJob{
		BaseJob:    NewBaseJob(db, JobRoutineDetection),
		refresher:  refresher,
		windowDays: windowDays,
	}
}

// Run refreshes the routine cache. INCREMENTAL only revisits users who
// sent fixes in the last day, FULL_RECOMPUTE covers the whole window.
func (j *RoutineJob) Run(ctx context.Context, runID int64, mode string) error {
	if err := j.MarkRunning(runID); err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -j.windowDays).Unix()
	if mode == models.JobModeIncremental {
		cutoff = time.Now().Add(-24 * time.Hour).Unix()
	}

	users, err := j.ActiveUsers(cutoff)
	if err != nil {
		j.MarkFailed(runID, err.Error())
		return err
	}

	processed := 0
	skipped := 0
	routines := 0
	for _, uid := range users {
		if ctx.Err() != nil {
			j.MarkFailed(runID, "canceled")
			return ctx.Err()
		}

		n, err := j.refresher.RefreshRoutines(uid)
		if err != nil {
			log.Printf("[Jobs] routine refresh failed for uid=%s: %v", uid, err)
			skipped++
		} else {
			routines += n
		}
		processed++
		j.UpdateProgress(runID, processed, len(users), skipped)
	}

	summary := fmt.Sprintf("refreshed %d users, %d routines", processed-skipped, routines)
	return j.MarkCompleted(runID, summary)
}
