package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oriolus/dwell/internal/repository"
)

// JobFixRetention prunes raw location fixes past the retention window
const JobFixRetention = "fix_retention"

// RetentionJob deletes location fixes older than the retention window.
// Places, visits and cached artifacts are kept, only raw fixes age out.
type RetentionJob struct {
	*BaseJob
	locations     *repository.LocationRepository
	retentionDays int
}

// NewRetentionJob creates the fix retention job
func NewRetentionJob(db *sql.DB, locations *repository.LocationRepository, retentionDays int) *RetentionJob {
	return &RetentionJob{
		BaseJob:       NewBaseJob(db, JobFixRetention),
		locations:     locations,
		retentionDays: retentionDays,
	}
}

// Run deletes fixes recorded before the retention cutoff
func (j *RetentionJob) Run(ctx context.Context, runID int64, mode string) error {
	if err := j.MarkRunning(runID); err != nil {
		return err
	}
	if ctx.Err() != nil {
		j.MarkFailed(runID, "canceled")
		return ctx.Err()
	}

	cutoff := time.Now().AddDate(0, 0, -j.retentionDays).Unix()
	deleted, err := j.locations.DeleteAllOlderThan(cutoff)
	if err != nil {
		j.MarkFailed(runID, err.Error())
		return err
	}

	summary := fmt.Sprintf("deleted %d fixes older than %d days", deleted, j.retentionDays)
	return j.MarkCompleted(runID, summary)
}
