package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/oriolus/dwell/internal/models"
)

// JobPlaceDiscovery refreshes cached place suggestions for active users
const JobPlaceDiscovery = "place_discovery"

// DiscoveryRefresher recomputes place suggestions for one user
type DiscoveryRefresher interface {
	RefreshSuggestions(uid string) (int, error)
}

// DiscoveryJob walks active users and refreshes their suggestion cache
type DiscoveryJob struct {
	*BaseJob
	refresher  DiscoveryRefresher
	windowDays int
}

// NewDiscoveryJob creates the discovery refresh job
func NewDiscoveryJob(db *sql.DB, refresher DiscoveryRefresher, windowDays int) *DiscoveryJob {
	return &DiscoveryJob{
		BaseJob:    NewBaseJob(db, JobPlaceDiscovery),
		refresher:  refresher,
		windowDays: windowDays,
	}
}

// Run refreshes the suggestion cache. INCREMENTAL only revisits users
// who sent fixes in the last day, FULL_RECOMPUTE covers the whole window.
func (j *DiscoveryJob) Run(ctx context.Context, runID int64, mode string) error {
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
	suggestions := 0
	for _, uid := range users {
		if ctx.Err() != nil {
			j.MarkFailed(runID, "canceled")
			return ctx.Err()
		}

		n, err := j.refresher.RefreshSuggestions(uid)
		if err != nil {
			log.Printf("[Jobs] discovery refresh failed for uid=%s: %v", uid, err)
			skipped++
		} else {
			suggestions += n
		}
		processed++
		j.UpdateProgress(runID, processed, len(users), skipped)
	}

	summary := fmt.Sprintf("refreshed %d users, %d suggestions", processed-skipped, suggestions)
	return j.MarkCompleted(runID, summary)
}
