package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/oriolus/dwell/internal/models"
)

// Job is the interface that all background jobs implement
type Job interface {
	// Run executes the job for a given run record
	// runID: the job run ID
	// mode: INCREMENTAL or FULL_RECOMPUTE
	Run(ctx context.Context, runID int64, mode string) error

	// GetName returns the name of the job
	GetName() string
}

// BaseJob provides run bookkeeping shared by all jobs
type BaseJob struct {
	DB   *sql.DB
	Name string
}

// NewBaseJob creates a new base job
func NewBaseJob(db *sql.DB, name string) *BaseJob {
	return &BaseJob{DB: db, Name: name}
}

// GetName returns the job name
func (b *BaseJob) GetName() string {
	return b.Name
}

// CreateRun inserts a pending run record and returns its ID
func (b *BaseJob) CreateRun(uid, mode string) (int64, error) {
	query := `INSERT INTO job_runs (job_name, mode, uid, status, created_at) VALUES (?, ?, ?, ?, ?)`

	result, err := b.DB.Exec(query, b.Name, mode, uid, models.JobStatusPending, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to create job run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read job run id: %w", err)
	}
	return runID, nil
}

// MarkRunning marks a run as started
func (b *BaseJob) MarkRunning(runID int64) error {
	query := `UPDATE job_runs SET status = ?, started_at = ? WHERE id = ?`
	_, err := b.DB.Exec(query, models.JobStatusRunning, time.Now().Unix(), runID)
	return err
}

// MarkCompleted marks a run as finished with a result summary
func (b *BaseJob) MarkCompleted(runID int64, summary string) error {
	query := `UPDATE job_runs SET status = ?, progress_percent = 100, result_summary = ?, completed_at = ? WHERE id = ?`
	_, err := b.DB.Exec(query, models.JobStatusCompleted, summary, time.Now().Unix(), runID)
	return err
}

// MarkFailed marks a run as failed with an error message
func (b *BaseJob) MarkFailed(runID int64, errorMsg string) error {
	query := `UPDATE job_runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`
	_, err := b.DB.Exec(query, models.JobStatusFailed, errorMsg, time.Now().Unix(), runID)
	return err
}

// UpdateProgress updates item counters and the derived percentage
func (b *BaseJob) UpdateProgress(runID int64, processed, total, skipped int) error {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}

	query := `UPDATE job_runs SET processed_items = ?, total_items = ?, skipped_items = ?, progress_percent = ? WHERE id = ?`
	_, err := b.DB.Exec(query, processed, total, skipped, percent, runID)
	return err
}

// ActiveUsers lists the users with location data recorded since the cutoff
func (b *BaseJob) ActiveUsers(since int64) ([]string, error) {
	rows, err := b.DB.Query("SELECT DISTINCT uid FROM location_fixes WHERE recorded_at >= ? ORDER BY uid", since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("failed to scan uid: %w", err)
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

// Runner holds the registered jobs and launches runs
type Runner struct {
	db   *sql.DB
	jobs map[string]Job
}

// NewRunner creates an empty job runner
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db, jobs: make(map[string]Job)}
}

// Register adds a job to the runner. Registration happens at startup
// before any runs launch.
func (r *Runner) Register(job Job) {
	r.jobs[job.GetName()] = job
}

// Get retrieves a registered job by name, nil when unknown
func (r *Runner) Get(name string) Job {
	return r.jobs[name]
}

// Names lists the registered job names
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	return names
}

// Launch creates a run record and executes the job in the background.
// The run ID is returned immediately so callers can poll status.
func (r *Runner) Launch(ctx context.Context, name, uid, mode string) (int64, error) {
	job := r.jobs[name]
	if job == nil {
		return 0, fmt.Errorf("unknown job: %s", name)
	}
	if mode != models.JobModeIncremental && mode != models.JobModeFullRecompute {
		mode = models.JobModeFullRecompute
	}

	base := NewBaseJob(r.db, name)
	runID, err := base.CreateRun(uid, mode)
	if err != nil {
		return 0, err
	}

	go func() {
		if err := job.Run(ctx, runID, mode); err != nil {
			log.Printf("[Jobs] %s run %d failed: %v", name, runID, err)
		}
	}()

	return runID, nil
}

// GetRun retrieves one run record
func (r *Runner) GetRun(runID int64) (*models.JobRun, error) {
	query := `SELECT id, job_name, mode, uid, status, progress_percent, total_items, processed_items,
		skipped_items, result_summary, error_message, created_at, started_at, completed_at
		FROM job_runs WHERE id = ?`

	var run models.JobRun
	var startedAt, completedAt sql.NullInt64
	err := r.db.QueryRow(query, runID).Scan(
		&run.ID, &run.JobName, &run.Mode, &run.UID, &run.Status, &run.ProgressPercent,
		&run.TotalItems, &run.ProcessedItems, &run.SkippedItems,
		&run.ResultSummary, &run.ErrorMessage, &run.CreatedAt, &startedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job run: %w", err)
	}
	if startedAt.Valid {
		run.StartedAt = startedAt.Int64
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Int64
	}
	return &run, nil
}

// ListRuns retrieves recent runs, optionally filtered by job name
func (r *Runner) ListRuns(jobName string, limit int) ([]models.JobRun, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	query := `SELECT id, job_name, mode, uid, status, progress_percent, total_items, processed_items,
		skipped_items, result_summary, error_message, created_at, started_at, completed_at
		FROM job_runs`
	args := []interface{}{}
	if jobName != "" {
		query += " WHERE job_name = ?"
		args = append(args, jobName)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job runs: %w", err)
	}
	defer rows.Close()

	var runs []models.JobRun
	for rows.Next() {
		var run models.JobRun
		var startedAt, completedAt sql.NullInt64
		if err := rows.Scan(
			&run.ID, &run.JobName, &run.Mode, &run.UID, &run.Status, &run.ProgressPercent,
			&run.TotalItems, &run.ProcessedItems, &run.SkippedItems,
			&run.ResultSummary, &run.ErrorMessage, &run.CreatedAt, &startedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		if startedAt.Valid {
			run.StartedAt = startedAt.Int64
		}
		if completedAt.Valid {
			run.CompletedAt = completedAt.Int64
		}
		runs = append(runs, run)
	}

	return runs, nil
}
