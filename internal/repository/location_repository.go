package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/models"
)

// LocationRepository handles database operations for raw location fixes
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

const locationColumns = `id, uid, latitude, longitude, accuracy, speed, motion, battery_level, device_id, recorded_at, created_at`

const insertLocationQuery = `INSERT INTO location_fixes
	(uid, latitude, longitude, accuracy, speed, motion, battery_level, device_id, recorded_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func scanLocation(row interface{ Scan(...interface{}) error }) (*models.LocationFix, error) {
	var f models.LocationFix
	err := row.Scan(&f.ID, &f.UID, &f.Latitude, &f.Longitude, &f.Accuracy, &f.Speed,
		&f.Motion, &f.BatteryLevel, &f.DeviceID, &f.RecordedAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Insert stores a single location fix
func (r *LocationRepository) Insert(f *models.LocationFix) error {
	f.CreatedAt = time.Now().Unix()

	result, err := r.db.Exec(insertLocationQuery,
		f.UID, f.Latitude, f.Longitude, f.Accuracy, f.Speed,
		f.Motion, f.BatteryLevel, f.DeviceID, f.RecordedAt, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert location fix: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read location fix id: %w", err)
	}
	f.ID = id
	return nil
}

// InsertBatch stores multiple fixes in one transaction
func (r *LocationRepository) InsertBatch(fixes []models.LocationFix) error {
	if len(fixes) == 0 {
		return nil
	}
	now := time.Now().Unix()

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertLocationQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range fixes {
			f := &fixes[i]
			f.CreatedAt = now
			if _, err := stmt.Exec(f.UID, f.Latitude, f.Longitude, f.Accuracy, f.Speed,
				f.Motion, f.BatteryLevel, f.DeviceID, f.RecordedAt, f.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert location fix: %w", err)
			}
		}
		return nil
	})
}

// GetRecent retrieves the newest fixes at or after the cutoff, newest first
func (r *LocationRepository) GetRecent(uid string, since int64, limit int) ([]models.LocationFix, error) {
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT ` + locationColumns + ` FROM location_fixes
		WHERE uid = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC LIMIT ?`

	rows, err := r.db.Query(query, uid, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent fixes: %w", err)
	}
	defer rows.Close()

	var fixes []models.LocationFix
	for rows.Next() {
		f, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location fix: %w", err)
		}
		fixes = append(fixes, *f)
	}

	return fixes, nil
}

// GetLocations retrieves fixes with filtering and pagination, newest first
func (r *LocationRepository) GetLocations(uid string, filter models.LocationFilter) ([]models.LocationFix, int64, error) {
	conditions := []string{"uid = ?"}
	args := []interface{}{uid}

	if filter.StartTime > 0 {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.Motion != "" {
		conditions = append(conditions, "motion = ?")
		args = append(args, filter.Motion)
	}
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM location_fixes"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count fixes: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := `SELECT ` + locationColumns + ` FROM location_fixes` + where +
		` ORDER BY recorded_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query fixes: %w", err)
	}
	defer rows.Close()

	var fixes []models.LocationFix
	for rows.Next() {
		f, err := scanLocation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan location fix: %w", err)
		}
		fixes = append(fixes, *f)
	}

	return fixes, total, nil
}

// GetWindow retrieves fixes inside [since, until), oldest first.
// Discovery scans these in arrival order.
func (r *LocationRepository) GetWindow(uid string, since, until int64) ([]models.LocationFix, error) {
	query := `SELECT ` + locationColumns + ` FROM location_fixes
		WHERE uid = ? AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at ASC`

	rows, err := r.db.Query(query, uid, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query fix window: %w", err)
	}
	defer rows.Close()

	var fixes []models.LocationFix
	for rows.Next() {
		f, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location fix: %w", err)
		}
		fixes = append(fixes, *f)
	}

	return fixes, nil
}

// GetLastRecordedAt returns the newest recorded_at for a user, 0 when no fixes exist
func (r *LocationRepository) GetLastRecordedAt(uid string) (int64, error) {
	var last sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(recorded_at) FROM location_fixes WHERE uid = ?", uid).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to get last recorded time: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

// GetMotionSummary aggregates fix counts by motion state at or after the cutoff
func (r *LocationRepository) GetMotionSummary(uid string, since int64) (*models.MotionSummary, error) {
	summary := &models.MotionSummary{ByMotion: make(map[string]int)}

	query := `SELECT motion, COUNT(*), MIN(recorded_at), MAX(recorded_at) FROM location_fixes
		WHERE uid = ? AND recorded_at >= ?
		GROUP BY motion`

	rows, err := r.db.Query(query, uid, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query motion summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var motion string
		var count int
		var first, last int64
		if err := rows.Scan(&motion, &count, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan motion row: %w", err)
		}
		if motion == "" {
			motion = "unknown"
		}
		summary.ByMotion[motion] = count
		summary.TotalFixes += count
		if summary.FirstSeen == 0 || first < summary.FirstSeen {
			summary.FirstSeen = first
		}
		if last > summary.LastSeen {
			summary.LastSeen = last
		}
	}

	return summary, nil
}

// DeleteOlderThan removes a user's fixes recorded before the cutoff
func (r *LocationRepository) DeleteOlderThan(uid string, cutoff int64) (int64, error) {
	result, err := r.db.Exec("DELETE FROM location_fixes WHERE uid = ? AND recorded_at < ?", uid, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old fixes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return deleted, nil
}

// DeleteAllOlderThan removes every user's fixes recorded before the cutoff
func (r *LocationRepository) DeleteAllOlderThan(cutoff int64) (int64, error) {
	result, err := r.db.Exec("DELETE FROM location_fixes WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old fixes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return deleted, nil
}
