package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/models"
)

// RoutineRepository handles the cached output of routine detection
type RoutineRepository struct {
	db *sql.DB
}

// NewRoutineRepository creates a new routine repository
func NewRoutineRepository(db *sql.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

const routineColumns = `id, uid, place_id, place_name, day_of_week, hour, occurrence_count, confidence, band, description, computed_at`

func scanRoutine(row interface{ Scan(...interface{}) error }) (*models.Routine, error) {
	var rt models.Routine
	err := row.Scan(&rt.ID, &rt.UID, &rt.PlaceID, &rt.PlaceName, &rt.DayOfWeek, &rt.Hour,
		&rt.OccurrenceCount, &rt.Confidence, &rt.Band, &rt.Description, &rt.ComputedAt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// ReplaceForUser swaps the user's cached routines for a fresh set
func (r *RoutineRepository) ReplaceForUser(uid string, daysBack int, routines []models.Routine) error {
	now := time.Now().Unix()

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM routines WHERE uid = ?", uid); err != nil {
			return fmt.Errorf("failed to clear routines: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO routines
			(id, uid, place_id, place_name, day_of_week, hour, occurrence_count, confidence, band, description, days_back, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range routines {
			rt := &routines[i]
			rt.ComputedAt = now
			if _, err := stmt.Exec(rt.ID, rt.UID, rt.PlaceID, rt.PlaceName, rt.DayOfWeek, rt.Hour,
				rt.OccurrenceCount, rt.Confidence, rt.Band, rt.Description, daysBack, rt.ComputedAt); err != nil {
				return fmt.Errorf("failed to insert routine: %w", err)
			}
		}
		return nil
	})
}

// GetCached retrieves cached routines when a fresh run with the same window
// exists. The bool reports whether the cache was usable.
func (r *RoutineRepository) GetCached(uid string, daysBack int, maxAgeSeconds int64) ([]models.Routine, bool, error) {
	oldest := time.Now().Unix() - maxAgeSeconds

	query := `SELECT ` + routineColumns + ` FROM routines
		WHERE uid = ? AND days_back = ? AND computed_at >= ?
		ORDER BY confidence DESC, occurrence_count DESC`

	rows, err := r.db.Query(query, uid, daysBack, oldest)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cached routines: %w", err)
	}
	defer rows.Close()

	var routines []models.Routine
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan routine: %w", err)
		}
		routines = append(routines, *rt)
	}

	return routines, len(routines) > 0, nil
}

// GetBestForSlot retrieves the highest-confidence routine at a weekday and hour
func (r *RoutineRepository) GetBestForSlot(uid string, dayOfWeek, hour int) (*models.Routine, error) {
	query := `SELECT ` + routineColumns + ` FROM routines
		WHERE uid = ? AND day_of_week = ? AND hour = ?
		ORDER BY confidence DESC, occurrence_count DESC LIMIT 1`

	rt, err := scanRoutine(r.db.QueryRow(query, uid, dayOfWeek, hour))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routine for slot: %w", err)
	}
	return rt, nil
}

// GetForPlace retrieves cached routines anchored at one place
func (r *RoutineRepository) GetForPlace(uid, placeID string) ([]models.Routine, error) {
	query := `SELECT ` + routineColumns + ` FROM routines
		WHERE uid = ? AND place_id = ?
		ORDER BY day_of_week ASC, hour ASC`

	rows, err := r.db.Query(query, uid, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines for place: %w", err)
	}
	defer rows.Close()

	var routines []models.Routine
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		routines = append(routines, *rt)
	}

	return routines, nil
}
