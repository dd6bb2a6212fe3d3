package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/oriolus/dwell/internal/models"
)

// VisitRepository handles database operations for place visits
type VisitRepository struct {
	db *sql.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *sql.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

const visitColumns = `id, uid, place_id, entered_at, exited_at, dwell_minutes, day_of_week, is_routine, created_at`

func scanVisit(row interface{ Scan(...interface{}) error }) (*models.PlaceVisit, error) {
	var v models.PlaceVisit
	var exitedAt sql.NullInt64
	var dwell sql.NullFloat64
	err := row.Scan(&v.ID, &v.UID, &v.PlaceID, &v.EnteredAt, &exitedAt, &dwell, &v.DayOfWeek, &v.IsRoutine, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if exitedAt.Valid {
		v.ExitedAt = exitedAt.Int64
	}
	if dwell.Valid {
		v.DwellMinutes = dwell.Float64
	}
	return &v, nil
}

// GetByID retrieves a single visit, scoped to the user
func (r *VisitRepository) GetByID(uid, id string) (*models.PlaceVisit, error) {
	query := `SELECT ` + visitColumns + ` FROM place_visits WHERE uid = ? AND id = ?`

	v, err := scanVisit(r.db.QueryRow(query, uid, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return v, nil
}

// GetOpenVisit retrieves the user's current open visit, if any.
// When several are open the most recent entry wins; the tracker heals the rest.
func (r *VisitRepository) GetOpenVisit(uid string) (*models.PlaceVisit, error) {
	query := `SELECT ` + visitColumns + ` FROM place_visits
		WHERE uid = ? AND exited_at IS NULL
		ORDER BY entered_at DESC LIMIT 1`

	v, err := scanVisit(r.db.QueryRow(query, uid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open visit: %w", err)
	}
	return v, nil
}

// GetOpenVisits retrieves every open visit of a user, newest entry first
func (r *VisitRepository) GetOpenVisits(uid string) ([]models.PlaceVisit, error) {
	query := `SELECT ` + visitColumns + ` FROM place_visits
		WHERE uid = ? AND exited_at IS NULL
		ORDER BY entered_at DESC`

	rows, err := r.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query open visits: %w", err)
	}
	defer rows.Close()

	var visits []models.PlaceVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *v)
	}

	return visits, nil
}

// GetVisits retrieves visits with filtering and pagination, newest first
func (r *VisitRepository) GetVisits(uid string, filter models.VisitFilter) ([]models.PlaceVisit, int64, error) {
	conditions := []string{"uid = ?"}
	args := []interface{}{uid}

	if filter.PlaceID != "" {
		conditions = append(conditions, "place_id = ?")
		args = append(args, filter.PlaceID)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "entered_at >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "entered_at <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, "day_of_week = ?")
		args = append(args, *filter.DayOfWeek)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM place_visits"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count visits: %w", err)
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

	query := `SELECT ` + visitColumns + ` FROM place_visits` + where +
		` ORDER BY entered_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []models.PlaceVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *v)
	}

	return visits, total, nil
}

// GetCompletedForPlace retrieves all completed visits to one place, oldest first
func (r *VisitRepository) GetCompletedForPlace(uid, placeID string) ([]models.PlaceVisit, error) {
	query := `SELECT ` + visitColumns + ` FROM place_visits
		WHERE uid = ? AND place_id = ? AND exited_at IS NOT NULL
		ORDER BY entered_at ASC`

	rows, err := r.db.Query(query, uid, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits for place: %w", err)
	}
	defer rows.Close()

	var visits []models.PlaceVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *v)
	}

	return visits, nil
}

// GetCompletedSince retrieves completed visits entered at or after the cutoff, oldest first
func (r *VisitRepository) GetCompletedSince(uid string, since int64) ([]models.PlaceVisit, error) {
	query := `SELECT ` + visitColumns + ` FROM place_visits
		WHERE uid = ? AND exited_at IS NOT NULL AND entered_at >= ?
		ORDER BY entered_at ASC`

	rows, err := r.db.Query(query, uid, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits since cutoff: %w", err)
	}
	defer rows.Close()

	var visits []models.PlaceVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *v)
	}

	return visits, nil
}

// CountSimilarVisits counts completed visits to a place on the same weekday
// with an entry hour inside [hourLo, hourHi], entered at or after the cutoff.
// Hour bounds may wrap past midnight, e.g. 23..1.
func (r *VisitRepository) CountSimilarVisits(uid, placeID string, dayOfWeek, hourLo, hourHi int, since int64) (int, error) {
	hourCond := "CAST(strftime('%H', entered_at, 'unixepoch', 'localtime') AS INTEGER) BETWEEN ? AND ?"
	if hourLo > hourHi {
		hourCond = "(CAST(strftime('%H', entered_at, 'unixepoch', 'localtime') AS INTEGER) >= ? OR CAST(strftime('%H', entered_at, 'unixepoch', 'localtime') AS INTEGER) <= ?)"
	}

	query := `SELECT COUNT(*) FROM place_visits
		WHERE uid = ? AND place_id = ? AND exited_at IS NOT NULL
		AND day_of_week = ? AND entered_at >= ? AND ` + hourCond

	var count int
	err := r.db.QueryRow(query, uid, placeID, dayOfWeek, since, hourLo, hourHi).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count similar visits: %w", err)
	}
	return count, nil
}
