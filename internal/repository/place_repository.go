package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oriolus/dwell/internal/models"
)

// PlaceRepository handles database operations for places
type PlaceRepository struct {
	db *sql.DB
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

const placeColumns = `id, uid, name, latitude, longitude, radius_meters, category, address,
	is_auto_detected, is_confirmed, visit_count, total_dwell_minutes,
	first_visited, last_visited, created_at, updated_at`

func scanPlace(row interface{ Scan(...interface{}) error }) (*models.Place, error) {
	var p models.Place
	var firstVisited, lastVisited sql.NullInt64
	err := row.Scan(
		&p.ID, &p.UID, &p.Name, &p.Latitude, &p.Longitude, &p.RadiusMeters, &p.Category, &p.Address,
		&p.IsAutoDetected, &p.IsConfirmed, &p.VisitCount, &p.TotalDwellMinutes,
		&firstVisited, &lastVisited, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if firstVisited.Valid {
		p.FirstVisited = firstVisited.Int64
	}
	if lastVisited.Valid {
		p.LastVisited = lastVisited.Int64
	}
	return &p, nil
}

// nullableUnix maps the zero timestamp to NULL
func nullableUnix(ts int64) interface{} {
	if ts == 0 {
		return nil
	}
	return ts
}

// Create inserts a new place
func (r *PlaceRepository) Create(p *models.Place) error {
	now := time.Now().Unix()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO places (id, uid, name, latitude, longitude, radius_meters, category, address,
		is_auto_detected, is_confirmed, visit_count, total_dwell_minutes, first_visited, last_visited, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		p.ID, p.UID, p.Name, p.Latitude, p.Longitude, p.RadiusMeters, p.Category, p.Address,
		p.IsAutoDetected, p.IsConfirmed, p.VisitCount, p.TotalDwellMinutes,
		nullableUnix(p.FirstVisited), nullableUnix(p.LastVisited), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert place: %w", err)
	}
	return nil
}

// GetByID retrieves a single place by ID, scoped to the user
func (r *PlaceRepository) GetByID(uid, id string) (*models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE uid = ? AND id = ?`

	p, err := scanPlace(r.db.QueryRow(query, uid, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return p, nil
}

// GetByName retrieves a place by exact name, scoped to the user
func (r *PlaceRepository) GetByName(uid, name string) (*models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE uid = ? AND name = ? LIMIT 1`

	p, err := scanPlace(r.db.QueryRow(query, uid, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place by name: %w", err)
	}
	return p, nil
}

// GetPlaces retrieves places with filtering and pagination
func (r *PlaceRepository) GetPlaces(uid string, filter models.PlaceFilter) ([]models.Place, int64, error) {
	conditions := []string{"uid = ?"}
	args := []interface{}{uid}

	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.IsConfirmed != nil {
		conditions = append(conditions, "is_confirmed = ?")
		args = append(args, *filter.IsConfirmed)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM places"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count places: %w", err)
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

	query := `SELECT ` + placeColumns + ` FROM places` + where +
		` ORDER BY visit_count DESC, name ASC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, *p)
	}

	return places, total, nil
}

// GetAllForUser retrieves every place of a user, unpaginated.
// The tracker and discovery need the full set for geofence checks.
func (r *PlaceRepository) GetAllForUser(uid string, confirmedOnly bool) ([]models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE uid = ?`
	if confirmedOnly {
		query += ` AND is_confirmed = 1`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, *p)
	}

	return places, nil
}

// GetMostVisited retrieves the user's places ordered by visit count
func (r *PlaceRepository) GetMostVisited(uid string, limit int) ([]models.Place, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	query := `SELECT ` + placeColumns + ` FROM places
		WHERE uid = ? AND visit_count > 0
		ORDER BY visit_count DESC, total_dwell_minutes DESC LIMIT ?`

	rows, err := r.db.Query(query, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most visited places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, *p)
	}

	return places, nil
}

// Update rewrites the caller-editable fields of a place
func (r *PlaceRepository) Update(p *models.Place) error {
	p.UpdatedAt = time.Now().Unix()

	query := `UPDATE places SET name = ?, latitude = ?, longitude = ?, radius_meters = ?,
		category = ?, address = ?, is_confirmed = ?, updated_at = ?
		WHERE uid = ? AND id = ?`

	result, err := r.db.Exec(query,
		p.Name, p.Latitude, p.Longitude, p.RadiusMeters,
		p.Category, p.Address, p.IsConfirmed, p.UpdatedAt,
		p.UID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a place; visits, tags, triggers, list memberships and
// memory links go with it via foreign keys
func (r *PlaceRepository) Delete(uid, id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM places WHERE uid = ? AND id = ?", uid, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete place: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}

// LinkMemory associates an external memory with a place
func (r *PlaceRepository) LinkMemory(placeID, memoryID string) error {
	query := `INSERT OR IGNORE INTO place_memory_links (place_id, memory_id, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, placeID, memoryID, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to link memory: %w", err)
	}
	return nil
}

// UnlinkMemory removes a memory association
func (r *PlaceRepository) UnlinkMemory(placeID, memoryID string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM place_memory_links WHERE place_id = ? AND memory_id = ?", placeID, memoryID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink memory: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check unlink result: %w", err)
	}
	return affected > 0, nil
}

// CountMemories returns how many memories are linked to a place
func (r *PlaceRepository) CountMemories(placeID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM place_memory_links WHERE place_id = ?", placeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memory links: %w", err)
	}
	return count, nil
}
