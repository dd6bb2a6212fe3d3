package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oriolus/dwell/internal/models"
)

// TagRepository handles database operations for tags
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts a new tag
func (r *TagRepository) Create(t *models.Tag) error {
	t.CreatedAt = time.Now().Unix()

	query := `INSERT INTO tags (id, uid, name, color, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, t.ID, t.UID, t.Name, t.Color, t.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// GetByID retrieves a single tag, scoped to the user
func (r *TagRepository) GetByID(uid, id string) (*models.Tag, error) {
	var t models.Tag
	query := `SELECT id, uid, name, color, created_at FROM tags WHERE uid = ? AND id = ?`
	err := r.db.QueryRow(query, uid, id).Scan(&t.ID, &t.UID, &t.Name, &t.Color, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &t, nil
}

// GetByName retrieves a tag by name, scoped to the user
func (r *TagRepository) GetByName(uid, name string) (*models.Tag, error) {
	var t models.Tag
	query := `SELECT id, uid, name, color, created_at FROM tags WHERE uid = ? AND name = ?`
	err := r.db.QueryRow(query, uid, name).Scan(&t.ID, &t.UID, &t.Name, &t.Color, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}
	return &t, nil
}

// GetByUser retrieves all tags of a user, alphabetical
func (r *TagRepository) GetByUser(uid string) ([]models.Tag, error) {
	query := `SELECT id, uid, name, color, created_at FROM tags WHERE uid = ? ORDER BY name ASC`

	rows, err := r.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}

	return tags, nil
}

// Delete removes a tag and its place assignments
func (r *TagRepository) Delete(uid, id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM tags WHERE uid = ? AND id = ?", uid, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}

// AssignToPlace attaches a tag to a place, idempotently
func (r *TagRepository) AssignToPlace(placeID, tagID string) error {
	query := `INSERT OR IGNORE INTO place_tags (place_id, tag_id, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, placeID, tagID, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to assign tag: %w", err)
	}
	return nil
}

// RemoveFromPlace detaches a tag from a place
func (r *TagRepository) RemoveFromPlace(placeID, tagID string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM place_tags WHERE place_id = ? AND tag_id = ?", placeID, tagID)
	if err != nil {
		return false, fmt.Errorf("failed to remove tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check remove result: %w", err)
	}
	return affected > 0, nil
}

// GetForPlace retrieves the tags attached to a place
func (r *TagRepository) GetForPlace(placeID string) ([]models.Tag, error) {
	query := `SELECT t.id, t.uid, t.name, t.color, t.created_at FROM tags t
		JOIN place_tags pt ON pt.tag_id = t.id
		WHERE pt.place_id = ?
		ORDER BY t.name ASC`

	rows, err := r.db.Query(query, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query place tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}

	return tags, nil
}

// GetPlacesByTag retrieves the places a tag is attached to
func (r *TagRepository) GetPlacesByTag(uid, tagID string) ([]models.Place, error) {
	query := `SELECT p.id, p.uid, p.name, p.latitude, p.longitude, p.radius_meters, p.category, p.address,
		p.is_auto_detected, p.is_confirmed, p.visit_count, p.total_dwell_minutes,
		p.first_visited, p.last_visited, p.created_at, p.updated_at
		FROM places p
		JOIN place_tags pt ON pt.place_id = p.id
		WHERE p.uid = ? AND pt.tag_id = ?
		ORDER BY p.name ASC`

	rows, err := r.db.Query(query, uid, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to query places by tag: %w", err)
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
