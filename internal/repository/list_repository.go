package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/models"
)

// ListRepository handles database operations for place lists
type ListRepository struct {
	db *sql.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create inserts a new list
func (r *ListRepository) Create(l *models.PlaceList) error {
	now := time.Now().Unix()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `INSERT INTO place_lists (id, uid, name, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, l.ID, l.UID, l.Name, l.Description, l.Color, l.CreatedAt, l.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert list: %w", err)
	}
	return nil
}

// GetByID retrieves a list with its members in position order
func (r *ListRepository) GetByID(uid, id string) (*models.PlaceList, error) {
	var l models.PlaceList
	query := `SELECT id, uid, name, description, color, created_at, updated_at FROM place_lists WHERE uid = ? AND id = ?`
	err := r.db.QueryRow(query, uid, id).Scan(&l.ID, &l.UID, &l.Name, &l.Description, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	members, err := r.getMembers(id)
	if err != nil {
		return nil, err
	}
	l.Places = members
	return &l, nil
}

func (r *ListRepository) getMembers(listID string) ([]models.PlaceListMember, error) {
	query := `SELECT m.place_id, p.name, m.position FROM place_list_members m
		JOIN places p ON p.id = m.place_id
		WHERE m.list_id = ?
		ORDER BY m.position ASC, p.name ASC`

	rows, err := r.db.Query(query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list members: %w", err)
	}
	defer rows.Close()

	var members []models.PlaceListMember
	for rows.Next() {
		var m models.PlaceListMember
		if err := rows.Scan(&m.PlaceID, &m.PlaceName, &m.Position); err != nil {
			return nil, fmt.Errorf("failed to scan list member: %w", err)
		}
		members = append(members, m)
	}

	return members, nil
}

// GetByUser retrieves all lists of a user without members
func (r *ListRepository) GetByUser(uid string) ([]models.PlaceList, error) {
	query := `SELECT id, uid, name, description, color, created_at, updated_at FROM place_lists
		WHERE uid = ? ORDER BY name ASC`

	rows, err := r.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []models.PlaceList
	for rows.Next() {
		var l models.PlaceList
		if err := rows.Scan(&l.ID, &l.UID, &l.Name, &l.Description, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}

	return lists, nil
}

// Update rewrites the caller-editable fields of a list
func (r *ListRepository) Update(l *models.PlaceList) error {
	l.UpdatedAt = time.Now().Unix()

	query := `UPDATE place_lists SET name = ?, description = ?, color = ?, updated_at = ? WHERE uid = ? AND id = ?`
	result, err := r.db.Exec(query, l.Name, l.Description, l.Color, l.UpdatedAt, l.UID, l.ID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
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

// Delete removes a list and its memberships
func (r *ListRepository) Delete(uid, id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM place_lists WHERE uid = ? AND id = ?", uid, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete list: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}

// AddMember appends a place to a list, idempotently
func (r *ListRepository) AddMember(listID, placeID string) error {
	var next int
	err := r.db.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM place_list_members WHERE list_id = ?", listID).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to get next position: %w", err)
	}

	query := `INSERT OR IGNORE INTO place_list_members (list_id, place_id, position) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, listID, placeID, next); err != nil {
		return fmt.Errorf("failed to add list member: %w", err)
	}
	return nil
}

// RemoveMember removes a place from a list
func (r *ListRepository) RemoveMember(listID, placeID string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM place_list_members WHERE list_id = ? AND place_id = ?", listID, placeID)
	if err != nil {
		return false, fmt.Errorf("failed to remove list member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check remove result: %w", err)
	}
	return affected > 0, nil
}

// Reorder rewrites member positions to match the given place order.
// Places not named keep their row but move after the named ones.
func (r *ListRepository) Reorder(listID string, placeIDs []string) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE place_list_members SET position = position + ? WHERE list_id = ?", len(placeIDs), listID); err != nil {
			return fmt.Errorf("failed to shift positions: %w", err)
		}
		for i, placeID := range placeIDs {
			if _, err := tx.Exec("UPDATE place_list_members SET position = ? WHERE list_id = ? AND place_id = ?", i, listID, placeID); err != nil {
				return fmt.Errorf("failed to set position: %w", err)
			}
		}
		return nil
	})
}
