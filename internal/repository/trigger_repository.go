package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oriolus/dwell/internal/models"
)

// TriggerRepository handles database operations for place triggers
type TriggerRepository struct {
	db *sql.DB
}

// NewTriggerRepository creates a new trigger repository
func NewTriggerRepository(db *sql.DB) *TriggerRepository {
	return &TriggerRepository{db: db}
}

const triggerColumns = `id, place_id, trigger_type, action_type, payload, enabled, cooldown_minutes, last_fired_at, created_at`

func scanTrigger(row interface{ Scan(...interface{}) error }) (*models.PlaceTrigger, error) {
	var t models.PlaceTrigger
	var lastFired sql.NullInt64
	err := row.Scan(&t.ID, &t.PlaceID, &t.TriggerType, &t.ActionType, &t.Payload,
		&t.Enabled, &t.CooldownMinutes, &lastFired, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastFired.Valid {
		t.LastFiredAt = lastFired.Int64
	}
	return &t, nil
}

// Create inserts a new trigger
func (r *TriggerRepository) Create(t *models.PlaceTrigger) error {
	t.CreatedAt = time.Now().Unix()

	query := `INSERT INTO place_triggers (id, place_id, trigger_type, action_type, payload, enabled, cooldown_minutes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, t.ID, t.PlaceID, t.TriggerType, t.ActionType, t.Payload,
		t.Enabled, t.CooldownMinutes, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert trigger: %w", err)
	}
	return nil
}

// GetByID retrieves a single trigger
func (r *TriggerRepository) GetByID(id string) (*models.PlaceTrigger, error) {
	query := `SELECT ` + triggerColumns + ` FROM place_triggers WHERE id = ?`

	t, err := scanTrigger(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trigger: %w", err)
	}
	return t, nil
}

// GetForPlace retrieves all triggers of a place
func (r *TriggerRepository) GetForPlace(placeID string) ([]models.PlaceTrigger, error) {
	query := `SELECT ` + triggerColumns + ` FROM place_triggers WHERE place_id = ? ORDER BY created_at ASC`

	rows, err := r.db.Query(query, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query triggers: %w", err)
	}
	defer rows.Close()

	var triggers []models.PlaceTrigger
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		triggers = append(triggers, *t)
	}

	return triggers, nil
}

// GetEnabledForPlace retrieves enabled triggers of one type for a place
func (r *TriggerRepository) GetEnabledForPlace(placeID, triggerType string) ([]models.PlaceTrigger, error) {
	query := `SELECT ` + triggerColumns + ` FROM place_triggers
		WHERE place_id = ? AND trigger_type = ? AND enabled = 1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, placeID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled triggers: %w", err)
	}
	defer rows.Close()

	var triggers []models.PlaceTrigger
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		triggers = append(triggers, *t)
	}

	return triggers, nil
}

// Update rewrites the caller-editable fields of a trigger
func (r *TriggerRepository) Update(t *models.PlaceTrigger) error {
	query := `UPDATE place_triggers SET trigger_type = ?, action_type = ?, payload = ?, enabled = ?, cooldown_minutes = ?
		WHERE id = ?`

	result, err := r.db.Exec(query, t.TriggerType, t.ActionType, t.Payload, t.Enabled, t.CooldownMinutes, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update trigger: %w", err)
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

// UpdateLastFired stamps the time a trigger last fired
func (r *TriggerRepository) UpdateLastFired(id string, firedAt int64) error {
	if _, err := r.db.Exec("UPDATE place_triggers SET last_fired_at = ? WHERE id = ?", firedAt, id); err != nil {
		return fmt.Errorf("failed to update trigger fire time: %w", err)
	}
	return nil
}

// Delete removes a trigger
func (r *TriggerRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM place_triggers WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete trigger: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}
