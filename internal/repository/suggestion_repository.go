package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/models"
)

// SuggestionRepository handles the cached output of place discovery
type SuggestionRepository struct {
	db *sql.DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *sql.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// ReplaceForUser swaps the user's cached suggestions for a fresh set
func (r *SuggestionRepository) ReplaceForUser(uid string, minVisits, daysBack int, suggestions []models.PlaceSuggestion) error {
	now := time.Now().Unix()

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM place_suggestions WHERE uid = ?", uid); err != nil {
			return fmt.Errorf("failed to clear suggestions: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO place_suggestions
			(id, uid, latitude, longitude, suggested_radius_m, visit_count, fix_count,
			suggested_category, first_seen, last_seen, min_visits, days_back, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range suggestions {
			s := &suggestions[i]
			s.ComputedAt = now
			if _, err := stmt.Exec(s.ID, s.UID, s.Latitude, s.Longitude, s.SuggestedRadiusM,
				s.VisitCount, s.FixCount, s.SuggestedCategory, s.FirstSeen, s.LastSeen,
				minVisits, daysBack, s.ComputedAt); err != nil {
				return fmt.Errorf("failed to insert suggestion: %w", err)
			}
		}
		return nil
	})
}

// GetCached retrieves cached suggestions when a fresh run with the same
// parameters exists. The bool reports whether the cache was usable.
func (r *SuggestionRepository) GetCached(uid string, minVisits, daysBack int, maxAgeSeconds int64) ([]models.PlaceSuggestion, bool, error) {
	oldest := time.Now().Unix() - maxAgeSeconds

	query := `SELECT id, uid, latitude, longitude, suggested_radius_m, visit_count, fix_count,
		suggested_category, first_seen, last_seen, computed_at
		FROM place_suggestions
		WHERE uid = ? AND min_visits = ? AND days_back = ? AND computed_at >= ?
		ORDER BY visit_count DESC, fix_count DESC`

	rows, err := r.db.Query(query, uid, minVisits, daysBack, oldest)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cached suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []models.PlaceSuggestion
	for rows.Next() {
		var s models.PlaceSuggestion
		if err := rows.Scan(&s.ID, &s.UID, &s.Latitude, &s.Longitude, &s.SuggestedRadiusM,
			&s.VisitCount, &s.FixCount, &s.SuggestedCategory, &s.FirstSeen, &s.LastSeen, &s.ComputedAt); err != nil {
			return nil, false, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	return suggestions, len(suggestions) > 0, nil
}

// GetByLocation finds a cached suggestion near the given coordinates.
// Confirm uses this to carry discovery counters onto the new place.
func (r *SuggestionRepository) GetByLocation(uid string, lat, lon, toleranceDeg float64) (*models.PlaceSuggestion, error) {
	query := `SELECT id, uid, latitude, longitude, suggested_radius_m, visit_count, fix_count,
		suggested_category, first_seen, last_seen, computed_at
		FROM place_suggestions
		WHERE uid = ? AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		ORDER BY visit_count DESC LIMIT 1`

	var s models.PlaceSuggestion
	err := r.db.QueryRow(query, uid, lat-toleranceDeg, lat+toleranceDeg, lon-toleranceDeg, lon+toleranceDeg).
		Scan(&s.ID, &s.UID, &s.Latitude, &s.Longitude, &s.SuggestedRadiusM,
			&s.VisitCount, &s.FixCount, &s.SuggestedCategory, &s.FirstSeen, &s.LastSeen, &s.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion by location: %w", err)
	}
	return &s, nil
}

// DeleteByID removes one cached suggestion, e.g. after it is confirmed
func (r *SuggestionRepository) DeleteByID(uid, id string) error {
	if _, err := r.db.Exec("DELETE FROM place_suggestions WHERE uid = ? AND id = ?", uid, id); err != nil {
		return fmt.Errorf("failed to delete suggestion: %w", err)
	}
	return nil
}
