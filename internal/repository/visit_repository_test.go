package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedVisit inserts a visit row directly. exitedAt 0 leaves it open.
func seedVisit(t *testing.T, db *sql.DB, placeID string, enteredAt, exitedAt int64) string {
	t.Helper()

	id := uuid.New().String()
	day := int(time.Unix(enteredAt, 0).Weekday())
	var exited, dwell interface{}
	if exitedAt > 0 {
		exited = exitedAt
		dwell = float64(exitedAt-enteredAt) / 60.0
	}

	_, err := db.Exec(`INSERT INTO place_visits
		(id, uid, place_id, entered_at, exited_at, dwell_minutes, day_of_week, is_routine, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, testUID, placeID, enteredAt, exited, dwell, day, enteredAt)
	require.NoError(t, err)
	return id
}

// TestCountSimilarVisits checks the weekday and hour-window matching,
// including windows that wrap past midnight.
func TestCountSimilarVisits(t *testing.T) {
	db := newTestDB(t)
	places := NewPlaceRepository(db)
	visits := NewVisitRepository(db)

	place := testPlace("Office", 48.1000, 11.5000)
	require.NoError(t, places.Create(place))

	at := func(day, hour, min int) int64 {
		return time.Date(2026, 8, day, hour, min, 0, 0, time.Local).Unix()
	}

	// completed Wednesday visits at 09:30, 10:15 and 13:00
	seedVisit(t, db, place.ID, at(5, 9, 30), at(5, 9, 30)+1800)
	seedVisit(t, db, place.ID, at(12, 10, 15), at(12, 10, 15)+1800)
	seedVisit(t, db, place.ID, at(19, 13, 0), at(19, 13, 0)+1800)
	// Thursday morning, wrong weekday
	seedVisit(t, db, place.ID, at(6, 9, 30), at(6, 9, 30)+1800)
	// still open, must not count
	openID := seedVisit(t, db, place.ID, at(26, 9, 45), 0)

	wednesday := int(time.Wednesday)

	t.Run("morning window", func(t *testing.T) {
		n, err := visits.CountSimilarVisits(testUID, place.ID, wednesday, 8, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("entered before the cutoff", func(t *testing.T) {
		n, err := visits.CountSimilarVisits(testUID, place.ID, wednesday, 8, 10, at(10, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("empty hour window", func(t *testing.T) {
		n, err := visits.CountSimilarVisits(testUID, place.ID, wednesday, 14, 16, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("window wrapping midnight", func(t *testing.T) {
		seedVisit(t, db, place.ID, at(5, 23, 30), at(5, 23, 30)+1800)
		seedVisit(t, db, place.ID, at(12, 0, 45), at(12, 0, 45)+1800)

		n, err := visits.CountSimilarVisits(testUID, place.ID, wednesday, 23, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("open visit scans with zero exit", func(t *testing.T) {
		v, err := visits.GetByID(testUID, openID)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.True(t, v.Open())
		assert.Zero(t, v.ExitedAt)
		assert.Zero(t, v.DwellMinutes)
	})
}
