package service

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oriolus/dwell/internal/cache"
	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/dispatch"
	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

const testUID = "user-1"

// newTestDB opens a throwaway migrated database for one test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrationManager(db).RunMigrations())
	return db
}

// recordingDispatcher captures fired trigger actions for assertions.
type recordingDispatcher struct {
	mu      sync.Mutex
	actions []dispatch.Action
}

func (d *recordingDispatcher) Dispatch(a dispatch.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actions)
}

func (d *recordingDispatcher) at(i int) dispatch.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.actions[i]
}

// fixture bundles the repositories and tracker most service tests need.
// The current-place cache is constructed disabled so no Redis is required.
type fixture struct {
	db         *sql.DB
	places     *repository.PlaceRepository
	visits     *repository.VisitRepository
	locations  *repository.LocationRepository
	triggers   *repository.TriggerRepository
	dispatcher *recordingDispatcher
	tracker    *VisitTracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	f := &fixture{
		db:         db,
		places:     repository.NewPlaceRepository(db),
		visits:     repository.NewVisitRepository(db),
		locations:  repository.NewLocationRepository(db),
		triggers:   repository.NewTriggerRepository(db),
		dispatcher: &recordingDispatcher{},
	}
	f.tracker = NewVisitTracker(db, f.places, f.visits, f.locations, f.triggers,
		f.dispatcher, nil, cache.NewCurrentPlaceCache("", "", 0), 100)
	return f
}

// addPlace saves a confirmed place with the given geofence.
func (f *fixture) addPlace(t *testing.T, name string, lat, lon, radius float64) *models.Place {
	t.Helper()

	p := &models.Place{
		ID:           uuid.New().String(),
		UID:          testUID,
		Name:         name,
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: radius,
		Category:     models.CategoryOther,
		IsConfirmed:  true,
	}
	require.NoError(t, f.places.Create(p))
	return p
}

// fixAt builds a fix at the given coordinates and timestamp.
func fixAt(lat, lon float64, recordedAt int64) *models.LocationFix {
	return &models.LocationFix{
		UID:        testUID,
		Latitude:   lat,
		Longitude:  lon,
		Accuracy:   10,
		RecordedAt: recordedAt,
	}
}

// insertFix stores one raw location fix through the repository.
func (f *fixture) insertFix(t *testing.T, lat, lon float64, at time.Time, motion string, speed float64) {
	t.Helper()

	fix := &models.LocationFix{
		UID:        testUID,
		Latitude:   lat,
		Longitude:  lon,
		Accuracy:   10,
		Speed:      speed,
		Motion:     motion,
		RecordedAt: at.Unix(),
	}
	require.NoError(t, f.locations.Insert(fix))
}

// insertVisit writes a completed visit row directly.
func insertVisit(t *testing.T, db *sql.DB, uid, placeID string, enteredAt, exitedAt int64) string {
	t.Helper()

	id := uuid.New().String()
	dwell := float64(exitedAt-enteredAt) / 60.0
	day := int(time.Unix(enteredAt, 0).Weekday())
	_, err := db.Exec(`INSERT INTO place_visits (id, uid, place_id, entered_at, exited_at, dwell_minutes, day_of_week, is_routine, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, uid, placeID, enteredAt, exitedAt, dwell, day, enteredAt)
	require.NoError(t, err)
	return id
}

// insertOpenVisit writes an open visit row directly.
func insertOpenVisit(t *testing.T, db *sql.DB, uid, placeID string, enteredAt int64) string {
	t.Helper()

	id := uuid.New().String()
	day := int(time.Unix(enteredAt, 0).Weekday())
	_, err := db.Exec(`INSERT INTO place_visits (id, uid, place_id, entered_at, day_of_week, is_routine, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		id, uid, placeID, enteredAt, day, enteredAt)
	require.NoError(t, err)
	return id
}
