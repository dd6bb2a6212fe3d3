package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/models"
)

const testUID = "user-1"

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrationManager(db).RunMigrations())
	return db
}

func testPlace(name string, lat, lon float64) *models.Place {
	return &models.Place{
		ID:           uuid.New().String(),
		UID:          testUID,
		Name:         name,
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: 100,
		Category:     models.CategoryOther,
		IsConfirmed:  true,
	}
}

// TestPlaceRoundTrip checks that a stored place reads back intact and
// that never-visited timestamps survive the NULL mapping.
func TestPlaceRoundTrip(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))

	p := testPlace("Home", 48.1000, 11.5000)
	p.Address = "1 Main St"
	require.NoError(t, repo.Create(p))
	assert.NotZero(t, p.CreatedAt)

	got, err := repo.GetByID(testUID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Home", got.Name)
	assert.Equal(t, 48.1000, got.Latitude)
	assert.Equal(t, 11.5000, got.Longitude)
	assert.Equal(t, 100.0, got.RadiusMeters)
	assert.Equal(t, models.CategoryOther, got.Category)
	assert.Equal(t, "1 Main St", got.Address)
	assert.True(t, got.IsConfirmed)
	assert.False(t, got.IsAutoDetected)
	assert.Zero(t, got.FirstVisited)
	assert.Zero(t, got.LastVisited)

	t.Run("visited timestamps survive", func(t *testing.T) {
		seen := testPlace("Cafe", 48.1100, 11.5100)
		seen.FirstVisited = 1700000000
		seen.LastVisited = 1700090000
		require.NoError(t, repo.Create(seen))

		got, err := repo.GetByID(testUID, seen.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1700000000), got.FirstVisited)
		assert.Equal(t, int64(1700090000), got.LastVisited)
	})

	t.Run("scoped to the user", func(t *testing.T) {
		got, err := repo.GetByID("someone-else", p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		got, err := repo.GetByID(testUID, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// TestPlaceGetByName checks the exact-name lookup.
func TestPlaceGetByName(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	p := testPlace("Home", 48.1000, 11.5000)
	require.NoError(t, repo.Create(p))

	got, err := repo.GetByName(testUID, "Home")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)

	got, err = repo.GetByName(testUID, "Office")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestPlaceUpdate checks persistence of edits and the missing-row error.
func TestPlaceUpdate(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	p := testPlace("Home", 48.1000, 11.5000)
	require.NoError(t, repo.Create(p))

	p.Name = "Base"
	p.RadiusMeters = 150
	p.IsConfirmed = false
	require.NoError(t, repo.Update(p))

	got, err := repo.GetByID(testUID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Base", got.Name)
	assert.Equal(t, 150.0, got.RadiusMeters)
	assert.False(t, got.IsConfirmed)

	ghost := testPlace("Ghost", 48.2000, 11.6000)
	assert.ErrorIs(t, repo.Update(ghost), sql.ErrNoRows)
}

// TestPlaceDelete checks the deleted flag on repeat deletes.
func TestPlaceDelete(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	p := testPlace("Home", 48.1000, 11.5000)
	require.NoError(t, repo.Create(p))

	deleted, err := repo.Delete(testUID, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.GetByID(testUID, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = repo.Delete(testUID, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
