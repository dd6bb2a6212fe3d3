package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

func newRoutineService(f *fixture, minOccurrences int, minConfidence float64) (*RoutineService, *repository.RoutineRepository) {
	repo := repository.NewRoutineRepository(f.db)
	svc := NewRoutineService(f.visits, f.places, repo, 28, minOccurrences, minConfidence, time.Hour)
	return svc, repo
}

// weeklySlot returns yesterday at the given local hour. Anchoring on
// yesterday keeps a four week series inside a 28 day window at any time
// of day the test runs.
func weeklySlot(hour int) time.Time {
	anchor := time.Now().AddDate(0, 0, -1)
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, 0, 0, 0, time.Local)
}

// TestDetectFindsWeeklyRoutine checks that four weekly visits in the same
// slot score full confidence while a lone visit is dropped.
func TestDetectFindsWeeklyRoutine(t *testing.T) {
	f := newFixture(t)
	cafe := f.addPlace(t, "Cafe", 48.1000, 11.5000, 100)
	gym := f.addPlace(t, "Gym", 48.2000, 11.6000, 100)

	slot := weeklySlot(18)
	for weeks := 0; weeks < 4; weeks++ {
		at := slot.AddDate(0, 0, -7*weeks)
		insertVisit(t, f.db, testUID, cafe.ID, at.Unix(), at.Add(time.Hour).Unix())
	}

	lone := slot.AddDate(0, 0, -2)
	insertVisit(t, f.db, testUID, gym.ID, lone.Unix(), lone.Add(time.Hour).Unix())

	svc, _ := newRoutineService(f, 3, 0.25)
	result, err := svc.Detect(testUID, 0, false)
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, 5, result.Scanned)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Routines, 1)

	routine := result.Routines[0]
	assert.Equal(t, cafe.ID, routine.PlaceID)
	assert.Equal(t, "Cafe", routine.PlaceName)
	assert.Equal(t, int(slot.Weekday()), routine.DayOfWeek)
	assert.Equal(t, 18, routine.Hour)
	assert.Equal(t, 4, routine.OccurrenceCount)
	assert.InDelta(t, 1.0, routine.Confidence, 1e-9)
	assert.Equal(t, models.RoutineStrong, routine.Band)
	assert.Equal(t, "Usually at Cafe around 18:00 on "+dayNames[routine.DayOfWeek]+"s", routine.Description)
}

// TestDetectServesCache checks that repeat calls hit the cached result until
// a forced recompute.
func TestDetectServesCache(t *testing.T) {
	f := newFixture(t)
	cafe := f.addPlace(t, "Cafe", 48.1000, 11.5000, 100)

	slot := weeklySlot(18)
	for weeks := 0; weeks < 4; weeks++ {
		at := slot.AddDate(0, 0, -7*weeks)
		insertVisit(t, f.db, testUID, cafe.ID, at.Unix(), at.Add(time.Hour).Unix())
	}

	svc, _ := newRoutineService(f, 3, 0.25)

	first, err := svc.Detect(testUID, 0, false)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Len(t, first.Routines, 1)

	second, err := svc.Detect(testUID, 0, false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	require.Len(t, second.Routines, 1)
	assert.Equal(t, first.Routines[0].ID, second.Routines[0].ID)

	forced, err := svc.Detect(testUID, 0, true)
	require.NoError(t, err)
	assert.False(t, forced.FromCache)
	require.Len(t, forced.Routines, 1)
}

// TestDetectConfidenceFloor checks that slots below the confidence floor are
// dropped.
func TestDetectConfidenceFloor(t *testing.T) {
	f := newFixture(t)
	cafe := f.addPlace(t, "Cafe", 48.1000, 11.5000, 100)

	// one visit in four weeks scores 0.25
	slot := weeklySlot(18)
	insertVisit(t, f.db, testUID, cafe.ID, slot.Unix(), slot.Add(time.Hour).Unix())

	svc, _ := newRoutineService(f, 1, 0.5)
	result, err := svc.Detect(testUID, 0, false)
	require.NoError(t, err)

	assert.Empty(t, result.Routines)
	assert.Equal(t, 1, result.Skipped)
}

// TestDetectIgnoresForeignPlaces checks that visits pointing at a place the
// user does not own never produce a routine.
func TestDetectIgnoresForeignPlaces(t *testing.T) {
	f := newFixture(t)

	foreign := &models.Place{
		ID:           uuid.New().String(),
		UID:          "someone-else",
		Name:         "Their Gym",
		Latitude:     48.2000,
		Longitude:    11.6000,
		RadiusMeters: 100,
		Category:     models.CategoryGym,
		IsConfirmed:  true,
	}
	require.NoError(t, f.places.Create(foreign))

	slot := weeklySlot(18)
	for weeks := 0; weeks < 4; weeks++ {
		at := slot.AddDate(0, 0, -7*weeks)
		insertVisit(t, f.db, testUID, foreign.ID, at.Unix(), at.Add(time.Hour).Unix())
	}

	svc, _ := newRoutineService(f, 3, 0.25)
	result, err := svc.Detect(testUID, 0, false)
	require.NoError(t, err)

	assert.Empty(t, result.Routines)
	assert.Equal(t, 1, result.Skipped)
}

// TestCountWeekdays checks the per-weekday denominator over a window.
func TestCountWeekdays(t *testing.T) {
	t.Run("four full weeks", func(t *testing.T) {
		since := time.Date(2026, 8, 3, 14, 30, 0, 0, time.Local)
		until := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)

		counts := countWeekdays(since, until)
		for day, n := range counts {
			assert.Equal(t, 4, n, "weekday %d", day)
		}
	})

	t.Run("current day excluded", func(t *testing.T) {
		// Thursday and Friday complete, Saturday still running
		since := time.Date(2026, 8, 20, 8, 0, 0, 0, time.Local)
		until := time.Date(2026, 8, 22, 11, 0, 0, 0, time.Local)

		counts := countWeekdays(since, until)
		assert.Equal(t, 1, counts[time.Thursday])
		assert.Equal(t, 1, counts[time.Friday])
		assert.Equal(t, 0, counts[time.Saturday])
		assert.Equal(t, 0, counts[time.Sunday])
	})
}

// seedSlotRoutines stores the same routine for the current hour and the next
// so an hour rollover mid-test cannot miss the slot.
func seedSlotRoutines(t *testing.T, repo *repository.RoutineRepository, placeID, placeName, band string) {
	t.Helper()

	now := time.Now()
	next := now.Add(time.Hour)
	routines := []models.Routine{
		{
			ID: uuid.New().String(), UID: testUID, PlaceID: placeID, PlaceName: placeName,
			DayOfWeek: int(now.Weekday()), Hour: now.Hour(),
			OccurrenceCount: 4, Confidence: 0.8, Band: band,
		},
		{
			ID: uuid.New().String(), UID: testUID, PlaceID: placeID, PlaceName: placeName,
			DayOfWeek: int(next.Weekday()), Hour: next.Hour(),
			OccurrenceCount: 4, Confidence: 0.8, Band: band,
		},
	}
	require.NoError(t, repo.ReplaceForUser(testUID, 28, routines))
}

// TestCheckDeviation covers the deviation outcomes.
func TestCheckDeviation(t *testing.T) {
	t.Run("no routine for the slot", func(t *testing.T) {
		f := newFixture(t)
		svc, _ := newRoutineService(f, 3, 0.25)

		result, err := svc.CheckDeviation(testUID)
		require.NoError(t, err)
		assert.False(t, result.IsDeviation)
		assert.Nil(t, result.Routine)
	})

	t.Run("at the expected place", func(t *testing.T) {
		f := newFixture(t)
		home := f.addPlace(t, "Home", 48.1000, 11.5000, 100)
		svc, repo := newRoutineService(f, 3, 0.25)

		seedSlotRoutines(t, repo, home.ID, "Home", models.RoutineStrong)
		insertOpenVisit(t, f.db, testUID, home.ID, time.Now().Add(-time.Hour).Unix())

		result, err := svc.CheckDeviation(testUID)
		require.NoError(t, err)
		assert.False(t, result.IsDeviation)
		assert.Equal(t, "Home", result.ExpectedPlace)
		assert.Equal(t, "Home", result.CurrentPlace)
		require.NotNil(t, result.Routine)
	})

	t.Run("at a different place", func(t *testing.T) {
		f := newFixture(t)
		home := f.addPlace(t, "Home", 48.1000, 11.5000, 100)
		office := f.addPlace(t, "Office", 48.2000, 11.6000, 100)
		svc, repo := newRoutineService(f, 3, 0.25)

		seedSlotRoutines(t, repo, office.ID, "Office", models.RoutineStrong)
		insertOpenVisit(t, f.db, testUID, home.ID, time.Now().Add(-time.Hour).Unix())

		result, err := svc.CheckDeviation(testUID)
		require.NoError(t, err)
		assert.True(t, result.IsDeviation)
		assert.Equal(t, "Office", result.ExpectedPlace)
		assert.Equal(t, "Home", result.CurrentPlace)
	})

	t.Run("nowhere while a routine expects somewhere", func(t *testing.T) {
		f := newFixture(t)
		office := f.addPlace(t, "Office", 48.2000, 11.6000, 100)
		svc, repo := newRoutineService(f, 3, 0.25)

		seedSlotRoutines(t, repo, office.ID, "Office", models.RoutineStrong)

		result, err := svc.CheckDeviation(testUID)
		require.NoError(t, err)
		assert.True(t, result.IsDeviation)
		assert.Equal(t, "Office", result.ExpectedPlace)
		assert.Empty(t, result.CurrentPlace)
	})

	t.Run("band is carried so callers can pick their threshold", func(t *testing.T) {
		f := newFixture(t)
		office := f.addPlace(t, "Office", 48.2000, 11.6000, 100)
		svc, repo := newRoutineService(f, 3, 0.25)

		seedSlotRoutines(t, repo, office.ID, "Office", models.RoutineModerate)

		result, err := svc.CheckDeviation(testUID)
		require.NoError(t, err)
		assert.True(t, result.IsDeviation)
		require.NotNil(t, result.Routine)
		assert.Equal(t, models.RoutineModerate, result.Routine.Band)
	})
}
