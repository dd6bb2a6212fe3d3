package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

func newDiscoveryService(f *fixture) (*PlaceDiscoveryService, *repository.SuggestionRepository) {
	repo := repository.NewSuggestionRepository(f.db)
	svc := NewPlaceDiscoveryService(f.locations, f.places, repo, 30, 3, 100, 2*time.Hour, time.Hour)
	return svc, repo
}

// seedStayScenario writes the fix history the discovery tests share:
// twelve lunch-hour fixes at one unassigned spot over three days, two
// fixes inside the saved Home place, two transit fixes and one stray.
// Returns the first and last timestamp of the lunch cluster.
func seedStayScenario(t *testing.T, f *fixture) (firstSeen, lastSeen int64) {
	t.Helper()

	f.addPlace(t, "Home", 48.1000, 11.5000, 100)

	now := time.Now()
	dayAt := func(daysAgo, hour int) time.Time {
		a := now.AddDate(0, 0, -daysAgo)
		return time.Date(a.Year(), a.Month(), a.Day(), hour, 0, 0, 0, time.Local)
	}

	jitter := [4][2]float64{{0, 0}, {0.00004, 0}, {0, 0.00005}, {-0.00004, -0.00003}}
	for day := 2; day <= 4; day++ {
		start := dayAt(day, 12)
		for i := 0; i < 4; i++ {
			at := start.Add(time.Duration(i) * 20 * time.Minute)
			f.insertFix(t, 48.1300+jitter[i][0], 11.5800+jitter[i][1], at, "stationary", 0)
		}
	}

	f.insertFix(t, 48.1000, 11.5000, dayAt(2, 9), "stationary", 0)
	f.insertFix(t, 48.1001, 11.5000, dayAt(3, 9), "stationary", 0)
	f.insertFix(t, 48.1500, 11.5500, dayAt(2, 10), "driving", 15)
	f.insertFix(t, 48.1600, 11.5600, dayAt(3, 10), "automotive_driving", 12)
	f.insertFix(t, 48.2000, 11.7000, dayAt(4, 15), "walking", 1)

	return dayAt(4, 12).Unix(), dayAt(2, 13).Unix()
}

// TestDiscoverClustersRepeatedStays checks the whole discovery pipeline:
// transit and known-place fixes are skipped, repeated stays cluster into
// one suggestion and a stray fix does not.
func TestDiscoverClustersRepeatedStays(t *testing.T) {
	f := newFixture(t)
	firstSeen, lastSeen := seedStayScenario(t, f)
	svc, _ := newDiscoveryService(f)

	result, err := svc.Discover(testUID, 0, 0, false)
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, 17, result.Scanned)
	assert.Equal(t, 4, result.Skipped)
	require.Len(t, result.Suggestions, 1)

	s := result.Suggestions[0]
	assert.InDelta(t, 48.1300, s.Latitude, 0.001)
	assert.InDelta(t, 11.5800, s.Longitude, 0.001)
	assert.Equal(t, 3, s.VisitCount)
	assert.Equal(t, 12, s.FixCount)
	assert.Equal(t, models.CategoryRestaurant, s.SuggestedCategory)
	assert.Equal(t, minSuggestedRadius, s.SuggestedRadiusM)
	assert.Equal(t, firstSeen, s.FirstSeen)
	assert.Equal(t, lastSeen, s.LastSeen)
}

// TestDiscoverServesCache checks that repeat calls hit the cached result
// until a forced recompute.
func TestDiscoverServesCache(t *testing.T) {
	f := newFixture(t)
	seedStayScenario(t, f)
	svc, _ := newDiscoveryService(f)

	first, err := svc.Discover(testUID, 0, 0, false)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Len(t, first.Suggestions, 1)

	second, err := svc.Discover(testUID, 0, 0, false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	require.Len(t, second.Suggestions, 1)
	assert.Equal(t, first.Suggestions[0].ID, second.Suggestions[0].ID)

	forced, err := svc.Discover(testUID, 0, 0, true)
	require.NoError(t, err)
	assert.False(t, forced.FromCache)
}

// TestConfirmSeedsFromSuggestion checks that confirming a discovered spot
// carries its observed counters onto the new place and consumes the
// suggestion.
func TestConfirmSeedsFromSuggestion(t *testing.T) {
	f := newFixture(t)
	seedStayScenario(t, f)
	svc, _ := newDiscoveryService(f)

	result, err := svc.Discover(testUID, 0, 0, false)
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 1)
	s := result.Suggestions[0]

	place, err := svc.Confirm(testUID, &models.ConfirmSuggestionRequest{
		Name:      "Lunch Spot",
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	})
	require.NoError(t, err)

	assert.Equal(t, "Lunch Spot", place.Name)
	assert.Equal(t, s.SuggestedRadiusM, place.RadiusMeters)
	assert.Equal(t, models.CategoryRestaurant, place.Category)
	assert.Equal(t, 3, place.VisitCount)
	assert.Equal(t, s.FirstSeen, place.FirstVisited)
	assert.Equal(t, s.LastSeen, place.LastVisited)
	assert.True(t, place.IsAutoDetected)
	assert.True(t, place.IsConfirmed)

	stored, err := f.places.GetByID(testUID, place.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	// the confirmed area is a known place now, rediscovery yields nothing
	again, err := svc.Discover(testUID, 0, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 17, again.Scanned)
	assert.Equal(t, 16, again.Skipped)
	assert.Empty(t, again.Suggestions)
}

// TestConfirmHonorsExplicitFields checks that caller-provided radius and
// category beat the suggested ones.
func TestConfirmHonorsExplicitFields(t *testing.T) {
	f := newFixture(t)
	seedStayScenario(t, f)
	svc, _ := newDiscoveryService(f)

	result, err := svc.Discover(testUID, 0, 0, false)
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 1)
	s := result.Suggestions[0]

	place, err := svc.Confirm(testUID, &models.ConfirmSuggestionRequest{
		Name:         "Canteen",
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		Category:     models.CategoryWork,
		RadiusMeters: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryWork, place.Category)
	assert.Equal(t, 120.0, place.RadiusMeters)
	assert.Equal(t, 3, place.VisitCount)
}

// TestConfirmWithoutSuggestion checks the fallbacks when no cached
// suggestion sits near the confirmed coordinates.
func TestConfirmWithoutSuggestion(t *testing.T) {
	f := newFixture(t)
	svc, _ := newDiscoveryService(f)

	place, err := svc.Confirm(testUID, &models.ConfirmSuggestionRequest{
		Name:      "Somewhere New",
		Latitude:  40.7580,
		Longitude: -73.9855,
	})
	require.NoError(t, err)

	assert.Equal(t, 2*minSuggestedRadius, place.RadiusMeters)
	assert.Equal(t, models.CategoryOther, place.Category)
	assert.Equal(t, 0, place.VisitCount)

	_, err = svc.Confirm(testUID, &models.ConfirmSuggestionRequest{
		Latitude:  40.7580,
		Longitude: -73.9855,
	})
	assert.Error(t, err, "a nameless place must be rejected")
}

// TestOccurrenceRuns checks run splitting on the gap threshold.
func TestOccurrenceRuns(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, occurrenceRuns(nil, 7200))
	})

	t.Run("splits on gaps", func(t *testing.T) {
		times := []int64{0, 600, 1200, 10000, 10600, 30000}

		runs := occurrenceRuns(times, 7200)
		require.Len(t, runs, 3)
		assert.Equal(t, timeRun{start: 0, end: 1200}, runs[0])
		assert.Equal(t, timeRun{start: 10000, end: 10600}, runs[1])
		assert.Equal(t, timeRun{start: 30000, end: 30000}, runs[2])
	})

	t.Run("gap exactly at threshold stays joined", func(t *testing.T) {
		times := []int64{0, 7200}

		runs := occurrenceRuns(times, 7200)
		require.Len(t, runs, 1)
		assert.Equal(t, timeRun{start: 0, end: 7200}, runs[0])
	})
}

// TestClassifyRun checks the stay heuristics against local wall-clock spans.
func TestClassifyRun(t *testing.T) {
	span := func(day, hour, min int, d time.Duration) timeRun {
		start := time.Date(2026, 8, day, hour, min, 0, 0, time.Local)
		return timeRun{start: start.Unix(), end: start.Add(d).Unix()}
	}

	tests := []struct {
		name string
		run  timeRun
		want string
	}{
		{"overnight stay", span(18, 22, 0, 8*time.Hour), models.CategoryHome},
		{"weekday office hours", span(17, 9, 0, 8*time.Hour), models.CategoryWork},
		{"lunch", span(18, 12, 15, time.Hour), models.CategoryRestaurant},
		{"dinner", span(18, 19, 0, 90*time.Minute), models.CategoryRestaurant},
		{"ten minute stop", span(18, 15, 0, 10*time.Minute), models.CategoryOther},
		{"short night stop", span(18, 3, 0, 20*time.Minute), models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyRun(tt.run))
		})
	}
}

// TestSuggestCategory checks the per-run majority vote.
func TestSuggestCategory(t *testing.T) {
	lunch := func(day int) timeRun {
		start := time.Date(2026, 8, day, 12, 0, 0, 0, time.Local)
		return timeRun{start: start.Unix(), end: start.Add(time.Hour).Unix()}
	}
	stop := func(day int) timeRun {
		start := time.Date(2026, 8, day, 15, 0, 0, 0, time.Local)
		return timeRun{start: start.Unix(), end: start.Add(10 * time.Minute).Unix()}
	}

	t.Run("half the runs is enough", func(t *testing.T) {
		runs := []timeRun{lunch(10), lunch(11), stop(12), stop(13)}
		assert.Equal(t, models.CategoryRestaurant, suggestCategory(runs))
	})

	t.Run("minority signal falls back to other", func(t *testing.T) {
		runs := []timeRun{lunch(10), stop(11), stop(12), stop(13)}
		assert.Equal(t, models.CategoryOther, suggestCategory(runs))
	})
}
