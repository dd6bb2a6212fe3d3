package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriolus/dwell/internal/cache"
	"github.com/oriolus/dwell/internal/models"
)

// TestProcessFixEntryAndExit walks one visit through entry, dwell and exit.
func TestProcessFixEntryAndExit(t *testing.T) {
	f := newFixture(t)
	cafe := f.addPlace(t, "Cafe", 48.1000, 11.5000, 100)
	base := int64(1700000000)

	entered, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, base))
	require.NoError(t, err)
	assert.True(t, entered.Processed)
	require.NotNil(t, entered.Entered)
	assert.Equal(t, cafe.ID, entered.Entered.ID)
	require.NotNil(t, entered.Visit)
	assert.Equal(t, base, entered.Visit.EnteredAt)
	assert.Nil(t, entered.Exited)

	// still inside, nothing transitions
	stayed, err := f.tracker.ProcessFix(fixAt(48.1001, 11.5001, base+60))
	require.NoError(t, err)
	assert.True(t, stayed.Processed)
	assert.Nil(t, stayed.Entered)
	assert.Nil(t, stayed.Exited)
	require.NotNil(t, stayed.Visit)
	assert.Equal(t, entered.Visit.ID, stayed.Visit.ID)

	exited, err := f.tracker.ProcessFix(fixAt(48.2000, 11.5000, base+1900))
	require.NoError(t, err)
	assert.True(t, exited.Processed)
	require.NotNil(t, exited.Exited)
	assert.Equal(t, cafe.ID, exited.Exited.ID)
	require.NotNil(t, exited.ClosedVisit)
	assert.Equal(t, base+1900, exited.ClosedVisit.ExitedAt)
	assert.InDelta(t, float64(1900)/60.0, exited.ClosedVisit.DwellMinutes, 1e-9)
	assert.Nil(t, exited.Visit)

	open, err := f.visits.GetOpenVisit(testUID)
	require.NoError(t, err)
	assert.Nil(t, open)

	closed, err := f.visits.GetByID(testUID, entered.Visit.ID)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, base+1900, closed.ExitedAt)

	// visit counters land on the place row
	reloaded, err := f.places.GetByID(testUID, cafe.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, 1, reloaded.VisitCount)
	assert.InDelta(t, float64(1900)/60.0, reloaded.TotalDwellMinutes, 1e-6)
	assert.Equal(t, base, reloaded.FirstVisited)
	assert.Equal(t, base, reloaded.LastVisited)
}

// TestProcessFixOverlappingFences checks target selection when fences overlap.
func TestProcessFixOverlappingFences(t *testing.T) {
	t.Run("smallest radius wins", func(t *testing.T) {
		f := newFixture(t)
		f.addPlace(t, "Mall", 48.1000, 11.5000, 200)
		shop := f.addPlace(t, "Shop", 48.1000, 11.5000, 50)

		tr, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, 1700000000))
		require.NoError(t, err)
		require.NotNil(t, tr.Entered)
		assert.Equal(t, shop.ID, tr.Entered.ID)
	})

	t.Run("open place wins at equal radius", func(t *testing.T) {
		f := newFixture(t)
		west := f.addPlace(t, "West", 48.1000, 11.5000, 100)
		f.addPlace(t, "East", 48.1013, 11.5000, 100)
		base := int64(1700000000)

		// inside West only
		tr, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, base))
		require.NoError(t, err)
		require.NotNil(t, tr.Entered)
		require.Equal(t, west.ID, tr.Entered.ID)

		// the midpoint falls in both fences, the open visit sticks
		mid, err := f.tracker.ProcessFix(fixAt(48.10065, 11.5000, base+60))
		require.NoError(t, err)
		assert.Nil(t, mid.Entered)
		assert.Nil(t, mid.Exited)
		require.NotNil(t, mid.Visit)
		assert.Equal(t, tr.Visit.ID, mid.Visit.ID)
	})
}

// TestProcessFixOrderingGate checks that stale and duplicate timestamps are ignored.
func TestProcessFixOrderingGate(t *testing.T) {
	f := newFixture(t)
	f.addPlace(t, "Home", 48.1000, 11.5000, 100)
	base := int64(1700000000)

	entered, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, base))
	require.NoError(t, err)
	require.True(t, entered.Processed)

	stale, err := f.tracker.ProcessFix(fixAt(48.2000, 11.5000, base-60))
	require.NoError(t, err)
	assert.False(t, stale.Processed)
	assert.Equal(t, SkipOutOfOrder, stale.SkipReason)

	duplicate, err := f.tracker.ProcessFix(fixAt(48.2000, 11.5000, base))
	require.NoError(t, err)
	assert.False(t, duplicate.Processed)
	assert.Equal(t, SkipOutOfOrder, duplicate.SkipReason)

	// rejected fixes left the open visit alone
	open, err := f.visits.GetOpenVisit(testUID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, entered.Visit.ID, open.ID)

	next, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, base+60))
	require.NoError(t, err)
	assert.True(t, next.Processed)
}

// TestProcessFixAccuracyGate checks the accuracy ceiling and that rejected
// fixes do not advance the tracker clock.
func TestProcessFixAccuracyGate(t *testing.T) {
	f := newFixture(t)
	f.addPlace(t, "Home", 48.1000, 11.5000, 100)
	base := int64(1700000000)

	noisy := fixAt(48.1000, 11.5000, base)
	noisy.Accuracy = 500
	tr, err := f.tracker.ProcessFix(noisy)
	require.NoError(t, err)
	assert.False(t, tr.Processed)
	assert.Equal(t, SkipLowAccuracy, tr.SkipReason)

	// same timestamp is accepted because the noisy fix was never counted
	retry, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, base))
	require.NoError(t, err)
	assert.True(t, retry.Processed)
	assert.NotNil(t, retry.Entered)

	// zero accuracy means unknown and passes the gate
	unknown := fixAt(48.1001, 11.5000, base+60)
	unknown.Accuracy = 0
	tr, err = f.tracker.ProcessFix(unknown)
	require.NoError(t, err)
	assert.True(t, tr.Processed)
}

// TestProcessFixAccuracyGateDisabled checks that a zero ceiling accepts any accuracy.
func TestProcessFixAccuracyGateDisabled(t *testing.T) {
	f := newFixture(t)
	f.addPlace(t, "Home", 48.1000, 11.5000, 100)

	loose := NewVisitTracker(f.db, f.places, f.visits, f.locations, f.triggers,
		f.dispatcher, nil, cache.NewCurrentPlaceCache("", "", 0), 0)

	noisy := fixAt(48.1000, 11.5000, 1700000000)
	noisy.Accuracy = 5000
	tr, err := loose.ProcessFix(noisy)
	require.NoError(t, err)
	assert.True(t, tr.Processed)
}

// TestProcessFixJumpBetweenPlaces checks that one fix can close a visit and
// open the next in a single transition.
func TestProcessFixJumpBetweenPlaces(t *testing.T) {
	f := newFixture(t)
	home := f.addPlace(t, "Home", 48.1000, 11.5000, 100)
	office := f.addPlace(t, "Office", 48.2000, 11.6000, 100)
	base := int64(1700000000)

	_, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, base))
	require.NoError(t, err)

	jump, err := f.tracker.ProcessFix(fixAt(48.2000, 11.6000, base+3600))
	require.NoError(t, err)
	require.NotNil(t, jump.Exited)
	assert.Equal(t, home.ID, jump.Exited.ID)
	require.NotNil(t, jump.ClosedVisit)
	assert.InDelta(t, 60.0, jump.ClosedVisit.DwellMinutes, 1e-9)
	require.NotNil(t, jump.Entered)
	assert.Equal(t, office.ID, jump.Entered.ID)
	require.NotNil(t, jump.Visit)
	assert.Equal(t, base+3600, jump.Visit.EnteredAt)

	// exactly one visit stays open
	open, err := f.visits.GetOpenVisits(testUID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, office.ID, open[0].PlaceID)

	reloadedHome, err := f.places.GetByID(testUID, home.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedHome.VisitCount)
	assert.InDelta(t, 60.0, reloadedHome.TotalDwellMinutes, 1e-6)

	reloadedOffice, err := f.places.GetByID(testUID, office.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedOffice.VisitCount)
	assert.Equal(t, base+3600, reloadedOffice.FirstVisited)
}

// TestLoadHealsMultipleOpenVisits checks crash recovery: stale open visits are
// closed at the time the newer visit began.
func TestLoadHealsMultipleOpenVisits(t *testing.T) {
	f := newFixture(t)
	placeA := f.addPlace(t, "A", 48.1000, 11.5000, 100)
	placeB := f.addPlace(t, "B", 48.2000, 11.6000, 100)
	base := int64(1700000000)

	visitA := insertOpenVisit(t, f.db, testUID, placeA.ID, base)
	visitB := insertOpenVisit(t, f.db, testUID, placeB.ID, base+600)

	// first contact loads state, heals A and leaves B tracked; the fix is
	// outside both fences so B closes too
	tr, err := f.tracker.ProcessFix(fixAt(40.0000, -73.0000, base+1200))
	require.NoError(t, err)
	require.NotNil(t, tr.Exited)
	assert.Equal(t, placeB.ID, tr.Exited.ID)
	require.NotNil(t, tr.ClosedVisit)
	assert.Equal(t, visitB, tr.ClosedVisit.ID)
	assert.InDelta(t, 10.0, tr.ClosedVisit.DwellMinutes, 1e-9)

	healed, err := f.visits.GetByID(testUID, visitA)
	require.NoError(t, err)
	require.NotNil(t, healed)
	assert.Equal(t, base+600, healed.ExitedAt)
	assert.InDelta(t, 10.0, healed.DwellMinutes, 1e-9)

	open, err := f.visits.GetOpenVisit(testUID)
	require.NoError(t, err)
	assert.Nil(t, open)

	// both closes credited dwell to their places
	reloadedA, err := f.places.GetByID(testUID, placeA.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, reloadedA.TotalDwellMinutes, 1e-6)
	reloadedB, err := f.places.GetByID(testUID, placeB.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, reloadedB.TotalDwellMinutes, 1e-6)
}

// TestEntryExitTriggersWithCooldown checks trigger firing on both transition
// types and the cooldown window between fires.
func TestEntryExitTriggersWithCooldown(t *testing.T) {
	f := newFixture(t)
	home := f.addPlace(t, "Home", 48.1000, 11.5000, 100)
	base := int64(1700000000)

	entryTrigger := &models.PlaceTrigger{
		ID:              uuid.New().String(),
		PlaceID:         home.ID,
		TriggerType:     models.TriggerOnEntry,
		ActionType:      models.ActionNotification,
		Payload:         `{"title":"welcome home"}`,
		Enabled:         true,
		CooldownMinutes: 60,
	}
	require.NoError(t, f.triggers.Create(entryTrigger))

	exitTrigger := &models.PlaceTrigger{
		ID:          uuid.New().String(),
		PlaceID:     home.ID,
		TriggerType: models.TriggerOnExit,
		ActionType:  models.ActionModeSwitch,
		Enabled:     true,
	}
	require.NoError(t, f.triggers.Create(exitTrigger))

	disabled := &models.PlaceTrigger{
		ID:          uuid.New().String(),
		PlaceID:     home.ID,
		TriggerType: models.TriggerOnEntry,
		ActionType:  models.ActionReminder,
		Enabled:     false,
	}
	require.NoError(t, f.triggers.Create(disabled))

	inside := func(ts int64) *models.LocationFix { return fixAt(48.1000, 11.5000, ts) }
	outside := func(ts int64) *models.LocationFix { return fixAt(48.2000, 11.5000, ts) }

	_, err := f.tracker.ProcessFix(inside(base))
	require.NoError(t, err)
	require.Equal(t, 1, f.dispatcher.count())
	first := f.dispatcher.at(0)
	assert.Equal(t, entryTrigger.ID, first.TriggerID)
	assert.Equal(t, models.TriggerOnEntry, first.TriggerType)
	assert.Equal(t, home.ID, first.PlaceID)
	assert.Equal(t, base, first.FiredAt)

	_, err = f.tracker.ProcessFix(outside(base + 600))
	require.NoError(t, err)
	require.Equal(t, 2, f.dispatcher.count())
	assert.Equal(t, exitTrigger.ID, f.dispatcher.at(1).TriggerID)

	// re-entry inside the cooldown window opens a visit but stays silent
	reentry, err := f.tracker.ProcessFix(inside(base + 1200))
	require.NoError(t, err)
	require.NotNil(t, reentry.Entered)
	assert.Equal(t, 2, f.dispatcher.count())

	// the exit trigger has no cooldown and fires every time
	_, err = f.tracker.ProcessFix(outside(base + 1800))
	require.NoError(t, err)
	require.Equal(t, 3, f.dispatcher.count())
	assert.Equal(t, exitTrigger.ID, f.dispatcher.at(2).TriggerID)

	// past the cooldown the entry trigger fires again
	_, err = f.tracker.ProcessFix(inside(base + 4200))
	require.NoError(t, err)
	require.Equal(t, 4, f.dispatcher.count())
	assert.Equal(t, entryTrigger.ID, f.dispatcher.at(3).TriggerID)

	for i := 0; i < f.dispatcher.count(); i++ {
		assert.NotEqual(t, disabled.ID, f.dispatcher.at(i).TriggerID)
	}
}

// TestRoutineVisitFlag checks that repeated same-weekday same-hour visits mark
// new visits as routine.
func TestRoutineVisitFlag(t *testing.T) {
	t.Run("two matching prior visits mark the visit routine", func(t *testing.T) {
		f := newFixture(t)
		cafe := f.addPlace(t, "Cafe", 48.1000, 11.5000, 100)

		entry := time.Date(2026, 8, 19, 9, 0, 0, 0, time.Local)
		for weeks := 1; weeks <= 2; weeks++ {
			at := entry.AddDate(0, 0, -7*weeks).Add(time.Hour)
			insertVisit(t, f.db, testUID, cafe.ID, at.Unix(), at.Add(time.Hour).Unix())
		}

		tr, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, entry.Unix()))
		require.NoError(t, err)
		require.NotNil(t, tr.Visit)
		assert.True(t, tr.Visit.IsRoutine)
	})

	t.Run("one prior visit is not enough", func(t *testing.T) {
		f := newFixture(t)
		cafe := f.addPlace(t, "Cafe", 48.1000, 11.5000, 100)

		entry := time.Date(2026, 8, 19, 9, 0, 0, 0, time.Local)
		at := entry.AddDate(0, 0, -7).Add(time.Hour)
		insertVisit(t, f.db, testUID, cafe.ID, at.Unix(), at.Add(time.Hour).Unix())

		tr, err := f.tracker.ProcessFix(fixAt(48.1000, 11.5000, entry.Unix()))
		require.NoError(t, err)
		require.NotNil(t, tr.Visit)
		assert.False(t, tr.Visit.IsRoutine)
	})
}
