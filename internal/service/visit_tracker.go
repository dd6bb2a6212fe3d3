package service

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/cache"
	"github.com/oriolus/dwell/internal/database"
	"github.com/oriolus/dwell/internal/dispatch"
	"github.com/oriolus/dwell/internal/events"
	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
	"github.com/oriolus/dwell/internal/spatial"
)

// Skip reasons reported when a fix does not advance visit state
const (
	SkipOutOfOrder  = "out_of_order"
	SkipLowAccuracy = "low_accuracy"
)

// Similar past visits within this window mark a new visit as routine
const (
	routineLookbackDays = 14
	routineHourSlack    = 2
	routineMinMatches   = 2
)

// Transition describes what one location fix did to visit state
type Transition struct {
	Processed  bool   `json:"processed"`
	SkipReason string `json:"skipReason,omitempty"`

	Entered *models.Place `json:"entered,omitempty"`
	Exited  *models.Place `json:"exited,omitempty"`

	Visit       *models.PlaceVisit `json:"visit,omitempty"`       // Open visit after this fix
	ClosedVisit *models.PlaceVisit `json:"closedVisit,omitempty"` // Visit closed by this fix
}

// userState is the per-user slice of tracker state. Fixes for one user
// serialize on its mutex, users do not block each other.
type userState struct {
	mu            sync.Mutex
	loaded        bool
	lastProcessed int64 // Unix timestamp of the newest accepted fix
	openVisitID   string
	openPlaceID   string
	enteredAt     int64
}

// VisitTracker turns the ordered fix stream into visit entry and exit
// transitions against the user's saved places
type VisitTracker struct {
	db          *sql.DB
	places      *repository.PlaceRepository
	visits      *repository.VisitRepository
	locations   *repository.LocationRepository
	triggers    *repository.TriggerRepository
	dispatcher  dispatch.Dispatcher
	hub         *events.Hub
	cache       *cache.CurrentPlaceCache
	maxAccuracy float64

	mu    sync.Mutex
	users map[string]*userState
}

// NewVisitTracker creates a new visit tracker. The hub may be nil when
// no websocket fan-out is wanted.
func NewVisitTracker(
	db *sql.DB,
	places *repository.PlaceRepository,
	visits *repository.VisitRepository,
	locations *repository.LocationRepository,
	triggers *repository.TriggerRepository,
	dispatcher dispatch.Dispatcher,
	hub *events.Hub,
	currentCache *cache.CurrentPlaceCache,
	maxAccuracyMeters float64,
) *VisitTracker {
	return &VisitTracker{
		db:          db,
		places:      places,
		visits:      visits,
		locations:   locations,
		triggers:    triggers,
		dispatcher:  dispatcher,
		hub:         hub,
		cache:       currentCache,
		maxAccuracy: maxAccuracyMeters,
		users:       make(map[string]*userState),
	}
}

func (t *VisitTracker) stateFor(uid string) *userState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.users[uid]
	if !ok {
		st = &userState{}
		t.users[uid] = st
	}
	return st
}

// load restores tracker state from the database on first contact with a
// user. Multiple open visits mean a past crash mid-transition, the
// stale ones are closed at the time the newer visit began.
func (t *VisitTracker) load(uid string, st *userState) error {
	open, err := t.visits.GetOpenVisits(uid)
	if err != nil {
		return err
	}

	if len(open) > 1 {
		log.Printf("[Tracker] uid=%s has %d open visits, healing", uid, len(open))
		for i := 1; i < len(open); i++ {
			stale := open[i]
			closeAt := open[i-1].EnteredAt
			if closeAt < stale.EnteredAt {
				closeAt = stale.EnteredAt
			}
			if err := t.closeVisitRow(stale, closeAt); err != nil {
				return err
			}
		}
		open = open[:1]
	}

	if len(open) == 1 {
		st.openVisitID = open[0].ID
		st.openPlaceID = open[0].PlaceID
		st.enteredAt = open[0].EnteredAt
	}

	last, err := t.locations.GetLastRecordedAt(uid)
	if err != nil {
		return err
	}
	st.lastProcessed = last
	st.loaded = true
	return nil
}

func (t *VisitTracker) closeVisitRow(v models.PlaceVisit, exitedAt int64) error {
	dwell := float64(exitedAt-v.EnteredAt) / 60.0
	if dwell < 0 {
		dwell = 0
	}
	return database.Transaction(t.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("UPDATE place_visits SET exited_at = ?, dwell_minutes = ? WHERE id = ?", exitedAt, dwell, v.ID); err != nil {
			return fmt.Errorf("failed to close visit: %w", err)
		}
		if _, err := tx.Exec("UPDATE places SET total_dwell_minutes = total_dwell_minutes + ?, updated_at = ? WHERE id = ?", dwell, time.Now().Unix(), v.PlaceID); err != nil {
			return fmt.Errorf("failed to add dwell: %w", err)
		}
		return nil
	})
}

// ProcessFix advances the user's visit state with one location fix.
// Fixes at or before the newest processed timestamp are ignored, as are
// fixes with accuracy worse than the configured ceiling.
func (t *VisitTracker) ProcessFix(fix *models.LocationFix) (*Transition, error) {
	st := t.stateFor(fix.UID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.loaded {
		if err := t.load(fix.UID, st); err != nil {
			return nil, fmt.Errorf("failed to load tracker state: %w", err)
		}
	}

	if fix.RecordedAt <= st.lastProcessed {
		return &Transition{Processed: false, SkipReason: SkipOutOfOrder}, nil
	}
	if t.maxAccuracy > 0 && fix.Accuracy > t.maxAccuracy {
		return &Transition{Processed: false, SkipReason: SkipLowAccuracy}, nil
	}

	places, err := t.places.GetAllForUser(fix.UID, true)
	if err != nil {
		return nil, err
	}
	target := pickContaining(places, fix.Latitude, fix.Longitude, st.openPlaceID)

	result := &Transition{Processed: true}

	if target == nil && st.openVisitID == "" {
		st.lastProcessed = fix.RecordedAt
		return result, nil
	}
	if target != nil && target.ID == st.openPlaceID {
		st.lastProcessed = fix.RecordedAt
		if v, err := t.visits.GetByID(fix.UID, st.openVisitID); err == nil && v != nil {
			result.Visit = v
		}
		return result, nil
	}

	result, err = t.transition(fix, st, target)
	if err != nil {
		return nil, err
	}
	st.lastProcessed = fix.RecordedAt
	return result, nil
}

// pickContaining returns the geofence the point falls in. Overlaps
// resolve to the smallest radius, then the place already being visited,
// then the oldest place.
func pickContaining(places []models.Place, lat, lon float64, openPlaceID string) *models.Place {
	var candidates []*models.Place
	for i := range places {
		p := &places[i]
		if spatial.WithinRadius(lat, lon, p.Latitude, p.Longitude, p.RadiusMeters) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RadiusMeters != b.RadiusMeters {
			return a.RadiusMeters < b.RadiusMeters
		}
		if (a.ID == openPlaceID) != (b.ID == openPlaceID) {
			return a.ID == openPlaceID
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
	return candidates[0]
}

// transition closes the open visit and/or opens a new one atomically
func (t *VisitTracker) transition(fix *models.LocationFix, st *userState, target *models.Place) (*Transition, error) {
	now := time.Now().Unix()
	result := &Transition{Processed: true}

	var closed *models.PlaceVisit
	var opened *models.PlaceVisit

	if st.openVisitID != "" {
		dwell := float64(fix.RecordedAt-st.enteredAt) / 60.0
		if dwell < 0 {
			dwell = 0
		}
		closed = &models.PlaceVisit{
			ID:           st.openVisitID,
			UID:          fix.UID,
			PlaceID:      st.openPlaceID,
			EnteredAt:    st.enteredAt,
			ExitedAt:     fix.RecordedAt,
			DwellMinutes: dwell,
			DayOfWeek:    int(time.Unix(st.enteredAt, 0).Weekday()),
		}
	}

	if target != nil {
		entered := time.Unix(fix.RecordedAt, 0)
		opened = &models.PlaceVisit{
			ID:        uuid.New().String(),
			UID:       fix.UID,
			PlaceID:   target.ID,
			EnteredAt: fix.RecordedAt,
			DayOfWeek: int(entered.Weekday()),
			CreatedAt: now,
		}

		isRoutine, err := t.isRoutineVisit(fix.UID, target.ID, entered)
		if err != nil {
			log.Printf("[Tracker] routine check failed for uid=%s: %v", fix.UID, err)
		}
		opened.IsRoutine = isRoutine
	}

	err := database.Transaction(t.db, func(tx *sql.Tx) error {
		if closed != nil {
			if _, err := tx.Exec("UPDATE place_visits SET exited_at = ?, dwell_minutes = ? WHERE id = ?",
				closed.ExitedAt, closed.DwellMinutes, closed.ID); err != nil {
				return fmt.Errorf("failed to close visit: %w", err)
			}
			if _, err := tx.Exec("UPDATE places SET total_dwell_minutes = total_dwell_minutes + ?, updated_at = ? WHERE id = ?",
				closed.DwellMinutes, now, closed.PlaceID); err != nil {
				return fmt.Errorf("failed to add dwell: %w", err)
			}
		}
		if opened != nil {
			if _, err := tx.Exec(`INSERT INTO place_visits (id, uid, place_id, entered_at, day_of_week, is_routine, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				opened.ID, opened.UID, opened.PlaceID, opened.EnteredAt, opened.DayOfWeek, opened.IsRoutine, opened.CreatedAt); err != nil {
				return fmt.Errorf("failed to open visit: %w", err)
			}
			if _, err := tx.Exec(`UPDATE places SET visit_count = visit_count + 1,
				first_visited = COALESCE(first_visited, ?), last_visited = ?, updated_at = ? WHERE id = ?`,
				opened.EnteredAt, opened.EnteredAt, now, opened.PlaceID); err != nil {
				return fmt.Errorf("failed to bump visit count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var exitedPlace *models.Place
	if closed != nil {
		exitedPlace, _ = t.places.GetByID(fix.UID, closed.PlaceID)
		result.Exited = exitedPlace
		result.ClosedVisit = closed
		st.openVisitID = ""
		st.openPlaceID = ""
		st.enteredAt = 0
	}
	if opened != nil {
		result.Entered = target
		result.Visit = opened
		st.openVisitID = opened.ID
		st.openPlaceID = opened.PlaceID
		st.enteredAt = opened.EnteredAt
	}

	t.afterTransition(fix.UID, exitedPlace, closed, target, opened)
	return result, nil
}

// afterTransition handles cache, triggers and event fan-out. These are
// best effort, a failure never rolls back the committed transition.
func (t *VisitTracker) afterTransition(uid string, exitedPlace *models.Place, closed *models.PlaceVisit, enteredPlace *models.Place, opened *models.PlaceVisit) {
	if exitedPlace != nil && closed != nil {
		t.fireTriggers(uid, exitedPlace, models.TriggerOnExit, closed.ExitedAt)
		if t.hub != nil {
			t.hub.BroadcastVisit(&events.VisitEvent{
				Type:         events.EventPlaceExit,
				UID:          uid,
				PlaceID:      exitedPlace.ID,
				PlaceName:    exitedPlace.Name,
				VisitID:      closed.ID,
				Timestamp:    closed.ExitedAt,
				DwellMinutes: closed.DwellMinutes,
			})
		}
	}

	if enteredPlace != nil && opened != nil {
		if err := t.cache.SetCurrent(uid, &models.CurrentPlace{
			Place:     enteredPlace,
			VisitID:   opened.ID,
			EnteredAt: opened.EnteredAt,
		}); err != nil {
			log.Printf("[Tracker] cache update failed for uid=%s: %v", uid, err)
		}
		t.fireTriggers(uid, enteredPlace, models.TriggerOnEntry, opened.EnteredAt)
		if t.hub != nil {
			t.hub.BroadcastVisit(&events.VisitEvent{
				Type:      events.EventPlaceEntry,
				UID:       uid,
				PlaceID:   enteredPlace.ID,
				PlaceName: enteredPlace.Name,
				VisitID:   opened.ID,
				Timestamp: opened.EnteredAt,
			})
		}
	} else {
		if err := t.cache.Clear(uid); err != nil {
			log.Printf("[Tracker] cache clear failed for uid=%s: %v", uid, err)
		}
	}
}

func (t *VisitTracker) fireTriggers(uid string, place *models.Place, triggerType string, firedAt int64) {
	triggers, err := t.triggers.GetEnabledForPlace(place.ID, triggerType)
	if err != nil {
		log.Printf("[Tracker] trigger lookup failed for place=%s: %v", place.ID, err)
		return
	}

	for _, tr := range triggers {
		if tr.CooldownActive(firedAt) {
			continue
		}
		t.dispatcher.Dispatch(dispatch.Action{
			TriggerID:   tr.ID,
			UID:         uid,
			PlaceID:     place.ID,
			PlaceName:   place.Name,
			TriggerType: tr.TriggerType,
			ActionType:  tr.ActionType,
			Payload:     tr.Payload,
			FiredAt:     firedAt,
		})
		if err := t.triggers.UpdateLastFired(tr.ID, firedAt); err != nil {
			log.Printf("[Tracker] failed to stamp trigger %s: %v", tr.ID, err)
		}
	}
}

// isRoutineVisit checks whether entering this place now matches a
// repeating pattern of past visits
func (t *VisitTracker) isRoutineVisit(uid, placeID string, entered time.Time) (bool, error) {
	hour := entered.Hour()
	hourLo := (hour - routineHourSlack + 24) % 24
	hourHi := (hour + routineHourSlack) % 24
	since := entered.AddDate(0, 0, -routineLookbackDays).Unix()

	count, err := t.visits.CountSimilarVisits(uid, placeID, int(entered.Weekday()), hourLo, hourHi, since)
	if err != nil {
		return false, err
	}
	return count >= routineMinMatches, nil
}

// ForgetPlace clears in-memory state that points at a deleted place.
// The visit rows are already gone via foreign keys.
func (t *VisitTracker) ForgetPlace(uid, placeID string) {
	st := t.stateFor(uid)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.openPlaceID == placeID {
		st.openVisitID = ""
		st.openPlaceID = ""
		st.enteredAt = 0
		if err := t.cache.Clear(uid); err != nil {
			log.Printf("[Tracker] cache clear failed for uid=%s: %v", uid, err)
		}
	}
}
