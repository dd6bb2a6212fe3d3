package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

// RoutineService mines completed visits for recurring weekly patterns
type RoutineService struct {
	visits   *repository.VisitRepository
	places   *repository.PlaceRepository
	routines *repository.RoutineRepository

	defaultDays    int
	minOccurrences int
	minConfidence  float64
	cacheTTL       time.Duration
}

// NewRoutineService creates a new routine service
func NewRoutineService(
	visits *repository.VisitRepository,
	places *repository.PlaceRepository,
	routines *repository.RoutineRepository,
	defaultDays, minOccurrences int,
	minConfidence float64,
	cacheTTL time.Duration,
) *RoutineService {
	return &RoutineService{
		visits:         visits,
		places:         places,
		routines:       routines,
		defaultDays:    defaultDays,
		minOccurrences: minOccurrences,
		minConfidence:  minConfidence,
		cacheTTL:       cacheTTL,
	}
}

type slotKey struct {
	placeID   string
	dayOfWeek int
	hour      int
}

// Detect returns the user's routines over the lookback window. Cached
// results are served until they age out unless force is set.
func (s *RoutineService) Detect(uid string, days int, force bool) (*models.RoutinesResult, error) {
	if days <= 0 {
		days = s.defaultDays
	}

	if !force {
		cached, ok, err := s.routines.GetCached(uid, days, int64(s.cacheTTL.Seconds()))
		if err != nil {
			return nil, err
		}
		if ok {
			return &models.RoutinesResult{Routines: cached, FromCache: true}, nil
		}
	}

	result, err := s.compute(uid, days)
	if err != nil {
		return nil, err
	}

	if err := s.routines.ReplaceForUser(uid, days, result.Routines); err != nil {
		return nil, err
	}
	return result, nil
}

// RefreshRoutines recomputes and caches routines with defaults. The
// background refresh job calls this per user.
func (s *RoutineService) RefreshRoutines(uid string) (int, error) {
	result, err := s.Detect(uid, 0, true)
	if err != nil {
		return 0, err
	}
	return len(result.Routines), nil
}

func (s *RoutineService) compute(uid string, days int) (*models.RoutinesResult, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	visits, err := s.visits.GetCompletedSince(uid, since.Unix())
	if err != nil {
		return nil, err
	}

	result := &models.RoutinesResult{Scanned: len(visits)}
	if len(visits) == 0 {
		return result, nil
	}

	buckets := make(map[slotKey]int)
	for _, v := range visits {
		entered := time.Unix(v.EnteredAt, 0)
		key := slotKey{placeID: v.PlaceID, dayOfWeek: int(entered.Weekday()), hour: entered.Hour()}
		buckets[key]++
	}

	weekdayCounts := countWeekdays(since, now)
	placeNames, err := s.placeNames(uid)
	if err != nil {
		return nil, err
	}

	for key, occurrences := range buckets {
		if occurrences < s.minOccurrences {
			result.Skipped++
			continue
		}

		denom := weekdayCounts[key.dayOfWeek]
		if denom == 0 {
			result.Skipped++
			continue
		}
		confidence := float64(occurrences) / float64(denom)
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence < s.minConfidence {
			result.Skipped++
			continue
		}

		name := placeNames[key.placeID]
		if name == "" {
			// place deleted since the visit
			result.Skipped++
			continue
		}

		result.Routines = append(result.Routines, models.Routine{
			ID:              uuid.New().String(),
			UID:             uid,
			PlaceID:         key.placeID,
			PlaceName:       name,
			DayOfWeek:       key.dayOfWeek,
			Hour:            key.hour,
			OccurrenceCount: occurrences,
			Confidence:      confidence,
			Band:            models.ConfidenceBand(confidence),
			Description:     describeRoutine(name, key.dayOfWeek, key.hour),
		})
	}

	sort.Slice(result.Routines, func(i, j int) bool {
		a, b := result.Routines[i], result.Routines[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.OccurrenceCount != b.OccurrenceCount {
			return a.OccurrenceCount > b.OccurrenceCount
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		return a.Hour < b.Hour
	})

	return result, nil
}

// countWeekdays counts how often each weekday occurs in the window.
// The still-running current day is left out so a pattern hit on every
// past occurrence scores a full 1.0.
func countWeekdays(since, until time.Time) [7]int {
	var counts [7]int
	day := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, since.Location())
	today := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, until.Location())
	for day.Before(today) {
		counts[int(day.Weekday())]++
		day = day.AddDate(0, 0, 1)
	}
	return counts
}

func (s *RoutineService) placeNames(uid string) (map[string]string, error) {
	places, err := s.places.GetAllForUser(uid, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(places))
	for _, p := range places {
		names[p.ID] = p.Name
	}
	return names, nil
}

func describeRoutine(placeName string, dayOfWeek, hour int) string {
	return fmt.Sprintf("Usually at %s around %02d:00 on %ss", placeName, hour, dayNames[dayOfWeek])
}

// CheckDeviation compares where the user is against the strongest
// routine for the current weekday and hour
func (s *RoutineService) CheckDeviation(uid string) (*models.DeviationResult, error) {
	now := time.Now()
	result := &models.DeviationResult{}

	routine, err := s.routines.GetBestForSlot(uid, int(now.Weekday()), now.Hour())
	if err != nil {
		return nil, err
	}
	if routine == nil {
		return result, nil
	}
	result.Routine = routine
	result.ExpectedPlace = routine.PlaceName

	open, err := s.visits.GetOpenVisit(uid)
	if err != nil {
		return nil, err
	}
	if open != nil {
		place, err := s.places.GetByID(uid, open.PlaceID)
		if err != nil {
			return nil, err
		}
		if place != nil {
			result.CurrentPlace = place.Name
			result.IsDeviation = place.ID != routine.PlaceID
			return result, nil
		}
	}

	result.IsDeviation = true
	return result, nil
}
