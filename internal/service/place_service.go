package service

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/cache"
	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
	"github.com/oriolus/dwell/internal/spatial"
	"github.com/oriolus/dwell/internal/stats"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// PlaceService handles place management and the read-side queries built
// on top of visits
type PlaceService struct {
	places        *repository.PlaceRepository
	visits        *repository.VisitRepository
	routines      *repository.RoutineRepository
	cache         *cache.CurrentPlaceCache
	tracker       *VisitTracker
	defaultRadius float64
}

// NewPlaceService creates a new place service
func NewPlaceService(
	places *repository.PlaceRepository,
	visits *repository.VisitRepository,
	routines *repository.RoutineRepository,
	currentCache *cache.CurrentPlaceCache,
	tracker *VisitTracker,
	defaultRadiusMeters float64,
) *PlaceService {
	return &PlaceService{
		places:        places,
		visits:        visits,
		routines:      routines,
		cache:         currentCache,
		tracker:       tracker,
		defaultRadius: defaultRadiusMeters,
	}
}

// Create validates and stores a new place
func (s *PlaceService) Create(uid string, p *models.Place) error {
	p.ID = uuid.New().String()
	p.UID = uid
	if p.RadiusMeters == 0 {
		p.RadiusMeters = s.defaultRadius
	}
	if p.Category == "" {
		p.Category = models.CategoryOther
	}
	p.IsConfirmed = true
	p.VisitCount = 0
	p.TotalDwellMinutes = 0
	p.FirstVisited = 0
	p.LastVisited = 0

	if err := p.Validate(); err != nil {
		return err
	}
	return s.places.Create(p)
}

// GetByID retrieves one place, nil when it does not exist
func (s *PlaceService) GetByID(uid, id string) (*models.Place, error) {
	return s.places.GetByID(uid, id)
}

// List retrieves places with filtering and pagination
func (s *PlaceService) List(uid string, filter models.PlaceFilter) (*models.PlacesResponse, error) {
	places, total, err := s.places.GetPlaces(uid, filter)
	if err != nil {
		return nil, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))

	return &models.PlacesResponse{
		Data:       places,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Update applies the non-nil fields of the request to a place.
// Returns the updated place, nil when the place does not exist.
func (s *PlaceService) Update(uid, id string, req *models.UpdatePlaceRequest) (*models.Place, error) {
	p, err := s.places.GetByID(uid, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Latitude != nil {
		p.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		p.Longitude = *req.Longitude
	}
	if req.RadiusMeters != nil {
		p.RadiusMeters = *req.RadiusMeters
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.IsConfirmed != nil {
		p.IsConfirmed = *req.IsConfirmed
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.places.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a place. Visits, tags, triggers, list memberships and
// memory links cascade, and tracker state pointing at it is cleared.
func (s *PlaceService) Delete(uid, id string) (bool, error) {
	deleted, err := s.places.Delete(uid, id)
	if err != nil {
		return false, err
	}
	if deleted && s.tracker != nil {
		s.tracker.ForgetPlace(uid, id)
	}
	return deleted, nil
}

// GetNearby retrieves places within radiusMeters of a point, closest first
func (s *PlaceService) GetNearby(uid string, lat, lon, radiusMeters float64, limit int) ([]models.NearbyPlace, error) {
	if radiusMeters <= 0 {
		radiusMeters = 500
	}
	if limit < 1 {
		limit = 20
	}

	places, err := s.places.GetAllForUser(uid, false)
	if err != nil {
		return nil, err
	}

	minLat, minLon, maxLat, maxLon := spatial.ExpandBoundingBox(lat, lon, lat, lon, radiusMeters)

	var nearby []models.NearbyPlace
	for i := range places {
		p := places[i]
		if p.Latitude < minLat || p.Latitude > maxLat || p.Longitude < minLon || p.Longitude > maxLon {
			continue
		}
		d := spatial.HaversineDistance(lat, lon, p.Latitude, p.Longitude)
		if d > radiusMeters {
			continue
		}
		nearby = append(nearby, models.NearbyPlace{Place: p, DistanceMeters: d})
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceMeters < nearby[j].DistanceMeters })
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// GetMostVisited retrieves the user's places by visit count
func (s *PlaceService) GetMostVisited(uid string, limit int) ([]models.Place, error) {
	return s.places.GetMostVisited(uid, limit)
}

// GetCurrent answers where the user is right now, nil when outside all
// geofences. Redis first, database fallback.
func (s *PlaceService) GetCurrent(uid string) (*models.CurrentPlace, error) {
	if cached, err := s.cache.GetCurrent(uid); err == nil && cached != nil && cached.Place != nil {
		cached.MinutesAtPlace = float64(time.Now().Unix()-cached.EnteredAt) / 60.0
		return cached, nil
	} else if err != nil {
		log.Printf("[Places] cache read failed for uid=%s: %v", uid, err)
	}

	open, err := s.visits.GetOpenVisit(uid)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	place, err := s.places.GetByID(uid, open.PlaceID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, nil
	}

	current := &models.CurrentPlace{
		Place:          place,
		VisitID:        open.ID,
		EnteredAt:      open.EnteredAt,
		MinutesAtPlace: float64(time.Now().Unix()-open.EnteredAt) / 60.0,
	}
	if err := s.cache.SetCurrent(uid, current); err != nil {
		log.Printf("[Places] cache refresh failed for uid=%s: %v", uid, err)
	}
	return current, nil
}

// GetContext builds the one-call snapshot: current place, nearby places
// when coordinates are given, and the routine-expected place for this
// hour
func (s *PlaceService) GetContext(uid string, lat, lon float64, hasPoint bool) (*models.PlaceContext, error) {
	now := time.Now()
	ctx := &models.PlaceContext{
		LocalHour: now.Hour(),
		DayOfWeek: int(now.Weekday()),
	}

	current, err := s.GetCurrent(uid)
	if err != nil {
		return nil, err
	}
	ctx.Current = current

	if hasPoint {
		nearby, err := s.GetNearby(uid, lat, lon, 500, 5)
		if err != nil {
			return nil, err
		}
		ctx.Nearby = nearby
	}

	routine, err := s.routines.GetBestForSlot(uid, ctx.DayOfWeek, ctx.LocalHour)
	if err != nil {
		return nil, err
	}
	if routine != nil {
		typical, err := s.places.GetByID(uid, routine.PlaceID)
		if err != nil {
			return nil, err
		}
		ctx.TypicalPlace = typical
	}

	return ctx, nil
}

// GetStats aggregates visit behavior for one place, nil when the place
// does not exist
func (s *PlaceService) GetStats(uid, placeID string) (*models.PlaceStats, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, nil
	}

	visits, err := s.visits.GetCompletedForPlace(uid, placeID)
	if err != nil {
		return nil, err
	}

	ps := &models.PlaceStats{
		PlaceID:           place.ID,
		PlaceName:         place.Name,
		TotalVisits:       len(visits),
		TotalDwellMinutes: place.TotalDwellMinutes,
		FirstVisited:      place.FirstVisited,
		LastVisited:       place.LastVisited,
	}

	memories, err := s.places.CountMemories(placeID)
	if err != nil {
		return nil, err
	}
	ps.LinkedMemoryCount = memories

	if len(visits) == 0 {
		return ps, nil
	}

	dwells := make([]float64, 0, len(visits))
	hours := make([]int, 0, len(visits))
	routineCount := 0
	for _, v := range visits {
		dwells = append(dwells, v.DwellMinutes)
		entered := time.Unix(v.EnteredAt, 0)
		hours = append(hours, entered.Hour())
		ps.VisitsByHour[entered.Hour()]++
		ps.VisitsByDay[v.DayOfWeek%7]++
		if v.IsRoutine {
			routineCount++
		}
	}

	ps.AvgDwellMinutes = stats.Mean(dwells)
	ps.MedianDwellMinutes = stats.Median(dwells)
	ps.P90DwellMinutes = stats.Quantile(dwells, 0.9)
	ps.TypicalHour = spatial.MeanHour(hours)
	ps.RoutineVisitPercent = float64(routineCount) / float64(len(visits)) * 100.0

	ps.CommonDays = topDays(ps.VisitsByDay, 3)
	ps.CommonHours = topHours(ps.VisitsByHour, 3)

	return ps, nil
}

func topDays(byDay [7]int, n int) []string {
	type entry struct {
		day   int
		count int
	}
	entries := make([]entry, 0, 7)
	for d, c := range byDay {
		if c > 0 {
			entries = append(entries, entry{day: d, count: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].day < entries[j].day
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	days := make([]string, 0, len(entries))
	for _, e := range entries {
		days = append(days, dayNames[e.day])
	}
	return days
}

func topHours(byHour [24]int, n int) []int {
	type entry struct {
		hour  int
		count int
	}
	entries := make([]entry, 0, 24)
	for h, c := range byHour {
		if c > 0 {
			entries = append(entries, entry{hour: h, count: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].hour < entries[j].hour
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	hours := make([]int, 0, len(entries))
	for _, e := range entries {
		hours = append(hours, e.hour)
	}
	return hours
}

// GetRoutinesForPlace retrieves the cached routines anchored at a place
func (s *PlaceService) GetRoutinesForPlace(uid, placeID string) ([]models.Routine, error) {
	return s.routines.GetForPlace(uid, placeID)
}

// GetVisits retrieves visits with filtering and pagination
func (s *PlaceService) GetVisits(uid string, filter models.VisitFilter) (*models.VisitsResponse, error) {
	visits, total, err := s.visits.GetVisits(uid, filter)
	if err != nil {
		return nil, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))

	return &models.VisitsResponse{
		Data:       visits,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// EnsureHomePlace seeds a home place from configuration when the user
// has no place named Home yet
func (s *PlaceService) EnsureHomePlace(uid string, lat, lon float64) error {
	existing, err := s.places.GetByName(uid, "Home")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	home := &models.Place{
		Name:           "Home",
		Latitude:       lat,
		Longitude:      lon,
		Category:       models.CategoryHome,
		IsAutoDetected: true,
	}
	if err := s.Create(uid, home); err != nil {
		return fmt.Errorf("failed to seed home place: %w", err)
	}
	log.Printf("[Places] seeded home place for uid=%s at %.5f,%.5f", uid, lat, lon)
	return nil
}

// LinkMemory attaches an external memory reference to a place
func (s *PlaceService) LinkMemory(uid, placeID, memoryID string) (bool, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return false, err
	}
	if place == nil {
		return false, nil
	}
	if err := s.places.LinkMemory(placeID, memoryID); err != nil {
		return false, err
	}
	return true, nil
}

// UnlinkMemory removes a memory reference from a place
func (s *PlaceService) UnlinkMemory(uid, placeID, memoryID string) (bool, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return false, err
	}
	if place == nil {
		return false, nil
	}
	return s.places.UnlinkMemory(placeID, memoryID)
}
