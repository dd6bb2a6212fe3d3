package service

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
	"github.com/oriolus/dwell/internal/spatial"
)

// Fixes faster than this are transit, not candidates for a place
const movingSpeedThreshold = 2.0 // m/s

// Suggested geofence radii stay inside this band
const (
	minSuggestedRadius = 50.0
	maxSuggestedRadius = 250.0
)

// PlaceDiscoveryService finds repeatedly visited spots that are not
// saved places yet
type PlaceDiscoveryService struct {
	locations   *repository.LocationRepository
	places      *repository.PlaceRepository
	suggestions *repository.SuggestionRepository

	defaultDays      int
	defaultMinVisits int
	clusterRadius    float64
	occurrenceGap    time.Duration
	cacheTTL         time.Duration
}

// NewPlaceDiscoveryService creates a new discovery service
func NewPlaceDiscoveryService(
	locations *repository.LocationRepository,
	places *repository.PlaceRepository,
	suggestions *repository.SuggestionRepository,
	defaultDays, defaultMinVisits int,
	clusterRadiusMeters float64,
	occurrenceGap, cacheTTL time.Duration,
) *PlaceDiscoveryService {
	return &PlaceDiscoveryService{
		locations:        locations,
		places:           places,
		suggestions:      suggestions,
		defaultDays:      defaultDays,
		defaultMinVisits: defaultMinVisits,
		clusterRadius:    clusterRadiusMeters,
		occurrenceGap:    occurrenceGap,
		cacheTTL:         cacheTTL,
	}
}

type cluster struct {
	center spatial.Point
	points []spatial.Point
	times  []int64
}

// Discover returns suggested places from the user's recent fixes.
// Cached results are served until they age out unless force is set.
func (s *PlaceDiscoveryService) Discover(uid string, days, minVisits int, force bool) (*models.DiscoveryResult, error) {
	if days <= 0 {
		days = s.defaultDays
	}
	if minVisits <= 0 {
		minVisits = s.defaultMinVisits
	}

	if !force {
		cached, ok, err := s.suggestions.GetCached(uid, minVisits, days, int64(s.cacheTTL.Seconds()))
		if err != nil {
			return nil, err
		}
		if ok {
			return &models.DiscoveryResult{Suggestions: cached, FromCache: true}, nil
		}
	}

	result, err := s.compute(uid, days, minVisits)
	if err != nil {
		return nil, err
	}

	if err := s.suggestions.ReplaceForUser(uid, minVisits, days, result.Suggestions); err != nil {
		return nil, err
	}
	return result, nil
}

// RefreshSuggestions recomputes and caches suggestions with defaults.
// The background refresh job calls this per user.
func (s *PlaceDiscoveryService) RefreshSuggestions(uid string) (int, error) {
	result, err := s.Discover(uid, 0, 0, true)
	if err != nil {
		return 0, err
	}
	return len(result.Suggestions), nil
}

func (s *PlaceDiscoveryService) compute(uid string, days, minVisits int) (*models.DiscoveryResult, error) {
	now := time.Now()
	fixes, err := s.locations.GetWindow(uid, now.AddDate(0, 0, -days).Unix(), now.Unix())
	if err != nil {
		return nil, err
	}
	known, err := s.places.GetAllForUser(uid, true)
	if err != nil {
		return nil, err
	}

	result := &models.DiscoveryResult{}
	var clusters []*cluster

	for i := range fixes {
		f := &fixes[i]
		result.Scanned++

		if f.Speed > movingSpeedThreshold || strings.Contains(f.Motion, "driving") {
			result.Skipped++
			continue
		}
		if insideKnownPlace(known, f.Latitude, f.Longitude) {
			result.Skipped++
			continue
		}

		p := spatial.Point{Lat: f.Latitude, Lon: f.Longitude}
		c := nearestCluster(clusters, p, s.clusterRadius)
		if c == nil {
			c = &cluster{center: p}
			clusters = append(clusters, c)
		} else {
			c.center = spatial.MergeCentroid(c.center, len(c.points), p)
		}
		c.points = append(c.points, p)
		c.times = append(c.times, f.RecordedAt)
	}

	gap := int64(s.occurrenceGap.Seconds())
	for _, c := range clusters {
		runs := occurrenceRuns(c.times, gap)
		if len(runs) < minVisits {
			continue
		}

		radius := 2 * spatial.RadiusOfGyration(c.points)
		if radius < minSuggestedRadius {
			radius = minSuggestedRadius
		}
		if radius > maxSuggestedRadius {
			radius = maxSuggestedRadius
		}

		result.Suggestions = append(result.Suggestions, models.PlaceSuggestion{
			ID:                uuid.New().String(),
			UID:               uid,
			Latitude:          c.center.Lat,
			Longitude:         c.center.Lon,
			SuggestedRadiusM:  radius,
			VisitCount:        len(runs),
			FixCount:          len(c.points),
			SuggestedCategory: suggestCategory(runs),
			FirstSeen:         c.times[0],
			LastSeen:          c.times[len(c.times)-1],
		})
	}

	sort.Slice(result.Suggestions, func(i, j int) bool {
		a, b := result.Suggestions[i], result.Suggestions[j]
		if a.VisitCount != b.VisitCount {
			return a.VisitCount > b.VisitCount
		}
		return a.FixCount > b.FixCount
	})

	return result, nil
}

func insideKnownPlace(places []models.Place, lat, lon float64) bool {
	for i := range places {
		p := &places[i]
		if spatial.WithinRadius(lat, lon, p.Latitude, p.Longitude, p.RadiusMeters) {
			return true
		}
	}
	return false
}

func nearestCluster(clusters []*cluster, p spatial.Point, radius float64) *cluster {
	var best *cluster
	bestDist := radius
	for _, c := range clusters {
		d := spatial.HaversineDistance(p.Lat, p.Lon, c.center.Lat, c.center.Lon)
		if d <= bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

type timeRun struct {
	start int64
	end   int64
}

// occurrenceRuns splits ordered timestamps into separate stays wherever
// the gap between consecutive samples exceeds the threshold
func occurrenceRuns(times []int64, gapSeconds int64) []timeRun {
	if len(times) == 0 {
		return nil
	}

	runs := []timeRun{{start: times[0], end: times[0]}}
	for _, t := range times[1:] {
		last := &runs[len(runs)-1]
		if t-last.end > gapSeconds {
			runs = append(runs, timeRun{start: t, end: t})
		} else {
			last.end = t
		}
	}
	return runs
}

// suggestCategory guesses what kind of place the stays describe. Each
// run votes, majority wins, other on no clear signal.
func suggestCategory(runs []timeRun) string {
	votes := make(map[string]int)
	for _, run := range runs {
		votes[classifyRun(run)]++
	}

	best := models.CategoryOther
	bestVotes := 0
	for category, n := range votes {
		if category == models.CategoryOther {
			continue
		}
		if n > bestVotes {
			best = category
			bestVotes = n
		}
	}
	if bestVotes*2 < len(runs) {
		return models.CategoryOther
	}
	return best
}

func classifyRun(run timeRun) string {
	start := time.Unix(run.start, 0)
	end := time.Unix(run.end, 0)
	duration := end.Sub(start)

	// Long stays touching the small hours look like home
	if duration >= 6*time.Hour && coversNight(start, end) {
		return models.CategoryHome
	}

	// Long weekday daytime stays look like work
	weekday := start.Weekday()
	if weekday >= time.Monday && weekday <= time.Friday &&
		start.Hour() >= 8 && start.Hour() <= 18 && duration >= 4*time.Hour {
		return models.CategoryWork
	}

	// Meal-length stays at meal hours look like a restaurant
	h := start.Hour()
	if ((h >= 11 && h <= 14) || (h >= 18 && h <= 21)) &&
		duration >= 30*time.Minute && duration <= 2*time.Hour {
		return models.CategoryRestaurant
	}

	return models.CategoryOther
}

// coversNight reports whether the span includes any hour in 0..5 local
func coversNight(start, end time.Time) bool {
	if end.Sub(start) >= 24*time.Hour {
		return true
	}
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		if t.Hour() <= 5 {
			return true
		}
	}
	return end.Hour() <= 5
}

// Confirm turns a suggestion into a saved place. When a cached
// suggestion sits near the confirmed coordinates its observed counters
// seed the new place.
func (s *PlaceDiscoveryService) Confirm(uid string, req *models.ConfirmSuggestionRequest) (*models.Place, error) {
	place := &models.Place{
		ID:             uuid.New().String(),
		UID:            uid,
		Name:           req.Name,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		RadiusMeters:   req.RadiusMeters,
		Category:       req.Category,
		IsAutoDetected: true,
		IsConfirmed:    true,
	}

	// roughly 200m in degrees
	suggestion, err := s.suggestions.GetByLocation(uid, req.Latitude, req.Longitude, 0.002)
	if err != nil {
		return nil, err
	}
	if suggestion != nil {
		if place.RadiusMeters == 0 {
			place.RadiusMeters = suggestion.SuggestedRadiusM
		}
		if place.Category == "" {
			place.Category = suggestion.SuggestedCategory
		}
		place.VisitCount = suggestion.VisitCount
		place.FirstVisited = suggestion.FirstSeen
		place.LastVisited = suggestion.LastSeen
	}

	if place.RadiusMeters == 0 {
		place.RadiusMeters = minSuggestedRadius * 2
	}
	if place.Category == "" {
		place.Category = models.CategoryOther
	}

	if err := place.Validate(); err != nil {
		return nil, err
	}
	if err := s.places.Create(place); err != nil {
		return nil, err
	}

	if suggestion != nil {
		if err := s.suggestions.DeleteByID(uid, suggestion.ID); err != nil {
			return nil, err
		}
	}
	return place, nil
}
