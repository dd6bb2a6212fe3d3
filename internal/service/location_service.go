package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

// BatchResult summarizes an Overland batch upload
type BatchResult struct {
	Received    int `json:"received"`
	Stored      int `json:"stored"`
	Invalid     int `json:"invalid"`
	Transitions int `json:"transitions"`
}

// LocationService handles the raw fix stream
type LocationService struct {
	locations *repository.LocationRepository
	tracker   *VisitTracker
}

// NewLocationService creates a new location service
func NewLocationService(locations *repository.LocationRepository, tracker *VisitTracker) *LocationService {
	return &LocationService{locations: locations, tracker: tracker}
}

// Ingest runs one fix through the visit tracker and stores it
func (s *LocationService) Ingest(fix *models.LocationFix) (*Transition, error) {
	if fix.RecordedAt == 0 {
		fix.RecordedAt = time.Now().Unix()
	}
	if err := fix.Validate(); err != nil {
		return nil, err
	}

	transition, err := s.tracker.ProcessFix(fix)
	if err != nil {
		return nil, fmt.Errorf("failed to process fix: %w", err)
	}

	if err := s.locations.Insert(fix); err != nil {
		return nil, err
	}
	return transition, nil
}

// IngestOverland converts an Overland GeoJSON batch into fixes, runs
// them through the tracker in timestamp order and stores them
func (s *LocationService) IngestOverland(uid string, payload *models.OverlandPayload) (*BatchResult, error) {
	result := &BatchResult{Received: len(payload.Locations)}

	fixes := make([]models.LocationFix, 0, len(payload.Locations))
	for i := range payload.Locations {
		fix, err := overlandToFix(uid, &payload.Locations[i])
		if err != nil {
			result.Invalid++
			continue
		}
		fixes = append(fixes, *fix)
	}

	sort.Slice(fixes, func(i, j int) bool { return fixes[i].RecordedAt < fixes[j].RecordedAt })

	for i := range fixes {
		transition, err := s.tracker.ProcessFix(&fixes[i])
		if err != nil {
			return nil, fmt.Errorf("failed to process fix: %w", err)
		}
		if transition.Entered != nil || transition.Exited != nil {
			result.Transitions++
		}
	}

	if err := s.locations.InsertBatch(fixes); err != nil {
		return nil, err
	}
	result.Stored = len(fixes)
	return result, nil
}

func overlandToFix(uid string, f *models.OverlandFeature) (*models.LocationFix, error) {
	if len(f.Geometry.Coordinates) != 2 {
		return nil, fmt.Errorf("geometry must carry [lon, lat]")
	}

	recordedAt, err := time.Parse(time.RFC3339, f.Properties.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	fix := &models.LocationFix{
		UID:          uid,
		Longitude:    f.Geometry.Coordinates[0],
		Latitude:     f.Geometry.Coordinates[1],
		Accuracy:     f.Properties.HorizontalAccuracy,
		Speed:        f.Properties.Speed,
		Motion:       strings.Join(f.Properties.Motion, ","),
		BatteryLevel: f.Properties.BatteryLevel,
		DeviceID:     f.Properties.DeviceID,
		RecordedAt:   recordedAt.Unix(),
	}
	if fix.Speed < 0 {
		fix.Speed = 0
	}
	if fix.Accuracy < 0 {
		fix.Accuracy = 0
	}
	if err := fix.Validate(); err != nil {
		return nil, err
	}
	return fix, nil
}

// GetRecent retrieves fixes from the last N hours, newest first
func (s *LocationService) GetRecent(uid string, hours, limit int) ([]models.LocationFix, error) {
	if hours < 1 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
	return s.locations.GetRecent(uid, since, limit)
}

// GetHistory retrieves fixes with filtering and pagination
func (s *LocationService) GetHistory(uid string, filter models.LocationFilter) (*models.LocationsResponse, error) {
	fixes, total, err := s.locations.GetLocations(uid, filter)
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

	return &models.LocationsResponse{
		Data:       fixes,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetSummary aggregates motion states over the last N hours
func (s *LocationService) GetSummary(uid string, hours int) (*models.MotionSummary, error) {
	if hours < 1 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()

	summary, err := s.locations.GetMotionSummary(uid, since)
	if err != nil {
		return nil, err
	}
	summary.Hours = hours
	return summary, nil
}

// Cleanup deletes the user's fixes older than the given number of days
func (s *LocationService) Cleanup(uid string, days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("days must be at least 1")
	}
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	return s.locations.DeleteOlderThan(uid, cutoff)
}
