package models

import (
	"fmt"
	"math"
)

// LocationFix represents a single GPS sample from a device
type LocationFix struct {
	ID           int64   `json:"id" db:"id"`
	UID          string  `json:"uid" db:"uid"`
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	Accuracy     float64 `json:"accuracy,omitempty" db:"accuracy"` // Horizontal accuracy in meters, 0 = unknown
	Speed        float64 `json:"speed,omitempty" db:"speed"`       // Meters per second
	Motion       string  `json:"motion,omitempty" db:"motion"`     // e.g. "walking", "driving", "stationary"
	BatteryLevel float64 `json:"batteryLevel,omitempty" db:"battery_level"`
	DeviceID     string  `json:"deviceId,omitempty" db:"device_id"`
	RecordedAt   int64   `json:"recordedAt" db:"recorded_at"` // Unix timestamp
	CreatedAt    int64   `json:"createdAt,omitempty" db:"created_at"`
}

// Validate checks coordinates and timestamp
func (f *LocationFix) Validate() error {
	if math.IsNaN(f.Latitude) || math.IsNaN(f.Longitude) {
		return fmt.Errorf("latitude and longitude must be numbers")
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("latitude %g out of range", f.Latitude)
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("longitude %g out of range", f.Longitude)
	}
	if f.RecordedAt <= 0 {
		return fmt.Errorf("recordedAt is required")
	}
	if f.Accuracy < 0 || math.IsNaN(f.Accuracy) {
		return fmt.Errorf("accuracy must be non-negative")
	}
	return nil
}

// LocationFilter represents filter parameters for querying stored fixes
type LocationFilter struct {
	StartTime int64  `form:"startTime"` // Unix timestamp
	EndTime   int64  `form:"endTime"`   // Unix timestamp
	Motion    string `form:"motion"`
	DeviceID  string `form:"deviceId"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// LocationsResponse represents a paginated response of fixes
type LocationsResponse struct {
	Data       []LocationFix `json:"data"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// MotionSummary aggregates recent fixes by motion state
type MotionSummary struct {
	Hours      int            `json:"hours"`
	TotalFixes int            `json:"totalFixes"`
	ByMotion   map[string]int `json:"byMotion"`
	FirstSeen  int64          `json:"firstSeen,omitempty"` // Unix timestamp
	LastSeen   int64          `json:"lastSeen,omitempty"`  // Unix timestamp
}

// OverlandFeature is one GeoJSON feature in an Overland batch upload
type OverlandFeature struct {
	Type     string `json:"type"`
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties struct {
		Timestamp          string   `json:"timestamp"` // RFC3339
		HorizontalAccuracy float64  `json:"horizontal_accuracy"`
		Speed              float64  `json:"speed"`
		Motion             []string `json:"motion"`
		BatteryLevel       float64  `json:"battery_level"`
		DeviceID           string   `json:"device_id"`
	} `json:"properties"`
}

// OverlandPayload is the batch body the Overland mobile app posts
type OverlandPayload struct {
	Locations []OverlandFeature `json:"locations"`
}
