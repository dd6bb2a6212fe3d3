package models

import (
	"fmt"
	"math"
)

// Place categories
const (
	CategoryHome       = "home"
	CategoryWork       = "work"
	CategorySchool     = "school"
	CategoryGym        = "gym"
	CategoryRestaurant = "restaurant"
	CategoryShopping   = "shopping"
	CategoryMedical    = "medical"
	CategoryFamily     = "family"
	CategoryFriend     = "friend"
	CategoryOther      = "other"
)

var placeCategories = map[string]bool{
	CategoryHome:       true,
	CategoryWork:       true,
	CategorySchool:     true,
	CategoryGym:        true,
	CategoryRestaurant: true,
	CategoryShopping:   true,
	CategoryMedical:    true,
	CategoryFamily:     true,
	CategoryFriend:     true,
	CategoryOther:      true,
}

// IsValidCategory reports whether c is a known place category
func IsValidCategory(c string) bool {
	return placeCategories[c]
}

// Place represents a named location with a circular geofence
type Place struct {
	ID           string  `json:"id" db:"id"`
	UID          string  `json:"uid" db:"uid"`
	Name         string  `json:"name" db:"name"`
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	RadiusMeters float64 `json:"radiusMeters" db:"radius_meters"`
	Category     string  `json:"category" db:"category"`
	Address      string  `json:"address,omitempty" db:"address"`

	IsAutoDetected bool `json:"isAutoDetected" db:"is_auto_detected"`
	IsConfirmed    bool `json:"isConfirmed" db:"is_confirmed"`

	// Visit counters, only ever increased by the tracker
	VisitCount        int     `json:"visitCount" db:"visit_count"`
	TotalDwellMinutes float64 `json:"totalDwellMinutes" db:"total_dwell_minutes"`
	FirstVisited      int64   `json:"firstVisited,omitempty" db:"first_visited"` // Unix timestamp, 0 = never
	LastVisited       int64   `json:"lastVisited,omitempty" db:"last_visited"`   // Unix timestamp, 0 = never

	CreatedAt int64 `json:"createdAt" db:"created_at"` // Unix timestamp
	UpdatedAt int64 `json:"updatedAt" db:"updated_at"` // Unix timestamp
}

// Validate checks the fields a caller must supply
func (p *Place) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return fmt.Errorf("latitude and longitude must be numbers")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %g out of range", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %g out of range", p.Longitude)
	}
	if p.RadiusMeters <= 0 || math.IsNaN(p.RadiusMeters) {
		return fmt.Errorf("radiusMeters must be positive")
	}
	if p.Category != "" && !IsValidCategory(p.Category) {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	return nil
}

// UpdatePlaceRequest carries the editable place fields. Nil fields are
// left untouched.
type UpdatePlaceRequest struct {
	Name         *string  `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters *float64 `json:"radiusMeters"`
	Category     *string  `json:"category"`
	Address      *string  `json:"address"`
	IsConfirmed  *bool    `json:"isConfirmed"`
}

// PlaceFilter represents filter parameters for querying places
type PlaceFilter struct {
	Category    string `form:"category"`
	IsConfirmed *bool  `form:"isConfirmed"`
	Page        int    `form:"page"`
	PageSize    int    `form:"pageSize"`
}

// PlacesResponse represents a paginated response of places
type PlacesResponse struct {
	Data       []Place `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

// NearbyPlace is a place annotated with its distance from a query point
type NearbyPlace struct {
	Place
	DistanceMeters float64 `json:"distanceMeters"`
}
