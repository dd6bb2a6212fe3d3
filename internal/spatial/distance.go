package spatial

import (
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// WithinRadius reports whether (lat, lon) lies inside the circular geofence
// centered at (centerLat, centerLon). The boundary counts as inside.
func WithinRadius(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	if radiusMeters < 0 {
		return false
	}
	return HaversineDistance(lat, lon, centerLat, centerLon) <= radiusMeters
}
