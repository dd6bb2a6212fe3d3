package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// Centroid calculates the geographic centroid of a set of points
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lon: sumLon / float64(len(points)),
	}
}

// MergeCentroid folds a new point into a running centroid of count points
// and returns the updated centroid. count is the size before the merge.
func MergeCentroid(center Point, count int, p Point) Point {
	if count <= 0 {
		return p
	}
	n := float64(count)
	return Point{
		Lat: (center.Lat*n + p.Lat) / (n + 1),
		Lon: (center.Lon*n + p.Lon) / (n + 1),
	}
}

// RadiusOfGyration calculates the radius of gyration for a set of points
// This measures the spatial dispersion around the centroid
func RadiusOfGyration(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}

	center := Centroid(points)

	var sumSquaredDist float64
	for _, p := range points {
		dist := HaversineDistance(center.Lat, center.Lon, p.Lat, p.Lon)
		sumSquaredDist += dist * dist
	}

	return math.Sqrt(sumSquaredDist / float64(len(points)))
}

// BoundingBox calculates the bounding box of a set of points
// Returns (minLat, minLon, maxLat, maxLon)
func BoundingBox(points []Point) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon

	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}

	return minLat, minLon, maxLat, maxLon
}

// ExpandBoundingBox grows a bounding box by the given margin in meters.
// Useful as a cheap prefilter before exact haversine checks.
func ExpandBoundingBox(minLat, minLon, maxLat, maxLon, marginMeters float64) (float64, float64, float64, float64) {
	latMargin := marginMeters / 111320.0
	// Longitude degrees shrink with latitude; use the widest latitude in the box
	widest := math.Max(math.Abs(minLat), math.Abs(maxLat))
	cosLat := math.Cos(widest * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonMargin := marginMeters / (111320.0 * cosLat)

	return minLat - latMargin, minLon - lonMargin, maxLat + latMargin, maxLon + lonMargin
}
