package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCentroid checks the arithmetic centroid of point sets.
func TestCentroid(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   Point
	}{
		{
			name:   "empty",
			points: nil,
			want:   Point{},
		},
		{
			name:   "single point",
			points: []Point{{Lat: 40.0, Lon: -73.0}},
			want:   Point{Lat: 40.0, Lon: -73.0},
		},
		{
			name: "symmetric square",
			points: []Point{
				{Lat: 40.0, Lon: -74.0},
				{Lat: 40.0, Lon: -73.0},
				{Lat: 41.0, Lon: -74.0},
				{Lat: 41.0, Lon: -73.0},
			},
			want: Point{Lat: 40.5, Lon: -73.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Centroid(tt.points)
			assert.InDelta(t, tt.want.Lat, got.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lon, got.Lon, 1e-9)
		})
	}
}

// TestMergeCentroid checks the incremental centroid update.
func TestMergeCentroid(t *testing.T) {
	t.Run("zero count adopts the new point", func(t *testing.T) {
		got := MergeCentroid(Point{Lat: 10, Lon: 10}, 0, Point{Lat: 48.1, Lon: 11.5})
		assert.Equal(t, Point{Lat: 48.1, Lon: 11.5}, got)
	})

	t.Run("running merge matches batch centroid", func(t *testing.T) {
		points := []Point{
			{Lat: 48.1000, Lon: 11.5000},
			{Lat: 48.1004, Lon: 11.5002},
			{Lat: 48.1002, Lon: 11.5006},
			{Lat: 48.0998, Lon: 11.5004},
		}

		center := points[0]
		for i, p := range points[1:] {
			center = MergeCentroid(center, i+1, p)
		}

		batch := Centroid(points)
		assert.InDelta(t, batch.Lat, center.Lat, 1e-9)
		assert.InDelta(t, batch.Lon, center.Lon, 1e-9)
	})
}

// TestRadiusOfGyration checks the dispersion measure around the centroid.
func TestRadiusOfGyration(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, RadiusOfGyration(nil))
	})

	t.Run("identical points", func(t *testing.T) {
		points := []Point{{Lat: 48.1, Lon: 11.5}, {Lat: 48.1, Lon: 11.5}}
		assert.InDelta(t, 0.0, RadiusOfGyration(points), 0.001)
	})

	t.Run("symmetric pair", func(t *testing.T) {
		// Both points sit one millidegree of latitude from the centroid.
		points := []Point{
			{Lat: 48.099, Lon: 11.5},
			{Lat: 48.101, Lon: 11.5},
		}
		assert.InDelta(t, 111.19, RadiusOfGyration(points), 0.5)
	})
}

// TestBoundingBox checks min/max extraction and the meter-margin expansion.
func TestBoundingBox(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		minLat, minLon, maxLat, maxLon := BoundingBox(nil)
		assert.Equal(t, 0.0, minLat)
		assert.Equal(t, 0.0, minLon)
		assert.Equal(t, 0.0, maxLat)
		assert.Equal(t, 0.0, maxLon)
	})

	t.Run("spans all points", func(t *testing.T) {
		points := []Point{
			{Lat: 40.0, Lon: -74.0},
			{Lat: 41.0, Lon: -73.0},
			{Lat: 40.5, Lon: -73.5},
		}

		minLat, minLon, maxLat, maxLon := BoundingBox(points)
		assert.Equal(t, 40.0, minLat)
		assert.Equal(t, -74.0, minLon)
		assert.Equal(t, 41.0, maxLat)
		assert.Equal(t, -73.0, maxLon)
	})
}

func TestExpandBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := ExpandBoundingBox(48.0, 11.0, 48.0, 11.0, 111320.0)

	// One degree of latitude on each side.
	assert.InDelta(t, 47.0, minLat, 1e-9)
	assert.InDelta(t, 49.0, maxLat, 1e-9)

	// Longitude margin is wider than latitude at 48 degrees north.
	lonMargin := maxLon - 11.0
	assert.Greater(t, lonMargin, 1.0)
	assert.InDelta(t, 11.0-lonMargin, minLon, 1e-9)
}
