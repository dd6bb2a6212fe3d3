package models

// Routine confidence bands
const (
	RoutineStrong   = "strong"
	RoutineModerate = "moderate"
	RoutineWeak     = "weak"
)

// ConfidenceBand maps a confidence score to its band label
func ConfidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return RoutineStrong
	case confidence >= 0.5:
		return RoutineModerate
	default:
		return RoutineWeak
	}
}

// Routine is a recurring (place, weekday, hour) visit pattern
type Routine struct {
	ID              string  `json:"id" db:"id"`
	UID             string  `json:"uid" db:"uid"`
	PlaceID         string  `json:"placeId" db:"place_id"`
	PlaceName       string  `json:"placeName" db:"place_name"`
	DayOfWeek       int     `json:"dayOfWeek" db:"day_of_week"` // 0=Sunday .. 6=Saturday
	Hour            int     `json:"hour" db:"hour"`             // Entry hour 0-23
	OccurrenceCount int     `json:"occurrenceCount" db:"occurrence_count"`
	Confidence      float64 `json:"confidence" db:"confidence"` // 0-1
	Band            string  `json:"band" db:"band"`
	Description     string  `json:"description" db:"description"`
	ComputedAt      int64   `json:"computedAt" db:"computed_at"` // Unix timestamp
}

// RoutinesResult is the outcome of one routine detection run
type RoutinesResult struct {
	Routines  []Routine `json:"routines"`
	Scanned   int       `json:"scanned"`
	Skipped   int       `json:"skipped"`
	FromCache bool      `json:"fromCache"`
}

// DeviationResult reports whether the user is where their routines predict
type DeviationResult struct {
	IsDeviation   bool     `json:"isDeviation"`
	ExpectedPlace string   `json:"expectedPlace,omitempty"`
	CurrentPlace  string   `json:"currentPlace,omitempty"`
	Routine       *Routine `json:"routine,omitempty"`
}
