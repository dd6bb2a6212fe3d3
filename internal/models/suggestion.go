package models

// PlaceSuggestion is a cluster of unassigned fixes proposed as a new place
type PlaceSuggestion struct {
	ID                string  `json:"id" db:"id"`
	UID               string  `json:"uid" db:"uid"`
	Latitude          float64 `json:"latitude" db:"latitude"`
	Longitude         float64 `json:"longitude" db:"longitude"`
	SuggestedRadiusM  float64 `json:"suggestedRadiusMeters" db:"suggested_radius_m"`
	VisitCount        int     `json:"visitCount" db:"visit_count"` // Distinct occurrences, not raw fixes
	FixCount          int     `json:"fixCount" db:"fix_count"`
	SuggestedCategory string  `json:"suggestedCategory" db:"suggested_category"`
	FirstSeen         int64   `json:"firstSeen" db:"first_seen"` // Unix timestamp
	LastSeen          int64   `json:"lastSeen" db:"last_seen"`   // Unix timestamp
	ComputedAt        int64   `json:"computedAt" db:"computed_at"`
}

// DiscoveryResult is the outcome of one discovery run
type DiscoveryResult struct {
	Suggestions []PlaceSuggestion `json:"suggestions"`
	Scanned     int               `json:"scanned"`
	Skipped     int               `json:"skipped"`
	FromCache   bool              `json:"fromCache"`
}

// ConfirmSuggestionRequest promotes a suggestion into a confirmed place
type ConfirmSuggestionRequest struct {
	Latitude     float64 `json:"latitude" binding:"required"`
	Longitude    float64 `json:"longitude" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category"`
	RadiusMeters float64 `json:"radiusMeters"`
}
