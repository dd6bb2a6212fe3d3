package models

// PlaceVisit represents one entry/exit episode at a place.
// ExitedAt == 0 means the visit is still open.
type PlaceVisit struct {
	ID        string `json:"id" db:"id"`
	UID       string `json:"uid" db:"uid"`
	PlaceID   string `json:"placeId" db:"place_id"`
	EnteredAt int64  `json:"enteredAt" db:"entered_at"`        // Unix timestamp
	ExitedAt  int64  `json:"exitedAt,omitempty" db:"exited_at"` // Unix timestamp, 0 = open

	// Set when the visit closes
	DwellMinutes float64 `json:"dwellMinutes,omitempty" db:"dwell_minutes"`

	// Derived from EnteredAt: 0=Sunday .. 6=Saturday
	DayOfWeek int `json:"dayOfWeek" db:"day_of_week"`

	// True when the entry matches an established weekly pattern
	IsRoutine bool `json:"isRoutine" db:"is_routine"`

	CreatedAt int64 `json:"createdAt" db:"created_at"` // Unix timestamp
}

// Open reports whether the visit has not been closed yet
func (v *PlaceVisit) Open() bool {
	return v.ExitedAt == 0
}

// VisitFilter represents filter parameters for querying visits
type VisitFilter struct {
	PlaceID   string `form:"placeId"`
	StartTime int64  `form:"startTime"` // Unix timestamp
	EndTime   int64  `form:"endTime"`   // Unix timestamp
	DayOfWeek *int   `form:"dayOfWeek"` // 0=Sunday .. 6=Saturday
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// VisitsResponse represents a paginated response of visits
type VisitsResponse struct {
	Data       []PlaceVisit `json:"data"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}
