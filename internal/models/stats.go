package models

// PlaceStats aggregates the visit history of one place
type PlaceStats struct {
	PlaceID   string `json:"placeId"`
	PlaceName string `json:"placeName"`

	TotalVisits        int     `json:"totalVisits"`
	TotalDwellMinutes  float64 `json:"totalDwellMinutes"`
	AvgDwellMinutes    float64 `json:"avgDwellMinutes"`
	MedianDwellMinutes float64 `json:"medianDwellMinutes"`
	P90DwellMinutes    float64 `json:"p90DwellMinutes"`

	// Circular mean of entry hours; naive averaging misbehaves across midnight
	TypicalHour float64 `json:"typicalHour"`

	VisitsByDay  [7]int  `json:"visitsByDay"`  // Index 0=Sunday .. 6=Saturday
	VisitsByHour [24]int `json:"visitsByHour"` // Entry hour buckets

	CommonDays  []string `json:"commonDays"`  // Top 3 by visit count
	CommonHours []int    `json:"commonHours"` // Top 3 by visit count

	RoutineVisitPercent float64 `json:"routineVisitPercent"`
	LinkedMemoryCount   int     `json:"linkedMemoryCount"`

	FirstVisited int64 `json:"firstVisited,omitempty"` // Unix timestamp
	LastVisited  int64 `json:"lastVisited,omitempty"`  // Unix timestamp
}

// CurrentPlace describes where the user is right now
type CurrentPlace struct {
	Place          *Place  `json:"place"`
	VisitID        string  `json:"visitId,omitempty"`
	EnteredAt      int64   `json:"enteredAt,omitempty"` // Unix timestamp
	MinutesAtPlace float64 `json:"minutesAtPlace,omitempty"`
	FromCache      bool    `json:"fromCache"`
}

// PlaceContext is the one-call snapshot for assistant-style consumers
type PlaceContext struct {
	Current      *CurrentPlace `json:"current,omitempty"`
	Nearby       []NearbyPlace `json:"nearby,omitempty"`
	TypicalPlace *Place        `json:"typicalPlace,omitempty"` // Where the user usually is at this hour
	LocalHour    int           `json:"localHour"`
	DayOfWeek    int           `json:"dayOfWeek"`
}
