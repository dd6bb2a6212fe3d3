package models

import "fmt"

// PlaceList is a named, ordered collection of places
type PlaceList struct {
	ID          string `json:"id" db:"id"`
	UID         string `json:"uid" db:"uid"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Color       string `json:"color,omitempty" db:"color"`
	CreatedAt   int64  `json:"createdAt" db:"created_at"` // Unix timestamp
	UpdatedAt   int64  `json:"updatedAt" db:"updated_at"` // Unix timestamp

	// Populated on detail reads, ordered by position
	Places []PlaceListMember `json:"places,omitempty" db:"-"`
}

// Validate checks required list fields
func (l *PlaceList) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// PlaceListMember is one place inside a list, with its position
type PlaceListMember struct {
	PlaceID   string `json:"placeId" db:"place_id"`
	PlaceName string `json:"placeName" db:"place_name"`
	Position  int    `json:"position" db:"position"`
}
