package models

import "fmt"

// Tag is a user-defined label attachable to places
type Tag struct {
	ID        string `json:"id" db:"id"`
	UID       string `json:"uid" db:"uid"`
	Name      string `json:"name" db:"name"`
	Color     string `json:"color,omitempty" db:"color"`
	CreatedAt int64  `json:"createdAt" db:"created_at"` // Unix timestamp
}

// Validate checks required tag fields
func (t *Tag) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
