package models

import "fmt"

// Trigger types
const (
	TriggerOnEntry = "entry"
	TriggerOnExit  = "exit"
)

// Trigger action types
const (
	ActionNotification = "notification"
	ActionReminder     = "reminder"
	ActionModeSwitch   = "mode_switch"
	ActionTaskCreate   = "task_create"
)

var triggerActions = map[string]bool{
	ActionNotification: true,
	ActionReminder:     true,
	ActionModeSwitch:   true,
	ActionTaskCreate:   true,
}

// PlaceTrigger fires an action when a visit transition touches its place
type PlaceTrigger struct {
	ID              string `json:"id" db:"id"`
	PlaceID         string `json:"placeId" db:"place_id"`
	TriggerType     string `json:"triggerType" db:"trigger_type"` // entry or exit
	ActionType      string `json:"actionType" db:"action_type"`
	Payload         string `json:"payload,omitempty" db:"payload"` // Free-form JSON for the dispatcher
	Enabled         bool   `json:"enabled" db:"enabled"`
	CooldownMinutes int    `json:"cooldownMinutes" db:"cooldown_minutes"`
	LastFiredAt     int64  `json:"lastFiredAt,omitempty" db:"last_fired_at"` // Unix timestamp, 0 = never
	CreatedAt       int64  `json:"createdAt" db:"created_at"`                // Unix timestamp
}

// Validate checks required trigger fields
func (t *PlaceTrigger) Validate() error {
	if t.TriggerType != TriggerOnEntry && t.TriggerType != TriggerOnExit {
		return fmt.Errorf("triggerType must be %q or %q", TriggerOnEntry, TriggerOnExit)
	}
	if !triggerActions[t.ActionType] {
		return fmt.Errorf("unknown actionType %q", t.ActionType)
	}
	if t.CooldownMinutes < 0 {
		return fmt.Errorf("cooldownMinutes must be non-negative")
	}
	return nil
}

// CooldownActive reports whether the trigger is still cooling down at now
func (t *PlaceTrigger) CooldownActive(now int64) bool {
	if t.LastFiredAt == 0 || t.CooldownMinutes <= 0 {
		return false
	}
	return now < t.LastFiredAt+int64(t.CooldownMinutes)*60
}
