package dispatch

import "log"

// Action describes a fired trigger that needs delivery
type Action struct {
	TriggerID   string
	UID         string
	PlaceID     string
	PlaceName   string
	TriggerType string
	ActionType  string
	Payload     string
	FiredAt     int64 // Unix timestamp
}

// Dispatcher delivers fired trigger actions to their action channel
type Dispatcher interface {
	Dispatch(a Action)
}

// LogDispatcher writes fired actions to the process log. Notification
// and automation backends hang off this interface later.
type LogDispatcher struct{}

// NewLogDispatcher creates a log-backed dispatcher
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// Dispatch logs the fired action
func (d *LogDispatcher) Dispatch(a Action) {
	log.Printf("[Dispatch] %s/%s place=%s (%s) uid=%s payload=%s",
		a.TriggerType, a.ActionType, a.PlaceName, a.PlaceID, a.UID, a.Payload)
}
