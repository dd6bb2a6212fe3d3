package service

import (
	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

// TriggerService handles geofence trigger management
type TriggerService struct {
	triggers *repository.TriggerRepository
	places   *repository.PlaceRepository
}

// NewTriggerService creates a new trigger service
func NewTriggerService(triggers *repository.TriggerRepository, places *repository.PlaceRepository) *TriggerService {
	return &TriggerService{triggers: triggers, places: places}
}

// Create stores a new trigger on a place. False when the place is not
// the user's.
func (s *TriggerService) Create(uid, placeID string, t *models.PlaceTrigger) (bool, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return false, err
	}
	if place == nil {
		return false, nil
	}

	t.ID = uuid.New().String()
	t.PlaceID = placeID
	if err := t.Validate(); err != nil {
		return false, err
	}
	return true, s.triggers.Create(t)
}

// GetForPlace retrieves a place's triggers
func (s *TriggerService) GetForPlace(uid, placeID string) ([]models.PlaceTrigger, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, nil
	}
	return s.triggers.GetForPlace(placeID)
}

// getOwned loads a trigger only when its place belongs to the user
func (s *TriggerService) getOwned(uid, triggerID string) (*models.PlaceTrigger, error) {
	t, err := s.triggers.GetByID(triggerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	place, err := s.places.GetByID(uid, t.PlaceID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, nil
	}
	return t, nil
}

// Update applies editable fields to a trigger. Nil result means the
// trigger does not exist for this user.
func (s *TriggerService) Update(uid, triggerID string, req *models.PlaceTrigger) (*models.PlaceTrigger, error) {
	t, err := s.getOwned(uid, triggerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	t.TriggerType = req.TriggerType
	t.ActionType = req.ActionType
	t.Payload = req.Payload
	t.Enabled = req.Enabled
	t.CooldownMinutes = req.CooldownMinutes
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.triggers.Update(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a trigger
func (s *TriggerService) Delete(uid, triggerID string) (bool, error) {
	t, err := s.getOwned(uid, triggerID)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, nil
	}
	return s.triggers.Delete(triggerID)
}
