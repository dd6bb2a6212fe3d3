package service

import (
	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

// TagService handles tag management and place assignments
type TagService struct {
	tags   *repository.TagRepository
	places *repository.PlaceRepository
}

// NewTagService creates a new tag service
func NewTagService(tags *repository.TagRepository, places *repository.PlaceRepository) *TagService {
	return &TagService{tags: tags, places: places}
}

// Create stores a new tag. The conflict flag reports a name collision.
func (s *TagService) Create(uid string, t *models.Tag) (bool, error) {
	t.ID = uuid.New().String()
	t.UID = uid
	if err := t.Validate(); err != nil {
		return false, err
	}

	existing, err := s.tags.GetByName(uid, t.Name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return true, nil
	}

	return false, s.tags.Create(t)
}

// List retrieves the user's tags
func (s *TagService) List(uid string) ([]models.Tag, error) {
	return s.tags.GetByUser(uid)
}

// Delete removes a tag and its assignments
func (s *TagService) Delete(uid, id string) (bool, error) {
	return s.tags.Delete(uid, id)
}

// AssignToPlace attaches a tag to a place. False when either side is
// missing or not the user's.
func (s *TagService) AssignToPlace(uid, placeID, tagID string) (bool, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return false, err
	}
	tag, err := s.tags.GetByID(uid, tagID)
	if err != nil {
		return false, err
	}
	if place == nil || tag == nil {
		return false, nil
	}
	return true, s.tags.AssignToPlace(placeID, tagID)
}

// RemoveFromPlace detaches a tag from a place
func (s *TagService) RemoveFromPlace(uid, placeID, tagID string) (bool, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return false, err
	}
	if place == nil {
		return false, nil
	}
	return s.tags.RemoveFromPlace(placeID, tagID)
}

// GetForPlace retrieves the tags attached to a place
func (s *TagService) GetForPlace(uid, placeID string) ([]models.Tag, error) {
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, nil
	}
	return s.tags.GetForPlace(placeID)
}

// GetPlacesByTag retrieves the places carrying a tag
func (s *TagService) GetPlacesByTag(uid, tagID string) ([]models.Place, error) {
	return s.tags.GetPlacesByTag(uid, tagID)
}
