package service

import (
	"github.com/google/uuid"

	"github.com/oriolus/dwell/internal/models"
	"github.com/oriolus/dwell/internal/repository"
)

// ListService handles curated place lists
type ListService struct {
	lists  *repository.ListRepository
	places *repository.PlaceRepository
}

// NewListService creates a new list service
func NewListService(lists *repository.ListRepository, places *repository.PlaceRepository) *ListService {
	return &ListService{lists: lists, places: places}
}

// Create stores a new list
func (s *ListService) Create(uid string, l *models.PlaceList) error {
	l.ID = uuid.New().String()
	l.UID = uid
	if err := l.Validate(); err != nil {
		return err
	}
	return s.lists.Create(l)
}

// GetByID retrieves a list with its members
func (s *ListService) GetByID(uid, id string) (*models.PlaceList, error) {
	return s.lists.GetByID(uid, id)
}

// List retrieves the user's lists
func (s *ListService) List(uid string) ([]models.PlaceList, error) {
	return s.lists.GetByUser(uid)
}

// Update applies editable fields to a list. Nil result means the list
// does not exist.
func (s *ListService) Update(uid, id string, req *models.PlaceList) (*models.PlaceList, error) {
	l, err := s.lists.GetByID(uid, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}

	l.Name = req.Name
	l.Description = req.Description
	l.Color = req.Color
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := s.lists.Update(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes a list and its memberships
func (s *ListService) Delete(uid, id string) (bool, error) {
	return s.lists.Delete(uid, id)
}

// AddPlace appends a place to a list. False when either side is missing.
func (s *ListService) AddPlace(uid, listID, placeID string) (bool, error) {
	l, err := s.lists.GetByID(uid, listID)
	if err != nil {
		return false, err
	}
	place, err := s.places.GetByID(uid, placeID)
	if err != nil {
		return false, err
	}
	if l == nil || place == nil {
		return false, nil
	}
	return true, s.lists.AddMember(listID, placeID)
}

// RemovePlace removes a place from a list
func (s *ListService) RemovePlace(uid, listID, placeID string) (bool, error) {
	l, err := s.lists.GetByID(uid, listID)
	if err != nil {
		return false, err
	}
	if l == nil {
		return false, nil
	}
	return s.lists.RemoveMember(listID, placeID)
}

// Reorder rewrites the member order of a list
func (s *ListService) Reorder(uid, listID string, placeIDs []string) (bool, error) {
	l, err := s.lists.GetByID(uid, listID)
	if err != nil {
		return false, err
	}
	if l == nil {
		return false, nil
	}
	return true, s.lists.Reorder(listID, placeIDs)
}
