// internal/services/club_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/footfed/licences-backend/internal/models"
)

// ClubService exposes read-only club reference data. Club management lives in
// the federation's member registry, not here.
type ClubService struct {
	db *gorm.DB
}

func NewClubService(db *gorm.DB) *ClubService {
	return &ClubService{db: db}
}

func (s *ClubService) GetClub(id uuid.UUID) (*models.Club, error) {
	var club models.Club
	if err := s.db.First(&club, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("club not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &club, nil
}

func (s *ClubService) ListClubs() ([]models.Club, error) {
	var clubs []models.Club
	if err := s.db.Order("name asc").Find(&clubs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch clubs: %w", err)
	}

	return clubs, nil
}
