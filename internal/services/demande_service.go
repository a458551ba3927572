// internal/services/demande_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/utils"
	"github.com/footfed/licences-backend/internal/workflow"
)

// DemandeService handles licence request CRUD. Status is never written here;
// all transitions go through the workflow service.
type DemandeService struct {
	db *gorm.DB
}

type CreateDemandeRequest struct {
	PlayerFirstName string                 `json:"player_first_name" validate:"required,max=80"`
	PlayerLastName  string                 `json:"player_last_name" validate:"required,max=80"`
	BirthDate       time.Time              `json:"birth_date" validate:"required"`
	Nationality     string                 `json:"nationality,omitempty" validate:"max=60"`
	ClubID          uuid.UUID              `json:"club_id" validate:"required"`
	Season          string                 `json:"season" validate:"required,season"`
	Categorie       models.Categorie       `json:"categorie" validate:"required"`
	Type            models.DemandeType     `json:"type" validate:"required"`
	ContactEmail    string                 `json:"contact_email,omitempty" validate:"omitempty,email"`
	ExtraData       map[string]interface{} `json:"extra_data,omitempty"`
}

type UpdateDemandeRequest struct {
	PlayerFirstName *string                `json:"player_first_name,omitempty" validate:"omitempty,max=80"`
	PlayerLastName  *string                `json:"player_last_name,omitempty" validate:"omitempty,max=80"`
	BirthDate       *time.Time             `json:"birth_date,omitempty"`
	Nationality     *string                `json:"nationality,omitempty" validate:"omitempty,max=60"`
	Categorie       *models.Categorie      `json:"categorie,omitempty"`
	ContactEmail    *string                `json:"contact_email,omitempty" validate:"omitempty,email"`
	ExtraData       map[string]interface{} `json:"extra_data,omitempty"`
}

type DemandeSearchParams struct {
	utils.PaginationParams
	ClubID     *uuid.UUID          `json:"club_id,omitempty"`
	Season     *string             `json:"season,omitempty"`
	StatutCode *int                `json:"statut_code,omitempty"`
	Type       *models.DemandeType `json:"type,omitempty"`
}

func NewDemandeService(db *gorm.DB) *DemandeService {
	return &DemandeService{db: db}
}

func (s *DemandeService) CreateDemande(submitterID uuid.UUID, req *CreateDemandeRequest) (*models.Demande, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var club models.Club
	if err := s.db.First(&club, "id = ?", req.ClubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("club not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	numero, err := utils.GenerateDemandeNumero(req.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to generate demande number: %w", err)
	}

	demande := &models.Demande{
		Numero:          numero,
		PlayerFirstName: req.PlayerFirstName,
		PlayerLastName:  req.PlayerLastName,
		BirthDate:       req.BirthDate,
		Nationality:     req.Nationality,
		ClubID:          req.ClubID,
		Season:          req.Season,
		Categorie:       req.Categorie,
		Type:            req.Type,
		ContactEmail:    req.ContactEmail,
		StatutCode:      workflow.CodeInitial,
		SubmittedBy:     &submitterID,
		ExtraData:       models.JSONB(req.ExtraData),
	}

	if err := s.db.Create(demande).Error; err != nil {
		return nil, fmt.Errorf("failed to create demande: %w", err)
	}

	s.db.Preload("Club").First(demande, "id = ?", demande.ID)

	return demande, nil
}

func (s *DemandeService) GetDemande(id uuid.UUID) (*models.Demande, error) {
	var demande models.Demande
	if err := s.db.Preload("Club").Preload("Submitter").Preload("Attachments").
		First(&demande, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrDemandeNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &demande, nil
}

func (s *DemandeService) SearchDemandes(params DemandeSearchParams) ([]models.Demande, int64, error) {
	query := s.db.Model(&models.Demande{}).Preload("Club")

	if params.ClubID != nil {
		query = query.Where("club_id = ?", *params.ClubID)
	}

	if params.Season != nil {
		query = query.Where("season = ?", *params.Season)
	}

	if params.StatutCode != nil {
		query = query.Where("statut_code = ?", *params.StatutCode)
	}

	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("player_last_name LIKE ? OR player_first_name LIKE ? OR numero LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count demandes: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "player_last_name", "season", "statut_code"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var demandes []models.Demande
	if err := query.Find(&demandes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch demandes: %w", err)
	}

	return demandes, total, nil
}

func (s *DemandeService) UpdateDemande(id uuid.UUID, req *UpdateDemandeRequest) (*models.Demande, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	demande, err := s.GetDemande(id)
	if err != nil {
		return nil, err
	}

	// A printed licence is frozen.
	if demande.StatutCode == workflow.CodeImprimee {
		return nil, errors.New("demande cannot be modified once the licence is printed")
	}

	if req.PlayerFirstName != nil {
		demande.PlayerFirstName = *req.PlayerFirstName
	}
	if req.PlayerLastName != nil {
		demande.PlayerLastName = *req.PlayerLastName
	}
	if req.BirthDate != nil {
		demande.BirthDate = *req.BirthDate
	}
	if req.Nationality != nil {
		demande.Nationality = *req.Nationality
	}
	if req.Categorie != nil {
		demande.Categorie = *req.Categorie
	}
	if req.ContactEmail != nil {
		demande.ContactEmail = *req.ContactEmail
	}
	if req.ExtraData != nil {
		if demande.ExtraData == nil {
			demande.ExtraData = make(models.JSONB)
		}
		for k, v := range req.ExtraData {
			demande.ExtraData[k] = v
		}
	}

	if err := s.db.Save(demande).Error; err != nil {
		return nil, fmt.Errorf("failed to update demande: %w", err)
	}

	return demande, nil
}

func (s *DemandeService) DeleteDemande(id uuid.UUID) error {
	demande, err := s.GetDemande(id)
	if err != nil {
		return err
	}

	if demande.StatutCode == workflow.CodeImprimee {
		return errors.New("demande cannot be deleted once the licence is printed")
	}

	if err := s.db.Delete(demande).Error; err != nil {
		return fmt.Errorf("failed to delete demande: %w", err)
	}

	return nil
}

// AddAttachment records an uploaded supporting document against the demande.
func (s *DemandeService) AddAttachment(demandeID uuid.UUID, uploaderID uuid.UUID, upload *UploadResult, fileName string) (*models.DemandeAttachment, error) {
	if _, err := s.GetDemande(demandeID); err != nil {
		return nil, err
	}

	attachment := &models.DemandeAttachment{
		DemandeID:  demandeID,
		FileName:   fileName,
		StorageKey: upload.Key,
		URL:        upload.URL,
		MimeType:   upload.MimeType,
		Size:       upload.Size,
		UploadedBy: &uploaderID,
	}

	if err := s.db.Create(attachment).Error; err != nil {
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}

	return attachment, nil
}
