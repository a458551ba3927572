// internal/models/demande.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Demande is a licence request progressing through the status workflow.
// StatutCode is owned by the workflow engine: business updates never touch it.
type Demande struct {
	BaseModel
	Numero          string      `json:"numero" gorm:"uniqueIndex;size:30;not null"`
	PlayerFirstName string      `json:"player_first_name" gorm:"size:80;not null"`
	PlayerLastName  string      `json:"player_last_name" gorm:"size:80;not null"`
	BirthDate       time.Time   `json:"birth_date" gorm:"not null"`
	Nationality     string      `json:"nationality" gorm:"size:60"`
	ClubID          uuid.UUID   `json:"club_id" gorm:"type:uuid;not null;index"`
	Season          string      `json:"season" gorm:"size:9;not null;index"`
	Categorie       Categorie   `json:"categorie" gorm:"type:varchar(20);not null"`
	Type            DemandeType `json:"type" gorm:"type:varchar(20);not null"`
	ContactEmail    string      `json:"contact_email" gorm:"size:255"`
	StatutCode      int         `json:"statut_code" gorm:"not null;default:1;index"`
	SubmittedBy     *uuid.UUID  `json:"submitted_by" gorm:"type:uuid;index"`
	ExtraData       JSONB       `json:"extra_data" gorm:"type:jsonb"`

	// Relationships
	Club        Club                `json:"club,omitempty" gorm:"foreignKey:ClubID"`
	Submitter   *User               `json:"submitter,omitempty" gorm:"foreignKey:SubmittedBy"`
	Attachments []DemandeAttachment `json:"attachments,omitempty" gorm:"foreignKey:DemandeID"`
}

// DemandeAttachment records a supporting document stored in object storage.
type DemandeAttachment struct {
	BaseModel
	DemandeID  uuid.UUID  `json:"demande_id" gorm:"type:uuid;not null;index"`
	FileName   string     `json:"file_name" gorm:"size:255;not null"`
	StorageKey string     `json:"storage_key" gorm:"size:512;not null"`
	URL        string     `json:"url" gorm:"size:1024"`
	MimeType   string     `json:"mime_type" gorm:"size:100"`
	Size       int64      `json:"size"`
	UploadedBy *uuid.UUID `json:"uploaded_by" gorm:"type:uuid"`
}
