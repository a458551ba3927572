// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// StatusAudit is the immutable trace of one status transition. One row is
// appended per successful transition, in the same transaction as the status
// write; rows are never updated or deleted by the workflow.
type StatusAudit struct {
	BaseModel
	DemandeID          uuid.UUID  `json:"demande_id" gorm:"type:uuid;not null;index"`
	PreviousStatusCode int        `json:"previous_status_code" gorm:"not null"`
	NewStatusCode      int        `json:"new_status_code" gorm:"not null"`
	ActorID            *uuid.UUID `json:"actor_id" gorm:"type:uuid;index"`
	Comment            string     `json:"comment,omitempty" gorm:"type:text"`

	// Relationships
	Actor *User `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
}

// RequestAudit captures raw HTTP mutations, written asynchronously by the
// logging middleware. Separate from StatusAudit, which is transactional.
type RequestAudit struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	Payload      JSONB      `json:"payload" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}
