// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL (stored as serialized JSON on other drivers)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return nil
	}
}

// Enums
type UserRole string

const (
	UserRoleAgentClub UserRole = "agent_club"
	UserRoleLigue     UserRole = "ligue"
	UserRoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type DemandeType string

const (
	DemandeTypeNouvelle       DemandeType = "nouvelle"
	DemandeTypeRenouvellement DemandeType = "renouvellement"
	DemandeTypeMutation       DemandeType = "mutation"
)

type Categorie string

const (
	CategorieSenior Categorie = "senior"
	CategorieJunior Categorie = "junior"
	CategorieCadet  Categorie = "cadet"
	CategorieMinime Categorie = "minime"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSuccess NotificationStatus = "SUCCESS"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

type NotificationKind string

const (
	NotificationKindValidated    NotificationKind = "VALIDATED"
	NotificationKindRejected     NotificationKind = "REJECTED"
	NotificationKindPrinted      NotificationKind = "PRINTED"
	NotificationKindStatusChange NotificationKind = "STATUS_CHANGE"
)
