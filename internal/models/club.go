// internal/models/club.go
package models

type Club struct {
	BaseModel
	Code         string `json:"code" gorm:"uniqueIndex;size:10;not null"`
	Name         string `json:"name" gorm:"size:120;not null"`
	City         string `json:"city" gorm:"size:80"`
	ContactEmail string `json:"contact_email" gorm:"size:255"`

	// Relationships
	Demandes []Demande `json:"demandes,omitempty" gorm:"foreignKey:ClubID"`
}
