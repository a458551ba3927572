// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	ClubID       *uuid.UUID `json:"club_id" gorm:"type:uuid;index"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Club     *Club     `json:"club,omitempty" gorm:"foreignKey:ClubID"`
	Demandes []Demande `json:"demandes,omitempty" gorm:"foreignKey:SubmittedBy"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
