// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationHistory is the append-only record of notification attempts.
// It lives outside the workflow transaction: a FAILED row never implies a
// rolled-back transition.
type NotificationHistory struct {
	BaseModel
	DemandeID    uuid.UUID          `json:"demande_id" gorm:"type:uuid;not null;index"`
	Recipient    string             `json:"recipient" gorm:"size:255;not null"`
	Kind         NotificationKind   `json:"kind" gorm:"type:varchar(30);not null;index"`
	Subject      string             `json:"subject" gorm:"size:255"`
	Status       NotificationStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	RetryCount   int                `json:"retry_count" gorm:"default:0"`
	ErrorMessage string             `json:"error_message,omitempty" gorm:"type:text"`
	SentAt       *time.Time         `json:"sent_at"`
}
