/**
 * @description
 * Notification database model.
 * Stores dispatched price alerts so users can review them in-app even when
 * the email leg fails (delivery is best-effort).
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines types of notifications
type NotificationType string

const (
	NotificationTypePriceDrop   NotificationType = "PRICE_DROP"
	NotificationTypeBackInStock NotificationType = "BACK_IN_STOCK"
)

// Notification stores a dispatched alert for a user
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	BookID    uint64           `gorm:"not null" json:"book_id"`
	Type      NotificationType `gorm:"size:32;not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `json:"message"`
	Data      string           `gorm:"type:jsonb" json:"data"` // JSON string for flexible data
	Read      bool             `gorm:"default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// TableName overrides the table name used by Notification to `notifications`
func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
