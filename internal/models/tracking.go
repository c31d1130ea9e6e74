/**
 * @description
 * Tracking relation models.
 * UserBook links a user to a book they follow; FromList records whether the
 * link was created by list synchronization (those are the only relations the
 * sync engine may remove). BookList is a user-submitted catalog URL whose
 * member books are periodically synchronized into UserBook rows.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
)

// UserBook links a user to a tracked book
type UserBook struct {
	ID     uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_book;not null" json:"user_id"`
	BookID uint64    `gorm:"uniqueIndex:idx_user_book;not null" json:"book_id"`
	// FromList is true when the relation was created by list synchronization.
	// Manually added relations are never auto-removed.
	FromList bool `gorm:"column:from_list;default:false" json:"from_list"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// TableName overrides the table name used by UserBook to `user_books`
func (UserBook) TableName() string {
	return "user_books"
}

// BookList is a user-owned catalog list URL
type BookList struct {
	ID      uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_list;not null" json:"user_id"`
	URLList string    `gorm:"column:url_list;size:1024;uniqueIndex:idx_user_list;not null" json:"url_list"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name used by BookList to `book_lists`
func (BookList) TableName() string {
	return "book_lists"
}
