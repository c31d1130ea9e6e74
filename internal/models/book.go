/**
 * @description
 * Book database model.
 * Maps to the 'books' table in PostgreSQL. One row per catalog product,
 * shared by every user tracking it.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// Book represents a catalog product being monitored for price and availability
type Book struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ISBN13   string `gorm:"column:isbn13;uniqueIndex;not null" json:"isbn13"`
	Title    string `gorm:"size:512" json:"title"`
	Author   string `gorm:"size:255" json:"author"`
	Link     string `gorm:"size:1024;not null" json:"link"`
	ImageURL string `gorm:"column:image_url;size:1024" json:"image_url"`
	// Price is the last observed price in store currency units.
	// 0 means the book is currently unavailable.
	Price       int64  `gorm:"not null;default:0" json:"price"`
	Discount    string `gorm:"size:64" json:"discount"`
	Details     string `json:"details"`
	Description string `json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by Book to `books`
func (Book) TableName() string {
	return "books"
}

// InStock reports whether the book is currently purchasable
func (b *Book) InStock() bool {
	return b.Price > 0
}
