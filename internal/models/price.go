/**
 * @description
 * Price History database model.
 * Maps to the 'price_history' table in PostgreSQL.
 * Rows are append-only; the most recent row is the authoritative last price.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// PriceHistory represents one observed price point for a book.
// A price of 0 records an out-of-stock observation.
type PriceHistory struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BookID uint64 `gorm:"column:book_id;index:idx_price_history_book_time;not null" json:"book_id"`
	Price  int64  `gorm:"not null" json:"price"`
	Date   time.Time `gorm:"column:date;index:idx_price_history_book_time" json:"date"`

	// Relations
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// TableName overrides the table name used by PriceHistory to `price_history`
func (PriceHistory) TableName() string {
	return "price_history"
}
