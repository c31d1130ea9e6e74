/**
 * @description
 * Persistence contract consumed by the monitoring pipeline.
 * The engines only touch the database through this interface so tests can
 * substitute an in-memory implementation.
 *
 * @dependencies
 * - backend/internal/models
 * - github.com/google/uuid
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/priceshelf-project/backend/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the narrow persistence surface of the monitoring pipeline
type Store interface {
	// Books
	FindBookByISBN(ctx context.Context, isbn string) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	ListBooks(ctx context.Context) ([]models.Book, error)
	UpdateBookPrice(ctx context.Context, bookID uint64, price int64) error

	// Price history (append-only, newest first on reads)
	AppendPriceHistory(ctx context.Context, bookID uint64, price int64, at time.Time) error
	ListPriceHistory(ctx context.Context, bookID uint64, limit int) ([]models.PriceHistory, error)
	// MinPositivePrice returns the lowest recorded price > 0 for the book,
	// or ErrNotFound when no positive observation exists.
	MinPositivePrice(ctx context.Context, bookID uint64) (*models.PriceHistory, error)

	// Tracking relations
	FindRelation(ctx context.Context, userID uuid.UUID, bookID uint64) (*models.UserBook, error)
	CreateRelation(ctx context.Context, userID uuid.UUID, bookID uint64, fromList bool) error
	DeleteRelation(ctx context.Context, userID uuid.UUID, bookID uint64) error
	ListUserRelations(ctx context.Context, userID uuid.UUID) ([]models.UserBook, error)
	CountUserRelations(ctx context.Context, userID uuid.UUID) (int64, error)
	ListUsersTrackingBook(ctx context.Context, bookID uint64) ([]models.User, error)

	// Book lists
	ListBookLists(ctx context.Context) ([]models.BookList, error)
	CreateBookList(ctx context.Context, list *models.BookList) error
	DeleteBookList(ctx context.Context, userID uuid.UUID, listID uint64) error

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
}
