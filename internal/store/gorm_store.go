/**
 * @description
 * GORM-backed implementation of the Store contract.
 * Translates driver-level errors into the package sentinels so callers never
 * depend on gorm or postgres internals.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn: Postgres error-code inspection
 * - backend/internal/models
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/priceshelf-project/backend/internal/models"
	"gorm.io/gorm"
)

// Postgres unique_violation
const pgUniqueViolation = "23505"

// GormStore implements Store on top of a gorm connection
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// FindBookByISBN returns the book with the given catalog identifier
func (s *GormStore) FindBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).Where("isbn13 = ?", isbn).First(&book).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

// CreateBook inserts a new book row
func (s *GormStore) CreateBook(ctx context.Context, book *models.Book) error {
	return translate(s.db.WithContext(ctx).Create(book).Error)
}

// ListBooks returns every tracked book
func (s *GormStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := s.db.WithContext(ctx).Find(&books).Error; err != nil {
		return nil, translate(err)
	}
	return books, nil
}

// UpdateBookPrice updates the stored current price of a book
func (s *GormStore) UpdateBookPrice(ctx context.Context, bookID uint64, price int64) error {
	return translate(s.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("price", price).Error)
}

// AppendPriceHistory records one price observation for a book
func (s *GormStore) AppendPriceHistory(ctx context.Context, bookID uint64, price int64, at time.Time) error {
	entry := &models.PriceHistory{
		BookID: bookID,
		Price:  price,
		Date:   at,
	}
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

// ListPriceHistory returns observations for a book, newest first.
// A limit <= 0 returns the full history.
func (s *GormStore) ListPriceHistory(ctx context.Context, bookID uint64, limit int) ([]models.PriceHistory, error) {
	var entries []models.PriceHistory
	q := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

// MinPositivePrice returns the lowest recorded in-stock price for a book
func (s *GormStore) MinPositivePrice(ctx context.Context, bookID uint64) (*models.PriceHistory, error) {
	var entry models.PriceHistory
	err := s.db.WithContext(ctx).
		Where("book_id = ? AND price > 0", bookID).
		Order("price ASC").
		First(&entry).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// FindRelation returns the tracking relation between a user and a book
func (s *GormStore) FindRelation(ctx context.Context, userID uuid.UUID, bookID uint64) (*models.UserBook, error) {
	var rel models.UserBook
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&rel).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rel, nil
}

// CreateRelation links a user to a book
func (s *GormStore) CreateRelation(ctx context.Context, userID uuid.UUID, bookID uint64, fromList bool) error {
	rel := &models.UserBook{
		UserID:   userID,
		BookID:   bookID,
		FromList: fromList,
	}
	return translate(s.db.WithContext(ctx).Create(rel).Error)
}

// DeleteRelation removes the relation between a user and a book
func (s *GormStore) DeleteRelation(ctx context.Context, userID uuid.UUID, bookID uint64) error {
	return translate(s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.UserBook{}).Error)
}

// ListUserRelations returns all of a user's relations with books preloaded
func (s *GormStore) ListUserRelations(ctx context.Context, userID uuid.UUID) ([]models.UserBook, error) {
	var rels []models.UserBook
	err := s.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Find(&rels).Error
	if err != nil {
		return nil, translate(err)
	}
	return rels, nil
}

// CountUserRelations returns how many books the user tracks
func (s *GormStore) CountUserRelations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserBook{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// ListUsersTrackingBook returns every user following the given book
func (s *GormStore) ListUsersTrackingBook(ctx context.Context, bookID uint64) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN user_books ON user_books.user_id = users.id").
		Where("user_books.book_id = ?", bookID).
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// ListBookLists returns every tracked list with its owner preloaded
func (s *GormStore) ListBookLists(ctx context.Context) ([]models.BookList, error) {
	var lists []models.BookList
	if err := s.db.WithContext(ctx).Preload("User").Find(&lists).Error; err != nil {
		return nil, translate(err)
	}
	return lists, nil
}

// CreateBookList inserts a new tracked list.
// Returns ErrDuplicate when the (user, url) pair already exists.
func (s *GormStore) CreateBookList(ctx context.Context, list *models.BookList) error {
	return translate(s.db.WithContext(ctx).Create(list).Error)
}

// DeleteBookList removes a user's tracked list
func (s *GormStore) DeleteBookList(ctx context.Context, userID uuid.UUID, listID uint64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", listID, userID).
		Delete(&models.BookList{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateNotification stores a dispatched alert
func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(s.db.WithContext(ctx).Create(n).Error)
}
