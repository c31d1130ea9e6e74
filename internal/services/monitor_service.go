/**
 * @description
 * Price reconciliation engine and its batch entry points.
 * Re-fetches every tracked book, compares the extracted price against the
 * last recorded observation, appends history and updates the stored price on
 * change, and hands notification decisions to the dispatcher. Per-book
 * failures are converted into failure outcomes; they never abort the batch.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/scraper
 * - backend/internal/cache
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/priceshelf-project/backend/internal/cache"
	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/scraper"
	"github.com/priceshelf-project/backend/internal/store"
)

// Notifier dispatches alerts for reconciliation decisions.
// Fire-and-forget from the engine's perspective: implementations log their
// own failures and never surface them to the batch.
type Notifier interface {
	NotifyPriceDrop(ctx context.Context, book *models.Book, user *models.User, decision Decision)
	NotifyBackInStock(ctx context.Context, book *models.Book, user *models.User, decision Decision)
}

// MonitorService runs price reconciliation over tracked books
type MonitorService struct {
	store    store.Store
	fetcher  *scraper.Fetcher
	notifier Notifier
	cache    *cache.Cache // optional
}

// NewMonitorService creates a new MonitorService
func NewMonitorService(st store.Store, fetcher *scraper.Fetcher, notifier Notifier, ch *cache.Cache) *MonitorService {
	return &MonitorService{
		store:    st,
		fetcher:  fetcher,
		notifier: notifier,
		cache:    ch,
	}
}

// MonitorAllBooks reconciles every tracked book concurrently and returns the
// aggregate summary. It errs only when the book set itself cannot be loaded.
func (s *MonitorService) MonitorAllBooks(ctx context.Context) (*RunSummary, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tracked books: %w", err)
	}

	logger.Info("MonitorService: reconciling %d books", len(books))

	summary := runBatch(ctx, books, func(b models.Book) string { return b.ISBN13 }, func(ctx context.Context, b models.Book) error {
		_, err := s.MonitorBook(ctx, &b)
		return err
	})

	logger.Info("MonitorService: run complete, processed=%d failed=%d", summary.Processed, summary.Failed)
	return summary, nil
}

// MonitorBook reconciles a single book against its last known price.
// Idempotent: re-running with an unchanged source price yields ChangeNone and
// writes nothing.
func (s *MonitorService) MonitorBook(ctx context.Context, book *models.Book) (Decision, error) {
	body, err := s.fetcher.Fetch(ctx, book.Link)
	if err != nil {
		return Decision{}, err
	}

	data, err := scraper.ExtractBookData(string(body), book.Link)
	if err != nil {
		return Decision{}, fmt.Errorf("extracting %s: %w", book.Link, err)
	}

	lastPrice, err := s.lastKnownPrice(ctx, book)
	if err != nil {
		return Decision{}, err
	}

	decision := Classify(lastPrice, data.Price)
	if decision.Change == ChangeNone {
		return decision, nil
	}

	logger.Info("MonitorService: price change for %s: %d -> %d (%s)",
		book.ISBN13, lastPrice, data.Price, decision.Change)

	if err := s.store.UpdateBookPrice(ctx, book.ID, data.Price); err != nil {
		return Decision{}, fmt.Errorf("updating price for %s: %w", book.ISBN13, err)
	}
	if err := s.store.AppendPriceHistory(ctx, book.ID, data.Price, time.Now()); err != nil {
		return Decision{}, fmt.Errorf("appending history for %s: %w", book.ISBN13, err)
	}
	book.Price = data.Price

	if lowest, err := s.store.MinPositivePrice(ctx, book.ID); err == nil {
		decision.LowestPrice = lowest.Price
		decision.LowestPriceAt = lowest.Date
	} else if !errors.Is(err, store.ErrNotFound) {
		logger.Error("MonitorService: lowest price lookup failed for %s: %v", book.ISBN13, err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateBook(ctx, book.ID); err != nil {
			logger.Error("MonitorService: cache invalidation failed for book %d: %v", book.ID, err)
		}
	}

	s.dispatch(ctx, book, decision)
	return decision, nil
}

// lastKnownPrice returns the newest observation, falling back to the stored
// book price when no history exists yet
func (s *MonitorService) lastKnownPrice(ctx context.Context, book *models.Book) (int64, error) {
	history, err := s.store.ListPriceHistory(ctx, book.ID, 1)
	if err != nil {
		return 0, fmt.Errorf("loading history for %s: %w", book.ISBN13, err)
	}
	if len(history) == 0 {
		return book.Price, nil
	}
	return history[0].Price, nil
}

// dispatch routes the decision to the notifier for each tracking user.
// Back-in-stock always notifies; price drops only when the discount
// percentage strictly exceeds the user's configured threshold.
func (s *MonitorService) dispatch(ctx context.Context, book *models.Book, decision Decision) {
	if decision.Change != ChangeBackInStock && decision.Change != ChangePriceDrop {
		return
	}

	users, err := s.store.ListUsersTrackingBook(ctx, book.ID)
	if err != nil {
		logger.Error("MonitorService: loading trackers for %s failed: %v", book.ISBN13, err)
		return
	}

	for i := range users {
		user := &users[i]
		switch decision.Change {
		case ChangeBackInStock:
			s.notifier.NotifyBackInStock(ctx, book, user, decision)
		case ChangePriceDrop:
			if decision.DiscountPct > user.DiscountThreshold {
				s.notifier.NotifyPriceDrop(ctx, book, user, decision)
			}
		}
	}
}

// AddBookForUser implements the interactive add flow: fetch, extract, upsert
// the book by catalog identifier and link it to the user.
func (s *MonitorService) AddBookForUser(ctx context.Context, user *models.User, bookURL string) (*models.Book, error) {
	if user.Plan != models.PlanPremium {
		count, err := s.store.CountUserRelations(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if count >= models.FreePlanBookLimit {
			return nil, ErrPlanLimit
		}
	}

	body, err := s.fetcher.Fetch(ctx, bookURL)
	if err != nil {
		return nil, err
	}
	data, err := scraper.ExtractBookData(string(body), bookURL)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", bookURL, err)
	}
	if data.ISBN13 == "" {
		return nil, ErrUnrecognizedPage
	}

	book, err := s.upsertBook(ctx, data)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindRelation(ctx, user.ID, book.ID); err == nil {
		return book, ErrAlreadyTracked
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := s.store.CreateRelation(ctx, user.ID, book.ID, false); err != nil {
		return nil, err
	}
	return book, nil
}

// upsertBook creates the book on first sight of its catalog identifier and
// reuses the existing row afterwards
func (s *MonitorService) upsertBook(ctx context.Context, data *scraper.BookData) (*models.Book, error) {
	book, err := s.store.FindBookByISBN(ctx, data.ISBN13)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	book = &models.Book{
		ISBN13:      data.ISBN13,
		Title:       data.Title,
		Author:      data.Author,
		Link:        data.Link,
		ImageURL:    data.ImageURL,
		Price:       data.Price,
		Discount:    data.Discount,
		Details:     data.Details,
		Description: data.Description,
	}
	if err := s.store.CreateBook(ctx, book); err != nil {
		// Lost a race with a concurrent upsert of the same identifier
		if errors.Is(err, store.ErrDuplicate) {
			return s.store.FindBookByISBN(ctx, data.ISBN13)
		}
		return nil, err
	}
	return book, nil
}
