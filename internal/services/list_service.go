/**
 * @description
 * List synchronization engine.
 * Expands a user's catalog list URL into member books, links newly discovered
 * books with from_list relations, and unlinks list-originated relations whose
 * books left the list. Manually added relations are never touched, and a
 * failed list fetch skips the cycle entirely instead of unlinking everything.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/scraper
 */

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/scraper"
	"github.com/priceshelf-project/backend/internal/store"
)

// ListSyncResult summarizes one list's synchronization
type ListSyncResult struct {
	ListID         uint64 `json:"list_id"`
	BooksProcessed int    `json:"books_processed"`
	BooksFailed    int    `json:"books_failed"`
	Unlinked       int    `json:"unlinked"`
}

// ListService synchronizes tracked catalog lists
type ListService struct {
	store   store.Store
	fetcher *scraper.Fetcher
	monitor *MonitorService
}

// NewListService creates a new ListService
func NewListService(st store.Store, fetcher *scraper.Fetcher, monitor *MonitorService) *ListService {
	return &ListService{
		store:   st,
		fetcher: fetcher,
		monitor: monitor,
	}
}

// SyncAllLists synchronizes every tracked list concurrently.
// Errs only when the list set itself cannot be loaded.
func (s *ListService) SyncAllLists(ctx context.Context) (*RunSummary, error) {
	lists, err := s.store.ListBookLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tracked lists: %w", err)
	}

	logger.Info("ListService: syncing %d lists", len(lists))

	summary := runBatch(ctx, lists, func(l models.BookList) string { return fmt.Sprintf("list-%d", l.ID) }, func(ctx context.Context, l models.BookList) error {
		_, err := s.SyncList(ctx, &l)
		return err
	})

	logger.Info("ListService: run complete, processed=%d failed=%d", summary.Processed, summary.Failed)
	return summary, nil
}

// SyncList synchronizes one list. A catalog fetch failure returns an error
// before any relation is modified: "couldn't read the list" must not be
// mistaken for "the list is empty".
func (s *ListService) SyncList(ctx context.Context, list *models.BookList) (*ListSyncResult, error) {
	links, err := scraper.ExtractBookLinks(ctx, s.fetcher, list.URLList)
	if err != nil {
		return nil, fmt.Errorf("fetching list %d: %w", list.ID, err)
	}

	relations, err := s.store.ListUserRelations(ctx, list.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading relations for list %d: %w", list.ID, err)
	}

	tracked := make(map[string]bool, len(relations))
	for _, rel := range relations {
		if rel.Book != nil {
			tracked[rel.Book.ISBN13] = true
		}
	}

	result := &ListSyncResult{ListID: list.ID}

	memberBatch := runBatch(ctx, links, func(l string) string { return l }, func(ctx context.Context, link string) error {
		return s.linkMember(ctx, list, tracked, link)
	})
	result.BooksProcessed = memberBatch.Processed
	result.BooksFailed = memberBatch.Failed

	// Unlink list-originated relations whose book left the list.
	// Manually added relations are out of bounds here regardless of the
	// list's contents.
	member := make(map[string]bool, len(links))
	for _, link := range links {
		member[link] = true
	}
	for _, rel := range relations {
		if !rel.FromList || rel.Book == nil || member[rel.Book.Link] {
			continue
		}
		if err := s.store.DeleteRelation(ctx, list.UserID, rel.BookID); err != nil {
			logger.Error("ListService: unlinking book %d from user %s failed: %v", rel.BookID, list.UserID, err)
			continue
		}
		result.Unlinked++
	}

	return result, nil
}

// linkMember fetches one member page, upserts its book and creates a
// from_list relation when the user does not track it yet
func (s *ListService) linkMember(ctx context.Context, list *models.BookList, tracked map[string]bool, link string) error {
	body, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return err
	}
	data, err := scraper.ExtractBookData(string(body), link)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", link, err)
	}
	if data.ISBN13 == "" {
		return ErrUnrecognizedPage
	}
	if tracked[data.ISBN13] {
		return nil
	}

	book, err := s.monitor.upsertBook(ctx, data)
	if err != nil {
		return err
	}

	if err := s.store.CreateRelation(ctx, list.UserID, book.ID, true); err != nil {
		// A concurrent sync of an overlapping list may have linked it first
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return err
	}
	return nil
}

// AddListForUser registers a new catalog list and synchronizes it once,
// synchronously, so the interactive add flow returns populated
func (s *ListService) AddListForUser(ctx context.Context, user *models.User, listURL string) (*models.BookList, *ListSyncResult, error) {
	if user.Plan != models.PlanPremium {
		return nil, nil, ErrPlanLimit
	}

	list := &models.BookList{
		UserID:  user.ID,
		URLList: listURL,
	}
	if err := s.store.CreateBookList(ctx, list); err != nil {
		return nil, nil, err
	}

	result, err := s.SyncList(ctx, list)
	if err != nil {
		// The list is registered; the first sync will be retried by the
		// scheduled run.
		logger.Error("ListService: initial sync of list %d failed: %v", list.ID, err)
		return list, nil, nil
	}
	return list, result, nil
}
