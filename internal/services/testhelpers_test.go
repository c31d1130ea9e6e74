package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/store"
)

// fakeStore is an in-memory Store. Safe for concurrent use: batch runs hit it
// from many goroutines.
type fakeStore struct {
	mu            sync.Mutex
	books         map[uint64]*models.Book
	booksByISBN   map[string]uint64
	history       map[uint64][]models.PriceHistory // chronological append order
	relations     []*models.UserBook
	users         map[uuid.UUID]*models.User
	lists         []*models.BookList
	notifications []*models.Notification
	nextBookID    uint64
	nextListID    uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:       make(map[uint64]*models.Book),
		booksByISBN: make(map[string]uint64),
		history:     make(map[uint64][]models.PriceHistory),
		users:       make(map[uuid.UUID]*models.User),
	}
}

func (f *fakeStore) addUser(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
}

func (f *fakeStore) addBook(b *models.Book) *models.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextBookID++
	b.ID = f.nextBookID
	f.books[b.ID] = b
	f.booksByISBN[b.ISBN13] = b.ID
	return b
}

func (f *fakeStore) addRelation(userID uuid.UUID, bookID uint64, fromList bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relations = append(f.relations, &models.UserBook{
		UserID:   userID,
		BookID:   bookID,
		FromList: fromList,
	})
}

func (f *fakeStore) historyLen(bookID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history[bookID])
}

func (f *fakeStore) relationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.relations)
}

func (f *fakeStore) hasRelation(userID uuid.UUID, bookID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.relations {
		if rel.UserID == userID && rel.BookID == bookID {
			return true
		}
	}
	return false
}

func (f *fakeStore) FindBookByISBN(_ context.Context, isbn string) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.booksByISBN[isbn]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *f.books[id]
	return &clone, nil
}

func (f *fakeStore) CreateBook(_ context.Context, book *models.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.booksByISBN[book.ISBN13]; ok {
		return store.ErrDuplicate
	}
	f.nextBookID++
	book.ID = f.nextBookID
	clone := *book
	f.books[book.ID] = &clone
	f.booksByISBN[book.ISBN13] = book.ID
	return nil
}

func (f *fakeStore) ListBooks(_ context.Context) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	books := make([]models.Book, 0, len(f.books))
	for _, b := range f.books {
		books = append(books, *b)
	}
	return books, nil
}

func (f *fakeStore) UpdateBookPrice(_ context.Context, bookID uint64, price int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[bookID]
	if !ok {
		return store.ErrNotFound
	}
	book.Price = price
	return nil
}

func (f *fakeStore) AppendPriceHistory(_ context.Context, bookID uint64, price int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[bookID] = append(f.history[bookID], models.PriceHistory{
		BookID: bookID,
		Price:  price,
		Date:   at,
	})
	return nil
}

func (f *fakeStore) ListPriceHistory(_ context.Context, bookID uint64, limit int) ([]models.PriceHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chronological := f.history[bookID]
	entries := make([]models.PriceHistory, 0, len(chronological))
	for i := len(chronological) - 1; i >= 0; i-- {
		entries = append(entries, chronological[i])
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (f *fakeStore) MinPositivePrice(_ context.Context, bookID uint64) (*models.PriceHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.PriceHistory
	for i := range f.history[bookID] {
		entry := f.history[bookID][i]
		if entry.Price > 0 && (best == nil || entry.Price < best.Price) {
			best = &entry
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	clone := *best
	return &clone, nil
}

func (f *fakeStore) FindRelation(_ context.Context, userID uuid.UUID, bookID uint64) (*models.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.relations {
		if rel.UserID == userID && rel.BookID == bookID {
			clone := *rel
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateRelation(_ context.Context, userID uuid.UUID, bookID uint64, fromList bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.relations {
		if rel.UserID == userID && rel.BookID == bookID {
			return store.ErrDuplicate
		}
	}
	f.relations = append(f.relations, &models.UserBook{
		UserID:   userID,
		BookID:   bookID,
		FromList: fromList,
	})
	return nil
}

func (f *fakeStore) DeleteRelation(_ context.Context, userID uuid.UUID, bookID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rel := range f.relations {
		if rel.UserID == userID && rel.BookID == bookID {
			f.relations = append(f.relations[:i], f.relations[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListUserRelations(_ context.Context, userID uuid.UUID) ([]models.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rels []models.UserBook
	for _, rel := range f.relations {
		if rel.UserID != userID {
			continue
		}
		clone := *rel
		if book, ok := f.books[rel.BookID]; ok {
			bookClone := *book
			clone.Book = &bookClone
		}
		rels = append(rels, clone)
	}
	return rels, nil
}

func (f *fakeStore) CountUserRelations(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, rel := range f.relations {
		if rel.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListUsersTrackingBook(_ context.Context, bookID uint64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, rel := range f.relations {
		if rel.BookID != bookID {
			continue
		}
		if user, ok := f.users[rel.UserID]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (f *fakeStore) ListBookLists(_ context.Context) ([]models.BookList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lists := make([]models.BookList, 0, len(f.lists))
	for _, l := range f.lists {
		clone := *l
		if user, ok := f.users[l.UserID]; ok {
			userClone := *user
			clone.User = &userClone
		}
		lists = append(lists, clone)
	}
	return lists, nil
}

func (f *fakeStore) CreateBookList(_ context.Context, list *models.BookList) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lists {
		if l.UserID == list.UserID && l.URLList == list.URLList {
			return store.ErrDuplicate
		}
	}
	f.nextListID++
	list.ID = f.nextListID
	clone := *list
	f.lists = append(f.lists, &clone)
	return nil
}

func (f *fakeStore) DeleteBookList(_ context.Context, userID uuid.UUID, listID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.lists {
		if l.ID == listID && l.UserID == userID {
			f.lists = append(f.lists[:i], f.lists[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *n
	f.notifications = append(f.notifications, &clone)
	return nil
}

// notifyCall records one dispatched alert
type notifyCall struct {
	BookID   uint64
	UserID   uuid.UUID
	Decision Decision
}

// fakeNotifier records dispatches instead of sending anything
type fakeNotifier struct {
	mu          sync.Mutex
	priceDrops  []notifyCall
	backInStock []notifyCall
}

func (f *fakeNotifier) NotifyPriceDrop(_ context.Context, book *models.Book, user *models.User, decision Decision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceDrops = append(f.priceDrops, notifyCall{BookID: book.ID, UserID: user.ID, Decision: decision})
}

func (f *fakeNotifier) NotifyBackInStock(_ context.Context, book *models.Book, user *models.User, decision Decision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backInStock = append(f.backInStock, notifyCall{BookID: book.ID, UserID: user.ID, Decision: decision})
}

func (f *fakeNotifier) dropCalls() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifyCall(nil), f.priceDrops...)
}

func (f *fakeNotifier) stockCalls() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifyCall(nil), f.backInStock...)
}
