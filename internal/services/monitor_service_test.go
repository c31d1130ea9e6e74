package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshelf-project/backend/internal/config"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/scraper"
)

// bookSite is a fake bookstore: one mutable page per path
type bookSite struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]bool
	srv   *httptest.Server
}

func newBookSite(t *testing.T) *bookSite {
	site := &bookSite{
		pages: make(map[string]string),
		fail:  make(map[string]bool),
	}
	site.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		defer site.mu.Unlock()
		if site.fail[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		page, ok := site.pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(page))
	}))
	t.Cleanup(site.srv.Close)
	return site
}

func (s *bookSite) setBook(path, title, isbn string, price int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = productPageHTML(title, isbn, price)
	return s.srv.URL + path
}

func (s *bookSite) setCatalog(path string, bookURLs ...string) string {
	var body string
	for _, u := range bookURLs {
		body += fmt.Sprintf(`<div class="portadaProducto"><a href="%s">libro</a></div>`, u)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = "<html><body>" + body + "</body></html>"
	return s.srv.URL + path
}

func (s *bookSite) setFailing(path string, failing bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = failing
	return s.srv.URL + path
}

func productPageHTML(title, isbn string, price int64) string {
	priceBlock := ""
	if price > 0 {
		priceBlock = fmt.Sprintf(
			`<div id="detallePrecio"><div class="opcionForm idx1"><strong class="precio">$ %d</strong></div></div>`,
			price)
	}
	return fmt.Sprintf(`<html><body>
	  <div id="data-info-libro"><div><div><p class="tituloProducto">%s</p></div></div></div>
	  <span id="metadata-isbn13">%s</span>
	  %s
	</body></html>`, title, isbn, priceBlock)
}

func newTestFetcher() *scraper.Fetcher {
	return scraper.NewFetcher(config.ScraperConfig{
		MaxConcurrent: 5,
		MinInterval:   time.Millisecond,
		Timeout:       5 * time.Second,
	})
}

func newMonitorFixture(t *testing.T) (*bookSite, *fakeStore, *fakeNotifier, *MonitorService) {
	site := newBookSite(t)
	st := newFakeStore()
	notifier := &fakeNotifier{}
	ms := NewMonitorService(st, newTestFetcher(), notifier, nil)
	return site, st, notifier, ms
}

func TestMonitorBookNoChangeIsIdempotent(t *testing.T) {
	site, st, notifier, ms := newMonitorFixture(t)

	link := site.setBook("/libro/uno", "Uno", "9780000000001", 21380)
	book := st.addBook(&models.Book{ISBN13: "9780000000001", Link: link, Price: 21380})

	for i := 0; i < 2; i++ {
		decision, err := ms.MonitorBook(context.Background(), book)
		require.NoError(t, err)
		assert.Equal(t, ChangeNone, decision.Change)
	}

	assert.Equal(t, 0, st.historyLen(book.ID), "no_change must not append history")
	assert.Empty(t, notifier.dropCalls())
	assert.Empty(t, notifier.stockCalls())
}

func TestMonitorBookPriceChangeAppendsOnceThenSettles(t *testing.T) {
	site, st, _, ms := newMonitorFixture(t)

	link := site.setBook("/libro/uno", "Uno", "9780000000001", 21380)
	book := st.addBook(&models.Book{ISBN13: "9780000000001", Link: link, Price: 26330})

	decision, err := ms.MonitorBook(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, ChangePriceDrop, decision.Change)
	assert.Equal(t, int64(4950), decision.Discount)
	assert.Equal(t, 19, decision.DiscountPct)
	assert.Equal(t, 1, st.historyLen(book.ID))

	// Re-running against an unchanged source price appends nothing
	decision, err = ms.MonitorBook(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, ChangeNone, decision.Change)
	assert.Equal(t, 1, st.historyLen(book.ID))
}

func TestMonitorBookThresholdIsStrict(t *testing.T) {
	site, st, notifier, ms := newMonitorFixture(t)

	// 10250 -> 8200 is exactly a 20% discount
	exactLink := site.setBook("/libro/exacto", "Exacto", "9780000000002", 8200)
	exactBook := st.addBook(&models.Book{ISBN13: "9780000000002", Link: exactLink, Price: 10250})

	// 10000 -> 7900 is a 21% discount
	overLink := site.setBook("/libro/sobre", "Sobre", "9780000000003", 7900)
	overBook := st.addBook(&models.Book{ISBN13: "9780000000003", Link: overLink, Price: 10000})

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium, DiscountThreshold: 20}
	st.addUser(user)
	st.addRelation(user.ID, exactBook.ID, false)
	st.addRelation(user.ID, overBook.ID, false)

	_, err := ms.MonitorBook(context.Background(), exactBook)
	require.NoError(t, err)
	assert.Empty(t, notifier.dropCalls(), "exactly-at-threshold discount must not notify")

	_, err = ms.MonitorBook(context.Background(), overBook)
	require.NoError(t, err)
	calls := notifier.dropCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, overBook.ID, calls[0].BookID)
	assert.Equal(t, 21, calls[0].Decision.DiscountPct)
}

func TestMonitorBookBackInStockNotifiesEveryTracker(t *testing.T) {
	site, st, notifier, ms := newMonitorFixture(t)

	link := site.setBook("/libro/uno", "Uno", "9780000000001", 15000)
	book := st.addBook(&models.Book{ISBN13: "9780000000001", Link: link, Price: 0})

	// Thresholds are irrelevant for back-in-stock
	alice := &models.User{Email: "alice@example.com", Plan: models.PlanPremium, DiscountThreshold: 99}
	bob := &models.User{Email: "bob@example.com", Plan: models.PlanFree, DiscountThreshold: 99}
	st.addUser(alice)
	st.addUser(bob)
	st.addRelation(alice.ID, book.ID, false)
	st.addRelation(bob.ID, book.ID, true)

	decision, err := ms.MonitorBook(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, ChangeBackInStock, decision.Change)
	assert.Len(t, notifier.stockCalls(), 2)
	assert.Empty(t, notifier.dropCalls())
}

func TestMonitorBookWentOutOfStockRecordsSilently(t *testing.T) {
	site, st, notifier, ms := newMonitorFixture(t)

	link := site.setBook("/libro/uno", "Uno", "9780000000001", 0)
	book := st.addBook(&models.Book{ISBN13: "9780000000001", Link: link, Price: 9990})

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium, DiscountThreshold: 0}
	st.addUser(user)
	st.addRelation(user.ID, book.ID, false)

	decision, err := ms.MonitorBook(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, ChangeOutOfStock, decision.Change)
	assert.Equal(t, 1, st.historyLen(book.ID))
	assert.Empty(t, notifier.dropCalls())
	assert.Empty(t, notifier.stockCalls())
}

func TestMonitorBookLowestPriceExcludesZero(t *testing.T) {
	site, st, notifier, ms := newMonitorFixture(t)

	link := site.setBook("/libro/uno", "Uno", "9780000000001", 12000)
	book := st.addBook(&models.Book{ISBN13: "9780000000001", Link: link, Price: 0})
	require.NoError(t, st.AppendPriceHistory(context.Background(), book.ID, 15000, time.Now().Add(-3*time.Hour)))
	require.NoError(t, st.AppendPriceHistory(context.Background(), book.ID, 13500, time.Now().Add(-2*time.Hour)))
	require.NoError(t, st.AppendPriceHistory(context.Background(), book.ID, 0, time.Now().Add(-time.Hour)))

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium, DiscountThreshold: 0}
	st.addUser(user)
	st.addRelation(user.ID, book.ID, false)

	decision, err := ms.MonitorBook(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, ChangeBackInStock, decision.Change)
	assert.Equal(t, int64(12000), decision.LowestPrice, "zero observations are not prices")

	calls := notifier.stockCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(12000), calls[0].Decision.LowestPrice)
}

func TestMonitorAllBooksIsolatesFailures(t *testing.T) {
	site, st, _, ms := newMonitorFixture(t)

	for i := 1; i <= 10; i++ {
		isbn := fmt.Sprintf("978000000%04d", i)
		path := fmt.Sprintf("/libro/%d", i)
		link := site.setBook(path, fmt.Sprintf("Libro %d", i), isbn, int64(10000+i))
		st.addBook(&models.Book{ISBN13: isbn, Link: link, Price: 20000})
		if i == 4 {
			site.setFailing(path, true)
		}
	}

	summary, err := ms.MonitorAllBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "9780000000004", summary.Failures[0].Unit)
}

func TestAddBookForUser(t *testing.T) {
	site, st, _, ms := newMonitorFixture(t)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)

	link := site.setBook("/libro/nuevo", "Nuevo", "9780000000042", 18500)

	book, err := ms.AddBookForUser(context.Background(), user, link)
	require.NoError(t, err)
	assert.Equal(t, "9780000000042", book.ISBN13)
	assert.Equal(t, int64(18500), book.Price)
	assert.True(t, st.hasRelation(user.ID, book.ID))

	// Adding the same book again reports the existing link
	_, err = ms.AddBookForUser(context.Background(), user, link)
	assert.True(t, errors.Is(err, ErrAlreadyTracked))
}

func TestAddBookForUserFreePlanLimit(t *testing.T) {
	site, st, _, ms := newMonitorFixture(t)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanFree}
	st.addUser(user)
	for i := 1; i <= models.FreePlanBookLimit; i++ {
		book := st.addBook(&models.Book{ISBN13: fmt.Sprintf("978111111%04d", i), Link: "x"})
		st.addRelation(user.ID, book.ID, false)
	}

	link := site.setBook("/libro/sexto", "Sexto", "9780000000006", 9990)
	_, err := ms.AddBookForUser(context.Background(), user, link)
	assert.True(t, errors.Is(err, ErrPlanLimit))
}

func TestAddBookForUserFetchFailure(t *testing.T) {
	site, st, _, ms := newMonitorFixture(t)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)

	link := site.setFailing("/libro/roto", true)
	_, err := ms.AddBookForUser(context.Background(), user, link)
	assert.True(t, errors.Is(err, scraper.ErrFetch))
}
