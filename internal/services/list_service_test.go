package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/store"
)

func newListFixture(t *testing.T) (*bookSite, *fakeStore, *ListService) {
	site := newBookSite(t)
	st := newFakeStore()
	fetcher := newTestFetcher()
	monitor := NewMonitorService(st, fetcher, &fakeNotifier{}, nil)
	return site, st, NewListService(st, fetcher, monitor)
}

func TestSyncListLinksNewMembers(t *testing.T) {
	site, st, ls := newListFixture(t)

	uno := site.setBook("/libro/uno", "Uno", "9780000000001", 12000)
	dos := site.setBook("/libro/dos", "Dos", "9780000000002", 15500)
	listURL := site.setCatalog("/lista/novedades", uno, dos)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)
	list := &models.BookList{UserID: user.ID, URLList: listURL}
	require.NoError(t, st.CreateBookList(context.Background(), list))

	result, err := ls.SyncList(context.Background(), list)
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksProcessed)
	assert.Equal(t, 0, result.BooksFailed)
	assert.Equal(t, 0, result.Unlinked)
	assert.Equal(t, 2, st.relationCount())

	rels, err := st.ListUserRelations(context.Background(), user.ID)
	require.NoError(t, err)
	for _, rel := range rels {
		assert.True(t, rel.FromList, "list sync must mark relations as list-originated")
	}
}

func TestSyncListUnlinksOnlyListOriginatedRelations(t *testing.T) {
	site, st, ls := newListFixture(t)

	uno := site.setBook("/libro/uno", "Uno", "9780000000001", 12000)
	site.setBook("/libro/dos", "Dos", "9780000000002", 15500)
	site.setBook("/libro/manual", "Manual", "9780000000003", 9990)

	// The list currently contains only uno
	listURL := site.setCatalog("/lista/novedades", uno)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)

	stays := st.addBook(&models.Book{ISBN13: "9780000000001", Link: uno, Price: 12000})
	departed := st.addBook(&models.Book{ISBN13: "9780000000002", Link: site.srv.URL + "/libro/dos", Price: 15500})
	manual := st.addBook(&models.Book{ISBN13: "9780000000003", Link: site.srv.URL + "/libro/manual", Price: 9990})
	st.addRelation(user.ID, stays.ID, true)
	st.addRelation(user.ID, departed.ID, true)
	st.addRelation(user.ID, manual.ID, false)

	list := &models.BookList{UserID: user.ID, URLList: listURL}
	require.NoError(t, st.CreateBookList(context.Background(), list))

	result, err := ls.SyncList(context.Background(), list)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unlinked)

	assert.True(t, st.hasRelation(user.ID, stays.ID))
	assert.False(t, st.hasRelation(user.ID, departed.ID), "departed list member must be unlinked")
	assert.True(t, st.hasRelation(user.ID, manual.ID), "manually added relation must survive list sync")
}

func TestSyncListFetchFailureSkipsCycle(t *testing.T) {
	site, st, ls := newListFixture(t)

	listURL := site.setFailing("/lista/caida", true)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)
	book := st.addBook(&models.Book{ISBN13: "9780000000001", Link: "x", Price: 12000})
	st.addRelation(user.ID, book.ID, true)

	list := &models.BookList{UserID: user.ID, URLList: listURL}
	require.NoError(t, st.CreateBookList(context.Background(), list))

	_, err := ls.SyncList(context.Background(), list)
	require.Error(t, err)
	assert.True(t, st.hasRelation(user.ID, book.ID),
		"an unreadable list must not be treated as an empty one")
}

func TestSyncListMemberFailureDoesNotAbort(t *testing.T) {
	site, st, ls := newListFixture(t)

	uno := site.setBook("/libro/uno", "Uno", "9780000000001", 12000)
	roto := site.setFailing("/libro/roto", true)
	listURL := site.setCatalog("/lista/novedades", uno, roto)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)
	list := &models.BookList{UserID: user.ID, URLList: listURL}
	require.NoError(t, st.CreateBookList(context.Background(), list))

	result, err := ls.SyncList(context.Background(), list)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksProcessed)
	assert.Equal(t, 1, result.BooksFailed)
	assert.Equal(t, 1, st.relationCount())
}

func TestAddListForUser(t *testing.T) {
	site, st, ls := newListFixture(t)

	uno := site.setBook("/libro/uno", "Uno", "9780000000001", 12000)
	listURL := site.setCatalog("/lista/novedades", uno)

	user := &models.User{Email: "reader@example.com", Plan: models.PlanPremium}
	st.addUser(user)

	list, result, err := ls.AddListForUser(context.Background(), user, listURL)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.BooksProcessed)
	assert.Equal(t, 1, st.relationCount())

	// Same URL again is a duplicate
	_, _, err = ls.AddListForUser(context.Background(), user, listURL)
	assert.True(t, errors.Is(err, store.ErrDuplicate))
}

func TestAddListForUserRequiresPremium(t *testing.T) {
	site, st, ls := newListFixture(t)

	listURL := site.setCatalog("/lista/novedades")

	user := &models.User{Email: "reader@example.com", Plan: models.PlanFree}
	st.addUser(user)

	_, _, err := ls.AddListForUser(context.Background(), user, listURL)
	assert.True(t, errors.Is(err, ErrPlanLimit))
}
