/**
 * @description
 * Book API handlers.
 * Read surface over tracked books (paginated listing, detail with price
 * history, search) plus the interactive add/unlink flows.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/cache
 * - backend/internal/api/middleware
 */

package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/priceshelf-project/backend/internal/api/middleware"
	"github.com/priceshelf-project/backend/internal/cache"
	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/scraper"
	"github.com/priceshelf-project/backend/internal/services"
	"github.com/priceshelf-project/backend/internal/store"
	"gorm.io/gorm"
)

// BookHandler handles book-related requests
type BookHandler struct {
	db      *gorm.DB
	store   store.Store
	monitor *services.MonitorService
	cache   *cache.Cache
}

// NewBookHandler creates a new BookHandler
func NewBookHandler(db *gorm.DB, st store.Store, monitor *services.MonitorService, ch *cache.Cache) *BookHandler {
	return &BookHandler{
		db:      db,
		store:   st,
		monitor: monitor,
		cache:   ch,
	}
}

func (h *BookHandler) loadUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := h.db.WithContext(c.Context()).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// BookListResponse is the paginated book listing payload
type BookListResponse struct {
	Books    []models.Book `json:"books"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// GetBooks lists the user's tracked books
// GET /api/v1/books?page=1&pageSize=12
func (h *BookHandler) GetBooks(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "12"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 12
	}

	cacheKey := cache.UserBooksKey(user.ID, page, pageSize)
	if h.cache != nil {
		var cached BookListResponse
		if hit, err := h.cache.GetJSON(c.Context(), cacheKey, &cached); err == nil && hit {
			c.Set("X-Cache", "HIT")
			return c.JSON(cached)
		}
	}

	q := h.db.WithContext(c.Context()).
		Model(&models.UserBook{}).
		Where("user_id = ?", user.ID).
		Order("created_at DESC")

	// FREE accounts only see their five most recent books
	if user.Plan != models.PlanPremium {
		q = q.Limit(models.FreePlanBookLimit)
	}

	var relations []models.UserBook
	if err := q.Preload("Book").Find(&relations).Error; err != nil {
		logger.Error("BookHandler: listing books failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list books"})
	}

	books := make([]models.Book, 0, len(relations))
	for _, rel := range relations {
		if rel.Book != nil {
			books = append(books, *rel.Book)
		}
	}

	total := int64(len(books))
	start := (page - 1) * pageSize
	if start > len(books) {
		start = len(books)
	}
	end := start + pageSize
	if end > len(books) {
		end = len(books)
	}

	resp := BookListResponse{
		Books:    books[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(c.Context(), cacheKey, resp); err != nil {
			logger.Error("BookHandler: caching book list failed: %v", err)
		}
		c.Set("X-Cache", "MISS")
	}
	return c.JSON(resp)
}

// BookDetailResponse is the book detail payload with derived price metrics
type BookDetailResponse struct {
	models.Book
	MinPrice        *int64                `json:"min_price"`
	CurrentPrice    int64                 `json:"current_price"`
	PreviousPrice   *int64                `json:"previous_price"`
	RealDiscount    *int64                `json:"real_discount"`
	RealDiscountPct *int                  `json:"real_discount_pct"`
	PriceHistory    []models.PriceHistory `json:"price_history"`
}

// GetBook returns one book with its price history and derived metrics
// GET /api/v1/books/:id
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	bookID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid book id"})
	}

	cacheKey := cache.BookKey(bookID)
	var resp BookDetailResponse
	cached := false
	if h.cache != nil {
		if hit, err := h.cache.GetJSON(c.Context(), cacheKey, &resp); err == nil && hit {
			cached = true
		}
	}

	if !cached {
		var book models.Book
		if err := h.db.WithContext(c.Context()).First(&book, "id = ?", bookID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Book not found"})
		}

		history, err := h.store.ListPriceHistory(c.Context(), bookID, 0)
		if err != nil {
			logger.Error("BookHandler: loading history failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load book"})
		}

		resp = buildBookDetail(book, history)
		if h.cache != nil {
			if err := h.cache.SetJSON(c.Context(), cacheKey, resp); err != nil {
				logger.Error("BookHandler: caching book failed: %v", err)
			}
		}
	}

	// Non-premium users may only view books they track
	if user.Plan != models.PlanPremium {
		if _, err := h.store.FindRelation(c.Context(), user.ID, bookID); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No access to this book"})
		}
	}

	return c.JSON(resp)
}

// buildBookDetail computes derived metrics from the (newest-first) history
func buildBookDetail(book models.Book, history []models.PriceHistory) BookDetailResponse {
	resp := BookDetailResponse{
		Book:         book,
		CurrentPrice: book.Price,
	}

	if len(history) > 0 {
		resp.CurrentPrice = history[0].Price

		min := history[0].Price
		for _, entry := range history[1:] {
			if entry.Price < min {
				min = entry.Price
			}
		}
		resp.MinPrice = &min

		if len(history) > 1 {
			prev := history[1].Price
			resp.PreviousPrice = &prev
			if prev > resp.CurrentPrice {
				decision := services.Classify(prev, resp.CurrentPrice)
				if decision.Change == services.ChangePriceDrop {
					resp.RealDiscount = &decision.Discount
					resp.RealDiscountPct = &decision.DiscountPct
				}
			}
		}
	}

	// History is served oldest-first for charting
	ordered := make([]models.PriceHistory, len(history))
	for i, entry := range history {
		ordered[len(history)-1-i] = entry
	}
	resp.PriceHistory = ordered
	return resp
}

// SearchBooks searches the user's tracked books by title
// GET /api/v1/books/search?q=
func (h *BookHandler) SearchBooks(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Query parameter q is required"})
	}

	var books []models.Book
	err = h.db.WithContext(c.Context()).
		Joins("JOIN user_books ON user_books.book_id = books.id").
		Where("user_books.user_id = ? AND books.title ILIKE ?", user.ID, "%"+query+"%").
		Find(&books).Error
	if err != nil {
		logger.Error("BookHandler: search failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Search failed"})
	}

	return c.JSON(fiber.Map{"books": books})
}

// AddBookRequest represents an add-book request body
type AddBookRequest struct {
	URL string `json:"url"`
}

// AddBook tracks a new book for the user
// POST /api/v1/books
func (h *BookHandler) AddBook(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req AddBookRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url is required"})
	}

	book, err := h.monitor.AddBookForUser(c.Context(), user, req.URL)
	switch {
	case errors.Is(err, services.ErrAlreadyTracked):
		return c.JSON(fiber.Map{"message": "Book is already linked to the user", "book": book})
	case errors.Is(err, services.ErrPlanLimit):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The free plan only allows tracking up to 5 books",
		})
	case errors.Is(err, scraper.ErrFetch):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to fetch the book page"})
	case errors.Is(err, services.ErrUnrecognizedPage):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Page layout not recognized"})
	case err != nil:
		logger.Error("BookHandler: adding book failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add book"})
	}

	if h.cache != nil {
		if err := h.cache.InvalidateUserBooks(c.Context(), user.ID); err != nil {
			logger.Error("BookHandler: cache invalidation failed: %v", err)
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Book added to user successfully", "book": book})
}

// DeleteBook unlinks a book from the user; the book row itself stays
// DELETE /api/v1/books/:id
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	bookID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid book id"})
	}

	if _, err := h.store.FindRelation(c.Context(), user.ID, bookID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Book not tracked"})
	}
	if err := h.store.DeleteRelation(c.Context(), user.ID, bookID); err != nil {
		logger.Error("BookHandler: deleting relation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove book"})
	}

	if h.cache != nil {
		if err := h.cache.InvalidateUserBooks(c.Context(), user.ID); err != nil {
			logger.Error("BookHandler: cache invalidation failed: %v", err)
		}
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetNotifications lists the user's recent alerts
// GET /api/v1/books/notifications
func (h *BookHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var notifications []models.Notification
	err = h.db.WithContext(c.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		logger.Error("BookHandler: listing notifications failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list notifications"})
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}
