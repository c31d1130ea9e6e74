/**
 * @description
 * Book list API handlers.
 * Register and remove tracked catalog lists; a newly added list is
 * synchronized immediately so the response reflects its members.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/store
 */

package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/priceshelf-project/backend/internal/api/middleware"
	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/services"
	"github.com/priceshelf-project/backend/internal/store"
	"gorm.io/gorm"
)

// ListHandler handles tracked list requests
type ListHandler struct {
	db    *gorm.DB
	store store.Store
	lists *services.ListService
}

// NewListHandler creates a new ListHandler
func NewListHandler(db *gorm.DB, st store.Store, lists *services.ListService) *ListHandler {
	return &ListHandler{
		db:    db,
		store: st,
		lists: lists,
	}
}

// AddListRequest represents an add-list request body
type AddListRequest struct {
	URL string `json:"url"`
}

// AddList registers a catalog list for the user and syncs it once
// POST /api/v1/lists
func (h *ListHandler) AddList(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := h.db.WithContext(c.Context()).First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req AddListRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url is required"})
	}

	list, result, err := h.lists.AddListForUser(c.Context(), &user, req.URL)
	switch {
	case errors.Is(err, services.ErrPlanLimit):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The free plan does not allow importing lists",
		})
	case errors.Is(err, store.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This list has already been added by this user",
		})
	case err != nil:
		logger.Error("ListHandler: adding list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add list"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "List added and processed successfully",
		"list":    list,
		"sync":    result,
	})
}

// GetLists returns the user's tracked lists
// GET /api/v1/lists
func (h *ListHandler) GetLists(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var lists []models.BookList
	if err := h.db.WithContext(c.Context()).Where("user_id = ?", userID).Find(&lists).Error; err != nil {
		logger.Error("ListHandler: listing lists failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list lists"})
	}
	return c.JSON(fiber.Map{"lists": lists})
}

// DeleteList removes a tracked list. Existing relations stay; list
// synchronization stops maintaining them once the list is gone.
// DELETE /api/v1/lists/:id
func (h *ListHandler) DeleteList(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	listID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid list id"})
	}

	if err := h.store.DeleteBookList(c.Context(), userID, listID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "List not found"})
		}
		logger.Error("ListHandler: deleting list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete list"})
	}
	return c.JSON(fiber.Map{"success": true})
}
