/**
 * @description
 * Pipeline trigger handlers.
 * Exposes the scheduled batch operations (price reconciliation over all
 * books, synchronization over all lists) for external schedulers. Both are
 * idempotent and return the aggregate run summary; per-unit failures are
 * only visible inside that summary.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/services"
)

// MonitorHandler triggers pipeline runs over HTTP
type MonitorHandler struct {
	monitor *services.MonitorService
	lists   *services.ListService
}

// NewMonitorHandler creates a new MonitorHandler
func NewMonitorHandler(monitor *services.MonitorService, lists *services.ListService) *MonitorHandler {
	return &MonitorHandler{
		monitor: monitor,
		lists:   lists,
	}
}

// MonitorBooks runs price reconciliation over every tracked book
// GET /api/v1/books/monitorBooks
func (h *MonitorHandler) MonitorBooks(c *fiber.Ctx) error {
	summary, err := h.monitor.MonitorAllBooks(c.Context())
	if err != nil {
		logger.Error("MonitorHandler: monitor run failed to start: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error processing books"})
	}

	return c.JSON(fiber.Map{
		"message":   "Books processed successfully",
		"processed": summary.Processed,
		"errors":    summary.Failed,
		"failures":  summary.Failures,
	})
}

// ProcessLists runs synchronization over every tracked list
// GET /api/v1/books/processLists
func (h *MonitorHandler) ProcessLists(c *fiber.Ctx) error {
	summary, err := h.lists.SyncAllLists(c.Context())
	if err != nil {
		logger.Error("MonitorHandler: list sync failed to start: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error processing lists"})
	}

	return c.JSON(fiber.Map{
		"message":        "All lists processed successfully",
		"listsProcessed": summary.Processed,
		"listsWithErrors": summary.Failed,
		"failures":       summary.Failures,
	})
}
