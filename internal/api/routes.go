/**
 * @description
 * API Route definitions.
 * Sets up the router groups, wires services and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/priceshelf-project/backend/internal/api/handlers"
	"github.com/priceshelf-project/backend/internal/api/middleware"
	"github.com/priceshelf-project/backend/internal/cache"
	"github.com/priceshelf-project/backend/internal/config"
	"github.com/priceshelf-project/backend/internal/mailer"
	"github.com/priceshelf-project/backend/internal/scraper"
	"github.com/priceshelf-project/backend/internal/services"
	"github.com/priceshelf-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	middleware.InitAuthMiddleware(cfg)

	// Services. The fetcher is the single process-wide gate for outbound
	// page fetches; every scraping component below shares this instance.
	st := store.NewGormStore(db)
	fetcher := scraper.NewFetcher(cfg.Scraper)
	responseCache := cache.New(rdb, cfg.Redis.CacheTTL)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)
	notifier := services.NewNotificationService(st, smtpMailer, nil)
	monitorService := services.NewMonitorService(st, fetcher, notifier, responseCache)
	listService := services.NewListService(st, fetcher, monitorService)

	// Handlers
	userHandler := handlers.NewUserHandler(db)
	bookHandler := handlers.NewBookHandler(db, st, monitorService, responseCache)
	listHandler := handlers.NewListHandler(db, st, listService)
	monitorHandler := handlers.NewMonitorHandler(monitorService, listService)

	// Routes
	apiGroup := app.Group("/api")
	v1 := apiGroup.Group("/v1")

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// User routes
	users := v1.Group("/users")
	users.Post("/register", userHandler.Register)
	users.Post("/login", userHandler.Login)
	users.Get("/me", middleware.Protected(), userHandler.GetMe)
	users.Patch("/settings", middleware.Protected(), userHandler.UpdateSettings)

	// Scheduler triggers (shared-secret guarded, not user auth)
	books := v1.Group("/books")
	books.Get("/monitorBooks", middleware.JobProtected(cfg.Auth.JobSecret), monitorHandler.MonitorBooks)
	books.Get("/processLists", middleware.JobProtected(cfg.Auth.JobSecret), monitorHandler.ProcessLists)

	// Book routes (protected)
	books.Get("/search", middleware.Protected(), bookHandler.SearchBooks)
	books.Get("/notifications", middleware.Protected(), bookHandler.GetNotifications)
	books.Get("/", middleware.Protected(), bookHandler.GetBooks)
	books.Post("/", middleware.Protected(), bookHandler.AddBook)
	books.Get("/:id", middleware.Protected(), bookHandler.GetBook)
	books.Delete("/:id", middleware.Protected(), bookHandler.DeleteBook)

	// List routes (protected)
	lists := v1.Group("/lists", middleware.Protected())
	lists.Get("/", listHandler.GetLists)
	lists.Post("/", listHandler.AddList)
	lists.Delete("/:id", listHandler.DeleteList)
}
