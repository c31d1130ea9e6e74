/**
 * @description
 * Notification dispatcher for price alerts.
 * Applies the eligibility policy, persists a notification row, and sends the
 * email leg best-effort: failures are logged, never retried and never fatal
 * to the reconciliation that triggered them.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/mailer
 * - backend/internal/models
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/priceshelf-project/backend/internal/logger"
	"github.com/priceshelf-project/backend/internal/mailer"
	"github.com/priceshelf-project/backend/internal/models"
	"github.com/priceshelf-project/backend/internal/store"
)

// NotificationPolicy decides whether a user is eligible for an alert type.
// Plan-tier gating lives here, outside the reconciliation engine.
type NotificationPolicy interface {
	Allows(user *models.User, kind models.NotificationType) bool
}

// PremiumOnlyPolicy restricts alerts to premium users
type PremiumOnlyPolicy struct{}

// Allows reports whether the user receives alerts of the given kind
func (PremiumOnlyPolicy) Allows(user *models.User, _ models.NotificationType) bool {
	return user.Plan == models.PlanPremium
}

// NotificationService dispatches price alerts
type NotificationService struct {
	store  store.Store
	mailer mailer.Mailer
	policy NotificationPolicy
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(st store.Store, m mailer.Mailer, policy NotificationPolicy) *NotificationService {
	if policy == nil {
		policy = PremiumOnlyPolicy{}
	}
	return &NotificationService{
		store:  st,
		mailer: m,
		policy: policy,
	}
}

// NotifyPriceDrop dispatches a price-drop alert
func (s *NotificationService) NotifyPriceDrop(ctx context.Context, book *models.Book, user *models.User, decision Decision) {
	if !s.policy.Allows(user, models.NotificationTypePriceDrop) {
		return
	}

	title := fmt.Sprintf("%s dropped to %d", book.Title, decision.NewPrice)
	message := fmt.Sprintf("%s is now %d (was %d, %d%% off)",
		book.Title, decision.NewPrice, decision.OldPrice, decision.DiscountPct)
	s.record(ctx, book, user, models.NotificationTypePriceDrop, title, message, decision)

	info, err := s.alertInfo(ctx, book, decision)
	if err != nil {
		logger.Error("NotificationService: building alert for %s failed: %v", book.ISBN13, err)
		return
	}
	subject, body, err := mailer.RenderDiscountEmail(info)
	if err != nil {
		logger.Error("NotificationService: rendering discount email failed: %v", err)
		return
	}
	s.send(ctx, user.Email, subject, body)
}

// NotifyBackInStock dispatches a back-in-stock alert
func (s *NotificationService) NotifyBackInStock(ctx context.Context, book *models.Book, user *models.User, decision Decision) {
	if !s.policy.Allows(user, models.NotificationTypeBackInStock) {
		return
	}

	title := fmt.Sprintf("%s is back in stock", book.Title)
	message := fmt.Sprintf("%s is available again at %d", book.Title, decision.NewPrice)
	s.record(ctx, book, user, models.NotificationTypeBackInStock, title, message, decision)

	info, err := s.alertInfo(ctx, book, decision)
	if err != nil {
		logger.Error("NotificationService: building alert for %s failed: %v", book.ISBN13, err)
		return
	}
	subject, body, err := mailer.RenderBackInStockEmail(info)
	if err != nil {
		logger.Error("NotificationService: rendering back-in-stock email failed: %v", err)
		return
	}
	s.send(ctx, user.Email, subject, body)
}

// record persists the notification row so alerts survive a failed email leg
func (s *NotificationService) record(ctx context.Context, book *models.Book, user *models.User, kind models.NotificationType, title, message string, decision Decision) {
	data, err := json.Marshal(decision)
	if err != nil {
		data = []byte("{}")
	}
	n := &models.Notification{
		UserID:  user.ID,
		BookID:  book.ID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    string(data),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		logger.Error("NotificationService: storing notification for user %s failed: %v", user.ID, err)
	}
}

// send delivers the email best-effort
func (s *NotificationService) send(ctx context.Context, to, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		logger.Error("NotificationService: sending email to %s failed: %v", to, err)
		return
	}
	logger.Info("NotificationService: sent %q to %s", subject, to)
}

// alertInfo assembles the email context: recent history (excluding the entry
// just appended) and the historical minimum
func (s *NotificationService) alertInfo(ctx context.Context, book *models.Book, decision Decision) (mailer.AlertInfo, error) {
	info := mailer.AlertInfo{
		Title:         book.Title,
		Author:        book.Author,
		ImageURL:      book.ImageURL,
		Link:          book.Link,
		CurrentPrice:  decision.NewPrice,
		LastPrice:     decision.OldPrice,
		Discount:      decision.Discount,
		DiscountPct:   decision.DiscountPct,
		LowestPrice:   decision.LowestPrice,
		LowestPriceAt: decision.LowestPriceAt,
	}

	history, err := s.store.ListPriceHistory(ctx, book.ID, 6)
	if err != nil {
		return info, err
	}
	if len(history) > 1 {
		for _, entry := range history[1:] {
			info.PreviousPrices = append(info.PreviousPrices, mailer.PricePoint{
				Price: entry.Price,
				Date:  entry.Date,
			})
		}
	}
	return info, nil
}
