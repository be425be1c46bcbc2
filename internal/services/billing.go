package services

import (
	"context"

	"codeloom/internal/log"
	"codeloom/internal/metrics"
	"codeloom/internal/models"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

// Billing event types the service reacts to.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.paid"
)

type ProviderSubscription struct {
	ID           string
	Status       string
	ClientSecret string
}

type Price struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unitAmount"`
	Interval   string `json:"interval"`
	ProductID  string `json:"productId"`
}

// BillingEvent is a verified webhook event reduced to what premium needs.
type BillingEvent struct {
	ID             string
	Type           string
	SubscriptionID string
	Status         string
}

// BillingProvider is the payment processor behind the bridge.
type BillingProvider interface {
	CreateCustomer(ctx context.Context, email, name string, userID uint) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*ProviderSubscription, error)
	GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, id string) error
	ListPrices(ctx context.Context) ([]Price, error)
	ParseWebhook(payload []byte, signature string) (*BillingEvent, error)
}

// ProviderError marks failures that came from the payment processor.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "billing provider: " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

type SubscriptionResult struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
	Status         string `json:"status"`
}

// BillingService links users to provider subscriptions. Premium only ever
// changes through webhook events.
type BillingService struct {
	db       *gorm.DB
	provider BillingProvider
	priceID  string
}

func NewBillingService(db *gorm.DB, provider BillingProvider, priceID string) *BillingService {
	return &BillingService{db: db, provider: provider, priceID: priceID}
}

// CreateSubscription returns the user's live subscription or starts a new
// incomplete one for the configured price.
func (s *BillingService) CreateSubscription(ctx context.Context, userID uint) (*SubscriptionResult, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user %d", userID)
	}

	if user.BillingSubscriptionID != nil && *user.BillingSubscriptionID != "" {
		sub, err := s.provider.GetSubscription(ctx, *user.BillingSubscriptionID)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if !subscriptionEnded(sub.Status) {
			return &SubscriptionResult{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret, Status: sub.Status}, nil
		}
	}

	customerID := ""
	if user.BillingCustomerID != nil {
		customerID = *user.BillingCustomerID
	}
	if customerID == "" {
		id, err := s.provider.CreateCustomer(ctx, user.Email, user.DisplayName, user.ID)
		if err != nil {
			return nil, errors.Trace(err)
		}
		customerID = id
		if err := s.db.Model(&user).Update("billing_customer_id", customerID).Error; err != nil {
			return nil, errors.Trace(err)
		}
	}

	sub, err := s.provider.CreateSubscription(ctx, customerID, s.priceID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := s.db.Model(&user).Update("billing_subscription_id", sub.ID).Error; err != nil {
		return nil, errors.Trace(err)
	}

	logger := log.WithUserID(user.ID)
	logger.Info().Str("subscription_id", sub.ID).Msg("Subscription created")
	return &SubscriptionResult{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret, Status: sub.Status}, nil
}

// CancelSubscription cancels at the provider; the resulting webhook clears premium.
func (s *BillingService) CancelSubscription(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return notFound(err, "user %d", userID)
	}
	if user.BillingSubscriptionID == nil || *user.BillingSubscriptionID == "" {
		return errors.NotFoundf("subscription for user %d", userID)
	}
	if err := s.provider.CancelSubscription(ctx, *user.BillingSubscriptionID); err != nil {
		return errors.Trace(err)
	}
	logger := log.WithUserID(user.ID)
	logger.Info().Str("subscription_id", *user.BillingSubscriptionID).Msg("Subscription cancel requested")
	return nil
}

func (s *BillingService) Prices(ctx context.Context) ([]Price, error) {
	prices, err := s.provider.ListPrices(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return prices, nil
}

// HandleWebhook verifies and applies a provider event.
func (s *BillingService) HandleWebhook(payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		metrics.BillingEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		return err
	}
	return s.ApplyEvent(event)
}

// ApplyEvent overwrites the owner's premium flag. Replaying an event leaves
// the same state.
func (s *BillingService) ApplyEvent(event *BillingEvent) error {
	logger := log.WithComponent("billing")
	premium, relevant := premiumFor(event)
	if !relevant || event.SubscriptionID == "" {
		metrics.BillingEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	res := s.db.Model(&models.User{}).
		Where("billing_subscription_id = ?", event.SubscriptionID).
		Update("is_premium", premium)
	if res.Error != nil {
		metrics.BillingEventsTotal.WithLabelValues(event.Type, "error").Inc()
		return errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Warn().Str("event_id", event.ID).Str("subscription_id", event.SubscriptionID).Msg("Webhook for unknown subscription")
		metrics.BillingEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	logger.Info().
		Str("event_id", event.ID).
		Str("type", event.Type).
		Str("subscription_id", event.SubscriptionID).
		Bool("premium", premium).
		Msg("Premium updated from webhook")
	metrics.BillingEventsTotal.WithLabelValues(event.Type, "applied").Inc()
	return nil
}

// premiumFor maps an event to a premium flag. Statuses that say nothing
// final (incomplete, past_due) are not relevant.
func premiumFor(event *BillingEvent) (premium bool, relevant bool) {
	switch event.Type {
	case EventInvoicePaid:
		return true, true
	case EventSubscriptionDeleted:
		return false, true
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		switch event.Status {
		case "active", "trialing":
			return true, true
		case "canceled", "unpaid", "incomplete_expired":
			return false, true
		}
	}
	return false, false
}

func subscriptionEnded(status string) bool {
	return status == "canceled" || status == "incomplete_expired"
}
