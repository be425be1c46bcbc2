package services

import (
	"context"
	"encoding/json"
	"strconv"

	"codeloom/internal/config"

	"github.com/juju/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider implements BillingProvider on the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider builds a client for the given keys. backends may be nil
// to use Stripe's defaults.
func NewStripeProvider(cfg config.StripeConfig, backends *stripe.Backends) *StripeProvider {
	return &StripeProvider{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name string, userID uint) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	return customer.ID, nil
}

// CreateSubscription starts an incomplete subscription whose first invoice
// is paid client-side with the returned secret.
func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, id string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := p.api.Subscriptions.Cancel(id, params); err != nil {
		return &ProviderError{Err: err}
	}
	return nil
}

func (p *StripeProvider) ListPrices(ctx context.Context) ([]Price, error) {
	params := &stripe.PriceListParams{
		Active: stripe.Bool(true),
		Type:   stripe.String(string(stripe.PriceTypeRecurring)),
	}
	params.Context = ctx

	prices := []Price{}
	iter := p.api.Prices.List(params)
	for iter.Next() {
		sp := iter.Price()
		price := Price{
			ID:         sp.ID,
			Nickname:   sp.Nickname,
			Currency:   string(sp.Currency),
			UnitAmount: sp.UnitAmount,
		}
		if sp.Recurring != nil {
			price.Interval = string(sp.Recurring.Interval)
		}
		if sp.Product != nil {
			price.ProductID = sp.Product.ID
		}
		prices = append(prices, price)
	}
	if err := iter.Err(); err != nil {
		return nil, &ProviderError{Err: err}
	}
	return prices, nil
}

// ParseWebhook checks the Stripe-Signature header and extracts the
// subscription the event is about.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*BillingEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, invalidf("invalid webhook: %v", err)
	}

	out := &BillingEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}
	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Annotatef(err, "decoding %s", out.Type)
		}
		out.SubscriptionID = sub.ID
		out.Status = string(sub.Status)
	case EventInvoicePaid:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, errors.Annotatef(err, "decoding %s", out.Type)
		}
		if invoice.Subscription != nil {
			out.SubscriptionID = invoice.Subscription.ID
		}
	}
	return out, nil
}

func fromStripeSubscription(sub *stripe.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{ID: sub.ID, Status: string(sub.Status)}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}
