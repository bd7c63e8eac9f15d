package payments

import (
	"context"
	"fmt"

	"lead-checkout/catalog"
	"lead-checkout/models"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

const (
	ModeSubscription = string(stripe.CheckoutSessionModeSubscription)

	MetadataSetupFeeIncluded = "setupFeeIncluded"
)

// Processor opens hosted checkout sessions.
type Processor interface {
	CreateSession(ctx context.Context, req models.SessionRequest) (models.Session, error)
}

// SessionCreationError covers network failures, vendor rejections and
// malformed vendor responses when opening a session.
type SessionCreationError struct {
	Err error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("failed to create checkout session: %v", e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}

// SessionCreator is the part of the stripe checkout session client used
// here; *session.Client satisfies it.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// PriceGetter is the part of the stripe price client used here;
// *price.Client satisfies it.
type PriceGetter interface {
	Get(id string, params *stripe.PriceParams) (*stripe.Price, error)
}

type Stripe struct {
	sessions SessionCreator
	prices   PriceGetter
}

// NewStripe builds a processor backed by a dedicated stripe client rather
// than the package-level stripe.Key.
func NewStripe(secretKey string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{sessions: sc.CheckoutSessions, prices: sc.Prices}
}

// NewStripeWithClients is NewStripe with explicit clients.
func NewStripeWithClients(sessions SessionCreator, prices PriceGetter) *Stripe {
	return &Stripe{sessions: sessions, prices: prices}
}

// https://stripe.com/docs/api/checkout/sessions/create
func (s *Stripe) CreateSession(ctx context.Context, req models.SessionRequest) (models.Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		CustomerEmail: stripe.String(req.CustomerEmail),
		LineItems:     []*stripe.CheckoutSessionLineItemParams{},
		Mode:          stripe.String(req.Mode),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceRef),
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := s.sessions.New(params)
	if err != nil {
		return models.Session{}, &SessionCreationError{Err: fmt.Errorf("session.New: %w", err)}
	}
	if session == nil || session.ID == "" {
		return models.Session{}, &SessionCreationError{Err: fmt.Errorf("session.New returned no session id")}
	}

	return models.Session{ID: session.ID, URL: session.URL}, nil
}

// PriceResolver maps a plan and billing interval to price refs;
// *catalog.Catalog satisfies it.
type PriceResolver interface {
	ResolvePrices(planID string, isAnnual bool) (catalog.PriceSelection, error)
}

// Bootstrapper turns a plan selection into a hosted checkout session.
type Bootstrapper struct {
	prices     PriceResolver
	processor  Processor
	successURL string
	cancelURL  string
}

func NewBootstrapper(prices PriceResolver, processor Processor, successURL, cancelURL string) *Bootstrapper {
	return &Bootstrapper{
		prices:     prices,
		processor:  processor,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// SessionRequest resolves the plan and builds the two-line-item
// subscription request. An unknown plan fails here, before any network
// call.
func (b *Bootstrapper) SessionRequest(planID string, isAnnual bool, email string) (models.SessionRequest, error) {
	sel, err := b.prices.ResolvePrices(planID, isAnnual)
	if err != nil {
		return models.SessionRequest{}, err
	}
	return models.SessionRequest{
		CustomerEmail: email,
		LineItems: []models.LineItem{
			{PriceRef: sel.Subscription, Quantity: 1},
			{PriceRef: sel.SetupFee, Quantity: 1},
		},
		Mode:       ModeSubscription,
		SuccessURL: b.successURL,
		CancelURL:  b.cancelURL,
		Metadata: map[string]string{
			MetadataSetupFeeIncluded: "true",
		},
	}, nil
}

// Bootstrap resolves the plan and asks the processor for a session.
func (b *Bootstrapper) Bootstrap(ctx context.Context, planID string, isAnnual bool, email string) (models.Session, error) {
	req, err := b.SessionRequest(planID, isAnnual, email)
	if err != nil {
		return models.Session{}, err
	}
	return b.processor.CreateSession(ctx, req)
}
