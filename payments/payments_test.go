package payments

import (
	"context"
	"errors"
	"testing"

	"lead-checkout/catalog"
	"lead-checkout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

type fakeSessions struct {
	params  []*stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = append(f.params, params)
	return f.session, f.err
}

type fakePrices map[string]*stripe.Price

func (f fakePrices) Get(id string, params *stripe.PriceParams) (*stripe.Price, error) {
	p, ok := f[id]
	if !ok {
		return nil, errors.New("no such price: " + id)
	}
	return p, nil
}

type fakeProcessor struct {
	requests []models.SessionRequest
	session  models.Session
	err      error
}

func (f *fakeProcessor) CreateSession(ctx context.Context, req models.SessionRequest) (models.Session, error) {
	f.requests = append(f.requests, req)
	return f.session, f.err
}

func testRequest() models.SessionRequest {
	return models.SessionRequest{
		CustomerEmail: "a@b.com",
		LineItems: []models.LineItem{
			{PriceRef: "price_sub", Quantity: 1},
			{PriceRef: "price_fee", Quantity: 1},
		},
		Mode:       ModeSubscription,
		SuccessURL: "https://example.com/success",
		CancelURL:  "https://example.com/#pricing",
		Metadata:   map[string]string{MetadataSetupFeeIncluded: "true"},
	}
}

func TestStripeCreateSession(t *testing.T) {
	sessions := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	s := NewStripeWithClients(sessions, nil)

	ctx := context.Background()
	session, err := s.CreateSession(ctx, testRequest())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)

	require.Len(t, sessions.params, 1)
	params := sessions.params[0]
	assert.Equal(t, ctx, params.Context)
	assert.Equal(t, "subscription", *params.Mode)
	assert.Equal(t, "a@b.com", *params.CustomerEmail)
	assert.Equal(t, "https://example.com/success", *params.SuccessURL)
	assert.Equal(t, "https://example.com/#pricing", *params.CancelURL)
	assert.Equal(t, "card", *params.PaymentMethodTypes[0])
	assert.Equal(t, map[string]string{"setupFeeIncluded": "true"}, params.Metadata)
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, "price_sub", *params.LineItems[0].Price)
	assert.Equal(t, int64(1), *params.LineItems[0].Quantity)
	assert.Equal(t, "price_fee", *params.LineItems[1].Price)
	assert.Equal(t, int64(1), *params.LineItems[1].Quantity)
}

func TestStripeCreateSessionErrors(t *testing.T) {
	tests := []struct {
		name     string
		sessions *fakeSessions
	}{
		{"vendor rejection", &fakeSessions{err: &stripe.Error{Msg: "No such price"}}},
		{"nil session", &fakeSessions{}},
		{"empty id", &fakeSessions{session: &stripe.CheckoutSession{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStripeWithClients(tt.sessions, nil).CreateSession(context.Background(), testRequest())
			var serr *SessionCreationError
			assert.True(t, errors.As(err, &serr))
		})
	}
}

func TestBootstrapperSelectsPriceByInterval(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	b := NewBootstrapper(c, &fakeProcessor{}, "https://example.com/success", "https://example.com/#pricing")

	monthly, err := b.SessionRequest("professional", false, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []models.LineItem{
		{PriceRef: "price_1QFH6dGCteyxoxfG0VZpLPOu", Quantity: 1},
		{PriceRef: "price_1QFH8gGCteyxoxfGoXfSLUeY", Quantity: 1},
	}, monthly.LineItems)
	assert.Equal(t, "subscription", monthly.Mode)
	assert.Equal(t, "true", monthly.Metadata["setupFeeIncluded"])
	assert.Equal(t, "a@b.com", monthly.CustomerEmail)

	annual, err := b.SessionRequest("professional", true, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "price_1QFHaQGCteyxoxfGtMVSWU3e", annual.LineItems[0].PriceRef)
	assert.Equal(t, monthly.LineItems[1], annual.LineItems[1])
}

func TestBootstrapUnknownPlanMakesNoRequest(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	processor := &fakeProcessor{session: models.Session{ID: "cs_1"}}
	b := NewBootstrapper(c, processor, "s", "c")

	_, err = b.Bootstrap(context.Background(), "platinum", false, "a@b.com")
	var unknown *catalog.UnknownPlanError
	assert.True(t, errors.As(err, &unknown))
	assert.Empty(t, processor.requests)
}

func TestBootstrap(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	processor := &fakeProcessor{session: models.Session{ID: "cs_1", URL: "https://pay/cs_1"}}
	b := NewBootstrapper(c, processor, "s", "c")

	session, err := b.Bootstrap(context.Background(), "starter", false, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	require.Len(t, processor.requests, 1)
	assert.Len(t, processor.requests[0].LineItems, 2)
}

func recurring(id string, interval stripe.PriceRecurringInterval) *stripe.Price {
	return &stripe.Price{
		ID:                id,
		Active:            true,
		Recurring:         &stripe.PriceRecurring{Interval: interval, IntervalCount: 1},
		Product:           &stripe.Product{ID: "prod_1"},
		UnitAmount:        19700,
		UnitAmountDecimal: 19700,
		Currency:          stripe.CurrencyBRL,
	}
}

func oneTime(id string) *stripe.Price {
	return &stripe.Price{ID: id, Active: true, UnitAmount: 49700, UnitAmountDecimal: 49700, Currency: stripe.CurrencyBRL}
}

const verifyCatalog = `
plans:
  - id: solo
    monthlyPrice: 50
    annualPrice: 500
prices:
  solo:
    monthly: price_m
    annual: price_a
    setupFee: price_s
`

func TestVerifyPriceRefs(t *testing.T) {
	c, err := catalog.Parse([]byte(verifyCatalog))
	require.NoError(t, err)

	good := fakePrices{
		"price_m": recurring("price_m", stripe.PriceRecurringIntervalMonth),
		"price_a": recurring("price_a", stripe.PriceRecurringIntervalYear),
		"price_s": oneTime("price_s"),
	}
	verified, err := NewStripeWithClients(nil, good).VerifyPriceRefs(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, verified, 3)
	assert.Equal(t, "197.00", verified["price_m"].PriceStr)
	assert.Equal(t, "month", verified["price_m"].RecurringInterval)
	assert.False(t, verified["price_s"].IsSubscription)

	tests := []struct {
		name   string
		prices fakePrices
		want   string
	}{
		{"missing", fakePrices{}, "failed to get price"},
		{"inactive", fakePrices{
			"price_m": func() *stripe.Price { p := recurring("price_m", "month"); p.Active = false; return p }(),
		}, "not active"},
		{"wrong interval", fakePrices{
			"price_m": recurring("price_m", stripe.PriceRecurringIntervalMonth),
			"price_a": recurring("price_a", stripe.PriceRecurringIntervalMonth),
		}, "want \"year\""},
		{"recurring setup fee", fakePrices{
			"price_m": recurring("price_m", stripe.PriceRecurringIntervalMonth),
			"price_a": recurring("price_a", stripe.PriceRecurringIntervalYear),
			"price_s": recurring("price_s", stripe.PriceRecurringIntervalMonth),
		}, "one-time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStripeWithClients(nil, tt.prices).VerifyPriceRefs(context.Background(), c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
