package payments

import (
	"context"
	"fmt"

	"lead-checkout/catalog"
	"lead-checkout/models"

	"github.com/stripe/stripe-go/v72"
)

// https://stripe.com/docs/api/prices/retrieve
func (s *Stripe) GetPrice(ctx context.Context, id string) (models.ProductPrice, bool, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	stripePrice, err := s.prices.Get(id, params)
	if err != nil {
		return models.ProductPrice{}, false, fmt.Errorf("failed to get price id %v: %w", id, err)
	}

	recurringInterval := ""
	isSubscription := false
	if stripePrice.Recurring != nil {
		recurringInterval = string(stripePrice.Recurring.Interval)
		isSubscription = true
	}
	productID := ""
	if stripePrice.Product != nil {
		productID = stripePrice.Product.ID
	}

	return models.ProductPrice{
		ID:                stripePrice.ID,
		ProductID:         productID,
		IsSubscription:    isSubscription,
		RecurringInterval: recurringInterval,
		Price:             stripePrice.UnitAmount,
		PriceStr:          fmt.Sprintf("%.2f", stripePrice.UnitAmountDecimal/100.0),
		Currency:          string(stripePrice.Currency),
		Description:       stripePrice.Nickname,
	}, stripePrice.Active, nil
}

// VerifyPriceRefs checks every ref in the resolution table against the
// processor: monthly and annual refs must be active recurring prices with
// the matching interval, setup fee refs must be active one-time prices.
// It returns the verified prices keyed by ref.
func (s *Stripe) VerifyPriceRefs(ctx context.Context, c *catalog.Catalog) (map[string]models.ProductPrice, error) {
	verified := map[string]models.ProductPrice{}

	check := func(planID, ref, wantInterval string) error {
		if _, ok := verified[ref]; ok {
			return nil
		}
		price, active, err := s.GetPrice(ctx, ref)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("price %v for plan %v is not active", ref, planID)
		}
		if wantInterval == "" && price.IsSubscription {
			return fmt.Errorf("setup fee price %v for plan %v must be one-time", ref, planID)
		}
		if wantInterval != "" && price.RecurringInterval != wantInterval {
			return fmt.Errorf(
				"price %v for plan %v recurs every %q, want %q",
				ref,
				planID,
				price.RecurringInterval,
				wantInterval,
			)
		}
		verified[ref] = price
		return nil
	}

	for _, plan := range c.Plans {
		refs, ok := c.Prices[plan.ID]
		if !ok {
			continue
		}
		if err := check(plan.ID, refs.Monthly, string(stripe.PriceRecurringIntervalMonth)); err != nil {
			return verified, err
		}
		if err := check(plan.ID, refs.Annual, string(stripe.PriceRecurringIntervalYear)); err != nil {
			return verified, err
		}
		if err := check(plan.ID, refs.SetupFee, ""); err != nil {
			return verified, err
		}
	}

	return verified, nil
}
