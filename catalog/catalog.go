package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"lead-checkout/models"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v2"
)

//go:embed plans.yaml
var defaultCatalog []byte

const CustomPriceLabel = "Personalizado"

// UnknownPlanError is returned when a plan id has no entry in the price
// resolution table (or in the catalog).
type UnknownPlanError struct {
	PlanID string
}

func (e *UnknownPlanError) Error() string {
	return fmt.Sprintf("unknown plan %q", e.PlanID)
}

// PriceSelection is the pair of price refs that make up a checkout: the
// recurring subscription price and the one-time setup fee.
type PriceSelection struct {
	Subscription string
	SetupFee     string
}

// Catalog holds the plan catalog and the price resolution table. It is
// loaded once at start-up and never mutated.
type Catalog struct {
	Currency string                      `yaml:"currency"`
	SetupFee float64                     `yaml:"setupFee"`
	Plans    []models.Plan               `yaml:"plans"`
	Prices   map[string]models.PriceRefs `yaml:"prices"`

	unit    currency.Unit
	printer *message.Printer
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog yaml file, falling back to Default for an empty path.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %v: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Catalog, error) {
	c := &Catalog{}
	err := yaml.UnmarshalStrict(b, c)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if c.Currency == "" {
		c.Currency = "BRL"
	}
	c.unit, err = currency.ParseISO(c.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog currency %q: %w", c.Currency, err)
	}
	c.printer = message.NewPrinter(languageFor(c.unit))

	if len(c.Plans) == 0 {
		return nil, fmt.Errorf("catalog has no plans")
	}
	seen := map[string]bool{}
	for i, plan := range c.Plans {
		if plan.ID == "" {
			return nil, fmt.Errorf("plan at index %v has no id", i)
		}
		if seen[plan.ID] {
			return nil, fmt.Errorf("duplicate plan id %q", plan.ID)
		}
		seen[plan.ID] = true
		if plan.Currency == "" {
			c.Plans[i].Currency = c.Currency
		}
		if !plan.CustomPrice && plan.MonthlyPrice <= 0 {
			return nil, fmt.Errorf("plan %q has no monthly price", plan.ID)
		}
	}
	for planID, refs := range c.Prices {
		if refs.Monthly == "" || refs.Annual == "" || refs.SetupFee == "" {
			return nil, fmt.Errorf("price refs for plan %q are incomplete", planID)
		}
	}
	return c, nil
}

func languageFor(unit currency.Unit) language.Tag {
	switch unit {
	case currency.BRL:
		return language.BrazilianPortuguese
	case currency.EUR:
		return language.German
	default:
		return language.AmericanEnglish
	}
}

func (c *Catalog) Plan(id string) (models.Plan, bool) {
	for _, plan := range c.Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return models.Plan{}, false
}

// ResolvePrices picks the subscription price by interval flag alone,
// together with the plan's setup fee price.
func (c *Catalog) ResolvePrices(planID string, isAnnual bool) (PriceSelection, error) {
	refs, ok := c.Prices[planID]
	if !ok {
		return PriceSelection{}, &UnknownPlanError{PlanID: planID}
	}
	sel := PriceSelection{Subscription: refs.Monthly, SetupFee: refs.SetupFee}
	if isAnnual {
		sel.Subscription = refs.Annual
	}
	return sel, nil
}

// AllPriceRefs lists every distinct price ref in the resolution table.
func (c *Catalog) AllPriceRefs() []string {
	seen := map[string]bool{}
	refs := []string{}
	add := func(ref string) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, plan := range c.Plans {
		if p, ok := c.Prices[plan.ID]; ok {
			add(p.Monthly)
			add(p.Annual)
			add(p.SetupFee)
		}
	}
	return refs
}

// FormatMoney renders an amount in the catalog currency, e.g. "R$ 197,00".
func (c *Catalog) FormatMoney(amount float64) string {
	return c.printer.Sprintf("%v %v", currency.Symbol(c.unit), number.Decimal(amount, number.Scale(2)))
}

// PriceLabel is the display price of a plan for the chosen interval.
func (c *Catalog) PriceLabel(plan models.Plan, isAnnual bool) string {
	if plan.CustomPrice {
		return CustomPriceLabel
	}
	return c.FormatMoney(plan.Amount(isAnnual))
}

// PlanContext builds the plan context that goes along with a lead.
func (c *Catalog) PlanContext(planID string, isAnnual bool) (models.PlanContext, error) {
	plan, ok := c.Plan(planID)
	if !ok {
		return models.PlanContext{}, &UnknownPlanError{PlanID: planID}
	}
	return models.PlanContext{
		PlanID:     plan.ID,
		PlanName:   plan.Title,
		PriceLabel: c.PriceLabel(plan, isAnnual),
		IsAnnual:   isAnnual,
		SetupFee:   c.SetupFee,
	}, nil
}

func interval(isAnnual bool) string {
	if isAnnual {
		return "year"
	}
	return "month"
}

// Summaries renders the catalog for the pricing section.
func (c *Catalog) Summaries(isAnnual bool) []models.PlanSummary {
	summaries := make([]models.PlanSummary, 0, len(c.Plans))
	for _, plan := range c.Plans {
		s := models.PlanSummary{
			ID:          plan.ID,
			Title:       plan.Title,
			Description: plan.Description,
			Currency:    plan.Currency,
			Amount:      plan.Amount(isAnnual),
			PriceLabel:  c.PriceLabel(plan, isAnnual),
			Interval:    interval(isAnnual),
			Features:    plan.Features,
			Popular:     plan.Popular,
			CustomPrice: plan.CustomPrice,
		}
		if isAnnual && !plan.CustomPrice {
			if savings := plan.MonthlyPrice*12 - plan.AnnualPrice; savings > 0 {
				s.AnnualSavings = c.FormatMoney(savings)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// CheckoutSummary is the order recap shown before the lead form is
// submitted: plan price, setup fee and the first payment total.
func (c *Catalog) CheckoutSummary(planID string, isAnnual bool) (models.CheckoutSummary, error) {
	plan, ok := c.Plan(planID)
	if !ok {
		return models.CheckoutSummary{}, &UnknownPlanError{PlanID: planID}
	}
	if plan.CustomPrice {
		return models.CheckoutSummary{}, fmt.Errorf("plan %q has custom pricing", planID)
	}
	return models.CheckoutSummary{
		PlanID:            plan.ID,
		PlanName:          plan.Title,
		IsAnnual:          isAnnual,
		PriceLabel:        c.PriceLabel(plan, isAnnual),
		SetupFee:          c.SetupFee,
		SetupFeeLabel:     c.FormatMoney(c.SetupFee),
		FirstPaymentTotal: c.FormatMoney(plan.Amount(isAnnual) + c.SetupFee),
	}, nil
}
