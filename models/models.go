package models

import "time"

type LeadStatus string

const (
	LeadStatusPending   LeadStatus = "pending"
	LeadStatusActive    LeadStatus = "active"
	LeadStatusCancelled LeadStatus = "cancelled"
)

type PlanFeature struct {
	Text     string `yaml:"text" json:"text"`
	Included bool   `yaml:"included" json:"included"`
}

// Plan is a static catalog entry. Amounts are in major currency units.
type Plan struct {
	ID           string        `yaml:"id" json:"id"`
	Title        string        `yaml:"title" json:"title"`
	Description  string        `yaml:"description" json:"description"`
	MonthlyPrice float64       `yaml:"monthlyPrice" json:"monthlyPrice"`
	AnnualPrice  float64       `yaml:"annualPrice" json:"annualPrice"`
	Currency     string        `yaml:"currency" json:"currency"`
	Features     []PlanFeature `yaml:"features" json:"features"`
	Popular      bool          `yaml:"popular" json:"popular"`
	CustomPrice  bool          `yaml:"customPrice" json:"customPrice"`
}

// Amount returns the plan price for the given billing interval.
func (p Plan) Amount(isAnnual bool) float64 {
	if isAnnual {
		return p.AnnualPrice
	}
	return p.MonthlyPrice
}

// PriceRefs are the payment processor price identifiers for one plan.
type PriceRefs struct {
	Monthly  string `yaml:"monthly"`
	Annual   string `yaml:"annual"`
	SetupFee string `yaml:"setupFee"`
}

// PlanContext is the plan selection that travels with a lead through
// the checkout flow.
type PlanContext struct {
	PlanID     string
	PlanName   string
	PriceLabel string
	IsAnnual   bool
	SetupFee   float64
}

type CustomerLead struct {
	ID        string
	Email     string
	Phone     string
	PhoneE164 string
	PlanID    string
	PlanName  string
	PlanPrice string
	IsAnnual  bool
	SetupFee  float64
	Status    LeadStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LineItem struct {
	PriceRef string
	Quantity int64
}

// SessionRequest is what the payment processor receives to open a
// hosted checkout page.
type SessionRequest struct {
	CustomerEmail string
	LineItems     []LineItem
	Mode          string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Session is the processor-owned checkout session. Only the id and the
// hosted page URL are kept, and only for the redirect.
type Session struct {
	ID  string
	URL string
}

// CheckoutRequest is the body of POST /api/create-checkout-session.
type CheckoutRequest struct {
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
	PlanID   string `json:"planId"`
	IsAnnual bool   `json:"isAnnual"`
}

// CheckoutForm is the /checkout form post. IsAnnual comes from a checkbox,
// so it is "on" when ticked and absent otherwise.
type CheckoutForm struct {
	Email    string `form:"email"`
	WhatsApp string `form:"whatsapp"`
	PlanID   string `form:"planId"`
	IsAnnual string `form:"isAnnual"`
}

// ClientConfig is what the browser needs to call Stripe.js.
type ClientConfig struct {
	PublishableKey string `json:"publishableKey"`
}

type CreateCheckoutSessionResponse struct {
	SessionID string `json:"id"`
	URL       string `json:"url,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PlanSummary struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Currency      string        `json:"currency"`
	Amount        float64       `json:"amount"`
	PriceLabel    string        `json:"priceLabel"`
	Interval      string        `json:"interval"`
	AnnualSavings string        `json:"annualSavings,omitempty"`
	Features      []PlanFeature `json:"features"`
	Popular       bool          `json:"popular"`
	CustomPrice   bool          `json:"customPrice"`
}

type CheckoutSummary struct {
	PlanID            string  `json:"planId"`
	PlanName          string  `json:"planName"`
	IsAnnual          bool    `json:"isAnnual"`
	PriceLabel        string  `json:"priceLabel"`
	SetupFee          float64 `json:"setupFee"`
	SetupFeeLabel     string  `json:"setupFeeLabel"`
	FirstPaymentTotal string  `json:"firstPaymentTotal"`
}

// ProductPrice describes a processor price as verified at start-up.
type ProductPrice struct {
	ID                string
	ProductID         string
	IsSubscription    bool
	RecurringInterval string // day, week, month or year.
	Price             int64
	PriceStr          string
	Currency          string
	Description       string
}
