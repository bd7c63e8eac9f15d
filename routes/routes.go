package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lead-checkout/catalog"
	"lead-checkout/checkout"
	"lead-checkout/config"
	"lead-checkout/helpers"
	"lead-checkout/leads"
	"lead-checkout/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MessageCustomPricing  = "Este plano é personalizado. Fale com um consultor."
	MessageInvalidRequest = "Não foi possível ler os dados enviados. Tente novamente."
)

type Handler struct {
	conf    config.Config
	catalog *catalog.Catalog
	flow    *checkout.Flow
	logger  *zap.Logger
}

func New(conf config.Config, c *catalog.Catalog, flow *checkout.Flow, logger *zap.Logger) *Handler {
	return &Handler{conf: conf, catalog: c, flow: flow, logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.OPTIONS("/api/plans", h.Preflight(helpers.CORSMethodsOptGet))
	r.GET("/api/plans", h.Plans)
	r.GET("/api/plans/:id/select", h.SelectPlan)
	r.OPTIONS("/api/stripe-config", h.Preflight(helpers.CORSMethodsOptGet))
	r.GET("/api/stripe-config", h.StripeConfig)
	r.OPTIONS("/api/create-checkout-session", h.Preflight(helpers.CORSMethodsOptPost))
	r.POST("/api/create-checkout-session", h.CreateCheckoutSession)
	r.POST("/checkout", h.CheckoutForm)
}

// GetOriginHost returns the host of the Origin header, falling back to the
// Referer.
func GetOriginHost(c *gin.Context) (string, bool) {
	originHeader := c.Request.Header.Get("Origin")
	if originHeader == "" {
		originHeader = c.Request.Header.Get("Referer")
		if originHeader == "" {
			return "", false
		}
	}
	parsedURL, err := url.Parse(originHeader)
	if err != nil || parsedURL.Host == "" {
		return "", false
	}
	return parsedURL.Host, true
}

// AllowOrigin sets the CORS headers when the request origin is one the
// site accepts and reports whether it is.
func (h *Handler) AllowOrigin(c *gin.Context) bool {
	host, ok := GetOriginHost(c)
	if !ok || !h.conf.IsOriginAllowed(host) {
		return false
	}
	origin := c.Request.Header.Get("Origin")
	if origin == "" {
		origin = h.conf.Global.SiteURL
	}
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	return true
}

// Preflight answers CORS OPTIONS requests for allowed origins.
func (h *Handler) Preflight(methods string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.AllowOrigin(c) {
			helpers.Simple404(c)
			return
		}
		helpers.SetCORSMethods(c, methods)
		helpers.Simple200OK(c)
	}
}

func annualQuery(c *gin.Context) (bool, error) {
	v := c.Query("annual")
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// Plans lists the catalog priced for the requested interval.
func (h *Handler) Plans(c *gin.Context) {
	h.AllowOrigin(c)
	isAnnual, err := annualQuery(c)
	if err != nil {
		helpers.JSONError(c, http.StatusBadRequest, "invalid annual value")
		return
	}
	c.JSON(http.StatusOK, h.catalog.Summaries(isAnnual))
}

// SelectPlan is what the pricing card button hits. Custom-pricing plans
// go to the contact page and never reach checkout; the rest get the
// order summary shown next to the lead form.
func (h *Handler) SelectPlan(c *gin.Context) {
	h.AllowOrigin(c)
	planID := c.Param("id")
	plan, ok := h.catalog.Plan(planID)
	if !ok {
		helpers.JSONError(c, http.StatusNotFound, helpers.NotFound)
		return
	}
	if plan.CustomPrice {
		c.Redirect(http.StatusFound, h.conf.Checkout.ContactURL)
		return
	}
	isAnnual, err := annualQuery(c)
	if err != nil {
		helpers.JSONError(c, http.StatusBadRequest, "invalid annual value")
		return
	}
	summary, err := h.catalog.CheckoutSummary(planID, isAnnual)
	if err != nil {
		h.logger.Error("failed to build checkout summary", zap.String("plan_id", planID), zap.Error(err))
		helpers.JSONError(c, http.StatusInternalServerError, checkout.MessageRetry)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StripeConfig hands the publishable key to the Stripe.js redirect.
func (h *Handler) StripeConfig(c *gin.Context) {
	if !h.AllowOrigin(c) || h.conf.Stripe.PublishableKey == "" {
		helpers.Simple404(c)
		return
	}
	c.JSON(http.StatusOK, models.ClientConfig{PublishableKey: h.conf.Stripe.PublishableKey})
}

// checkboxValue reads an HTML checkbox: "on" when ticked, missing when not.
// Explicit booleans are accepted too.
func checkboxValue(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "off":
		return false, nil
	case "on":
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

// errCustomPricing means the plan is sold through the contact page.
var errCustomPricing = errors.New("plan has custom pricing")

func (h *Handler) checkoutRequest(body models.CheckoutRequest) (checkout.Request, error) {
	plan, ok := h.catalog.Plan(body.PlanID)
	if !ok {
		return checkout.Request{}, &catalog.UnknownPlanError{PlanID: body.PlanID}
	}
	if plan.CustomPrice {
		return checkout.Request{}, errCustomPricing
	}
	pc, err := h.catalog.PlanContext(body.PlanID, body.IsAnnual)
	if err != nil {
		return checkout.Request{}, err
	}
	return checkout.Request{Email: body.Email, Phone: body.WhatsApp, Plan: pc}, nil
}

// rejectRequest writes the response for a request that never entered the
// checkout flow.
func (h *Handler) rejectRequest(c *gin.Context, body models.CheckoutRequest, err error) {
	if errors.Is(err, errCustomPricing) {
		helpers.JSONError(c, http.StatusBadRequest, MessageCustomPricing)
		return
	}
	h.logger.Warn("checkout for unknown plan", zap.String("plan_id", body.PlanID), zap.Error(err))
	helpers.JSONError(c, http.StatusNotFound, checkout.MessageRetry)
}

func statusFor(err error) int {
	if leads.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// jsonRedirector hands the session to the browser, which redirects with
// Stripe.js redirectToCheckout.
type jsonRedirector struct {
	c *gin.Context
}

func (r jsonRedirector) Redirect(ctx context.Context, session models.Session) error {
	r.c.JSON(http.StatusOK, models.CreateCheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
	return nil
}

// httpRedirector sends a 303 straight to the hosted checkout page.
type httpRedirector struct {
	c *gin.Context
}

func (r httpRedirector) Redirect(ctx context.Context, session models.Session) error {
	if session.URL == "" {
		return fmt.Errorf("session %v has no hosted page url", session.ID)
	}
	r.c.Redirect(http.StatusSeeOther, session.URL)
	return nil
}

// CreateCheckoutSession runs the checkout flow for a JSON body and
// answers with the session id, or {"error": ...}.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	if !h.AllowOrigin(c) {
		helpers.Simple404(c)
		return
	}
	var body models.CheckoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Info("unreadable checkout body", zap.Error(err))
		helpers.JSONError(c, http.StatusBadRequest, MessageInvalidRequest)
		return
	}
	req, err := h.checkoutRequest(body)
	if err != nil {
		h.rejectRequest(c, body, err)
		return
	}
	_, err = h.flow.Run(c.Request.Context(), req, jsonRedirector{c: c})
	if err != nil {
		helpers.JSONError(c, statusFor(err), checkout.UserMessage(err))
		return
	}
}

// CheckoutForm is the no-javascript variant: a form post that ends in a
// redirect to the hosted checkout page.
func (h *Handler) CheckoutForm(c *gin.Context) {
	if !h.AllowOrigin(c) {
		helpers.Simple404(c)
		return
	}
	var form models.CheckoutForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Info("unreadable checkout form", zap.Error(err))
		c.Data(http.StatusBadRequest, "text/plain; charset=utf-8", []byte(MessageInvalidRequest))
		return
	}
	isAnnual, err := checkboxValue(form.IsAnnual)
	if err != nil {
		h.logger.Info("bad isAnnual value", zap.String("value", form.IsAnnual))
		c.Data(http.StatusBadRequest, "text/plain; charset=utf-8", []byte(MessageInvalidRequest))
		return
	}
	body := models.CheckoutRequest{
		Email:    form.Email,
		WhatsApp: form.WhatsApp,
		PlanID:   form.PlanID,
		IsAnnual: isAnnual,
	}
	req, err := h.checkoutRequest(body)
	if err != nil {
		if errors.Is(err, errCustomPricing) {
			c.Redirect(http.StatusSeeOther, h.conf.Checkout.ContactURL)
			return
		}
		h.logger.Warn("checkout for unknown plan", zap.String("plan_id", body.PlanID), zap.Error(err))
		helpers.Simple404(c)
		return
	}
	_, err = h.flow.Run(c.Request.Context(), req, httpRedirector{c: c})
	if err != nil {
		c.Data(statusFor(err), "text/plain; charset=utf-8", []byte(checkout.UserMessage(err)))
		return
	}
}
