package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lead-checkout/catalog"
	"lead-checkout/leads"
	"lead-checkout/models"
	"lead-checkout/monitoring"
	"lead-checkout/payments"

	"go.uber.org/zap"
)

type State int

const (
	Idle State = iota
	Validating
	Persisting
	RequestingSession
	Redirecting
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Persisting:
		return "persisting"
	case RequestingSession:
		return "requesting_session"
	case Redirecting:
		return "redirecting"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LeadStore persists pending leads; leadstore.Store satisfies it.
type LeadStore interface {
	Create(ctx context.Context, lead models.CustomerLead) (string, error)
}

// SessionBootstrapper opens a hosted checkout session for a plan;
// *payments.Bootstrapper satisfies it.
type SessionBootstrapper interface {
	Bootstrap(ctx context.Context, planID string, isAnnual bool, email string) (models.Session, error)
}

// Redirector sends the user to the hosted checkout page. It is the last
// step of a successful attempt.
type Redirector interface {
	Redirect(ctx context.Context, session models.Session) error
}

// RedirectFunc adapts a plain function to Redirector.
type RedirectFunc func(ctx context.Context, session models.Session) error

func (f RedirectFunc) Redirect(ctx context.Context, session models.Session) error {
	return f(ctx, session)
}

type Request struct {
	Email string
	Phone string
	Plan  models.PlanContext
}

type Result struct {
	LeadID  string
	Session models.Session
}

// Failure is the terminal error of an attempt: the stage it failed in
// and, once persisted, the pending lead left behind.
type Failure struct {
	Stage  State
	LeadID string
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("checkout failed while %v: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type Option func(*Flow)

func WithMetrics(m *monitoring.Metrics) Option {
	return func(f *Flow) { f.metrics = m }
}

func WithReporter(r monitoring.Reporter) Option {
	return func(f *Flow) { f.reporter = r }
}

// WithTransitionHook calls fn on every state change of every attempt.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(f *Flow) { f.onTransition = fn }
}

// Flow runs checkout attempts: capture, persist, open session, redirect.
// It holds no per-attempt state and is safe for concurrent use.
type Flow struct {
	store        LeadStore
	sessions     SessionBootstrapper
	logger       *zap.Logger
	metrics      *monitoring.Metrics
	reporter     monitoring.Reporter
	onTransition func(from, to State)
}

func NewFlow(store LeadStore, sessions SessionBootstrapper, logger *zap.Logger, opts ...Option) *Flow {
	f := &Flow{
		store:    store,
		sessions: sessions,
		logger:   logger,
		reporter: monitoring.NopReporter{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type attempt struct {
	flow  *Flow
	state State
}

func (a *attempt) enter(next State) {
	if a.flow.onTransition != nil {
		a.flow.onTransition(a.state, next)
	}
	a.state = next
}

// Run executes one checkout attempt. Each stage only starts once the
// previous one has returned; a failure at any stage ends the attempt
// with a *Failure and nothing is retried.
func (f *Flow) Run(ctx context.Context, req Request, redirect Redirector) (Result, error) {
	a := &attempt{flow: f, state: Idle}
	log := f.logger.With(zap.String("plan_id", req.Plan.PlanID), zap.Bool("annual", req.Plan.IsAnnual))

	a.enter(Validating)
	lead, err := leads.Capture(req.Email, req.Phone, req.Plan)
	if err != nil {
		log.Info("lead rejected", zap.Error(err))
		return Result{}, f.fail(a, "", err)
	}

	a.enter(Persisting)
	start := time.Now()
	leadID, err := f.store.Create(ctx, lead)
	f.observe(Persisting, start)
	if err == nil && leadID == "" {
		err = fmt.Errorf("store returned no id")
	}
	if err != nil {
		var perr *models.PersistenceError
		if !errors.As(err, &perr) {
			err = &models.PersistenceError{Op: "create", Err: err}
		}
		log.Error("failed to persist lead", zap.Error(err))
		return Result{}, f.fail(a, "", err)
	}
	log = log.With(zap.String("lead_id", leadID))
	log.Info("lead persisted")

	a.enter(RequestingSession)
	start = time.Now()
	session, err := f.sessions.Bootstrap(ctx, req.Plan.PlanID, req.Plan.IsAnnual, lead.Email)
	f.observe(RequestingSession, start)
	if err != nil {
		var unknown *catalog.UnknownPlanError
		var serr *payments.SessionCreationError
		if !errors.As(err, &unknown) && !errors.As(err, &serr) {
			err = &payments.SessionCreationError{Err: err}
		}
		log.Error("failed to create checkout session, lead left pending", zap.Error(err))
		return Result{LeadID: leadID}, f.fail(a, leadID, err)
	}
	log.Info("checkout session created", zap.String("session_id", session.ID))

	a.enter(Redirecting)
	err = redirect.Redirect(ctx, session)
	if err != nil {
		log.Error("failed to redirect to checkout", zap.String("session_id", session.ID), zap.Error(err))
		return Result{LeadID: leadID, Session: session}, f.fail(a, leadID, err)
	}

	f.record("redirected")
	return Result{LeadID: leadID, Session: session}, nil
}

func (f *Flow) fail(a *attempt, leadID string, err error) error {
	stage := a.state
	a.enter(Failed)

	failure := &Failure{Stage: stage, LeadID: leadID, Err: err}
	outcome := Outcome(err)
	f.record(outcome)
	if !leads.IsValidationError(err) {
		tags := map[string]string{"stage": stage.String(), "outcome": outcome}
		if leadID != "" {
			tags["lead_id"] = leadID
		}
		f.reporter.Report(failure, tags)
	}
	return failure
}

func (f *Flow) record(outcome string) {
	if f.metrics != nil {
		f.metrics.RecordAttempt(outcome)
	}
}

func (f *Flow) observe(stage State, start time.Time) {
	if f.metrics != nil {
		f.metrics.ObserveStage(stage.String(), time.Since(start))
	}
}
