// Package checkout orchestrates one checkout attempt at a time: customer
// form validation, payment-method dispatch to the Myaje backend, and the
// asynchronous payment-widget lifecycle for gateway-routed methods.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"myaje.io/checkout/api"
	"myaje.io/checkout/cart"
	"myaje.io/checkout/gateway"
	"myaje.io/checkout/models"
	"myaje.io/checkout/models/enum"
)

// gatewayWorkers sizes the pool draining widget events.
const gatewayWorkers = 4

// Backend is the slice of the Myaje API the controller needs. *api.Client
// satisfies it; tests inject a recording fake.
type Backend interface {
	Eligibility(ctx context.Context, view enum.ActiveView) (*models.Eligibility, error)
	InitializePayment(ctx context.Context, req *api.PaymentRequest) (*api.InitializeResponse, error)
	InstallmentPayment(ctx context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error)
	BNPLPayment(ctx context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error)
	BorrowPayment(ctx context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error)
	CashPayment(ctx context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string, method enum.PaymentMethod) error
	SubmitInvoice(ctx context.Context, req *api.InvoiceRequest) (*api.InvoiceResponse, error)
}

var _ Backend = (*api.Client)(nil)

// Service owns the checkout lifecycle. At most one session is active; a
// newly opened session supersedes the previous one, and results addressed
// to a superseded session are discarded.
type Service struct {
	backend  Backend
	store    *cart.Store
	identity models.IdentityProvider
	currency stripe.Currency

	events  *EventManager
	workers *WorkerPool
	logger  *zap.Logger

	mu     sync.Mutex
	active *Session
}

func NewService(backend Backend, store *cart.Store, identity models.IdentityProvider, logger *zap.Logger) *Service {
	s := &Service{
		backend:  backend,
		store:    store,
		identity: identity,
		currency: stripe.CurrencyNGN,
		logger:   logger,
	}

	s.events = NewEventManager(logger)
	s.workers = NewWorkerPool(gatewayWorkers, s, logger)
	s.registerEventHandlers()

	return s
}

// Submitter exposes the worker pool for wiring to a gateway.Listener.
func (s *Service) Submitter() gateway.Submitter { return s.workers }

// Shutdown drains the gateway worker pool.
func (s *Service) Shutdown() { s.workers.Shutdown() }

// Open starts a checkout session. Eligibility is fetched once, only while
// authenticated; a fetch failure leaves the session usable with the
// zero-valued (fully restricted) snapshot and the error recorded for
// display — it never grants elevated eligibility or kills the session.
func (s *Service) Open(ctx context.Context) *Session {
	sess := &Session{
		svc:   s,
		state: enum.CheckoutStateIdle,
	}

	if user := s.identity.Current(); user.Authenticated() {
		eligibility, err := s.backend.Eligibility(ctx, user.ActiveView)
		if err != nil {
			s.logger.Warn("Eligibility fetch failed, restricted methods stay disabled", zap.Error(err))
			sess.eligibilityErr = err
		} else if eligibility != nil {
			sess.eligibility = *eligibility
		}
	}

	s.mu.Lock()
	if s.active != nil {
		s.active.markSuperseded()
	}
	s.active = sess
	s.mu.Unlock()

	return sess
}

func (s *Service) currentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Session is one checkout attempt. Form and selection state live and die
// with it; closing discards them regardless of outcome.
type Session struct {
	svc *Service

	mu             sync.Mutex
	state          enum.CheckoutState
	form           models.CheckoutForm
	selection      models.CheckoutSelection
	eligibility    models.Eligibility
	eligibilityErr error
	reference      string
	accessCode     string
	confirmation   *models.Confirmation
	lastErr        error
	closed         bool
}

// SetForm replaces the customer details and clears any displayed error.
func (sess *Session) SetForm(form models.CheckoutForm) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.form = form
	sess.lastErr = nil
}

// Select records the mode, payment method and sub-option. Choosing a
// restricted method while signed out is rejected with AuthRequiredError
// and leaves the previous selection in place; the caller shows an
// account prompt instead of an error banner.
func (sess *Session) Select(sel models.CheckoutSelection) error {
	if sel.Mode == enum.CheckoutModePayment && sel.Method.RequiresAccount() {
		if !sess.svc.identity.Current().Authenticated() {
			return &AuthRequiredError{Method: sel.Method}
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.selection = sel
	sess.lastErr = nil
	return nil
}

// Eligibility returns the snapshot fetched when the session opened.
func (sess *Session) Eligibility() models.Eligibility {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.eligibility
}

// EligibilityErr reports a failed eligibility fetch, if any.
func (sess *Session) EligibilityErr() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.eligibilityErr
}

// State returns the current lifecycle state.
func (sess *Session) State() enum.CheckoutState {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// LastError returns the most recent failure, cleared on the next input.
func (sess *Session) LastError() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lastErr
}

// Confirmation returns the completed-checkout record, nil until confirmed.
func (sess *Session) Confirmation() *models.Confirmation {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.confirmation
}

// GatewayHandoff returns the reference and widget access code issued by
// the initialize call; both are empty until the session awaits the
// gateway.
func (sess *Session) GatewayHandoff() (reference, accessCode string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.reference, sess.accessCode
}

// Closed reports whether the session has ended.
func (sess *Session) Closed() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.closed
}

// Close ends the session. In-flight network work is not aborted, but its
// results are discarded once the session is closed.
func (sess *Session) Close() {
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()

	sess.svc.mu.Lock()
	if sess.svc.active == sess {
		sess.svc.active = nil
	}
	sess.svc.mu.Unlock()
}

func (sess *Session) markSuperseded() {
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
}

// stale reports whether results for this session must be discarded.
func (sess *Session) stale() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.closed
}

func (sess *Session) fail(err error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.state = enum.CheckoutStateFailed
	sess.lastErr = err
}

// Submit validates the form and dispatches the checkout. Direct methods
// and invoice requests confirm synchronously; card and bank transfer hand
// off to the payment widget and confirm later, from the gateway success
// handler. A failed attempt leaves the session open for retry.
func (sess *Session) Submit(ctx context.Context) error {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrSessionClosed
	}
	switch sess.state {
	case enum.CheckoutStateIdle, enum.CheckoutStateFailed:
	default:
		state := sess.state
		sess.mu.Unlock()
		return fmt.Errorf("checkout: cannot submit from state %s", state)
	}
	sess.state = enum.CheckoutStateValidating
	form := sess.form
	sel := sess.selection
	eligibility := sess.eligibility
	sess.mu.Unlock()

	items := sess.svc.store.Items()
	if len(items) == 0 {
		sess.fail(ErrEmptyCart)
		return ErrEmptyCart
	}
	total := models.CartTotal(items)

	if err := validateCheckout(form, sel, eligibility, total, sess.svc.identity.Current()); err != nil {
		sess.fail(err)
		return err
	}

	if sel.Mode == enum.CheckoutModeInvoice {
		return sess.submitInvoice(ctx, form, items, total)
	}
	return sess.submitPayment(ctx, form, sel, items, total)
}

func (sess *Session) submitInvoice(ctx context.Context, form models.CheckoutForm, items []models.CartItem, total float64) error {
	sess.setState(enum.CheckoutStateSubmitting)

	req := sess.svc.buildInvoiceRequest(form, items, total)
	resp, err := sess.svc.backend.SubmitInvoice(ctx, req)
	if sess.stale() {
		sess.svc.logger.Info("Discarding invoice result for closed session")
		return ErrSessionClosed
	}
	if err != nil {
		sess.fail(err)
		return err
	}

	return sess.confirm(ctx, resp.ReferenceNumber, enum.CheckoutModeInvoice, total)
}

func (sess *Session) submitPayment(ctx context.Context, form models.CheckoutForm, sel models.CheckoutSelection, items []models.CartItem, total float64) error {
	route, err := routeFor(sel.Method)
	if err != nil {
		sess.fail(err)
		return err
	}

	sess.setState(enum.CheckoutStateDispatching)
	req := sess.svc.buildPaymentRequest(form, sel, items, total)

	if route.viaGateway {
		resp, err := sess.svc.backend.InitializePayment(ctx, req)
		if sess.stale() {
			sess.svc.logger.Info("Discarding initialize result for closed session")
			return ErrSessionClosed
		}
		if err != nil {
			sess.fail(err)
			return err
		}

		sess.mu.Lock()
		sess.reference = resp.ReferenceNumber
		sess.accessCode = resp.AccessCode
		sess.state = enum.CheckoutStateAwaitingGateway
		sess.mu.Unlock()
		return nil
	}

	resp, err := route.submit(ctx, sess.svc.backend, req)
	if sess.stale() {
		sess.svc.logger.Info("Discarding dispatch result for closed session")
		return ErrSessionClosed
	}
	if err != nil {
		sess.fail(err)
		return err
	}

	return sess.confirm(ctx, resp.ReferenceNumber, enum.CheckoutModePayment, total)
}

// confirm clears the cart and records the outcome. Payment sessions close;
// invoice sessions stay open showing the confirmation, since an invoice
// request is not a payment and the user may want to review it.
func (sess *Session) confirm(ctx context.Context, reference string, mode enum.CheckoutMode, total float64) error {
	if err := sess.svc.store.Clear(ctx); err != nil {
		// The backend accepted the checkout; an unsaved local clear is
		// recoverable on next load.
		sess.svc.logger.Error("Failed to clear cart after confirmation", zap.Error(err))
	}

	sess.mu.Lock()
	sess.state = enum.CheckoutStateConfirmed
	sess.confirmation = &models.Confirmation{
		Reference:   reference,
		Mode:        mode,
		Total:       total,
		SubmittedAt: time.Now(),
	}
	if mode == enum.CheckoutModePayment {
		sess.closed = true
	}
	sess.mu.Unlock()

	sess.svc.logger.Info("Checkout confirmed",
		zap.String("reference", reference),
		zap.String("mode", string(mode)),
		zap.Float64("total", total))
	return nil
}

func (sess *Session) setState(state enum.CheckoutState) {
	sess.mu.Lock()
	sess.state = state
	sess.mu.Unlock()
}

// handleGatewaySuccess verifies the widget result server-side and confirms
// the session. Duplicate success events after confirmation and events for
// unknown references are ignored.
func (s *Service) handleGatewaySuccess(ctx context.Context, event *gateway.Event) error {
	sess := s.currentSession()
	if sess == nil {
		s.logger.Info("Ignoring gateway success with no active session",
			zap.String("reference", event.Data.Reference))
		return nil
	}

	sess.mu.Lock()
	if sess.closed || sess.state != enum.CheckoutStateAwaitingGateway {
		state := sess.state
		sess.mu.Unlock()
		s.logger.Info("Ignoring duplicate or stale gateway success",
			zap.String("state", string(state)),
			zap.String("reference", event.Data.Reference))
		return nil
	}
	if event.Data.Reference != "" && event.Data.Reference != sess.reference {
		sess.mu.Unlock()
		s.logger.Info("Ignoring gateway success for unknown reference",
			zap.String("reference", event.Data.Reference))
		return nil
	}
	reference := sess.reference
	method := sess.selection.Method
	sess.mu.Unlock()

	if err := s.backend.VerifyPayment(ctx, reference, method); err != nil {
		if sess.stale() {
			return nil
		}
		sess.fail(err)
		return fmt.Errorf("verify payment %s: %w", reference, err)
	}
	if sess.stale() {
		s.logger.Info("Discarding verification result for closed session",
			zap.String("reference", reference))
		return nil
	}

	total := models.CartTotal(s.store.Items())
	return sess.confirm(ctx, reference, enum.CheckoutModePayment, total)
}

// handleGatewayClosed returns the session to idle: the user abandoned the
// widget, the cart is untouched, and checkout may be retried.
func (s *Service) handleGatewayClosed(_ context.Context, event *gateway.Event) error {
	sess := s.currentSession()
	if sess == nil {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || sess.state != enum.CheckoutStateAwaitingGateway {
		return nil
	}
	if event.Data.Reference != "" && event.Data.Reference != sess.reference {
		return nil
	}

	sess.state = enum.CheckoutStateIdle
	sess.reference = ""
	sess.accessCode = ""
	return nil
}
