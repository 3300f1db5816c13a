package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"myaje.io/checkout/api"
	"myaje.io/checkout/cart"
	"myaje.io/checkout/gateway"
	"myaje.io/checkout/models"
	"myaje.io/checkout/models/enum"
)

type mockBackend struct {
	mu sync.Mutex

	eligibility    *models.Eligibility
	eligibilityErr error

	initResp   *api.InitializeResponse
	initErr    error
	payResp    *api.PaymentResponse
	payErr     error
	invoiceErr error
	verifyErr  error

	calls       []string
	lastPayment *api.PaymentRequest
	lastInvoice *api.InvoiceRequest
	verifyRefs  []string
}

func (m *mockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockBackend) callCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockBackend) Eligibility(context.Context, enum.ActiveView) (*models.Eligibility, error) {
	m.record("eligibility")
	if m.eligibilityErr != nil {
		return nil, m.eligibilityErr
	}
	return m.eligibility, nil
}

func (m *mockBackend) InitializePayment(_ context.Context, req *api.PaymentRequest) (*api.InitializeResponse, error) {
	m.record("initialize")
	m.mu.Lock()
	m.lastPayment = req
	m.mu.Unlock()
	if m.initErr != nil {
		return nil, m.initErr
	}
	return m.initResp, nil
}

func (m *mockBackend) dispatch(call string, req *api.PaymentRequest) (*api.PaymentResponse, error) {
	m.record(call)
	m.mu.Lock()
	m.lastPayment = req
	m.mu.Unlock()
	if m.payErr != nil {
		return nil, m.payErr
	}
	if m.payResp != nil {
		return m.payResp, nil
	}
	return &api.PaymentResponse{ReferenceNumber: "REF-" + call}, nil
}

func (m *mockBackend) InstallmentPayment(_ context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error) {
	return m.dispatch("installment", req)
}

func (m *mockBackend) BNPLPayment(_ context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error) {
	return m.dispatch("bnpl", req)
}

func (m *mockBackend) BorrowPayment(_ context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error) {
	return m.dispatch("borrow", req)
}

func (m *mockBackend) CashPayment(_ context.Context, req *api.PaymentRequest) (*api.PaymentResponse, error) {
	return m.dispatch("cash", req)
}

func (m *mockBackend) VerifyPayment(_ context.Context, reference string, _ enum.PaymentMethod) error {
	m.record("verify")
	m.mu.Lock()
	m.verifyRefs = append(m.verifyRefs, reference)
	m.mu.Unlock()
	return m.verifyErr
}

func (m *mockBackend) SubmitInvoice(_ context.Context, req *api.InvoiceRequest) (*api.InvoiceResponse, error) {
	m.record("invoice")
	m.mu.Lock()
	m.lastInvoice = req
	m.mu.Unlock()
	if m.invoiceErr != nil {
		return nil, m.invoiceErr
	}
	return &api.InvoiceResponse{ReferenceNumber: "INV-1", Status: "pending"}, nil
}

func guest() models.IdentityProvider {
	return models.IdentityFunc(func() *models.Identity { return nil })
}

func personalUser() models.IdentityProvider {
	return models.IdentityFunc(func() *models.Identity {
		return &models.Identity{ID: "u1", Email: "u1@myaje.com", Token: "tok", ActiveView: enum.ActiveViewPersonal}
	})
}

func newEnv(t *testing.T, backend Backend, identity models.IdentityProvider) (*Service, *cart.Store) {
	t.Helper()
	store, err := cart.NewStore(context.Background(), cart.NewMemoryRepository(), identity, zap.NewNop())
	require.NoError(t, err)
	return NewService(backend, store, identity, zap.NewNop()), store
}

func fillCart(t *testing.T, store *cart.Store) {
	t.Helper()
	require.NoError(t, store.AddToCart(context.Background(), models.Product{ID: "1", Name: "Rice", Price: 1000}, 2))
}

func validForm() models.CheckoutForm {
	return models.CheckoutForm{
		CustomerName:    "Ada Obi",
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Marina Road, Lagos",
	}
}

func TestValidationOrderNameBeforeEmail(t *testing.T) {
	svc, store := newEnv(t, &mockBackend{}, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(models.CheckoutForm{CustomerEmail: "not-an-email", ShippingAddress: "somewhere"})
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCash}))

	err := sess.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name is required", verr.Message)
	assert.Equal(t, enum.CheckoutStateFailed, sess.State())
}

func TestValidationFailureNeverReachesBackend(t *testing.T) {
	backend := &mockBackend{}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(models.CheckoutForm{})
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCash}))

	require.Error(t, sess.Submit(context.Background()))
	assert.Empty(t, backend.calls)
	assert.Equal(t, 1, store.Len(), "failed validation must not touch the cart")
}

func TestBorrowCeilingMessageContainsLimit(t *testing.T) {
	backend := &mockBackend{eligibility: &models.Eligibility{HasActiveBank: true, CanLoan: true, MaxLoanAmount: 5000}}
	svc, store := newEnv(t, backend, personalUser())
	require.NoError(t, store.AddToCart(context.Background(), models.Product{ID: "1", Price: 4000}, 2)) // total 8000

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodBorrow}))

	err := sess.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "5000")
	assert.Zero(t, backend.callCount("borrow"))
}

func TestBorrowWithinLimitDispatches(t *testing.T) {
	backend := &mockBackend{eligibility: &models.Eligibility{HasActiveBank: true, CanLoan: true, MaxLoanAmount: 50000}}
	svc, store := newEnv(t, backend, personalUser())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodBorrow}))

	require.NoError(t, sess.Submit(context.Background()))
	assert.Equal(t, enum.CheckoutStateConfirmed, sess.State())
	assert.Equal(t, 1, backend.callCount("borrow"))
}

func TestInstallmentRequiresSubOption(t *testing.T) {
	backend := &mockBackend{eligibility: &models.Eligibility{HasActiveBank: true}}
	svc, store := newEnv(t, backend, personalUser())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodInstallment}))

	err := sess.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "select a payment option", verr.Message)
}

func TestInstallmentSendsOption(t *testing.T) {
	backend := &mockBackend{eligibility: &models.Eligibility{HasActiveBank: true}}
	svc, store := newEnv(t, backend, personalUser())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{
		Mode:      enum.CheckoutModePayment,
		Method:    enum.PaymentMethodInstallment,
		SubOption: enum.SubOptionInstallment3,
	}))

	require.NoError(t, sess.Submit(context.Background()))
	require.NotNil(t, backend.lastPayment)
	assert.Equal(t, "installment_3", backend.lastPayment.InstallmentOption)
}

func TestSelectRestrictedMethodWhileSignedOut(t *testing.T) {
	svc, store := newEnv(t, &mockBackend{}, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())

	err := sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodBNPL})
	var authErr *AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, enum.PaymentMethodBNPL, authErr.Method)

	// Switching to card proceeds normally.
	assert.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCard}))
}

func TestCashCheckoutConfirmsAndClearsCart(t *testing.T) {
	backend := &mockBackend{}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCash}))

	require.NoError(t, sess.Submit(context.Background()))

	assert.Equal(t, enum.CheckoutStateConfirmed, sess.State())
	assert.True(t, sess.Closed(), "payment sessions close on confirmation")
	assert.Zero(t, store.Len(), "cart is cleared on confirmation")

	confirmation := sess.Confirmation()
	require.NotNil(t, confirmation)
	assert.Equal(t, "REF-cash", confirmation.Reference)
	assert.Equal(t, float64(2000), confirmation.Total)
}

func TestInvoiceCheckoutStaysOpen(t *testing.T) {
	backend := &mockBackend{}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModeInvoice}))

	require.NoError(t, sess.Submit(context.Background()))

	assert.Equal(t, enum.CheckoutStateConfirmed, sess.State())
	assert.False(t, sess.Closed(), "invoice sessions stay open showing the confirmation")
	assert.Zero(t, store.Len())

	require.NotNil(t, backend.lastInvoice)
	assert.Equal(t, "invoice", backend.lastInvoice.OrderType)
	assert.Equal(t, "pending", backend.lastInvoice.Status)
	require.Len(t, backend.lastInvoice.Items, 1)
	assert.Equal(t, "Rice", backend.lastInvoice.Items[0].Name, "invoice items carry product names")
}

func TestCardCheckoutAwaitsGateway(t *testing.T) {
	backend := &mockBackend{initResp: &api.InitializeResponse{ReferenceNumber: "ORDCRD-1", AccessCode: "ac_123"}}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCard}))

	require.NoError(t, sess.Submit(context.Background()))

	assert.Equal(t, enum.CheckoutStateAwaitingGateway, sess.State())
	reference, accessCode := sess.GatewayHandoff()
	assert.Equal(t, "ORDCRD-1", reference)
	assert.Equal(t, "ac_123", accessCode)
	assert.Equal(t, 1, store.Len(), "cart stays intact until verification")
}

func TestGatewaySuccessVerifiesAndConfirms(t *testing.T) {
	backend := &mockBackend{initResp: &api.InitializeResponse{ReferenceNumber: "ORDCRD-1", AccessCode: "ac_123"}}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCard}))
	require.NoError(t, sess.Submit(context.Background()))

	event := &gateway.Event{Event: gateway.EventSuccess, Data: gateway.EventData{Reference: "ORDCRD-1"}}
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	assert.Equal(t, enum.CheckoutStateConfirmed, sess.State())
	assert.True(t, sess.Closed())
	assert.Zero(t, store.Len())
	require.Equal(t, []string{"ORDCRD-1"}, backend.verifyRefs)

	// A duplicate success event is ignored once confirmed.
	require.NoError(t, svc.ProcessEvent(context.Background(), event))
	assert.Equal(t, 1, backend.callCount("verify"))
}

func TestGatewaySuccessUnknownReferenceIgnored(t *testing.T) {
	backend := &mockBackend{initResp: &api.InitializeResponse{ReferenceNumber: "ORDCRD-1", AccessCode: "ac_123"}}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCard}))
	require.NoError(t, sess.Submit(context.Background()))

	event := &gateway.Event{Event: gateway.EventSuccess, Data: gateway.EventData{Reference: "SOMEONE-ELSE"}}
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	assert.Equal(t, enum.CheckoutStateAwaitingGateway, sess.State())
	assert.Zero(t, backend.callCount("verify"))
}

func TestGatewayClosedReturnsToIdle(t *testing.T) {
	backend := &mockBackend{initResp: &api.InitializeResponse{ReferenceNumber: "ORDCRD-1", AccessCode: "ac_123"}}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCard}))
	require.NoError(t, sess.Submit(context.Background()))

	event := &gateway.Event{Event: gateway.EventClosed, Data: gateway.EventData{Reference: "ORDCRD-1"}}
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	assert.Equal(t, enum.CheckoutStateIdle, sess.State(), "abandoning the widget is not a failure")
	assert.Nil(t, sess.LastError())
	assert.Equal(t, 1, store.Len(), "cart untouched after abandonment")

	reference, accessCode := sess.GatewayHandoff()
	assert.Empty(t, reference)
	assert.Empty(t, accessCode)

	// The user may retry without reopening.
	require.NoError(t, sess.Submit(context.Background()))
	assert.Equal(t, enum.CheckoutStateAwaitingGateway, sess.State())
}

func TestClosedSessionDiscardsGatewayResult(t *testing.T) {
	backend := &mockBackend{initResp: &api.InitializeResponse{ReferenceNumber: "ORDCRD-1", AccessCode: "ac_123"}}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCard}))
	require.NoError(t, sess.Submit(context.Background()))

	sess.Close()

	event := &gateway.Event{Event: gateway.EventSuccess, Data: gateway.EventData{Reference: "ORDCRD-1"}}
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	assert.Zero(t, backend.callCount("verify"), "stale gateway results must be discarded")
	assert.Equal(t, 1, store.Len())
}

func TestOpenSupersedesPreviousSession(t *testing.T) {
	svc, store := newEnv(t, &mockBackend{}, guest())
	fillCart(t, store)

	first := svc.Open(context.Background())
	second := svc.Open(context.Background())

	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
	assert.ErrorIs(t, first.Submit(context.Background()), ErrSessionClosed)
}

func TestEligibilityFailureRestrictsMethods(t *testing.T) {
	backend := &mockBackend{eligibilityErr: errors.New("boom")}
	svc, store := newEnv(t, backend, personalUser())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	require.Error(t, sess.EligibilityErr())
	assert.Equal(t, models.Eligibility{}, sess.Eligibility(), "failure must not grant eligibility")

	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodBNPL, SubOption: enum.SubOptionBNPL7}))

	err := sess.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "active bank account required for this payment method", verr.Message)
}

func TestEligibilityFetchedOnlyWhenAuthenticated(t *testing.T) {
	backend := &mockBackend{}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	svc.Open(context.Background())
	assert.Zero(t, backend.callCount("eligibility"))
}

func TestSubmitEmptyCart(t *testing.T) {
	svc, _ := newEnv(t, &mockBackend{}, guest())

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCash}))

	assert.ErrorIs(t, sess.Submit(context.Background()), ErrEmptyCart)
}

func TestFailedSubmitAllowsRetry(t *testing.T) {
	backend := &mockBackend{payErr: &api.Error{StatusCode: 400, Detail: "insufficient stock"}}
	svc, store := newEnv(t, backend, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCash}))

	err := sess.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "insufficient stock", err.Error(), "server detail is preferred for display")
	assert.Equal(t, enum.CheckoutStateFailed, sess.State())
	assert.Equal(t, 1, store.Len(), "failed dispatch leaves the cart intact")

	backend.payErr = nil
	require.NoError(t, sess.Submit(context.Background()))
	assert.Equal(t, enum.CheckoutStateConfirmed, sess.State())
}

func TestSetFormClearsDisplayedError(t *testing.T) {
	svc, store := newEnv(t, &mockBackend{}, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(models.CheckoutForm{})
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethodCash}))
	require.Error(t, sess.Submit(context.Background()))
	require.Error(t, sess.LastError())

	sess.SetForm(validForm())
	assert.Nil(t, sess.LastError())
}

func TestUnknownMethodHasNoRoute(t *testing.T) {
	svc, store := newEnv(t, &mockBackend{}, guest())
	fillCart(t, store)

	sess := svc.Open(context.Background())
	sess.SetForm(validForm())
	require.NoError(t, sess.Select(models.CheckoutSelection{Mode: enum.CheckoutModePayment, Method: enum.PaymentMethod("wire")}))

	err := sess.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route")
}

func TestProcessEventUnknownType(t *testing.T) {
	svc, _ := newEnv(t, &mockBackend{}, guest())

	err := svc.ProcessEvent(context.Background(), &gateway.Event{Event: gateway.EventType("mystery")})
	assert.Error(t, err)
}
