package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/providers/checkout"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

type paymentFixture struct {
	api          *MockTelehealthAPI
	scripts      *MockScriptLoader
	checkout     *MockCheckoutProvider
	escalations  *MockEscalationRepository
	notifier     *recordingNotifier
	orchestrator *services.PaymentOrchestrator
}

func newPaymentFixture(publicKey string) *paymentFixture {
	f := &paymentFixture{
		api:         new(MockTelehealthAPI),
		scripts:     new(MockScriptLoader),
		checkout:    new(MockCheckoutProvider),
		escalations: new(MockEscalationRepository),
		notifier:    &recordingNotifier{},
	}
	f.orchestrator = services.NewPaymentOrchestrator(f.api, f.scripts, f.checkout, f.escalations, f.notifier, nil, publicKey)
	return f
}

var testIntent = &entities.PaymentIntent{OrderID: "order_1", Amount: 50000, Currency: "INR"}

func checkoutReq() services.CheckoutRequest {
	return services.CheckoutRequest{
		SessionID:   "s1",
		Kind:        entities.PaymentKindAppointment,
		ReferenceID: "appt-1",
	}
}

func TestCheckout_Paid(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	proof := entities.PaymentProof{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	f.api.On("CreatePaymentOrder", mock.Anything, entities.PaymentKindAppointment, "appt-1").Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.checkout.On("Collect", mock.Anything, mock.MatchedBy(func(s entities.CheckoutSession) bool {
		return s.Key == "rzp_test_key" && s.Intent.OrderID == "order_1" && s.SessionID == "s1"
	})).Return(&entities.CheckoutResult{Outcome: entities.CheckoutSucceeded, Proof: &proof}, nil).Once()
	f.api.On("VerifyPayment", mock.Anything, entities.PaymentKindAppointment, "appt-1", proof).Return(nil).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.NoError(t, err)
	assert.Equal(t, entities.PaymentPaid, res.State)
	assert.Equal(t, "pay_1", res.PaymentID)
	assert.Equal(t, "Payment successful", f.notifier.last(entities.NotificationToast).Message)
	f.api.AssertExpectations(t)
	f.checkout.AssertExpectations(t)
}

func TestCheckout_DismissedIsAbandonedWithoutError(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.checkout.On("Collect", mock.Anything, mock.Anything).Return(&entities.CheckoutResult{Outcome: entities.CheckoutDismissed}, nil).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.NoError(t, err)
	assert.Equal(t, entities.PaymentAbandoned, res.State)
	assert.Empty(t, f.notifier.ofKind(entities.NotificationAlert))
	assert.Empty(t, f.notifier.ofKind(entities.NotificationToast))
	f.api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_DismissedOnlineBookingStaysHidden(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.checkout.On("Collect", mock.Anything, mock.Anything).Return(&entities.CheckoutResult{Outcome: entities.CheckoutDismissed}, nil).Once()

	_, err := f.orchestrator.Checkout(context.Background(), checkoutReq())
	require.NoError(t, err)

	booked := doctorAppt("appt-1", entities.DoctorStatusUpcoming, entities.ConsultationOnline, false, baseTime)
	f.api.On("FetchDashboard", mock.Anything, entities.RoleDoctor).Return(payload(entities.RoleDoctor, booked), nil).Once()
	view, err := services.NewDashboardService(f.api, nil, nil).Refresh(context.Background(), services.NewScreen("s1", entities.RoleDoctor))

	require.NoError(t, err)
	assert.Equal(t, 0, view.Bucket(entities.BucketPending).Count)
	_, found := view.Find("appt-1")
	assert.False(t, found)
}

func TestCheckout_VerificationFailureEscalates(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	proof := entities.PaymentProof{OrderID: "order_1", PaymentID: "pay_1", Signature: "bad"}
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.checkout.On("Collect", mock.Anything, mock.Anything).Return(&entities.CheckoutResult{Outcome: entities.CheckoutSucceeded, Proof: &proof}, nil).Once()
	f.api.On("VerifyPayment", mock.Anything, mock.Anything, mock.Anything, proof).Return(apperrors.NewRemoteError(400, "Invalid signature")).Once()
	f.escalations.On("Create", mock.Anything, mock.MatchedBy(func(e *entities.PaymentEscalation) bool {
		return e.OrderID == "order_1" && e.PaymentID == "pay_1" && e.SessionID == "s1" && e.ID != ""
	})).Return(nil).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePaymentAmbiguous))
	assert.Equal(t, entities.PaymentVerificationFailed, res.State)
	alert := f.notifier.last(entities.NotificationAlert)
	require.NotNil(t, alert)
	assert.True(t, alert.Blocking())
	assert.Equal(t, apperrors.SupportUserMessage, alert.Message)
	f.api.AssertNumberOfCalls(t, "VerifyPayment", 1)
	f.escalations.AssertExpectations(t)
}

func TestCheckout_ProofForAnotherOrderIsNotVerified(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	proof := entities.PaymentProof{OrderID: "order_2", PaymentID: "pay_1"}
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.checkout.On("Collect", mock.Anything, mock.Anything).Return(&entities.CheckoutResult{Outcome: entities.CheckoutSucceeded, Proof: &proof}, nil).Once()
	f.escalations.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.Error(t, err)
	assert.Equal(t, entities.PaymentVerificationFailed, res.State)
	f.api.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_IntentFailure(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.Error(t, err)
	assert.Equal(t, entities.PaymentIntentFailed, res.State)
	require.NotNil(t, f.notifier.last(entities.NotificationAlert))
	f.scripts.AssertNotCalled(t, "Load", mock.Anything)
	f.escalations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_MissingKeyFailsAtPaymentTime(t *testing.T) {
	f := newPaymentFixture("")

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.Error(t, err)
	assert.Equal(t, entities.PaymentIntentFailed, res.State)
	assert.NotEmpty(t, apperrors.UserMessage(err, ""))
	f.api.AssertNotCalled(t, "CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_ScriptLoadFailure(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return(nil, errors.New("cdn down")).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.Error(t, err)
	assert.Equal(t, entities.PaymentCheckoutFailed, res.State)
	f.checkout.AssertNotCalled(t, "Collect", mock.Anything, mock.Anything)
}

func TestPayLater(t *testing.T) {
	ctx := context.Background()

	t.Run("in-person booking is confirmed unpaid", func(t *testing.T) {
		f := newPaymentFixture("")
		f.api.On("CreateCODOrder", mock.Anything, entities.PaymentKindAppointment, "appt-1").Return(nil).Once()

		res, err := f.orchestrator.PayLater(ctx, services.PayLaterRequest{
			SessionID: "s1", Kind: entities.PaymentKindAppointment, ReferenceID: "appt-1",
			Mode: entities.PaymentMode(entities.ConsultationInPerson),
		})

		require.NoError(t, err)
		assert.Equal(t, entities.PaymentConfirmedUnpaid, res.State)
		f.api.AssertExpectations(t)
	})

	t.Run("online booking is refused", func(t *testing.T) {
		f := newPaymentFixture("")

		_, err := f.orchestrator.PayLater(ctx, services.PayLaterRequest{
			SessionID: "s1", Kind: entities.PaymentKindAppointment, ReferenceID: "appt-1",
			Mode: entities.PaymentMode(entities.ConsultationOnline),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		f.api.AssertNotCalled(t, "CreateCODOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("home collection is refused", func(t *testing.T) {
		f := newPaymentFixture("")
		_, err := f.orchestrator.PayLater(ctx, services.PayLaterRequest{
			Kind: entities.PaymentKindLabAppointment, ReferenceID: "lab-1",
			Mode: entities.PaymentMode(entities.CollectionAtHome),
		})
		assert.Error(t, err)
	})
}

func TestCheckout_CallerGoneIsAbandoned(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	f.api.On("CreatePaymentOrder", mock.Anything, mock.Anything, mock.Anything).Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.checkout.On("Collect", mock.Anything, mock.Anything).Return(nil, context.Canceled).Once()

	res, err := f.orchestrator.Checkout(context.Background(), checkoutReq())

	require.NoError(t, err)
	assert.Equal(t, entities.PaymentAbandoned, res.State)
	assert.Empty(t, f.notifier.ofKind(entities.NotificationToast))
}

func TestResolveLate(t *testing.T) {
	session := entities.CheckoutSession{
		SessionID:   "s1",
		Kind:        entities.PaymentKindAppointment,
		ReferenceID: "appt-1",
		Intent:      *testIntent,
	}
	proof := entities.PaymentProof{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	late := entities.CheckoutResult{Outcome: entities.CheckoutSucceeded, Proof: &proof}

	t.Run("verifies the proof", func(t *testing.T) {
		f := newPaymentFixture("rzp_test_key")
		f.api.On("VerifyPayment", mock.Anything, entities.PaymentKindAppointment, "appt-1", proof).Return(nil).Once()

		res, err := f.orchestrator.ResolveLate(context.Background(), session, late)

		require.NoError(t, err)
		assert.Equal(t, entities.PaymentPaid, res.State)
		assert.Equal(t, "Payment successful", f.notifier.last(entities.NotificationToast).Message)
		f.escalations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failed verification escalates", func(t *testing.T) {
		f := newPaymentFixture("rzp_test_key")
		f.api.On("VerifyPayment", mock.Anything, mock.Anything, mock.Anything, proof).Return(apperrors.NewRemoteError(400, "Invalid signature")).Once()
		f.escalations.On("Create", mock.Anything, mock.MatchedBy(func(e *entities.PaymentEscalation) bool {
			return e.OrderID == "order_1" && e.ReferenceID == "appt-1" && e.PaymentID == "pay_1"
		})).Return(nil).Once()

		res, err := f.orchestrator.ResolveLate(context.Background(), session, late)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePaymentAmbiguous))
		assert.Equal(t, entities.PaymentVerificationFailed, res.State)
		require.NotNil(t, f.notifier.last(entities.NotificationAlert))
		f.escalations.AssertExpectations(t)
	})
}

func TestCheckout_LateSuccessThroughCallbackGateway(t *testing.T) {
	f := newPaymentFixture("rzp_test_key")
	gw := checkout.NewCallbackGateway(f.notifier, 20*time.Millisecond, "Telehealth")
	orchestrator := services.NewPaymentOrchestrator(f.api, f.scripts, gw, f.escalations, f.notifier, nil, "rzp_test_key")
	gw.OnLateResult(orchestrator.ResolveLate)

	proof := entities.PaymentProof{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}
	f.api.On("CreatePaymentOrder", mock.Anything, entities.PaymentKindAppointment, "appt-1").Return(testIntent, nil).Once()
	f.scripts.On("Load", mock.Anything).Return([]byte("js"), nil).Once()
	f.api.On("VerifyPayment", mock.Anything, entities.PaymentKindAppointment, "appt-1", proof).Return(errors.New("gateway timeout")).Once()
	f.escalations.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := orchestrator.Checkout(context.Background(), checkoutReq())
	require.NoError(t, err)
	require.Equal(t, entities.PaymentAbandoned, res.State)

	err = gw.Resolve(context.Background(), "s1", "order_1", entities.CheckoutResult{Outcome: entities.CheckoutSucceeded, Proof: &proof})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePaymentAmbiguous))
	f.api.AssertNumberOfCalls(t, "VerifyPayment", 1)
	f.escalations.AssertExpectations(t)
	alert := f.notifier.last(entities.NotificationAlert)
	require.NotNil(t, alert)
	assert.Equal(t, apperrors.SupportUserMessage, alert.Message)
}
