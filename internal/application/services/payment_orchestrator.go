package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/repositories"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentNotConfiguredMessage = "Online payment is not available right now. Please try again later or contact support."
	intentFailedMessage         = "We could not start your payment. No money was taken. Please contact support if this keeps happening."
	checkoutUnavailableMessage  = "The payment window could not be opened. Please try again."
)

// CheckoutRequest starts an online payment for a booking or order
type CheckoutRequest struct {
	SessionID   string
	Kind        entities.PaymentKind
	ReferenceID string
	Description string
	Prefill     entities.Prefill
}

// PayLaterRequest confirms a booking without upfront payment
type PayLaterRequest struct {
	SessionID   string
	Kind        entities.PaymentKind
	ReferenceID string
	Mode        entities.PaymentMode
}

// PaymentOrchestrator sequences order intent, checkout collection and verification
type PaymentOrchestrator struct {
	api         providers.PaymentAPI
	scripts     providers.ScriptLoader
	checkout    providers.CheckoutProvider
	escalations repositories.PaymentEscalationRepository
	notifier    providers.Notifier
	metrics     *observability.Metrics
	publicKey   string
}

// NewPaymentOrchestrator creates a new payment orchestrator. escalations may be nil,
// in which case ambiguous payments are only logged.
func NewPaymentOrchestrator(
	api providers.PaymentAPI,
	scripts providers.ScriptLoader,
	checkout providers.CheckoutProvider,
	escalations repositories.PaymentEscalationRepository,
	notifier providers.Notifier,
	metrics *observability.Metrics,
	publicKey string,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		api:         api,
		scripts:     scripts,
		checkout:    checkout,
		escalations: escalations,
		notifier:    notifier,
		metrics:     metrics,
		publicKey:   strings.TrimSpace(publicKey),
	}
}

// Checkout runs one online payment attempt to a terminal state. Verification
// failures are never retried; they are escalated for support follow-up.
func (o *PaymentOrchestrator) Checkout(ctx context.Context, req CheckoutRequest) (*entities.PaymentResult, error) {
	ctx, span := observability.StartSpan(ctx, "PaymentOrchestrator.Checkout")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("payment.kind", string(req.Kind)),
		attribute.String("payment.reference_id", req.ReferenceID),
	)

	result, err := o.checkoutOnce(ctx, req)
	if result != nil {
		observability.SetSpanAttributes(span, attribute.String("payment.state", string(result.State)))
		observability.RecordPaymentOutcome(ctx, o.metrics, string(req.Kind), string(result.State))
	}
	observability.RecordError(span, err)
	return result, err
}

func (o *PaymentOrchestrator) checkoutOnce(ctx context.Context, req CheckoutRequest) (*entities.PaymentResult, error) {
	logger := observability.LoggerFromContext(ctx)

	if req.ReferenceID == "" {
		return nil, apperrors.NewValidationError("a booking or order id is required")
	}
	if o.publicKey == "" {
		logger.Error().Msg("checkout public key is not configured")
		notifyAlert(ctx, o.notifier, req.SessionID, "Payment unavailable", paymentNotConfiguredMessage)
		return &entities.PaymentResult{State: entities.PaymentIntentFailed},
			apperrors.NewExternalError(paymentNotConfiguredMessage, fmt.Errorf("checkout public key missing"))
	}

	intentCtx, span := observability.StartSpan(ctx, "PaymentOrchestrator.CreateIntent")
	intent, err := o.api.CreatePaymentOrder(intentCtx, req.Kind, req.ReferenceID)
	observability.RecordError(span, err)
	span.End()
	if err != nil {
		logger.Error().Err(err).Str("reference_id", req.ReferenceID).Msg("failed to create payment order")
		notifyAlert(ctx, o.notifier, req.SessionID, "Payment failed", intentFailedMessage)
		return &entities.PaymentResult{State: entities.PaymentIntentFailed},
			apperrors.NewExternalError(intentFailedMessage, err)
	}

	if _, err := o.scripts.Load(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to load checkout script")
		notifyToast(ctx, o.notifier, req.SessionID, entities.SeverityError, checkoutUnavailableMessage)
		return &entities.PaymentResult{State: entities.PaymentCheckoutFailed, Intent: intent},
			apperrors.NewExternalError(checkoutUnavailableMessage, err)
	}

	session := entities.CheckoutSession{
		SessionID:   req.SessionID,
		Kind:        req.Kind,
		ReferenceID: req.ReferenceID,
		Key:         o.publicKey,
		Intent:      *intent,
		Description: req.Description,
		Prefill:     req.Prefill,
	}
	collectCtx, span := observability.StartSpan(ctx, "PaymentOrchestrator.Collect")
	outcome, err := o.checkout.Collect(collectCtx, session)
	observability.RecordError(span, err)
	span.End()
	if errors.Is(err, context.Canceled) {
		logger.Info().Str("order_id", intent.OrderID).Msg("checkout abandoned by caller")
		return &entities.PaymentResult{State: entities.PaymentAbandoned, Intent: intent}, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("order_id", intent.OrderID).Msg("checkout collection failed")
		notifyToast(ctx, o.notifier, req.SessionID, entities.SeverityError, checkoutUnavailableMessage)
		return &entities.PaymentResult{State: entities.PaymentCheckoutFailed, Intent: intent},
			apperrors.NewExternalError(checkoutUnavailableMessage, err)
	}

	if outcome == nil || outcome.Outcome != entities.CheckoutSucceeded {
		logger.Info().Str("order_id", intent.OrderID).Msg("checkout dismissed")
		return &entities.PaymentResult{State: entities.PaymentAbandoned, Intent: intent}, nil
	}

	return o.verify(ctx, req, intent, outcome.Proof)
}

func (o *PaymentOrchestrator) verify(ctx context.Context, req CheckoutRequest, intent *entities.PaymentIntent, proof *entities.PaymentProof) (*entities.PaymentResult, error) {
	ctx, span := observability.StartSpan(ctx, "PaymentOrchestrator.Verify")
	defer span.End()

	var err error
	switch {
	case proof == nil || proof.PaymentID == "":
		err = fmt.Errorf("checkout reported success without a payment proof")
	case proof.OrderID != intent.OrderID:
		err = fmt.Errorf("payment proof is for order %s, expected %s", proof.OrderID, intent.OrderID)
	default:
		err = o.api.VerifyPayment(ctx, req.Kind, req.ReferenceID, *proof)
	}

	result := &entities.PaymentResult{Intent: intent}
	if proof != nil {
		result.PaymentID = proof.PaymentID
	}
	if err != nil {
		observability.RecordError(span, err)
		result.State = entities.PaymentVerificationFailed
		o.escalate(ctx, req, intent, result.PaymentID, err)
		notifyAlert(ctx, o.notifier, req.SessionID, "Contact support", apperrors.SupportUserMessage)
		return result, apperrors.NewPaymentAmbiguousError(err)
	}

	result.State = entities.PaymentPaid
	notifyToast(ctx, o.notifier, req.SessionID, entities.SeveritySuccess, "Payment successful")
	return result, nil
}

// ResolveLate verifies a checkout success that arrived after the attempt was
// already reported as abandoned. A failed verification is escalated like any
// other.
func (o *PaymentOrchestrator) ResolveLate(ctx context.Context, session entities.CheckoutSession, outcome entities.CheckoutResult) (*entities.PaymentResult, error) {
	ctx, span := observability.StartSpan(ctx, "PaymentOrchestrator.ResolveLate")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("payment.kind", string(session.Kind)),
		attribute.String("payment.order_id", session.Intent.OrderID),
	)

	req := CheckoutRequest{
		SessionID:   session.SessionID,
		Kind:        session.Kind,
		ReferenceID: session.ReferenceID,
		Description: session.Description,
		Prefill:     session.Prefill,
	}
	intent := session.Intent
	result, err := o.verify(ctx, req, &intent, outcome.Proof)
	observability.RecordPaymentOutcome(ctx, o.metrics, string(req.Kind), string(result.State))
	observability.RecordError(span, err)
	return result, err
}

// escalate records the ambiguous payment; it never fails the caller
func (o *PaymentOrchestrator) escalate(ctx context.Context, req CheckoutRequest, intent *entities.PaymentIntent, paymentID string, cause error) {
	logger := observability.LoggerFromContext(ctx)
	logger.Error().Err(cause).
		Str("order_id", intent.OrderID).
		Str("payment_id", paymentID).
		Str("reference_id", req.ReferenceID).
		Msg("payment verification failed, escalating to support")

	if o.escalations == nil {
		return
	}
	escalation := &entities.PaymentEscalation{
		ID:          uuid.New().String(),
		SessionID:   req.SessionID,
		Kind:        req.Kind,
		ReferenceID: req.ReferenceID,
		OrderID:     intent.OrderID,
		PaymentID:   paymentID,
		Reason:      cause.Error(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.escalations.Create(context.WithoutCancel(ctx), escalation); err != nil {
		logger.Error().Err(err).Str("order_id", intent.OrderID).Msg("failed to persist payment escalation")
	}
}

// PayLater confirms a booking as unpaid-but-valid. It is refused for modes
// that need upfront online payment.
func (o *PaymentOrchestrator) PayLater(ctx context.Context, req PayLaterRequest) (*entities.PaymentResult, error) {
	ctx, span := observability.StartSpan(ctx, "PaymentOrchestrator.PayLater")
	defer span.End()

	if req.ReferenceID == "" {
		return nil, apperrors.NewValidationError("a booking or order id is required")
	}
	if req.Mode.RequiresOnlinePayment() {
		return nil, apperrors.NewValidationError("This booking must be paid online")
	}

	if err := o.api.CreateCODOrder(ctx, req.Kind, req.ReferenceID); err != nil {
		observability.RecordError(span, err)
		notifyToast(ctx, o.notifier, req.SessionID, entities.SeverityError,
			apperrors.UserMessage(err, apperrors.GenericUserMessage))
		return nil, err
	}

	observability.RecordPaymentOutcome(ctx, o.metrics, string(req.Kind), string(entities.PaymentConfirmedUnpaid))
	notifyToast(ctx, o.notifier, req.SessionID, entities.SeveritySuccess, "Booking confirmed")
	return &entities.PaymentResult{State: entities.PaymentConfirmedUnpaid}, nil
}

// Escalations lists the session's payments awaiting support
func (o *PaymentOrchestrator) Escalations(ctx context.Context, sessionID string) ([]*entities.PaymentEscalation, error) {
	if o.escalations == nil {
		return []*entities.PaymentEscalation{}, nil
	}
	return o.escalations.ListBySession(ctx, sessionID, 50)
}
