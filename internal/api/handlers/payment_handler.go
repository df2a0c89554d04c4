package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// PaymentRunner runs checkouts and pay-later confirmations
type PaymentRunner interface {
	Checkout(ctx context.Context, req services.CheckoutRequest) (*entities.PaymentResult, error)
	PayLater(ctx context.Context, req services.PayLaterRequest) (*entities.PaymentResult, error)
	Escalations(ctx context.Context, sessionID string) ([]*entities.PaymentEscalation, error)
}

// CheckoutResolver receives the overlay's outcome from the browser
type CheckoutResolver interface {
	Resolve(ctx context.Context, sessionID, orderID string, result entities.CheckoutResult) error
}

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	payments PaymentRunner
	resolver CheckoutResolver
	scripts  providers.ScriptLoader
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentRunner, resolver CheckoutResolver, scripts providers.ScriptLoader) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		resolver: resolver,
		scripts:  scripts,
	}
}

type checkoutBody struct {
	Kind        entities.PaymentKind `json:"kind"`
	ReferenceID string               `json:"reference_id"`
	Description string               `json:"description"`
	Prefill     entities.Prefill     `json:"prefill"`
}

type payLaterBody struct {
	Kind        entities.PaymentKind `json:"kind"`
	ReferenceID string               `json:"reference_id"`
	Mode        entities.PaymentMode `json:"mode"`
}

func validKind(kind entities.PaymentKind) bool {
	switch kind {
	case entities.PaymentKindAppointment, entities.PaymentKindLabAppointment, entities.PaymentKindProduct:
		return true
	}
	return false
}

// Checkout handles POST /api/payments/checkout. The request stays open until
// the overlay reports back through Callback or the checkout times out.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var body checkoutBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !validKind(body.Kind) {
		respondWithError(w, http.StatusBadRequest, "unknown payment kind")
		return
	}

	result, err := h.payments.Checkout(r.Context(), services.CheckoutRequest{
		SessionID:   sid,
		Kind:        body.Kind,
		ReferenceID: strings.TrimSpace(body.ReferenceID),
		Description: body.Description,
		Prefill:     body.Prefill,
	})
	if err != nil {
		respondWithPaymentError(w, r, result, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// respondWithPaymentError keeps the terminal state alongside the error so the
// browser can tell an unstarted payment from one that needs support
func respondWithPaymentError(w http.ResponseWriter, r *http.Request, result *entities.PaymentResult, err error) {
	if result == nil {
		respondWithAppError(w, r, err)
		return
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("unexpected error", err)
	}
	status := statusFor(appErr)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("payment_state", string(result.State)).
			Msg("payment did not complete")
	}
	respondWithJSON(w, status, struct {
		errorResponse
		*entities.PaymentResult
	}{
		errorResponse: errorResponse{
			Error: apperrors.UserMessage(err, apperrors.GenericUserMessage),
			Code:  errorCodes[appErr.Type],
		},
		PaymentResult: result,
	})
}

// Callback handles POST /api/payments/{orderId}/callback with the overlay's
// outcome: {"outcome":"success","proof":{...}} or {"outcome":"dismissed"}
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	orderID := r.PathValue("orderId")
	if orderID == "" {
		respondWithError(w, http.StatusBadRequest, "order ID is required")
		return
	}

	var result entities.CheckoutResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	switch result.Outcome {
	case entities.CheckoutSucceeded, entities.CheckoutDismissed:
	default:
		respondWithError(w, http.StatusBadRequest, "outcome must be success or dismissed")
		return
	}

	if err := h.resolver.Resolve(r.Context(), sid, orderID, result); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayLater handles POST /api/payments/pay-later
func (h *PaymentHandler) PayLater(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var body payLaterBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !validKind(body.Kind) {
		respondWithError(w, http.StatusBadRequest, "unknown payment kind")
		return
	}

	result, err := h.payments.PayLater(r.Context(), services.PayLaterRequest{
		SessionID:   sid,
		Kind:        body.Kind,
		ReferenceID: strings.TrimSpace(body.ReferenceID),
		Mode:        body.Mode,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// ListEscalations handles GET /api/payments/escalations
func (h *PaymentHandler) ListEscalations(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	escalations, err := h.payments.Escalations(r.Context(), sid)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"escalations": escalations,
		"count":       len(escalations),
	})
}

// CheckoutScript handles GET /assets/checkout.js, serving the vendor script
// from the process-wide cache
func (h *PaymentHandler) CheckoutScript(w http.ResponseWriter, r *http.Request) {
	script, err := h.scripts.Load(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("checkout script unavailable")
		http.Error(w, "checkout script unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(script)
}
