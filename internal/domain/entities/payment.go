package entities

import "time"

// PaymentKind selects the payment endpoints used for a checkout
type PaymentKind string

const (
	PaymentKindAppointment    PaymentKind = "appointment"
	PaymentKindLabAppointment PaymentKind = "lab_appointment"
	PaymentKindProduct        PaymentKind = "product"
)

// PaymentIntent is the server-side order created before collection
type PaymentIntent struct {
	OrderID  string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentProof is returned by the checkout overlay on success
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// CheckoutOutcome is how the overlay ended
type CheckoutOutcome string

const (
	CheckoutSucceeded CheckoutOutcome = "success"
	CheckoutDismissed CheckoutOutcome = "dismissed"
)

// CheckoutResult is what the checkout provider reports back
type CheckoutResult struct {
	Outcome CheckoutOutcome `json:"outcome"`
	Proof   *PaymentProof   `json:"proof,omitempty"`
}

// Prefill is customer data passed to the overlay
type Prefill struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"contact,omitempty"`
}

// CheckoutSession configures one overlay opening
type CheckoutSession struct {
	SessionID   string        `json:"-"`
	Kind        PaymentKind   `json:"-"`
	ReferenceID string        `json:"-"`
	Key         string        `json:"key"`
	Intent      PaymentIntent `json:"intent"`
	Description string        `json:"description,omitempty"`
	Prefill     Prefill       `json:"prefill"`
}

// PaymentState is the terminal state of a checkout attempt
type PaymentState string

const (
	PaymentPaid               PaymentState = "paid"
	PaymentAbandoned          PaymentState = "abandoned"
	PaymentIntentFailed       PaymentState = "intent_failed"
	PaymentCheckoutFailed     PaymentState = "checkout_unavailable"
	PaymentVerificationFailed PaymentState = "verification_failed"
	PaymentConfirmedUnpaid    PaymentState = "confirmed_unpaid"
)

// PaymentResult summarises a checkout attempt
type PaymentResult struct {
	State     PaymentState   `json:"state"`
	Intent    *PaymentIntent `json:"intent,omitempty"`
	PaymentID string         `json:"payment_id,omitempty"`
}

// PaymentMode is the booking mode a payment request is made for,
// e.g. "online", "in-person", "lab", "home" or "cod"
type PaymentMode string

// RequiresOnlinePayment mirrors Record.RequiresOnlinePayment for a bare mode value
func (m PaymentMode) RequiresOnlinePayment() bool {
	switch m {
	case PaymentMode(ConsultationOnline), PaymentMode(CollectionAtHome), "prepaid":
		return true
	}
	return false
}

// PaymentEscalation records a payment whose outcome needs human reconciliation
type PaymentEscalation struct {
	ID          string      `json:"id" db:"id"`
	SessionID   string      `json:"session_id" db:"session_id"`
	Kind        PaymentKind `json:"kind" db:"kind"`
	ReferenceID string      `json:"reference_id" db:"reference_id"`
	OrderID     string      `json:"order_id" db:"order_id"`
	PaymentID   string      `json:"payment_id" db:"payment_id"`
	Reason      string      `json:"reason" db:"reason"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
