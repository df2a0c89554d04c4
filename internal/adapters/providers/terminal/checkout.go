package terminal

import (
	"context"
	"fmt"
	"io"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
)

// Checkout collects a payment made outside the terminal. It prints the order
// and asks for the payment id and signature the overlay returned; an empty
// payment id is treated as a dismissal.
type Checkout struct {
	prompter *Prompter
}

var _ providers.CheckoutProvider = (*Checkout)(nil)

// NewCheckout creates a terminal checkout
func NewCheckout(prompter *Prompter) *Checkout {
	return &Checkout{prompter: prompter}
}

// Collect implements providers.CheckoutProvider
func (c *Checkout) Collect(ctx context.Context, session entities.CheckoutSession) (*entities.CheckoutResult, error) {
	intent := session.Intent
	c.prompter.Println(fmt.Sprintf("Pay %s %.2f for order %s (key %s)",
		intent.Currency, float64(intent.Amount)/100, intent.OrderID, session.Key))

	paymentID, err := c.prompter.Ask(ctx, "Payment id (empty to cancel): ")
	if err == io.EOF || (err == nil && paymentID == "") {
		return &entities.CheckoutResult{Outcome: entities.CheckoutDismissed}, nil
	}
	if err != nil {
		return nil, err
	}
	signature, err := c.prompter.Ask(ctx, "Signature: ")
	if err != nil && err != io.EOF {
		return nil, err
	}

	return &entities.CheckoutResult{
		Outcome: entities.CheckoutSucceeded,
		Proof: &entities.PaymentProof{
			OrderID:   intent.OrderID,
			PaymentID: paymentID,
			Signature: signature,
		},
	}, nil
}
