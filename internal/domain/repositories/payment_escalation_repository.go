package repositories

import (
	"context"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// PaymentEscalationRepository stores payments that need support follow-up
type PaymentEscalationRepository interface {
	Create(ctx context.Context, escalation *entities.PaymentEscalation) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*entities.PaymentEscalation, error)
}
