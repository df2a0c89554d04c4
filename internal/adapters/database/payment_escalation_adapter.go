package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/repositories"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

const paymentEscalationsTable = "payment_escalations"

const paymentEscalationsSchema = `
CREATE TABLE IF NOT EXISTS payment_escalations (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	kind         TEXT NOT NULL,
	reference_id TEXT NOT NULL,
	order_id     TEXT NOT NULL,
	payment_id   TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payment_escalations_session ON payment_escalations (session_id, created_at DESC);
`

// PaymentEscalationAdapter stores payments awaiting support reconciliation in Postgres
type PaymentEscalationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	rows   *sqlx.DB
}

// NewPaymentEscalationAdapter creates a new payment escalation adapter
func NewPaymentEscalationAdapter(client *postgres.Client) *PaymentEscalationAdapter {
	return &PaymentEscalationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		rows:   sqlx.NewDb(client.DB(), "postgres"),
	}
}

var _ repositories.PaymentEscalationRepository = (*PaymentEscalationAdapter)(nil)

// EnsureSchema creates the escalation table when it does not exist
func (a *PaymentEscalationAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, paymentEscalationsSchema); err != nil {
		return apperrors.NewInternalError("failed to create payment escalation schema", err)
	}
	return nil
}

// Create inserts an escalation
func (a *PaymentEscalationAdapter) Create(ctx context.Context, escalation *entities.PaymentEscalation) error {
	ctx, span := observability.StartSpan(ctx, "PaymentEscalationAdapter.Create")
	defer span.End()

	if escalation == nil {
		return apperrors.NewInternalError("escalation is nil", fmt.Errorf("escalation is nil"))
	}

	record := goqu.Record{
		"id":           escalation.ID,
		"session_id":   escalation.SessionID,
		"kind":         string(escalation.Kind),
		"reference_id": escalation.ReferenceID,
		"order_id":     escalation.OrderID,
		"payment_id":   escalation.PaymentID,
		"reason":       escalation.Reason,
		"created_at":   escalation.CreatedAt,
	}

	query, args, err := a.db.Insert(paymentEscalationsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build escalation insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		observability.RecordError(span, err)
		return apperrors.NewInternalError("failed to create payment escalation", err)
	}
	return nil
}

// ListBySession returns the newest escalations raised for a session
func (a *PaymentEscalationAdapter) ListBySession(ctx context.Context, sessionID string, limit int) ([]*entities.PaymentEscalation, error) {
	ctx, span := observability.StartSpan(ctx, "PaymentEscalationAdapter.ListBySession")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	query, args, err := a.db.From(paymentEscalationsTable).
		Select("id", "session_id", "kind", "reference_id", "order_id", "payment_id", "reason", "created_at").
		Where(goqu.Ex{"session_id": sessionID}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build escalation query", err)
	}

	escalations := []*entities.PaymentEscalation{}
	if err := a.rows.SelectContext(ctx, &escalations, query, args...); err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to list payment escalations", err)
	}
	return escalations, nil
}
