package database_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/database"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

func setupMockDB(t *testing.T) (*database.PaymentEscalationAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return database.NewPaymentEscalationAdapter(postgres.Wrap(db)), mock
}

func TestPaymentEscalationAdapter_Create(t *testing.T) {
	adapter, mock := setupMockDB(t)
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "payment_escalations"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Create(context.Background(), &entities.PaymentEscalation{
		ID:          "esc-1",
		SessionID:   "s1",
		Kind:        entities.PaymentKindAppointment,
		ReferenceID: "appt-1",
		OrderID:     "order_1",
		PaymentID:   "pay_1",
		Reason:      "signature mismatch",
		CreatedAt:   created,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentEscalationAdapter_CreateFailure(t *testing.T) {
	adapter, mock := setupMockDB(t)
	mock.ExpectExec(`INSERT INTO`).WillReturnError(errors.New("connection reset"))

	err := adapter.Create(context.Background(), &entities.PaymentEscalation{ID: "esc-1"})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentEscalationAdapter_CreateNil(t *testing.T) {
	adapter, _ := setupMockDB(t)
	assert.Error(t, adapter.Create(context.Background(), nil))
}

func TestPaymentEscalationAdapter_ListBySession(t *testing.T) {
	adapter, mock := setupMockDB(t)
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "session_id", "kind", "reference_id", "order_id", "payment_id", "reason", "created_at"}).
		AddRow("esc-2", "s1", "product", "o1", "order_2", "pay_2", "timeout", created.Add(time.Hour)).
		AddRow("esc-1", "s1", "appointment", "appt-1", "order_1", "pay_1", "signature mismatch", created)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "session_id", "kind"`)).WillReturnRows(rows)

	got, err := adapter.ListBySession(context.Background(), "s1", 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "esc-2", got[0].ID)
	assert.Equal(t, entities.PaymentKindProduct, got[0].Kind)
	assert.Equal(t, created, got[1].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentEscalationAdapter_ListEmpty(t *testing.T) {
	adapter, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := adapter.ListBySession(context.Background(), "s1", 0)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPaymentEscalationAdapter_EnsureSchema(t *testing.T) {
	adapter, mock := setupMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS payment_escalations`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
