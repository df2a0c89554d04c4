package services_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// Mocks

type MockTelehealthAPI struct {
	mock.Mock
}

func (m *MockTelehealthAPI) FetchDashboard(ctx context.Context, role entities.Role) (*entities.DashboardPayload, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DashboardPayload), args.Error(1)
}

func (m *MockTelehealthAPI) SavePrescription(ctx context.Context, id string, draft entities.PrescriptionDraft) error {
	return m.Called(ctx, id, draft).Error(0)
}

func (m *MockTelehealthAPI) DeletePrescription(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) MarkConsultationCompleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) CancelDoctorAppointment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) MarkSampleCollected(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) SaveReport(ctx context.Context, id string, draft entities.ReportDraft) error {
	return m.Called(ctx, id, draft).Error(0)
}

func (m *MockTelehealthAPI) DeleteReport(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) MarkReportRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) CancelLabAppointment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) UpdateOrderStatus(ctx context.Context, id string, status entities.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockTelehealthAPI) CancelOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTelehealthAPI) RequestFeedback(ctx context.Context, domain entities.Domain, id string) error {
	return m.Called(ctx, domain, id).Error(0)
}

func (m *MockTelehealthAPI) CancelFeedbackRequest(ctx context.Context, domain entities.Domain, id string) error {
	return m.Called(ctx, domain, id).Error(0)
}

func (m *MockTelehealthAPI) DeleteAccount(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTelehealthAPI) CreatePaymentOrder(ctx context.Context, kind entities.PaymentKind, ref string) (*entities.PaymentIntent, error) {
	args := m.Called(ctx, kind, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentIntent), args.Error(1)
}

func (m *MockTelehealthAPI) VerifyPayment(ctx context.Context, kind entities.PaymentKind, ref string, proof entities.PaymentProof) error {
	return m.Called(ctx, kind, ref, proof).Error(0)
}

func (m *MockTelehealthAPI) CreateCODOrder(ctx context.Context, kind entities.PaymentKind, ref string) error {
	return m.Called(ctx, kind, ref).Error(0)
}

func (m *MockTelehealthAPI) RequestUploadURL(ctx context.Context, name, contentType string) (*entities.UploadSlot, error) {
	args := m.Called(ctx, name, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UploadSlot), args.Error(1)
}

func (m *MockTelehealthAPI) PutObject(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
	return m.Called(ctx, url, contentType, body, size).Error(0)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

type MockCheckoutProvider struct {
	mock.Mock
}

func (m *MockCheckoutProvider) Collect(ctx context.Context, session entities.CheckoutSession) (*entities.CheckoutResult, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CheckoutResult), args.Error(1)
}

type MockScriptLoader struct {
	mock.Mock
}

func (m *MockScriptLoader) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockEscalationRepository struct {
	mock.Mock
}

func (m *MockEscalationRepository) Create(ctx context.Context, e *entities.PaymentEscalation) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEscalationRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*entities.PaymentEscalation, error) {
	args := m.Called(ctx, sessionID, limit)
	return args.Get(0).([]*entities.PaymentEscalation), args.Error(1)
}

type MockFilePicker struct {
	mock.Mock
}

func (m *MockFilePicker) Pick(ctx context.Context, accept entities.MimeFilter) (*entities.PickedFile, error) {
	args := m.Called(ctx, accept)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PickedFile), args.Error(1)
}

// recordingNotifier keeps every notification for assertions
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entities.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *entities.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) ofKind(kind entities.NotificationKind) []*entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Notification
	for _, n := range r.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) last(kind entities.NotificationKind) *entities.Notification {
	all := r.ofKind(kind)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

// Fixtures

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func doctorAppt(id string, status entities.DoctorAppointmentStatus, mode entities.ConsultationType, paid bool, created time.Time) *entities.DoctorAppointment {
	a := &entities.DoctorAppointment{
		ID:               id,
		Patient:          entities.PartyRef{Name: "Patient " + id},
		Doctor:           entities.DoctorRef{Name: "Dr. Rao"},
		ConsultationType: mode,
		Status:           status,
		CreatedAt:        created,
	}
	a.IsPaid = paid
	return a
}

func labAppt(id string, status entities.LabAppointmentStatus, report string, pdfs []string) *entities.LabAppointment {
	a := &entities.LabAppointment{
		ID:             id,
		Patient:        entities.PartyRef{Name: "Patient " + id},
		Laboratory:     entities.LaboratoryRef{Name: "City Lab"},
		Test:           entities.LabTestRef{Name: "CBC"},
		CollectionType: entities.CollectionAtLab,
		Status:         status,
		ReportResult:   report,
		TestReportPDFs: pdfs,
		CreatedAt:      baseTime,
	}
	return a
}

func order(id string, status entities.OrderStatus) *entities.DeliveryOrder {
	o := &entities.DeliveryOrder{
		ID:        id,
		Customer:  entities.PartyRef{Name: "Customer " + id},
		Status:    status,
		CreatedAt: baseTime,
	}
	o.IsCashOnDelivery = true
	return o
}

func payload(role entities.Role, records ...entities.Record) *entities.DashboardPayload {
	return &entities.DashboardPayload{Role: role, Records: records}
}
