package providers

import (
	"context"
	"io"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// DashboardAPI reads role dashboards from the marketplace
type DashboardAPI interface {
	// FetchDashboard returns the records of every named array in server order
	FetchDashboard(ctx context.Context, role entities.Role) (*entities.DashboardPayload, error)
}

// DoctorAPI mutates doctor appointments
type DoctorAPI interface {
	SavePrescription(ctx context.Context, appointmentID string, draft entities.PrescriptionDraft) error
	DeletePrescription(ctx context.Context, appointmentID string) error
	// MarkConsultationCompleted sets the appointment status to completed
	MarkConsultationCompleted(ctx context.Context, appointmentID string) error
	CancelDoctorAppointment(ctx context.Context, appointmentID string) error
}

// LaboratoryAPI mutates laboratory appointments
type LaboratoryAPI interface {
	MarkSampleCollected(ctx context.Context, appointmentID string) error
	SaveReport(ctx context.Context, appointmentID string, draft entities.ReportDraft) error
	DeleteReport(ctx context.Context, appointmentID string) error
	MarkReportRead(ctx context.Context, appointmentID string) error
	CancelLabAppointment(ctx context.Context, appointmentID string) error
}

// OrderAPI moves product orders through the delivery workflow
type OrderAPI interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	CancelOrder(ctx context.Context, orderID string) error
}

// FeedbackAPI toggles feedback requests on completed bookings
type FeedbackAPI interface {
	RequestFeedback(ctx context.Context, domain entities.Domain, recordID string) error
	CancelFeedbackRequest(ctx context.Context, domain entities.Domain, recordID string) error
}

// AccountAPI manages the signed-in account
type AccountAPI interface {
	DeleteAccount(ctx context.Context) error
}

// PaymentAPI creates and verifies payment orders
type PaymentAPI interface {
	CreatePaymentOrder(ctx context.Context, kind entities.PaymentKind, referenceID string) (*entities.PaymentIntent, error)
	VerifyPayment(ctx context.Context, kind entities.PaymentKind, referenceID string, proof entities.PaymentProof) error
	// CreateCODOrder confirms a booking without upfront payment
	CreateCODOrder(ctx context.Context, kind entities.PaymentKind, referenceID string) error
}

// UploadAPI issues presigned upload targets and stores file bytes
type UploadAPI interface {
	RequestUploadURL(ctx context.Context, fileName, contentType string) (*entities.UploadSlot, error)
	PutObject(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error
}

// TelehealthAPI is the whole marketplace REST surface used by this service
type TelehealthAPI interface {
	DashboardAPI
	DoctorAPI
	LaboratoryAPI
	OrderAPI
	FeedbackAPI
	AccountAPI
	PaymentAPI
	UploadAPI
}
