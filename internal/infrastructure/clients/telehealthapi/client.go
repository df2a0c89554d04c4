package telehealthapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

var _ providers.TelehealthAPI = (*HTTPClient)(nil)

type bearerKey struct{}

// WithBearerToken attaches the caller's marketplace token to ctx
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFromContext returns the token set by WithBearerToken
func BearerFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// HTTPClient talks to the marketplace REST API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// envelope is the marketplace's response wrapper
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates a marketplace client. A zero timeout means 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Dashboards

type dashboardSource struct {
	key    string
	domain entities.Domain
}

type dashboardEndpoint struct {
	path    string
	sources []dashboardSource
}

// dashboardEndpoints lists each role's named arrays in display order
var dashboardEndpoints = map[entities.Role]dashboardEndpoint{
	entities.RoleDoctor: {
		path: "/api/v1/doctor/dashboard",
		sources: []dashboardSource{
			{"pendingAppointments", entities.DomainDoctor},
			{"completedAppointments", entities.DomainDoctor},
		},
	},
	entities.RoleLaboratory: {
		path: "/api/v1/laboratory/dashboard",
		sources: []dashboardSource{
			{"pendingAppointments", entities.DomainLaboratory},
			{"processingAppointments", entities.DomainLaboratory},
			{"completedAppointments", entities.DomainLaboratory},
		},
	},
	entities.RolePatient: {
		path: "/api/v1/user/dashboard",
		sources: []dashboardSource{
			{"appointments", entities.DomainDoctor},
			{"labAppointments", entities.DomainLaboratory},
			{"orders", entities.DomainDelivery},
		},
	},
	entities.RoleDelivery: {
		path: "/api/v1/delivery/dashboard",
		sources: []dashboardSource{
			{"assignedOrders", entities.DomainDelivery},
			{"activeOrders", entities.DomainDelivery},
			{"completedOrders", entities.DomainDelivery},
		},
	},
	entities.RoleVendor: {
		path: "/api/v1/vendor/dashboard",
		sources: []dashboardSource{
			{"orders", entities.DomainDelivery},
		},
	},
}

func (c *HTTPClient) FetchDashboard(ctx context.Context, role entities.Role) (*entities.DashboardPayload, error) {
	endpoint, ok := dashboardEndpoints[role]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown dashboard role %q", role))
	}

	var data map[string]json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, endpoint.path, nil, &data); err != nil {
		return nil, err
	}

	payload := &entities.DashboardPayload{Role: role}
	for _, src := range endpoint.sources {
		raw, ok := data[src.key]
		if !ok || isNull(raw) {
			continue
		}
		records, err := decodeRecords(src.domain, raw)
		if err != nil {
			return nil, apperrors.NewExternalError("", fmt.Errorf("decode %s: %w", src.key, err))
		}
		payload.Records = append(payload.Records, records...)
	}
	if raw, ok := data["totals"]; ok && !isNull(raw) {
		// totals are informational only
		_ = json.Unmarshal(raw, &payload.ServerTotals)
	}
	return payload, nil
}

func decodeRecords(domain entities.Domain, raw json.RawMessage) ([]entities.Record, error) {
	switch domain {
	case entities.DomainDoctor:
		var list []*entities.DoctorAppointment
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return toRecords(list), nil
	case entities.DomainLaboratory:
		var list []*entities.LabAppointment
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return toRecords(list), nil
	case entities.DomainDelivery:
		var list []*entities.DeliveryOrder
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return toRecords(list), nil
	}
	return nil, fmt.Errorf("unknown domain %q", domain)
}

// toRecords drops null array elements
func toRecords[T entities.Record](list []T) []entities.Record {
	out := make([]entities.Record, 0, len(list))
	for _, r := range list {
		if entities.IsNilRecord(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Doctor

func (c *HTTPClient) SavePrescription(ctx context.Context, id string, draft entities.PrescriptionDraft) error {
	return c.doJSON(ctx, http.MethodPost, doctorPath(id, "prescription"), draft, nil)
}

func (c *HTTPClient) DeletePrescription(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, doctorPath(id, "prescription"), nil, nil)
}

func (c *HTTPClient) MarkConsultationCompleted(ctx context.Context, id string) error {
	body := map[string]string{"status": string(entities.DoctorStatusCompleted)}
	return c.doJSON(ctx, http.MethodPatch, doctorPath(id, "status"), body, nil)
}

func (c *HTTPClient) CancelDoctorAppointment(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, doctorPath(id, ""), nil, nil)
}

func doctorPath(id, suffix string) string {
	return joinPath("/api/v1/doctor/appointments", id, suffix)
}

// Laboratory

type reportBody struct {
	ReportResult   string   `json:"reportResult"`
	TestReportPDFs []string `json:"testReportPdfs"`
	Notes          string   `json:"notes,omitempty"`
}

func (c *HTTPClient) MarkSampleCollected(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, labPath(id, "sample-collected"), nil, nil)
}

func (c *HTTPClient) SaveReport(ctx context.Context, id string, draft entities.ReportDraft) error {
	body := reportBody{ReportResult: draft.ReportResult, TestReportPDFs: draft.PDFs, Notes: draft.Notes}
	if body.TestReportPDFs == nil {
		body.TestReportPDFs = []string{}
	}
	return c.doJSON(ctx, http.MethodPost, labPath(id, "report"), body, nil)
}

func (c *HTTPClient) DeleteReport(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, labPath(id, "report"), nil, nil)
}

func (c *HTTPClient) MarkReportRead(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, labPath(id, "mark-as-read"), nil, nil)
}

func (c *HTTPClient) CancelLabAppointment(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, labPath(id, ""), nil, nil)
}

func labPath(id, suffix string) string {
	return joinPath("/api/v1/laboratory/appointments", id, suffix)
}

// Orders

func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, id string, status entities.OrderStatus) error {
	body := map[string]string{"status": string(status)}
	return c.doJSON(ctx, http.MethodPatch, joinPath("/api/v1/orders", id, "status"), body, nil)
}

func (c *HTTPClient) CancelOrder(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, joinPath("/api/v1/orders", id, "cancel"), nil, nil)
}

// Feedback

var feedbackSegments = map[entities.Domain]string{
	entities.DomainDoctor:     "appointments",
	entities.DomainLaboratory: "lab-appointments",
	entities.DomainDelivery:   "orders",
}

func (c *HTTPClient) RequestFeedback(ctx context.Context, domain entities.Domain, id string) error {
	path, err := feedbackPath(domain, id, "request-feedback")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

func (c *HTTPClient) CancelFeedbackRequest(ctx context.Context, domain entities.Domain, id string) error {
	path, err := feedbackPath(domain, id, "cancel-feedback")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func feedbackPath(domain entities.Domain, id, suffix string) (string, error) {
	segment, ok := feedbackSegments[domain]
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("feedback is not supported for %s", domain))
	}
	return joinPath("/api/v1/ratings/"+segment, id, suffix), nil
}

// Account

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/user/account", nil, nil)
}

// Payments

type paymentRequest struct {
	Type        entities.PaymentKind `json:"type,omitempty"`
	ReferenceID string               `json:"referenceId,omitempty"`
	OrderID     string               `json:"orderId,omitempty"`
	*entities.PaymentProof
}

func paymentBody(kind entities.PaymentKind, ref string) paymentRequest {
	if kind == entities.PaymentKindProduct {
		return paymentRequest{OrderID: ref}
	}
	return paymentRequest{Type: kind, ReferenceID: ref}
}

func (c *HTTPClient) CreatePaymentOrder(ctx context.Context, kind entities.PaymentKind, ref string) (*entities.PaymentIntent, error) {
	path := "/api/v1/create-payment-order"
	if kind == entities.PaymentKindProduct {
		path = "/api/v1/create-product-payment-order"
	}
	out := &entities.PaymentIntent{}
	if err := c.doJSON(ctx, http.MethodPost, path, paymentBody(kind, ref), out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		return nil, apperrors.NewExternalError("", fmt.Errorf("payment order response has no id"))
	}
	return out, nil
}

func (c *HTTPClient) VerifyPayment(ctx context.Context, kind entities.PaymentKind, ref string, proof entities.PaymentProof) error {
	path := "/api/v1/verify-payment"
	if kind == entities.PaymentKindProduct {
		path = "/api/v1/verify-product-payment"
	}
	body := paymentBody(kind, ref)
	body.PaymentProof = &proof
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

func (c *HTTPClient) CreateCODOrder(ctx context.Context, kind entities.PaymentKind, ref string) error {
	body := paymentRequest{Type: kind, ReferenceID: ref}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/create-cod-order", body, nil)
}

// Uploads

func (c *HTTPClient) RequestUploadURL(ctx context.Context, fileName, contentType string) (*entities.UploadSlot, error) {
	body := map[string]string{"fileName": fileName, "contentType": contentType}
	out := &entities.UploadSlot{}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/upload-url", body, out); err != nil {
		return nil, err
	}
	if out.UploadURL == "" || out.PublicURL == "" {
		return nil, apperrors.NewExternalError("", fmt.Errorf("upload url response is incomplete"))
	}
	return out, nil
}

// PutObject writes the bytes to a presigned URL. The marketplace token is not sent.
func (c *HTTPClient) PutObject(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return apperrors.NewInternalError("invalid upload url", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewRemoteError(resp.StatusCode, "")
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := BearerFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewExternalError("", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewRemoteError(resp.StatusCode, strings.TrimSpace(env.Message))
	}
	if decodeErr != nil {
		return apperrors.NewExternalError("", fmt.Errorf("decode response: %w", decodeErr))
	}
	if env.Success != nil && !*env.Success {
		return apperrors.NewRemoteError(resp.StatusCode, strings.TrimSpace(env.Message))
	}
	if out == nil || isNull(env.Data) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.NewExternalError("", fmt.Errorf("decode response data: %w", err))
	}
	return nil
}

func joinPath(base, id, suffix string) string {
	p := base + "/" + url.PathEscape(id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
