package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ActionAPI is the part of the marketplace API that dashboard actions mutate
type ActionAPI interface {
	providers.DoctorAPI
	providers.LaboratoryAPI
	providers.OrderAPI
	providers.FeedbackAPI
	providers.AccountAPI
}

// ActionRequest is one user-initiated action
type ActionRequest struct {
	RecordID string
	Action   entities.Action
	// Prescription replaces the open prescription draft when set
	Prescription *entities.PrescriptionDraft
	// Report replaces the open report draft when set
	Report *entities.ReportDraft
	// PDFURL selects the document for ActionRemovePDF
	PDFURL string
}

// ActionOutcome describes what a dispatched action did
type ActionOutcome string

const (
	OutcomeModalOpened ActionOutcome = "modal_opened"
	OutcomeMeetingLink ActionOutcome = "meeting_link"
	OutcomeDraftEdited ActionOutcome = "draft_edited"
	OutcomeDeclined    ActionOutcome = "declined"
	OutcomeCompleted   ActionOutcome = "completed"
)

// ActionResult is returned by Dispatch
type ActionResult struct {
	Action      entities.Action         `json:"action"`
	Outcome     ActionOutcome           `json:"outcome"`
	Modal       entities.ModalState     `json:"-"`
	MeetingLink string                  `json:"meeting_link,omitempty"`
	Message     string                  `json:"message,omitempty"`
	View        *entities.DashboardView `json:"view,omitempty"`
}

var confirmationPrompts = map[entities.Action]string{
	entities.ActionCancel:             "Are you sure you want to cancel this appointment?",
	entities.ActionCancelOrder:        "Are you sure you want to cancel this order?",
	entities.ActionDeletePrescription: "Delete this prescription? The patient will no longer see it.",
	entities.ActionDeleteReport:       "Delete this report? The appointment will go back to processing.",
	entities.ActionRemovePDF:          "Remove this PDF from the report?",
	entities.ActionDeleteAccount:      "Delete your account? This cannot be undone.",
}

// ConfirmationPrompt is the question shown before a destructive action
func ConfirmationPrompt(action entities.Action) string {
	if p, ok := confirmationPrompts[action]; ok {
		return p
	}
	return fmt.Sprintf("Are you sure you want to %s?", strings.ToLower(action.Label()))
}

var successMessages = map[entities.Action]string{
	entities.ActionCancel:                "Appointment cancelled",
	entities.ActionMarkAsRead:            "Marked as read",
	entities.ActionSavePrescription:      "Prescription saved",
	entities.ActionDeletePrescription:    "Prescription deleted",
	entities.ActionRequestFeedback:       "Feedback requested",
	entities.ActionCancelFeedbackRequest: "Feedback request cancelled",
	entities.ActionSampleCollected:       "Sample marked as collected",
	entities.ActionSaveReport:            "Report saved",
	entities.ActionDeleteReport:          "Report deleted",
	entities.ActionConfirmOrder:          "Order confirmed",
	entities.ActionAssignDelivery:        "Order assigned for delivery",
	entities.ActionAcceptDelivery:        "Delivery accepted",
	entities.ActionRejectDelivery:        "Delivery rejected",
	entities.ActionStartDelivery:         "Out for delivery",
	entities.ActionCompleteDelivery:      "Order delivered",
	entities.ActionCancelOrder:           "Order cancelled",
}

var reportEditorActions = []entities.Action{
	entities.ActionUploadReports, entities.ActionAddDetails, entities.ActionAddPDFs, entities.ActionEditReport,
}

// ActionDispatcher turns user actions into exactly one backend call followed
// by a full dashboard refetch
type ActionDispatcher struct {
	api        ActionAPI
	dashboards *DashboardService
	guard      InFlightGuard
	notifier   providers.Notifier
	metrics    *observability.Metrics
	workflow   DeliveryWorkflow
}

// NewActionDispatcher creates a new action dispatcher
func NewActionDispatcher(
	api ActionAPI,
	dashboards *DashboardService,
	guard InFlightGuard,
	notifier providers.Notifier,
	metrics *observability.Metrics,
) *ActionDispatcher {
	if guard == nil {
		guard = NewMemoryInFlightGuard()
	}
	return &ActionDispatcher{
		api:        api,
		dashboards: dashboards,
		guard:      guard,
		notifier:   notifier,
		metrics:    metrics,
	}
}

// Dispatch runs one action against a record on the screen
func (d *ActionDispatcher) Dispatch(ctx context.Context, screen *Screen, req ActionRequest, confirmer providers.Confirmer) (*ActionResult, error) {
	ctx, span := observability.StartSpan(ctx, "ActionDispatcher.Dispatch")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("dashboard.role", string(screen.Role)),
		attribute.String("dashboard.action", string(req.Action)),
		attribute.String("record.id", req.RecordID),
	)

	result, err := d.dispatch(ctx, screen, req, confirmer)
	outcome := "error"
	if err == nil {
		outcome = string(result.Outcome)
	}
	observability.RecordError(span, err)
	observability.RecordActionMetric(ctx, d.metrics, string(screen.Role), string(req.Action), outcome)
	return result, err
}

func (d *ActionDispatcher) dispatch(ctx context.Context, screen *Screen, req ActionRequest, confirmer providers.Confirmer) (*ActionResult, error) {
	if !req.Action.Known() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown action %q", req.Action))
	}
	if req.Action == entities.ActionDeleteAccount {
		return nil, apperrors.NewValidationError("account deletion is not a record action")
	}

	rv, err := d.locate(ctx, screen, req.RecordID)
	if err != nil {
		return nil, err
	}
	if !enabled(rv, screen, req.Action) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is not available for this record", req.Action.Label()))
	}

	if res, handled, err := d.openModal(screen, rv, req.Action); handled {
		return res, err
	}

	if req.Action == entities.ActionRemovePDF {
		return d.removePDF(ctx, screen, rv, req, confirmer)
	}

	if err := d.validate(screen, rv, &req); err != nil {
		notifyToast(ctx, d.notifier, screen.SessionID, entities.SeverityError, err.Message)
		return nil, err
	}

	if req.Action.Destructive() {
		accepted, err := confirm(ctx, confirmer, req.Action)
		if err != nil {
			return nil, err
		}
		if !accepted {
			return &ActionResult{Action: req.Action, Outcome: OutcomeDeclined}, nil
		}
	}

	release, ok, err := d.guard.Acquire(ctx, InFlightKey(screen, req.Action))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check pending actions", err)
	}
	if !ok {
		return nil, apperrors.NewConflictError(fmt.Sprintf("%s is already in progress", req.Action.Label()))
	}
	defer release()

	logger := observability.LoggerFromContext(ctx)
	if err := d.call(ctx, rv, req); err != nil {
		logger.Error().Err(err).Str("action", string(req.Action)).Str("record_id", req.RecordID).Msg("dashboard action failed")
		notifyToast(ctx, d.notifier, screen.SessionID, entities.SeverityError,
			apperrors.UserMessage(err, apperrors.GenericUserMessage))
		return nil, err
	}

	message := successMessages[req.Action]
	notifyToast(ctx, d.notifier, screen.SessionID, entities.SeveritySuccess, message)
	screen.CloseModal()

	result := &ActionResult{Action: req.Action, Outcome: OutcomeCompleted, Message: message, Modal: entities.NoModal{}}
	view, err := d.dashboards.Refresh(ctx, screen)
	if err != nil {
		logger.Warn().Err(err).Str("action", string(req.Action)).Msg("refetch after action failed")
		notifyToast(ctx, d.notifier, screen.SessionID, entities.SeverityError,
			apperrors.UserMessage(err, "Saved, but the dashboard could not be refreshed."))
		result.View = screen.View()
		return result, nil
	}
	result.View = view
	return result, nil
}

// DeleteAccount removes the signed-in account after confirmation
func (d *ActionDispatcher) DeleteAccount(ctx context.Context, sessionID string, confirmer providers.Confirmer) (*ActionResult, error) {
	ctx, span := observability.StartSpan(ctx, "ActionDispatcher.DeleteAccount")
	defer span.End()

	accepted, err := confirm(ctx, confirmer, entities.ActionDeleteAccount)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return &ActionResult{Action: entities.ActionDeleteAccount, Outcome: OutcomeDeclined}, nil
	}

	release, ok, err := d.guard.Acquire(ctx, fmt.Sprintf("inflight:%s:account:%s", sessionID, entities.ActionDeleteAccount))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check pending actions", err)
	}
	if !ok {
		return nil, apperrors.NewConflictError("account deletion is already in progress")
	}
	defer release()

	if err := d.api.DeleteAccount(ctx); err != nil {
		observability.RecordError(span, err)
		notifyToast(ctx, d.notifier, sessionID, entities.SeverityError,
			apperrors.UserMessage(err, apperrors.GenericUserMessage))
		return nil, err
	}
	notifyToast(ctx, d.notifier, sessionID, entities.SeveritySuccess, "Account deleted")
	return &ActionResult{Action: entities.ActionDeleteAccount, Outcome: OutcomeCompleted, Message: "Account deleted"}, nil
}

// locate finds the record on the screen's current view, loading it first if needed
func (d *ActionDispatcher) locate(ctx context.Context, screen *Screen, id string) (entities.RecordView, error) {
	if id == "" {
		return entities.RecordView{}, apperrors.NewValidationError("record id is required")
	}
	view := screen.View()
	if view == nil {
		var err error
		if view, err = d.dashboards.Refresh(ctx, screen); err != nil {
			return entities.RecordView{}, err
		}
	}
	rv, ok := view.Find(id)
	if !ok {
		return entities.RecordView{}, apperrors.NewNotFoundError("record is not on this dashboard")
	}
	return rv, nil
}

// enabled applies the classifier gate. Save and remove actions are reachable
// only from the editor modal the classifier opened for the same record.
func enabled(rv entities.RecordView, screen *Screen, action entities.Action) bool {
	id := rv.Record.RecordID()
	switch action {
	case entities.ActionSavePrescription:
		m, open := screen.Modal().(entities.PrescriptionModal)
		return rv.Allows(entities.ActionEditPrescription) && (!open || m.RecordID == id)
	case entities.ActionSaveReport, entities.ActionRemovePDF:
		if m, open := screen.Modal().(entities.ReportModal); open && m.RecordID != id {
			return false
		}
		return slices.ContainsFunc(reportEditorActions, rv.Allows)
	}
	return rv.Allows(action)
}

func (d *ActionDispatcher) openModal(screen *Screen, rv entities.RecordView, action entities.Action) (*ActionResult, bool, error) {
	id := rv.Record.RecordID()
	var modal entities.ModalState
	switch action {
	case entities.ActionViewPatient:
		modal = entities.PatientDetailModal{RecordID: id}
	case entities.ActionViewOrder:
		modal = entities.OrderDetailModal{RecordID: id}
	case entities.ActionEditPrescription:
		draft := entities.PrescriptionDraft{}
		if a, ok := rv.Record.(*entities.DoctorAppointment); ok {
			draft = entities.PrescriptionDraft{Prescription: a.Prescription, Notes: a.Notes}
		}
		modal = entities.PrescriptionModal{RecordID: id, Draft: draft}
	case entities.ActionUploadReports, entities.ActionAddDetails, entities.ActionAddPDFs, entities.ActionEditReport:
		draft := entities.ReportDraft{}
		if a, ok := rv.Record.(*entities.LabAppointment); ok {
			draft = entities.ReportDraft{
				ReportResult: a.ReportResult,
				PDFs:         slices.Clone(a.TestReportPDFs),
				Notes:        a.Notes,
			}
		}
		modal = entities.ReportModal{RecordID: id, Draft: draft}
	case entities.ActionJoinNow:
		a, ok := rv.Record.(*entities.DoctorAppointment)
		if !ok || a.MeetingLink == "" {
			return nil, true, apperrors.NewValidationError("The meeting link is not available yet")
		}
		return &ActionResult{Action: action, Outcome: OutcomeMeetingLink, MeetingLink: a.MeetingLink, Modal: screen.Modal()}, true, nil
	default:
		return nil, false, nil
	}
	screen.OpenModal(modal)
	return &ActionResult{Action: action, Outcome: OutcomeModalOpened, Modal: modal}, true, nil
}

// removePDF edits the open report draft; the change is saved with the report
func (d *ActionDispatcher) removePDF(ctx context.Context, screen *Screen, rv entities.RecordView, req ActionRequest, confirmer providers.Confirmer) (*ActionResult, error) {
	m, open := screen.Modal().(entities.ReportModal)
	if !open || m.RecordID != rv.Record.RecordID() {
		return nil, apperrors.NewValidationError("Open the report editor before removing a PDF")
	}
	if !slices.Contains(m.Draft.PDFs, req.PDFURL) {
		return nil, apperrors.NewNotFoundError("PDF is not attached to this report")
	}
	accepted, err := confirm(ctx, confirmer, entities.ActionRemovePDF)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return &ActionResult{Action: req.Action, Outcome: OutcomeDeclined, Modal: m}, nil
	}
	next := screen.UpdateModal(func(cur entities.ModalState) entities.ModalState {
		rm, ok := cur.(entities.ReportModal)
		if !ok || rm.RecordID != m.RecordID {
			return cur
		}
		rm.Draft.PDFs = slices.DeleteFunc(slices.Clone(rm.Draft.PDFs), func(u string) bool { return u == req.PDFURL })
		return rm
	})
	return &ActionResult{Action: req.Action, Outcome: OutcomeDraftEdited, Modal: next}, nil
}

// validate checks local preconditions and folds request drafts into the open modal
func (d *ActionDispatcher) validate(screen *Screen, rv entities.RecordView, req *ActionRequest) *apperrors.AppError {
	id := rv.Record.RecordID()
	switch req.Action {
	case entities.ActionSavePrescription:
		if req.Prescription == nil {
			m, ok := screen.Modal().(entities.PrescriptionModal)
			if !ok || m.RecordID != id {
				return apperrors.NewValidationError("Open the prescription editor first")
			}
			draft := m.Draft
			req.Prescription = &draft
		} else {
			screen.OpenModal(entities.PrescriptionModal{RecordID: id, Draft: *req.Prescription})
		}
		if strings.TrimSpace(req.Prescription.Prescription) == "" {
			return apperrors.NewValidationError("Please enter a prescription")
		}

	case entities.ActionSaveReport:
		if req.Report == nil {
			m, ok := screen.Modal().(entities.ReportModal)
			if !ok || m.RecordID != id {
				return apperrors.NewValidationError("Open the report editor first")
			}
			draft := m.Draft
			req.Report = &draft
		} else {
			screen.OpenModal(entities.ReportModal{RecordID: id, Draft: *req.Report})
		}
		if strings.TrimSpace(req.Report.ReportResult) == "" && len(req.Report.PDFs) == 0 {
			return apperrors.NewValidationError("Please add report details or at least one PDF")
		}

	case entities.ActionMarkAsRead:
		switch r := rv.Record.(type) {
		case *entities.DoctorAppointment:
			if !r.PrescriptionSent || !r.HasPrescription() {
				return apperrors.NewValidationError("Send a prescription before marking as read")
			}
		case *entities.LabAppointment:
			if !r.ReportComplete() {
				return apperrors.NewValidationError("Add report details and at least one PDF before marking as read")
			}
		}
	}
	return nil
}

func confirm(ctx context.Context, confirmer providers.Confirmer, action entities.Action) (bool, error) {
	prompt := ConfirmationPrompt(action)
	if confirmer == nil {
		return false, apperrors.NewConfirmationRequiredError(prompt)
	}
	ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// call issues the single backend mutation for the action
func (d *ActionDispatcher) call(ctx context.Context, rv entities.RecordView, req ActionRequest) error {
	id := rv.Record.RecordID()
	switch r := rv.Record.(type) {
	case *entities.DoctorAppointment:
		switch req.Action {
		case entities.ActionSavePrescription:
			return d.api.SavePrescription(ctx, id, *req.Prescription)
		case entities.ActionDeletePrescription:
			return d.api.DeletePrescription(ctx, id)
		case entities.ActionMarkAsRead:
			return d.api.MarkConsultationCompleted(ctx, id)
		case entities.ActionCancel:
			return d.api.CancelDoctorAppointment(ctx, id)
		}

	case *entities.LabAppointment:
		switch req.Action {
		case entities.ActionSampleCollected:
			return d.api.MarkSampleCollected(ctx, id)
		case entities.ActionSaveReport:
			return d.api.SaveReport(ctx, id, *req.Report)
		case entities.ActionDeleteReport:
			return d.api.DeleteReport(ctx, id)
		case entities.ActionMarkAsRead:
			return d.api.MarkReportRead(ctx, id)
		case entities.ActionCancel:
			return d.api.CancelLabAppointment(ctx, id)
		}

	case *entities.DeliveryOrder:
		switch req.Action {
		case entities.ActionCancelOrder:
			if _, err := d.workflow.Next(r.Status, req.Action); err != nil {
				return err
			}
			return d.api.CancelOrder(ctx, id)
		case entities.ActionConfirmOrder, entities.ActionAssignDelivery, entities.ActionAcceptDelivery,
			entities.ActionRejectDelivery, entities.ActionStartDelivery, entities.ActionCompleteDelivery:
			next, err := d.workflow.Next(r.Status, req.Action)
			if err != nil {
				return err
			}
			return d.api.UpdateOrderStatus(ctx, id, next)
		}
	}

	switch req.Action {
	case entities.ActionRequestFeedback:
		return d.api.RequestFeedback(ctx, rv.Domain, id)
	case entities.ActionCancelFeedbackRequest:
		return d.api.CancelFeedbackRequest(ctx, rv.Domain, id)
	}
	return apperrors.NewValidationError(fmt.Sprintf("%s is not supported for %s records", req.Action.Label(), rv.Domain))
}
