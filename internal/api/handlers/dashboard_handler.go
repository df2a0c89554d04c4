package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// DashboardRefresher reloads a screen's dashboard
type DashboardRefresher interface {
	Refresh(ctx context.Context, screen *services.Screen) (*entities.DashboardView, error)
}

// ActionRunner dispatches dashboard actions
type ActionRunner interface {
	Dispatch(ctx context.Context, screen *services.Screen, req services.ActionRequest, confirmer providers.Confirmer) (*services.ActionResult, error)
	DeleteAccount(ctx context.Context, sessionID string, confirmer providers.Confirmer) (*services.ActionResult, error)
}

// ReportUploader attaches uploaded PDFs to the open report draft
type ReportUploader interface {
	AttachReportPDF(ctx context.Context, screen *services.Screen, recordID string, picker providers.FilePicker) (entities.ModalState, error)
}

// DashboardHandler serves the role dashboards and their actions
type DashboardHandler struct {
	screens    *services.ScreenRegistry
	dashboards DashboardRefresher
	actions    ActionRunner
	uploads    ReportUploader
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(screens *services.ScreenRegistry, dashboards DashboardRefresher, actions ActionRunner, uploads ReportUploader) *DashboardHandler {
	return &DashboardHandler{
		screens:    screens,
		dashboards: dashboards,
		actions:    actions,
		uploads:    uploads,
	}
}

type dashboardResponse struct {
	View  *entities.DashboardView `json:"view"`
	Modal json.RawMessage         `json:"modal"`
}

type actionBody struct {
	Confirmed    *bool                       `json:"confirmed"`
	Prescription *entities.PrescriptionDraft `json:"prescription,omitempty"`
	Report       *entities.ReportDraft       `json:"report,omitempty"`
	PDFURL       string                      `json:"pdf_url,omitempty"`
}

type actionResponse struct {
	*services.ActionResult
	Modal json.RawMessage `json:"modal"`
}

func (h *DashboardHandler) screen(w http.ResponseWriter, r *http.Request) (*services.Screen, bool) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return nil, false
	}
	role, ok := roleFrom(w, r)
	if !ok {
		return nil, false
	}
	screen := h.screens.Get(sid, role)
	screen.Touch()
	return screen, true
}

// GetDashboard handles GET /api/dashboards/{role}. Every load is a full refetch.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	view, err := h.dashboards.Refresh(r.Context(), screen)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboardResponse{View: view, Modal: modalJSON(screen.Modal())})
}

// RefreshDashboard handles POST /api/dashboards/{role}/refresh
func (h *DashboardHandler) RefreshDashboard(w http.ResponseWriter, r *http.Request) {
	h.GetDashboard(w, r)
}

// DispatchAction handles POST /api/dashboards/{role}/records/{id}/actions/{action}
func (h *DashboardHandler) DispatchAction(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}

	var body actionBody
	if err := decodeOptionalJSON(r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	req := services.ActionRequest{
		RecordID:     r.PathValue("id"),
		Action:       entities.Action(r.PathValue("action")),
		Prescription: body.Prescription,
		Report:       body.Report,
		PDFURL:       body.PDFURL,
	}
	h.dispatch(w, r, screen, req, body.Confirmed)
}

func (h *DashboardHandler) dispatch(w http.ResponseWriter, r *http.Request, screen *services.Screen, req services.ActionRequest, confirmed *bool) {
	result, err := h.actions.Dispatch(r.Context(), screen, req, confirmerFor(confirmed))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, actionResponse{ActionResult: result, Modal: modalJSON(screen.Modal())})
}

// CloseModal handles POST /api/dashboards/{role}/modal/close. Any draft is discarded.
func (h *DashboardHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	screen.CloseModal()
	respondWithJSON(w, http.StatusOK, map[string]json.RawMessage{"modal": modalJSON(screen.Modal())})
}

// UploadReportPDF handles POST /api/dashboards/{role}/uploads as multipart
// form data with record_id and file fields
func (h *DashboardHandler) UploadReportPDF(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondWithError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	recordID := strings.TrimSpace(r.FormValue("record_id"))
	if recordID == "" {
		respondWithError(w, http.StatusBadRequest, "record_id is required")
		return
	}

	modal, err := h.uploads.AttachReportPDF(r.Context(), screen, recordID, &multipartPicker{r: r, field: "file"})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]json.RawMessage{"modal": modalJSON(modal)})
}

// RemoveReportPDF handles DELETE /api/dashboards/{role}/uploads
func (h *DashboardHandler) RemoveReportPDF(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	var body struct {
		RecordID  string `json:"record_id"`
		PDFURL    string `json:"pdf_url"`
		Confirmed *bool  `json:"confirmed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	req := services.ActionRequest{RecordID: body.RecordID, Action: entities.ActionRemovePDF, PDFURL: body.PDFURL}
	h.dispatch(w, r, screen, req, body.Confirmed)
}

// DeleteAccount handles DELETE /api/account
func (h *DashboardHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		Confirmed *bool `json:"confirmed"`
	}
	if err := decodeOptionalJSON(r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	result, err := h.actions.DeleteAccount(r.Context(), sid, confirmerFor(body.Confirmed))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// decodeOptionalJSON decodes the body into v, accepting an empty body
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return apperrors.NewValidationError("invalid request payload")
	}
	return nil
}
