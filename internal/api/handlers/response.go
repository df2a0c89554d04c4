package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/api/middleware"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

var errorCodes = map[apperrors.ErrorType]string{
	apperrors.ErrorTypeNotFound:             "not_found",
	apperrors.ErrorTypeValidation:           "validation",
	apperrors.ErrorTypeConflict:             "conflict",
	apperrors.ErrorTypeUnauthorized:         "unauthorized",
	apperrors.ErrorTypeInternal:             "internal",
	apperrors.ErrorTypeExternal:             "upstream",
	apperrors.ErrorTypeConfirmationRequired: "confirmation_required",
	apperrors.ErrorTypePaymentAmbiguous:     "payment_ambiguous",
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// statusFor maps an application error to the HTTP status returned to the browser
func statusFor(appErr *apperrors.AppError) int {
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict, apperrors.ErrorTypeConfirmationRequired:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeExternal:
		switch appErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			return appErr.StatusCode
		}
		if appErr.StatusCode >= 400 && appErr.StatusCode < 500 {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case apperrors.ErrorTypePaymentAmbiguous:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondWithAppError writes err using the message a user should see
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("unexpected error", err)
	}
	status := statusFor(appErr)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	body := errorResponse{
		Error: apperrors.UserMessage(err, apperrors.GenericUserMessage),
		Code:  errorCodes[appErr.Type],
	}
	if appErr.Type == apperrors.ErrorTypeConfirmationRequired {
		body.Prompt = appErr.Message
	}
	respondWithJSON(w, status, body)
}

// sessionFrom returns the caller's session id, writing a 401 when there is none
func sessionFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "sign in to continue")
		return "", false
	}
	return sid, true
}

// roleFrom parses the {role} path value, writing a 404 for unknown roles
func roleFrom(w http.ResponseWriter, r *http.Request) (entities.Role, bool) {
	role, ok := entities.ParseRole(r.PathValue("role"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "unknown dashboard")
		return "", false
	}
	return role, true
}

// modalJSON renders a modal with its discriminator
func modalJSON(m entities.ModalState) json.RawMessage {
	raw, err := entities.MarshalModal(m)
	if err != nil {
		return json.RawMessage(`{"kind":"none"}`)
	}
	return raw
}
