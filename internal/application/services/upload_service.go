package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// DefaultMaxUploadBytes caps a single uploaded document
const DefaultMaxUploadBytes int64 = 10 << 20

// UploadService stores user files through presigned upload URLs
type UploadService struct {
	api      providers.UploadAPI
	notifier providers.Notifier
	maxBytes int64
}

// NewUploadService creates a new upload service
func NewUploadService(api providers.UploadAPI, notifier providers.Notifier, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{api: api, notifier: notifier, maxBytes: maxBytes}
}

// Upload checks the file's content type and uploads it, returning the slot it was stored in
func (s *UploadService) Upload(ctx context.Context, file *entities.PickedFile, accept entities.MimeFilter) (*entities.UploadSlot, error) {
	ctx, span := observability.StartSpan(ctx, "UploadService.Upload")
	defer span.End()

	if file == nil || file.Body == nil {
		return nil, apperrors.NewValidationError("no file selected")
	}
	if file.Size > s.maxBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is larger than %d MB", file.Name, s.maxBytes>>20))
	}

	mtype, err := mimetype.DetectReader(file.Body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read file", err)
	}
	if !accept.AllowsDetected(mtype) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is not an accepted file type (%s)", file.Name, mtype.String()))
	}
	if _, err := file.Body.Seek(0, io.SeekStart); err != nil {
		return nil, apperrors.NewInternalError("failed to rewind file", err)
	}
	contentType := mtype.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	slot, err := s.api.RequestUploadURL(ctx, file.Name, contentType)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if err := s.api.PutObject(ctx, slot.UploadURL, contentType, file.Body, file.Size); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("file", file.Name).
		Str("content_type", contentType).
		Int64("size", file.Size).
		Msg("file uploaded")
	return slot, nil
}

// AttachReportPDF asks picker for a PDF, uploads it and appends it to the open
// report draft for recordID. Picking nothing leaves the draft unchanged.
func (s *UploadService) AttachReportPDF(ctx context.Context, screen *Screen, recordID string, picker providers.FilePicker) (entities.ModalState, error) {
	m, ok := screen.Modal().(entities.ReportModal)
	if !ok || m.RecordID != recordID {
		return nil, apperrors.NewValidationError("Open the report editor before adding PDFs")
	}

	file, err := picker.Pick(ctx, entities.AcceptPDF)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return m, nil
	}
	defer file.Body.Close()

	slot, err := s.Upload(ctx, file, entities.AcceptPDF)
	if err != nil {
		notifyToast(ctx, s.notifier, screen.SessionID, entities.SeverityError,
			apperrors.UserMessage(err, "Upload failed. Please try again."))
		return nil, err
	}

	next := screen.UpdateModal(func(cur entities.ModalState) entities.ModalState {
		rm, ok := cur.(entities.ReportModal)
		if !ok || rm.RecordID != recordID {
			return cur
		}
		rm.Draft.PDFs = append(append([]string(nil), rm.Draft.PDFs...), slot.PublicURL)
		return rm
	})
	notifyToast(ctx, s.notifier, screen.SessionID, entities.SeveritySuccess, "PDF uploaded")
	return next, nil
}
