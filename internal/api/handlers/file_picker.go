package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// maxMultipartMemory is held in memory before spilling to temp files
const maxMultipartMemory = 4 << 20

// multipartPicker hands over the file the browser attached to the request
type multipartPicker struct {
	r     *http.Request
	field string
}

var _ providers.FilePicker = (*multipartPicker)(nil)

// Pick implements providers.FilePicker. A request without the field picks nothing.
func (p *multipartPicker) Pick(_ context.Context, _ entities.MimeFilter) (*entities.PickedFile, error) {
	file, header, err := p.r.FormFile(p.field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewValidationError("invalid upload")
	}
	return &entities.PickedFile{Name: header.Filename, Size: header.Size, Body: file}, nil
}
