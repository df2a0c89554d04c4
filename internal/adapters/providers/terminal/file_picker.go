package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// FilePicker asks for a path on the local filesystem
type FilePicker struct {
	prompter *Prompter
}

var _ providers.FilePicker = (*FilePicker)(nil)

// NewFilePicker creates a terminal file picker
func NewFilePicker(prompter *Prompter) *FilePicker {
	return &FilePicker{prompter: prompter}
}

// Pick implements providers.FilePicker. An empty answer picks nothing. The
// returned body is an open *os.File that the uploader reads and closes.
func (p *FilePicker) Pick(ctx context.Context, accept entities.MimeFilter) (*entities.PickedFile, error) {
	path, err := p.prompter.Ask(ctx, fmt.Sprintf("File to upload %v (empty to skip): ", []string(accept)))
	if err == io.EOF || (err == nil && path == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return OpenFile(path, accept)
}

// OpenFile opens a local file after checking its sniffed type against accept
func OpenFile(path string, accept entities.MimeFilter) (*entities.PickedFile, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot read %s", path))
	}
	if !accept.AllowsDetected(mtype) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is %s, expected %v", filepath.Base(path), mtype.String(), []string(accept)))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot open %s", path))
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.NewInternalError("failed to stat file", err)
	}
	return &entities.PickedFile{Name: filepath.Base(path), Size: info.Size(), Body: f}, nil
}
