package entities

import (
	"bytes"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MimeFilter restricts which files a picker or uploader accepts, e.g. "application/pdf" or "image/*"
type MimeFilter []string

var (
	AcceptPDF    = MimeFilter{"application/pdf"}
	AcceptImages = MimeFilter{"image/*"}
)

// PickedFile is a file chosen by the user. Whoever receives it from a picker
// closes Body.
type PickedFile struct {
	Name string
	Size int64
	Body io.ReadSeekCloser
}

// NewPickedFileFromBytes wraps an in-memory document
func NewPickedFileFromBytes(name string, data []byte) *PickedFile {
	return &PickedFile{Name: name, Size: int64(len(data)), Body: nopSeekCloser{bytes.NewReader(data)}}
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }

// UploadSlot is a presigned upload target
type UploadSlot struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
}

// Allows reports whether contentType matches the filter. Entries ending in
// "/*" accept a whole family; an empty filter accepts everything.
func (f MimeFilter) Allows(contentType string) bool {
	if len(f) == 0 {
		return true
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, want := range f {
		if family, ok := strings.CutSuffix(want, "/*"); ok {
			if strings.HasPrefix(contentType, family+"/") {
				return true
			}
			continue
		}
		if contentType == want {
			return true
		}
	}
	return false
}

// AllowsDetected reports whether a sniffed MIME type, or one of its parents,
// passes the filter
func (f MimeFilter) AllowsDetected(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if f.Allows(m.String()) {
			return true
		}
	}
	return false
}
