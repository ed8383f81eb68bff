package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// MaxFileSize is the upload ceiling in bytes.
const MaxFileSize = 10 << 20 // 10 MiB

// allowedExtensions is the upload allow-list, lowercase with leading dot.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".doc":  true,
	".docx": true,
}

// Document is an uploaded supporting file awaiting verification.
//
// Invariants:
//   - VerifiedAt and VerifiedBy are set iff Verified is true; verification is
//     terminal and stamped once.
//   - Rejection deletes the record outright; there is no rejected state.
type Document struct {
	ID        domain.DocumentID
	StudentID domain.UserID
	Kind      domain.DocumentKind
	Filename  string
	Size      int64

	// BlobHandle is the opaque reference into the blob store.
	BlobHandle string

	Verified   bool
	VerifiedBy *domain.UserID
	VerifiedAt *time.Time

	UploadedAt time.Time
}

// UploadInput carries a student upload.
type UploadInput struct {
	Kind     domain.DocumentKind
	Filename string
	Data     []byte
}

// Validate enforces the kind, extension allow-list and size ceiling.
func (in UploadInput) Validate() error {
	if !in.Kind.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid document kind")
	}
	if in.Filename == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "filename is required")
	}
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !allowedExtensions[ext] {
		return dErrors.Newf(dErrors.CodeInvalidInput, "file type %q is not allowed", ext)
	}
	if len(in.Data) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "file is empty")
	}
	if len(in.Data) > MaxFileSize {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("file exceeds the %d MiB limit", MaxFileSize>>20))
	}
	return nil
}
