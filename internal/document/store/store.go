package store

import (
	"context"
	"time"

	"campusbourses/internal/document"
	"campusbourses/pkg/domain"
)

// Store is the document persistence contract. MarkVerified is a conditional
// update evaluated at the storage layer so verified_at is stamped exactly once
// under concurrent verifiers.
type Store interface {
	Create(ctx context.Context, doc *document.Document) error
	FindByID(ctx context.Context, id domain.DocumentID) (*document.Document, error)
	ListByStudent(ctx context.Context, studentID domain.UserID) ([]*document.Document, error)
	ListAll(ctx context.Context, unverifiedOnly bool) ([]*document.Document, error)

	// MarkVerified stamps the verifier and timestamp iff the document is still
	// unverified. Returns sentinel.ErrInvalidState when it already is.
	MarkVerified(ctx context.Context, id domain.DocumentID, verifier domain.UserID, at time.Time) (*document.Document, error)

	// Delete removes the row. The caller owns blob cleanup.
	Delete(ctx context.Context, id domain.DocumentID) error

	// DeleteByStudent removes every document owned by the student and returns
	// the orphaned blob handles for cleanup. Account cascade only.
	DeleteByStudent(ctx context.Context, studentID domain.UserID) ([]string, error)
}
