package store

import (
	"context"
	"time"

	"campusbourses/internal/application"
	"campusbourses/pkg/domain"
)

// Store is the application persistence contract. The transition methods
// (MarkSubmitted, ApplyDecision) are conditional updates evaluated at the
// storage layer, not read-then-write in application code, so once-only
// timestamp invariants hold under concurrent callers.
type Store interface {
	Create(ctx context.Context, app *application.Application) error
	FindByID(ctx context.Context, id domain.ApplicationID) (*application.Application, error)
	ListByStudent(ctx context.Context, studentID domain.UserID) ([]*application.Application, error)
	ListAll(ctx context.Context) ([]*application.Application, error)

	// Update persists student edits. The store re-checks that the record is
	// still in an edit-permitted state.
	Update(ctx context.Context, id domain.ApplicationID, in application.UpdateInput, at time.Time) (*application.Application, error)

	// MarkSubmitted transitions to submitted iff the current state allows it,
	// stamping submitted_at only when still unset. Returns
	// sentinel.ErrInvalidState when the guard fails.
	MarkSubmitted(ctx context.Context, id domain.ApplicationID, studentID domain.UserID, at time.Time) (*application.Application, error)

	// ApplyDecision moves to the decision status iff the transition is legal
	// from the stored state, stamping reviewed_at/decided_at only when unset.
	// Returns sentinel.ErrInvalidState when the guard fails.
	ApplyDecision(ctx context.Context, id domain.ApplicationID, reviewer domain.UserID, d application.Decision, at time.Time) (*application.Application, error)

	// DeleteDraft removes the record iff it is still in draft. Returns
	// sentinel.ErrInvalidState otherwise.
	DeleteDraft(ctx context.Context, id domain.ApplicationID) error

	// DeleteByStudent removes every application owned by the student,
	// regardless of state. Used only by account cascade deletion.
	DeleteByStudent(ctx context.Context, studentID domain.UserID) (int, error)
}
