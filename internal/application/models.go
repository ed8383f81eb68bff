package application

import (
	"time"

	"github.com/shopspring/decimal"

	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// MaxRequestedAmount is the ceiling for a scholarship request, in currency
// units.
var MaxRequestedAmount = decimal.NewFromInt(100_000)

// Application is a student's request for a scholarship award, tracked through
// the review workflow.
//
// Invariants:
//   - SubmittedAt is set exactly once, the first time status becomes
//     submitted; DecidedAt exactly once, on the first approved/rejected.
//     Neither is ever cleared or overwritten.
//   - ReviewedBy is a non-owning reference; StudentID owns the record.
type Application struct {
	ID          domain.ApplicationID
	StudentID   domain.UserID
	Category    domain.ScholarshipCategory
	Title       string
	Description string

	AmountRequested decimal.Decimal
	Status          domain.ApplicationStatus

	DecisionNotes string
	FinalAmount   *decimal.Decimal
	ReviewedBy    *domain.UserID

	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	DecidedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanBeEdited reports whether a student may still change this application.
func (a *Application) CanBeEdited() bool { return a.Status.CanBeEdited() }

// CanBeSubmitted reports whether submit is currently a legal move.
func (a *Application) CanBeSubmitted() bool { return a.Status.CanBeSubmitted() }

// CreateInput carries the student-provided fields for a new application.
type CreateInput struct {
	Category    domain.ScholarshipCategory
	Title       string
	Description string
	Amount      decimal.Decimal
}

// Validate enforces input shape and the amount ceiling.
func (in CreateInput) Validate() error {
	if !in.Category.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid scholarship category")
	}
	if in.Title == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if len(in.Title) > 200 {
		return dErrors.New(dErrors.CodeInvalidInput, "title must be at most 200 characters")
	}
	return validateAmount(in.Amount)
}

// UpdateInput carries the fields a student may change while the application is
// in an edit-permitted state.
type UpdateInput struct {
	Category    domain.ScholarshipCategory
	Title       string
	Description string
	Amount      decimal.Decimal
}

func (in UpdateInput) Validate() error {
	return CreateInput(in).Validate()
}

// Decision carries an admin review outcome.
type Decision struct {
	NewStatus   domain.ApplicationStatus
	Notes       string
	FinalAmount *decimal.Decimal
}

// reviewStatuses are the targets an admin may move an application to.
var reviewStatuses = map[domain.ApplicationStatus]bool{
	domain.ApplicationStatusUnderReview: true,
	domain.ApplicationStatusApproved:    true,
	domain.ApplicationStatusRejected:    true,
	domain.ApplicationStatusNeedsInfo:   true,
}

func (d Decision) Validate() error {
	if !reviewStatuses[d.NewStatus] {
		return dErrors.Newf(dErrors.CodeInvalidInput, "status %s is not a review outcome", d.NewStatus)
	}
	if d.FinalAmount != nil {
		if err := validateAmount(*d.FinalAmount); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	if amount.GreaterThan(MaxRequestedAmount) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "amount exceeds the ceiling of %s", MaxRequestedAmount.String())
	}
	return nil
}
