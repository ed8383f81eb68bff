package notification

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"campusbourses/internal/platform/metrics"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// Writer is the append-only sink the dispatcher writes to. The stores satisfy
// it; inside a transition the writes join the surrounding transaction.
type Writer interface {
	AppendStudent(ctx context.Context, n *StudentNotification) error
	AppendAdmin(ctx context.Context, n *AdminNotification) error
}

// Dispatcher translates state-machine transitions into notification records
// for the correct audience, exactly one record per transition. It holds no
// state; atomicity with the transition comes from the Writer it is handed.
type Dispatcher struct {
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewDispatcher(m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		metrics: m,
		tracer:  otel.Tracer("campusbourses/notification"),
	}
}

// DocumentUploaded notifies the admin pool that a student uploaded a document.
func (d *Dispatcher) DocumentUploaded(ctx context.Context, w Writer, studentID domain.UserID, docID domain.DocumentID, kind domain.DocumentKind) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.document_uploaded")
	defer span.End()

	related := docID
	n := &AdminNotification{
		ID:              domain.NewNotificationID(),
		Category:        domain.AdminNotifDocumentUpload,
		Title:           "New document uploaded",
		Message:         fmt.Sprintf("A student uploaded a %s for verification.", kind.Label()),
		RelatedDocument: &related,
		RelatedUser:     &studentID,
		CreatedAt:       time.Now(),
	}
	return d.appendAdmin(ctx, w, n)
}

// DocumentVerified notifies the owning student that their document is trusted.
func (d *Dispatcher) DocumentVerified(ctx context.Context, w Writer, studentID domain.UserID, docID domain.DocumentID, kind domain.DocumentKind, filename string) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.document_verified")
	defer span.End()

	related := docID
	n := &StudentNotification{
		ID:               domain.NewNotificationID(),
		StudentID:        studentID,
		Category:         domain.StudentNotifDocumentVerified,
		Title:            "Document verified",
		Message:          fmt.Sprintf("Your %s has been verified and approved by the administration.", kind.Label()),
		RelatedDocument:  &related,
		DocumentKind:     kind,
		DocumentFilename: filename,
		Important:        true,
		CreatedAt:        time.Now(),
	}
	return d.appendStudent(ctx, w, n)
}

// DocumentRejected notifies the owning student with the rejection reason. The
// document row is about to be deleted, so the record carries a denormalized
// snapshot (kind + filename) and no live document reference.
func (d *Dispatcher) DocumentRejected(ctx context.Context, w Writer, studentID domain.UserID, kind domain.DocumentKind, filename, reason string) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.document_rejected")
	defer span.End()

	n := &StudentNotification{
		ID:               domain.NewNotificationID(),
		StudentID:        studentID,
		Category:         domain.StudentNotifDocumentRejected,
		Title:            "Document rejected",
		Message:          fmt.Sprintf("Your %s (%s) was rejected: %s. Please upload a new document.", kind.Label(), filename, reason),
		DocumentKind:     kind,
		DocumentFilename: filename,
		Important:        true,
		CreatedAt:        time.Now(),
	}
	return d.appendStudent(ctx, w, n)
}

// ApplicationSubmitted notifies the admin pool of a new submission.
func (d *Dispatcher) ApplicationSubmitted(ctx context.Context, w Writer, studentID domain.UserID, appID domain.ApplicationID, title string) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.application_submitted")
	defer span.End()

	n := &AdminNotification{
		ID:          domain.NewNotificationID(),
		Category:    domain.AdminNotifApplicationSubmitted,
		Title:       "Scholarship application submitted",
		Message:     fmt.Sprintf("A student submitted an application: %s", title),
		RelatedUser: &studentID,
		CreatedAt:   time.Now(),
	}
	return d.appendAdmin(ctx, w, n)
}

// ApplicationReviewed notifies the owning student that a reviewer moved their
// application; the category mirrors the new status.
func (d *Dispatcher) ApplicationReviewed(ctx context.Context, w Writer, studentID domain.UserID, appID domain.ApplicationID, title string, newStatus domain.ApplicationStatus) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.application_reviewed")
	defer span.End()

	category, ok := domain.StudentCategoryForDecision(newStatus)
	if !ok {
		return dErrors.Newf(dErrors.CodeInternal, "no student notification category for status %s", newStatus)
	}

	related := appID
	n := &StudentNotification{
		ID:                 domain.NewNotificationID(),
		StudentID:          studentID,
		Category:           category,
		Title:              titleForDecision(newStatus),
		Message:            fmt.Sprintf("Your application %q is now: %s", title, newStatus),
		RelatedApplication: &related,
		Important:          newStatus.IsDecision(),
		CreatedAt:          time.Now(),
	}
	return d.appendStudent(ctx, w, n)
}

// UserRegistered notifies the admin pool that a new student signed up.
func (d *Dispatcher) UserRegistered(ctx context.Context, w Writer, userID domain.UserID, username string) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.user_registered")
	defer span.End()

	n := &AdminNotification{
		ID:          domain.NewNotificationID(),
		Category:    domain.AdminNotifUserRegistered,
		Title:       "New user registered",
		Message:     fmt.Sprintf("Student account created: %s", username),
		RelatedUser: &userID,
		CreatedAt:   time.Now(),
	}
	return d.appendAdmin(ctx, w, n)
}

func (d *Dispatcher) appendStudent(ctx context.Context, w Writer, n *StudentNotification) error {
	if err := w.AppendStudent(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to write student notification")
	}
	d.metrics.RecordDispatch("student")
	return nil
}

func (d *Dispatcher) appendAdmin(ctx context.Context, w Writer, n *AdminNotification) error {
	if err := w.AppendAdmin(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to write admin notification")
	}
	d.metrics.RecordDispatch("admin")
	return nil
}

func titleForDecision(status domain.ApplicationStatus) string {
	switch status {
	case domain.ApplicationStatusApproved:
		return "Application approved"
	case domain.ApplicationStatusRejected:
		return "Application rejected"
	case domain.ApplicationStatusUnderReview:
		return "Application under review"
	case domain.ApplicationStatusNeedsInfo:
		return "Additional information required"
	default:
		return "Application updated"
	}
}
