package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"campusbourses/internal/audit"
	"campusbourses/internal/authz"
	"campusbourses/internal/document"
	"campusbourses/internal/document/blob"
	"campusbourses/internal/document/store"
	"campusbourses/internal/notification"
	"campusbourses/internal/platform/metrics"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Service drives the document verification lifecycle. Rejection is
// notify-then-delete inside one transaction: the student keeps a readable
// record of why, while the document row and blob are gone.
type Service struct {
	store      store.Store
	blobs      blob.Store
	notifSink  notification.Writer
	dispatcher *notification.Dispatcher
	runner     tx.Runner
	audit      *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewService(
	st store.Store,
	blobs blob.Store,
	sink notification.Writer,
	dispatcher *notification.Dispatcher,
	runner tx.Runner,
	auditPub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      st,
		blobs:      blobs,
		notifSink:  sink,
		dispatcher: dispatcher,
		runner:     runner,
		audit:      auditPub,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("campusbourses/document"),
	}
}

// Upload stores the file bytes and the document record, then notifies the
// admin pool. The blob is written first; if the record or notification fails,
// the blob is removed so no orphan survives a failed upload.
func (s *Service) Upload(ctx context.Context, p domain.Principal, in document.UploadInput) (*document.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.upload")
	defer span.End()

	if err := authz.Authorize(p, authz.OpDocumentUpload); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	handle, err := s.blobs.Save(ctx, in.Filename, in.Data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to store file")
	}

	doc := &document.Document{
		ID:         domain.NewDocumentID(),
		StudentID:  p.UserID,
		Kind:       in.Kind,
		Filename:   in.Filename,
		Size:       int64(len(in.Data)),
		BlobHandle: handle,
		UploadedAt: time.Now(),
	}
	err = s.runner.RunInTx(ctx, doc.ID.String(), func(ctx context.Context) error {
		if err := s.store.Create(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to create document")
		}
		return s.dispatcher.DocumentUploaded(ctx, s.notifSink, doc.StudentID, doc.ID, doc.Kind)
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, handle); delErr != nil {
			s.logger.ErrorContext(ctx, "orphaned blob after failed upload",
				"handle", handle, "error", delErr)
		}
		return nil, err
	}

	s.metrics.RecordUpload()
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionDocumentUploaded,
		ActorID:  p.UserID.String(),
		EntityID: doc.ID.String(),
		Detail:   doc.Filename,
	})
	s.logger.InfoContext(ctx, "document uploaded",
		"document_id", doc.ID.String(),
		"student_id", p.UserID.String(),
		"kind", doc.Kind.String(),
		"size", doc.Size,
	)
	return doc, nil
}

// Get returns one document. Students see only their own; admins see any.
func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.DocumentID) (*document.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(p, doc.StudentID); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListMine returns the principal's own documents, newest first.
func (s *Service) ListMine(ctx context.Context, p domain.Principal) ([]*document.Document, error) {
	docs, err := s.store.ListByStudent(ctx, p.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list documents")
	}
	return docs, nil
}

// ListAll returns documents for the verification queue.
func (s *Service) ListAll(ctx context.Context, p domain.Principal, unverifiedOnly bool) ([]*document.Document, error) {
	if err := authz.Authorize(p, authz.OpDocumentList); err != nil {
		return nil, err
	}
	docs, err := s.store.ListAll(ctx, unverifiedOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list documents")
	}
	return docs, nil
}

// Verify marks a document trusted and notifies the owner, atomically.
// Verifying an already-verified document is a no-op: no re-stamp, no second
// notification.
func (s *Service) Verify(ctx context.Context, p domain.Principal, id domain.DocumentID) (*document.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.verify")
	defer span.End()

	if err := authz.Authorize(p, authz.OpDocumentVerify); err != nil {
		return nil, err
	}

	var (
		verified *document.Document
		noop     bool
	)
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		current, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if current.Verified {
			verified, noop = current, true
			return nil
		}

		doc, err := s.store.MarkVerified(ctx, id, p.UserID, time.Now())
		if err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				// Lost the race to another verifier; same outcome.
				verified, noop = current, true
				return nil
			}
			return s.translate(err, "failed to verify document")
		}
		if err := s.dispatcher.DocumentVerified(ctx, s.notifSink, doc.StudentID, doc.ID, doc.Kind, doc.Filename); err != nil {
			return err
		}
		verified = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		return verified, nil
	}

	s.metrics.RecordVerification()
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionDocumentVerified,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   verified.Filename,
	})
	return verified, nil
}

// Reject removes the document and tells the owner why. The notification is
// written before the row delete, in the same transaction, and carries a
// snapshot of the kind and filename because the record will not outlive the
// call. The blob is removed after commit.
func (s *Service) Reject(ctx context.Context, p domain.Principal, id domain.DocumentID, reason string) error {
	ctx, span := s.tracer.Start(ctx, "document.reject")
	defer span.End()

	if err := authz.Authorize(p, authz.OpDocumentReject); err != nil {
		return err
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "rejection reason is required")
	}

	var handle string
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		doc, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if doc.Verified {
			return dErrors.New(dErrors.CodeInvalidTransition, "a verified document cannot be rejected")
		}
		handle = doc.BlobHandle

		if err := s.dispatcher.DocumentRejected(ctx, s.notifSink, doc.StudentID, doc.Kind, doc.Filename, reason); err != nil {
			return err
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return s.translate(err, "failed to delete document")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deleteBlob(ctx, handle)
	s.metrics.RecordRejection()
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionDocumentRejected,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   reason,
	})
	s.logger.InfoContext(ctx, "document rejected",
		"document_id", id.String(),
		"admin_id", p.UserID.String(),
	)
	return nil
}

// Delete removes a document without notifying anyone. Owner or admin. The row
// is the source of truth: it goes first, inside the transaction, and the blob
// afterwards, so no surviving row ever points at a missing blob.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.DocumentID) error {
	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnerOrAdmin(p, doc.StudentID); err != nil {
		return err
	}

	err = s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		if err := s.store.Delete(ctx, id); err != nil {
			return s.translate(err, "failed to delete document")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deleteBlob(ctx, doc.BlobHandle)
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionDocumentDeleted,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   doc.Filename,
	})
	return nil
}

// DeleteAllForStudent removes every document the student owns, blobs included.
// Account cascade only.
func (s *Service) DeleteAllForStudent(ctx context.Context, studentID domain.UserID) (int, error) {
	handles, err := s.store.DeleteByStudent(ctx, studentID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete documents")
	}
	for _, handle := range handles {
		s.deleteBlob(ctx, handle)
	}
	return len(handles), nil
}

// deleteBlob removes a blob whose row is already gone. A failure leaves
// unreferenced garbage, not observable state, so it is logged rather than
// surfaced.
func (s *Service) deleteBlob(ctx context.Context, handle string) {
	if handle == "" {
		return
	}
	if err := s.blobs.Delete(ctx, handle); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "orphaned blob after row delete",
			"handle", handle, "error", err)
	}
}

func (s *Service) find(ctx context.Context, id domain.DocumentID) (*document.Document, error) {
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load document")
	}
	return doc, nil
}

func (s *Service) translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidTransition, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeStorage, msg)
	}
}
