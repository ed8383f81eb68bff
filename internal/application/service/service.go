package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"campusbourses/internal/application"
	"campusbourses/internal/application/store"
	"campusbourses/internal/audit"
	"campusbourses/internal/authz"
	"campusbourses/internal/notification"
	"campusbourses/internal/platform/metrics"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Service drives the application state machine. Transitions that produce a
// notification (submit, decide) run inside the runner so the state change and
// the notification record commit as one unit.
type Service struct {
	store      store.Store
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
	sink notification.Writer,
	dispatcher *notification.Dispatcher,
	runner tx.Runner,
	auditPub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      st,
		notifSink:  sink,
		dispatcher: dispatcher,
		runner:     runner,
		audit:      auditPub,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("campusbourses/application"),
	}
}

// Create opens a new application in draft.
func (s *Service) Create(ctx context.Context, p domain.Principal, in application.CreateInput) (*application.Application, error) {
	if err := authz.Authorize(p, authz.OpApplicationCreate); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	app := &application.Application{
		ID:              domain.NewApplicationID(),
		StudentID:       p.UserID,
		Category:        in.Category,
		Title:           in.Title,
		Description:     in.Description,
		AmountRequested: in.Amount,
		Status:          domain.ApplicationStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to create application")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionApplicationCreated,
		ActorID:  p.UserID.String(),
		EntityID: app.ID.String(),
		Detail:   app.Title,
	})
	s.logger.InfoContext(ctx, "application created",
		"application_id", app.ID.String(),
		"student_id", p.UserID.String(),
		"category", app.Category.String(),
	)
	return app, nil
}

// Get returns one application. Students see only their own; admins see any.
func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.ApplicationID) (*application.Application, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnerOrAdmin(p, app.StudentID); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMine returns the principal's own applications, newest first.
func (s *Service) ListMine(ctx context.Context, p domain.Principal) ([]*application.Application, error) {
	apps, err := s.store.ListByStudent(ctx, p.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list applications")
	}
	return apps, nil
}

// ListAll returns every application for the review queue.
func (s *Service) ListAll(ctx context.Context, p domain.Principal) ([]*application.Application, error) {
	if err := authz.Authorize(p, authz.OpApplicationList); err != nil {
		return nil, err
	}
	apps, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list applications")
	}
	return apps, nil
}

// Update edits an application still in an edit-permitted state (draft or
// needs_info). The store re-checks the state, so an edit racing a submission
// fails with an invalid-transition error instead of clobbering.
func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.ApplicationID, in application.UpdateInput) (*application.Application, error) {
	if err := authz.Authorize(p, authz.OpApplicationUpdate); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsStudent() {
		if err := authz.RequireOwner(p, app.StudentID); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.Update(ctx, id, in, time.Now())
	if err != nil {
		return nil, s.translateTransition(err, "application can no longer be edited")
	}
	return updated, nil
}

// Submit moves a draft or needs_info application to submitted and notifies the
// admin pool, atomically. Submitting from any other state is an invalid
// transition; submitted_at is stamped only on the first submission.
func (s *Service) Submit(ctx context.Context, p domain.Principal, id domain.ApplicationID) (*application.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.submit")
	defer span.End()

	if err := authz.Authorize(p, authz.OpApplicationSubmit); err != nil {
		return nil, err
	}

	var submitted *application.Application
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		app, err := s.store.MarkSubmitted(ctx, id, p.UserID, time.Now())
		if err != nil {
			return s.translateTransition(err, "application cannot be submitted from its current status")
		}
		if err := s.dispatcher.ApplicationSubmitted(ctx, s.notifSink, app.StudentID, app.ID, app.Title); err != nil {
			return err
		}
		submitted = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(domain.ApplicationStatusSubmitted.String())
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionApplicationSubmitted,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   submitted.Title,
	})
	s.logger.InfoContext(ctx, "application submitted",
		"application_id", id.String(),
		"student_id", p.UserID.String(),
	)
	return submitted, nil
}

// Decide applies an admin review outcome and notifies the owning student in
// the same transaction. A decision that names the current status is a no-op:
// nothing is re-stamped and no notification is written.
func (s *Service) Decide(ctx context.Context, p domain.Principal, id domain.ApplicationID, d application.Decision) (*application.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.decide")
	defer span.End()

	if err := authz.Authorize(p, authz.OpApplicationDecide); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var (
		decided *application.Application
		noop    bool
	)
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "application not found")
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to load application")
		}
		if current.Status == d.NewStatus {
			decided, noop = current, true
			return nil
		}

		app, err := s.store.ApplyDecision(ctx, id, p.UserID, d, time.Now())
		if err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.Newf(dErrors.CodeInvalidTransition,
					"cannot move application from %s to %s", current.Status, d.NewStatus)
			}
			return s.translateTransition(err, "failed to apply decision")
		}
		if err := s.dispatcher.ApplicationReviewed(ctx, s.notifSink, app.StudentID, app.ID, app.Title, app.Status); err != nil {
			return err
		}
		decided = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		return decided, nil
	}

	s.metrics.RecordTransition(decided.Status.String())
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionApplicationDecided,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   fmt.Sprintf("status=%s", decided.Status),
	})
	s.logger.InfoContext(ctx, "application decided",
		"application_id", id.String(),
		"reviewer_id", p.UserID.String(),
		"status", decided.Status.String(),
	)
	return decided, nil
}

// Delete removes a draft. Anything past draft is part of the review record and
// cannot be deleted through this path.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.ApplicationID) error {
	if err := authz.Authorize(p, authz.OpApplicationDelete); err != nil {
		return err
	}
	app, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if p.IsStudent() {
		if err := authz.RequireOwner(p, app.StudentID); err != nil {
			return err
		}
	}

	if err := s.store.DeleteDraft(ctx, id); err != nil {
		return s.translateTransition(err, "only draft applications can be deleted")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionApplicationDeleted,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   app.Title,
	})
	return nil
}

// DeleteAllForStudent removes every application the student owns. Account
// cascade only; it bypasses the draft-only rule on purpose.
func (s *Service) DeleteAllForStudent(ctx context.Context, studentID domain.UserID) (int, error) {
	count, err := s.store.DeleteByStudent(ctx, studentID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete applications")
	}
	return count, nil
}

func (s *Service) find(ctx context.Context, id domain.ApplicationID) (*application.Application, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load application")
	}
	return app, nil
}

func (s *Service) translateTransition(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidTransition, msg)
	case dErrors.HasCode(err, dErrors.CodeInvalidTransition),
		dErrors.HasCode(err, dErrors.CodeNotFound):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeStorage, "application storage failure")
	}
}
