package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campusbourses/internal/notification"
	"campusbourses/internal/notification/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/sentinel"
)

const (
	unreadLimit = 10
	recentLimit = 20
)

// Service exposes the read side of the notification sink: feeds, mark-read,
// and user-initiated deletion. Records are only ever created by the
// dispatcher; this service never writes new ones.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// StudentFeed returns the unread and recent views for one student. The two
// views are independent queries over the same storage, both newest first.
func (s *Service) StudentFeed(ctx context.Context, studentID domain.UserID) (*notification.StudentFeed, error) {
	unread, err := s.store.ListStudent(ctx, studentID, true, unreadLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load unread notifications")
	}
	recent, err := s.store.ListStudent(ctx, studentID, false, recentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load recent notifications")
	}
	total, important, err := s.store.CountStudentUnread(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to count unread notifications")
	}
	return &notification.StudentFeed{
		Unread:         unread,
		Recent:         recent,
		UnreadCount:    total,
		ImportantCount: important,
	}, nil
}

// AdminFeed returns the unread and recent views for the admin pool.
func (s *Service) AdminFeed(ctx context.Context) (*notification.AdminFeed, error) {
	unread, err := s.store.ListAdmin(ctx, true, unreadLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load unread notifications")
	}
	recent, err := s.store.ListAdmin(ctx, false, recentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load recent notifications")
	}
	count, err := s.store.CountAdminUnread(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to count unread notifications")
	}
	return &notification.AdminFeed{
		Unread:      unread,
		Recent:      recent,
		UnreadCount: count,
	}, nil
}

// MarkStudentRead marks one of the student's notifications read. Idempotent:
// re-marking neither changes read_at nor duplicates a write.
func (s *Service) MarkStudentRead(ctx context.Context, studentID domain.UserID, id domain.NotificationID) (*notification.StudentNotification, error) {
	n, err := s.store.MarkStudentRead(ctx, id, studentID, time.Now())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to mark notification read")
	}
	return n, nil
}

// MarkAllStudentRead marks every unread notification of the student read.
func (s *Service) MarkAllStudentRead(ctx context.Context, studentID domain.UserID) (int, error) {
	count, err := s.store.MarkAllStudentRead(ctx, studentID, time.Now())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to mark notifications read")
	}
	return count, nil
}

// MarkAdminRead marks one admin-pool notification read.
func (s *Service) MarkAdminRead(ctx context.Context, id domain.NotificationID) (*notification.AdminNotification, error) {
	n, err := s.store.MarkAdminRead(ctx, id, time.Now())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to mark notification read")
	}
	return n, nil
}

// Delete removes one of the student's notifications.
func (s *Service) Delete(ctx context.Context, studentID domain.UserID, id domain.NotificationID) error {
	if err := s.store.DeleteStudent(ctx, id, studentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete notification")
	}
	return nil
}

// DeleteAll removes every notification of the student.
func (s *Service) DeleteAll(ctx context.Context, studentID domain.UserID) (int, error) {
	count, err := s.store.DeleteAllStudent(ctx, studentID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete notifications")
	}
	s.logger.InfoContext(ctx, "notifications deleted", "student_id", studentID.String(), "count", count)
	return count, nil
}
