package store

import (
	"context"
	"time"

	"campusbourses/internal/notification"
	"campusbourses/pkg/domain"
)

// Store is the full notification sink contract. List results are ordered by
// creation time descending. The embedded Writer is the append-only surface
// handed to the dispatcher during transitions.
type Store interface {
	notification.Writer

	ListStudent(ctx context.Context, studentID domain.UserID, onlyUnread bool, limit int) ([]*notification.StudentNotification, error)
	CountStudentUnread(ctx context.Context, studentID domain.UserID) (total int, important int, err error)
	// MarkStudentRead stamps read_at only if it is still null; marking an
	// already-read notification is a no-op that returns the stored record.
	MarkStudentRead(ctx context.Context, id domain.NotificationID, studentID domain.UserID, readAt time.Time) (*notification.StudentNotification, error)
	MarkAllStudentRead(ctx context.Context, studentID domain.UserID, readAt time.Time) (int, error)
	DeleteStudent(ctx context.Context, id domain.NotificationID, studentID domain.UserID) error
	DeleteAllStudent(ctx context.Context, studentID domain.UserID) (int, error)

	ListAdmin(ctx context.Context, onlyUnread bool, limit int) ([]*notification.AdminNotification, error)
	CountAdminUnread(ctx context.Context) (int, error)
	MarkAdminRead(ctx context.Context, id domain.NotificationID, readAt time.Time) (*notification.AdminNotification, error)
}
