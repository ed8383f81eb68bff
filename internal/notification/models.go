package notification

import (
	"time"

	"campusbourses/pkg/domain"
)

// StudentNotification is a message addressed to one student. Records are
// created solely as a side effect of a state transition, never user-authored.
//
// Invariant: ReadAt is set iff Read is true.
type StudentNotification struct {
	ID        domain.NotificationID
	StudentID domain.UserID
	Category  domain.StudentNotificationCategory
	Title     string
	Message   string

	// RelatedDocument / RelatedApplication are live references and stay nil
	// when the referenced record may no longer exist (document rejection).
	RelatedDocument    *domain.DocumentID
	RelatedApplication *domain.ApplicationID

	// DocumentKind and DocumentFilename are a denormalized snapshot taken at
	// dispatch time so the notification stays meaningful after the document
	// row is gone.
	DocumentKind     domain.DocumentKind
	DocumentFilename string

	Read      bool
	Important bool
	CreatedAt time.Time
	ReadAt    *time.Time
}

// AdminNotification is a message addressed to the admin pool. Admin
// notifications carry no important flag.
//
// Invariant: ReadAt is set iff Read is true.
type AdminNotification struct {
	ID       domain.NotificationID
	Category domain.AdminNotificationCategory
	Title    string
	Message  string

	RelatedDocument *domain.DocumentID
	RelatedUser     *domain.UserID

	Read      bool
	CreatedAt time.Time
	ReadAt    *time.Time
}

// StudentFeed is the read-back payload for a student: unread and recent are
// independent queries over the same storage, both newest first.
type StudentFeed struct {
	Unread         []*StudentNotification
	Recent         []*StudentNotification
	UnreadCount    int
	ImportantCount int
}

// AdminFeed is the read-back payload for the admin pool.
type AdminFeed struct {
	Unread      []*AdminNotification
	Recent      []*AdminNotification
	UnreadCount int
}
