//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusbourses/internal/notification"
	"campusbourses/internal/notification/store"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "student_notifications", "admin_notifications")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) appendStudent(studentID domain.UserID, createdAt time.Time, important bool) *notification.StudentNotification {
	s.T().Helper()
	n := &notification.StudentNotification{
		ID:        domain.NewNotificationID(),
		StudentID: studentID,
		Category:  domain.StudentNotifSystemAlert,
		Title:     "alert",
		Message:   "something happened",
		Important: important,
		CreatedAt: createdAt,
	}
	s.Require().NoError(s.store.AppendStudent(context.Background(), n))
	return n
}

// TestRejectionSnapshotRoundTrip persists a rejection notification whose
// document no longer exists: the reference is nil, the snapshot survives.
func (s *PostgresStoreSuite) TestRejectionSnapshotRoundTrip() {
	ctx := context.Background()
	studentID := domain.NewUserID()
	n := &notification.StudentNotification{
		ID:               domain.NewNotificationID(),
		StudentID:        studentID,
		Category:         domain.StudentNotifDocumentRejected,
		Title:            "Document rejected",
		Message:          "Your document was rejected: illegible scan",
		DocumentKind:     domain.DocumentKindAcademic,
		DocumentFilename: "transcript.pdf",
		Important:        true,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.AppendStudent(ctx, n))

	list, err := s.store.ListStudent(ctx, studentID, false, 10)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	got := list[0]
	s.Nil(got.RelatedDocument)
	s.Equal(domain.DocumentKindAcademic, got.DocumentKind)
	s.Equal("transcript.pdf", got.DocumentFilename)
	s.True(got.Important)
}

func (s *PostgresStoreSuite) TestListOrderingAndLimit() {
	ctx := context.Background()
	studentID := domain.NewUserID()
	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i := 0; i < 15; i++ {
		s.appendStudent(studentID, base.Add(time.Duration(i)*time.Minute), false)
	}

	list, err := s.store.ListStudent(ctx, studentID, false, 10)
	s.Require().NoError(err)
	s.Require().Len(list, 10)
	for i := 1; i < len(list); i++ {
		s.False(list[i].CreatedAt.After(list[i-1].CreatedAt), "newest first")
	}

	total, important, err := s.store.CountStudentUnread(ctx, studentID)
	s.Require().NoError(err)
	s.Equal(15, total)
	s.Equal(0, important)
}

// TestMarkReadStampsOnce re-marks a read notification and verifies read_at is
// untouched.
func (s *PostgresStoreSuite) TestMarkReadStampsOnce() {
	ctx := context.Background()
	studentID := domain.NewUserID()
	n := s.appendStudent(studentID, time.Now().UTC(), true)

	first := time.Now().UTC().Truncate(time.Microsecond)
	marked, err := s.store.MarkStudentRead(ctx, n.ID, studentID, first)
	s.Require().NoError(err)
	s.Require().NotNil(marked.ReadAt)
	s.True(marked.ReadAt.Equal(first))

	again, err := s.store.MarkStudentRead(ctx, n.ID, studentID, first.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NotNil(again.ReadAt)
	s.True(again.ReadAt.Equal(first), "read_at is written once")

	total, important, err := s.store.CountStudentUnread(ctx, studentID)
	s.Require().NoError(err)
	s.Equal(0, total)
	s.Equal(0, important)
}

func (s *PostgresStoreSuite) TestMarkReadScopedToStudent() {
	ctx := context.Background()
	owner := domain.NewUserID()
	n := s.appendStudent(owner, time.Now().UTC(), false)

	_, err := s.store.MarkStudentRead(ctx, n.ID, domain.NewUserID(), time.Now().UTC())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMarkAllStudentRead() {
	ctx := context.Background()
	studentID := domain.NewUserID()
	for i := 0; i < 4; i++ {
		s.appendStudent(studentID, time.Now().UTC(), false)
	}
	s.appendStudent(domain.NewUserID(), time.Now().UTC(), false)

	count, err := s.store.MarkAllStudentRead(ctx, studentID, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(4, count)

	count, err = s.store.MarkAllStudentRead(ctx, studentID, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(0, count, "second pass touches nothing")
}

func (s *PostgresStoreSuite) TestAdminPool() {
	ctx := context.Background()
	user := domain.NewUserID()
	n := &notification.AdminNotification{
		ID:          domain.NewNotificationID(),
		Category:    domain.AdminNotifUserRegistered,
		Title:       "new registration",
		Message:     "a student registered",
		RelatedUser: &user,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.AppendAdmin(ctx, n))

	list, err := s.store.ListAdmin(ctx, true, 10)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Require().NotNil(list[0].RelatedUser)
	s.Equal(user, *list[0].RelatedUser)

	marked, err := s.store.MarkAdminRead(ctx, n.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.True(marked.Read)

	count, err := s.store.CountAdminUnread(ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *PostgresStoreSuite) TestDeleteScopedToStudent() {
	ctx := context.Background()
	owner := domain.NewUserID()
	n := s.appendStudent(owner, time.Now().UTC(), false)

	s.ErrorIs(s.store.DeleteStudent(ctx, n.ID, domain.NewUserID()), sentinel.ErrNotFound)
	s.Require().NoError(s.store.DeleteStudent(ctx, n.ID, owner))

	count, err := s.store.DeleteAllStudent(ctx, owner)
	s.Require().NoError(err)
	s.Equal(0, count)
}
