package service

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbourses/internal/notification"
	"campusbourses/internal/notification/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

func newFixture(t *testing.T) (*Service, *store.InMemory) {
	t.Helper()
	st := store.NewInMemory()
	return NewService(st, slog.Default()), st
}

func seedStudent(t *testing.T, st *store.InMemory, studentID domain.UserID, n int, important bool) []*notification.StudentNotification {
	t.Helper()
	out := make([]*notification.StudentNotification, 0, n)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		msg := &notification.StudentNotification{
			ID:        domain.NewNotificationID(),
			StudentID: studentID,
			Category:  domain.StudentNotifSystemAlert,
			Title:     fmt.Sprintf("alert %d", i),
			Message:   "something happened",
			Important: important,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, st.AppendStudent(context.Background(), msg))
		out = append(out, msg)
	}
	return out
}

func TestStudentFeed_CapsAndOrdering(t *testing.T) {
	svc, st := newFixture(t)
	studentID := domain.NewUserID()
	seeded := seedStudent(t, st, studentID, 25, false)

	feed, err := svc.StudentFeed(context.Background(), studentID)
	require.NoError(t, err)

	assert.Len(t, feed.Unread, unreadLimit)
	assert.Len(t, feed.Recent, recentLimit)
	assert.Equal(t, 25, feed.UnreadCount, "count is not capped by the view limit")
	assert.Equal(t, 0, feed.ImportantCount)

	// Newest first: the last seeded entry leads both views.
	newest := seeded[len(seeded)-1]
	assert.Equal(t, newest.ID, feed.Unread[0].ID)
	assert.Equal(t, newest.ID, feed.Recent[0].ID)
	for i := 1; i < len(feed.Recent); i++ {
		assert.False(t, feed.Recent[i].CreatedAt.After(feed.Recent[i-1].CreatedAt))
	}
}

func TestStudentFeed_ScopedToStudent(t *testing.T) {
	svc, st := newFixture(t)
	alice, bob := domain.NewUserID(), domain.NewUserID()
	seedStudent(t, st, alice, 3, false)
	seedStudent(t, st, bob, 2, true)

	feed, err := svc.StudentFeed(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 3, feed.UnreadCount)
	assert.Equal(t, 0, feed.ImportantCount)
	for _, n := range feed.Recent {
		assert.Equal(t, alice, n.StudentID)
	}
}

func TestMarkStudentRead_Idempotent(t *testing.T) {
	svc, st := newFixture(t)
	studentID := domain.NewUserID()
	seeded := seedStudent(t, st, studentID, 1, true)
	target := seeded[0]

	first, err := svc.MarkStudentRead(context.Background(), studentID, target.ID)
	require.NoError(t, err)
	require.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	// Re-marking keeps the original read_at.
	second, err := svc.MarkStudentRead(context.Background(), studentID, target.ID)
	require.NoError(t, err)
	assert.True(t, second.Read)
	assert.True(t, second.ReadAt.Equal(*first.ReadAt))

	feed, err := svc.StudentFeed(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, 0, feed.UnreadCount)
	assert.Equal(t, 0, feed.ImportantCount)
}

func TestMarkStudentRead_WrongStudentIsNotFound(t *testing.T) {
	svc, st := newFixture(t)
	owner := domain.NewUserID()
	seeded := seedStudent(t, st, owner, 1, false)

	_, err := svc.MarkStudentRead(context.Background(), domain.NewUserID(), seeded[0].ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMarkAllStudentRead(t *testing.T) {
	svc, st := newFixture(t)
	studentID := domain.NewUserID()
	seedStudent(t, st, studentID, 5, false)

	count, err := svc.MarkAllStudentRead(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Nothing left unread, so a second pass touches nothing.
	count, err = svc.MarkAllStudentRead(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAdminFeed(t *testing.T) {
	svc, st := newFixture(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.AppendAdmin(context.Background(), &notification.AdminNotification{
			ID:        domain.NewNotificationID(),
			Category:  domain.AdminNotifApplicationSubmitted,
			Title:     "new submission",
			Message:   "a student submitted an application",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	feed, err := svc.AdminFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Unread, 3)
	assert.Equal(t, 3, feed.UnreadCount)

	marked, err := svc.MarkAdminRead(context.Background(), feed.Unread[0].ID)
	require.NoError(t, err)
	assert.True(t, marked.Read)

	feed, err = svc.AdminFeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, feed.UnreadCount)
	assert.Len(t, feed.Recent, 3, "read notifications stay in the recent view")
}

func TestDelete_ScopedToOwner(t *testing.T) {
	svc, st := newFixture(t)
	owner := domain.NewUserID()
	seeded := seedStudent(t, st, owner, 2, false)

	err := svc.Delete(context.Background(), domain.NewUserID(), seeded[0].ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	require.NoError(t, svc.Delete(context.Background(), owner, seeded[0].ID))

	count, err := svc.DeleteAll(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
