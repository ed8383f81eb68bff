package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"campusbourses/internal/document"
	"campusbourses/internal/document/blob"
	blobmocks "campusbourses/internal/document/blob/mocks"
	docstore "campusbourses/internal/document/store"
	"campusbourses/internal/notification"
	notifstore "campusbourses/internal/notification/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/tx"
)

type fixture struct {
	svc    *Service
	docs   *docstore.InMemory
	blobs  *blob.Memory
	notifs *notifstore.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := docstore.NewInMemory()
	blobs := blob.NewMemory()
	notifs := notifstore.NewInMemory()
	svc := NewService(
		docs,
		blobs,
		notifs,
		notification.NewDispatcher(nil),
		tx.NewMemoryRunner(),
		nil,
		nil,
		slog.Default(),
	)
	return &fixture{svc: svc, docs: docs, blobs: blobs, notifs: notifs}
}

func student() domain.Principal {
	return domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleStudent}
}

func admin() domain.Principal {
	return domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleAdmin}
}

func validUpload() document.UploadInput {
	return document.UploadInput{
		Kind:     domain.DocumentKindAcademic,
		Filename: "transcript.pdf",
		Data:     []byte("%PDF-1.4 fake transcript"),
	}
}

func TestUploadAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()

	doc, err := f.svc.Upload(ctx, stu, validUpload())
	require.NoError(t, err)
	assert.False(t, doc.Verified)
	assert.NotEmpty(t, doc.BlobHandle)
	assert.Equal(t, 1, f.blobs.Len())

	adminNotifs, err := f.notifs.ListAdmin(ctx, false, 10)
	require.NoError(t, err)
	require.Len(t, adminNotifs, 1)
	assert.Equal(t, domain.AdminNotifDocumentUpload, adminNotifs[0].Category)
	require.NotNil(t, adminNotifs[0].RelatedDocument)
	assert.Equal(t, doc.ID, *adminNotifs[0].RelatedDocument)

	verified, err := f.svc.Verify(ctx, adm, doc.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedAt)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, adm.UserID, *verified.VerifiedBy)

	studentNotifs, err := f.notifs.ListStudent(ctx, stu.UserID, false, 10)
	require.NoError(t, err)
	require.Len(t, studentNotifs, 1)
	assert.Equal(t, domain.StudentNotifDocumentVerified, studentNotifs[0].Category)
	assert.True(t, studentNotifs[0].Important)
	require.NotNil(t, studentNotifs[0].RelatedDocument)
	assert.Equal(t, doc.ID, *studentNotifs[0].RelatedDocument)
}

func TestVerify_AlreadyVerifiedIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()

	doc, err := f.svc.Upload(ctx, stu, validUpload())
	require.NoError(t, err)

	first, err := f.svc.Verify(ctx, adm, doc.ID)
	require.NoError(t, err)
	again, err := f.svc.Verify(ctx, adm, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.VerifiedAt, again.VerifiedAt, "verified_at is stamped once")

	studentNotifs, err := f.notifs.ListStudent(ctx, stu.UserID, false, 10)
	require.NoError(t, err)
	assert.Len(t, studentNotifs, 1, "re-verification must not notify again")
}

func TestReject_NotifiesThenDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()

	doc, err := f.svc.Upload(ctx, stu, validUpload())
	require.NoError(t, err)

	err = f.svc.Reject(ctx, adm, doc.ID, "document is illegible")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, adm, doc.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Equal(t, 0, f.blobs.Len(), "blob removed with the row")

	studentNotifs, err := f.notifs.ListStudent(ctx, stu.UserID, false, 10)
	require.NoError(t, err)
	require.Len(t, studentNotifs, 1)
	n := studentNotifs[0]
	assert.Equal(t, domain.StudentNotifDocumentRejected, n.Category)
	assert.True(t, n.Important)
	assert.Nil(t, n.RelatedDocument, "no live reference to a deleted row")
	assert.Equal(t, doc.Kind, n.DocumentKind)
	assert.Equal(t, doc.Filename, n.DocumentFilename)
	assert.Contains(t, n.Message, "document is illegible")
	assert.Contains(t, n.Message, doc.Filename)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()

	doc, err := f.svc.Upload(ctx, stu, validUpload())
	require.NoError(t, err)

	err = f.svc.Reject(ctx, adm, doc.ID, "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = f.svc.Get(ctx, adm, doc.ID)
	require.NoError(t, err, "document survives a rejected rejection")
}

func TestReject_VerifiedDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()

	doc, err := f.svc.Upload(ctx, stu, validUpload())
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, adm, doc.ID)
	require.NoError(t, err)

	err = f.svc.Reject(ctx, adm, doc.ID, "changed my mind")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := student()

	cases := []struct {
		name   string
		mutate func(*document.UploadInput)
	}{
		{"bad kind", func(in *document.UploadInput) { in.Kind = "passport" }},
		{"no filename", func(in *document.UploadInput) { in.Filename = "" }},
		{"forbidden extension", func(in *document.UploadInput) { in.Filename = "virus.exe" }},
		{"no extension", func(in *document.UploadInput) { in.Filename = "transcript" }},
		{"empty file", func(in *document.UploadInput) { in.Data = nil }},
		{"oversized file", func(in *document.UploadInput) {
			in.Data = bytes.Repeat([]byte("x"), document.MaxFileSize+1)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validUpload()
			tc.mutate(&in)
			_, err := f.svc.Upload(ctx, stu, in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
	assert.Equal(t, 0, f.blobs.Len(), "no blob survives a failed validation")
}

func TestUpload_ExtensionCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	stu := student()

	in := validUpload()
	in.Filename = "TRANSCRIPT.PDF"
	_, err := f.svc.Upload(context.Background(), stu, in)
	require.NoError(t, err)
}

func TestAuthz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm, other := student(), admin(), student()

	doc, err := f.svc.Upload(ctx, stu, validUpload())
	require.NoError(t, err)

	t.Run("admin cannot upload", func(t *testing.T) {
		_, err := f.svc.Upload(ctx, adm, validUpload())
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("student cannot verify", func(t *testing.T) {
		_, err := f.svc.Verify(ctx, stu, doc.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("student cannot reject", func(t *testing.T) {
		err := f.svc.Reject(ctx, stu, doc.ID, "nope")
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("other student cannot read", func(t *testing.T) {
		_, err := f.svc.Get(ctx, other, doc.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("other student cannot delete", func(t *testing.T) {
		err := f.svc.Delete(ctx, other, doc.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("owner can delete", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, stu, doc.ID))
		assert.Equal(t, 0, f.blobs.Len())
	})
}

// failingDocStore rejects every Create to exercise upload compensation.
type failingDocStore struct {
	*docstore.InMemory
}

func (f *failingDocStore) Create(context.Context, *document.Document) error {
	return errors.New("disk on fire")
}

func TestUpload_CleansUpBlobOnStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := blobmocks.NewMockStore(ctrl)
	docs := &failingDocStore{docstore.NewInMemory()}
	notifs := notifstore.NewInMemory()
	svc := NewService(docs, blobs, notifs, notification.NewDispatcher(nil),
		tx.NewMemoryRunner(), nil, nil, slog.Default())

	ctx := context.Background()
	in := validUpload()

	blobs.EXPECT().Save(gomock.Any(), in.Filename, in.Data).Return("handle-1", nil)
	blobs.EXPECT().Delete(gomock.Any(), "handle-1").Return(nil)

	_, err := svc.Upload(ctx, student(), in)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStorage))

	adminNotifs, err := notifs.ListAdmin(ctx, false, 10)
	require.NoError(t, err)
	assert.Empty(t, adminNotifs, "a failed upload must not notify")
}
