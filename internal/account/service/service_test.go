package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbourses/internal/account"
	accstore "campusbourses/internal/account/store"
	"campusbourses/internal/application"
	appservice "campusbourses/internal/application/service"
	appstore "campusbourses/internal/application/store"
	"campusbourses/internal/document"
	"campusbourses/internal/document/blob"
	docservice "campusbourses/internal/document/service"
	docstore "campusbourses/internal/document/store"
	"campusbourses/internal/jwttoken"
	"campusbourses/internal/notification"
	notifservice "campusbourses/internal/notification/service"
	notifstore "campusbourses/internal/notification/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/tx"
)

type fixture struct {
	accounts *Service
	apps     *appservice.Service
	docs     *docservice.Service
	notifs   *notifservice.Service
	blobs    *blob.Memory
	appStore *appstore.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.Default()
	dispatcher := notification.NewDispatcher(nil)
	runner := tx.NewMemoryRunner()
	notifSt := notifstore.NewInMemory()
	appSt := appstore.NewInMemory()
	docSt := docstore.NewInMemory()
	blobs := blob.NewMemory()

	apps := appservice.NewService(appSt, notifSt, dispatcher, runner, nil, nil, logger)
	docs := docservice.NewService(docSt, blobs, notifSt, dispatcher, runner, nil, nil, logger)
	notifs := notifservice.NewService(notifSt, logger)
	accounts := NewService(
		accstore.NewInMemory(),
		jwttoken.NewService("test-signing-key", "campusbourses"),
		notifSt,
		dispatcher,
		runner,
		nil,
		logger,
		apps,
		docs,
		notifs,
	)
	return &fixture{
		accounts: accounts,
		apps:     apps,
		docs:     docs,
		notifs:   notifs,
		blobs:    blobs,
		appStore: appSt,
	}
}

func registerInput(username string) account.RegisterInput {
	return account.RegisterInput{
		Username: username,
		Email:    username + "@univ.example",
		FullName: "Jean Test",
		Password: "correct horse battery",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.accounts.Register(ctx, registerInput("jdoe"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)

	feed, err := f.notifs.AdminFeed(ctx)
	require.NoError(t, err)
	require.Len(t, feed.Recent, 1)
	assert.Equal(t, domain.AdminNotifUserRegistered, feed.Recent[0].Category)

	session, err := f.accounts.Login(ctx, "jdoe", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.User.ID)

	_, err = f.accounts.Login(ctx, "jdoe", "wrong password")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = f.accounts.Login(ctx, "nobody", "correct horse battery")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, registerInput("jdoe"))
	require.NoError(t, err)

	_, err = f.accounts.Register(ctx, registerInput("jdoe"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := registerInput("jdoe")
	in.Email = "not-an-address"
	_, err := f.accounts.Register(ctx, in)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	in = registerInput("jdoe")
	in.Password = "short"
	_, err = f.accounts.Register(ctx, in)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDelete_CascadesOwnedRecordsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adm := domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleAdmin}

	user, err := f.accounts.Register(ctx, registerInput("jdoe"))
	require.NoError(t, err)
	stu := user.Principal()

	app, err := f.apps.Create(ctx, stu, application.CreateInput{
		Category: domain.ScholarshipMerit,
		Title:    "Merit award",
		Amount:   decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	_, err = f.apps.Submit(ctx, stu, app.ID)
	require.NoError(t, err)
	approved, err := f.apps.Decide(ctx, adm, app.ID, application.Decision{
		NewStatus: domain.ApplicationStatusApproved,
	})
	require.NoError(t, err)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, adm.UserID, *approved.ReviewedBy, "reviewer reference is non-owning")

	_, err = f.docs.Upload(ctx, stu, document.UploadInput{
		Kind:     domain.DocumentKindIdentity,
		Filename: "id.png",
		Data:     []byte("png bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.blobs.Len())

	require.NoError(t, f.accounts.Delete(ctx, adm, user.ID))

	_, err = f.accounts.Get(ctx, adm, user.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	apps, err := f.apps.ListAll(ctx, adm)
	require.NoError(t, err)
	assert.Empty(t, apps, "owned applications are gone")

	docs, err := f.docs.ListAll(ctx, adm, false)
	require.NoError(t, err)
	assert.Empty(t, docs, "owned documents are gone")
	assert.Equal(t, 0, f.blobs.Len(), "blobs are gone with their documents")

	feed, err := f.notifs.StudentFeed(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, feed.Recent, "the student's notifications are gone")

	adminFeed, err := f.notifs.AdminFeed(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, adminFeed.Recent, "admin pool records survive")
}

func TestDelete_SelfForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adm := domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleAdmin}

	err := f.accounts.Delete(ctx, adm, adm.UserID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func TestDelete_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	victim, err := f.accounts.Register(ctx, registerInput("jdoe"))
	require.NoError(t, err)
	other, err := f.accounts.Register(ctx, registerInput("msmith"))
	require.NoError(t, err)

	err = f.accounts.Delete(ctx, other.Principal(), victim.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
}
