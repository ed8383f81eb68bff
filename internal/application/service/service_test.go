package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbourses/internal/application"
	appstore "campusbourses/internal/application/store"
	"campusbourses/internal/notification"
	notifstore "campusbourses/internal/notification/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/tx"
)

type fixture struct {
	svc    *Service
	apps   *appstore.InMemory
	notifs *notifstore.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	apps := appstore.NewInMemory()
	notifs := notifstore.NewInMemory()
	svc := NewService(
		apps,
		notifs,
		notification.NewDispatcher(nil),
		tx.NewMemoryRunner(),
		nil,
		nil,
		slog.Default(),
	)
	return &fixture{svc: svc, apps: apps, notifs: notifs}
}

func student() domain.Principal {
	return domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleStudent}
}

func admin() domain.Principal {
	return domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleAdmin}
}

func validInput() application.CreateInput {
	return application.CreateInput{
		Category:    domain.ScholarshipMerit,
		Title:       "First year merit scholarship",
		Description: "Top decile of the cohort",
		Amount:      decimal.NewFromInt(2500),
	}
}

func (f *fixture) mustCreate(t *testing.T, p domain.Principal) *application.Application {
	t.Helper()
	app, err := f.svc.Create(context.Background(), p, validInput())
	require.NoError(t, err)
	return app
}

func TestLifecycle_DraftToApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()

	app := f.mustCreate(t, stu)
	assert.Equal(t, domain.ApplicationStatusDraft, app.Status)
	assert.Nil(t, app.SubmittedAt)

	submitted, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	adminNotifs, err := f.notifs.ListAdmin(ctx, false, 10)
	require.NoError(t, err)
	require.Len(t, adminNotifs, 1)
	assert.Equal(t, domain.AdminNotifApplicationSubmitted, adminNotifs[0].Category)

	reviewed, err := f.svc.Decide(ctx, adm, app.ID, application.Decision{
		NewStatus: domain.ApplicationStatusUnderReview,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusUnderReview, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Nil(t, reviewed.DecidedAt)

	final := decimal.NewFromInt(2000)
	approved, err := f.svc.Decide(ctx, adm, app.ID, application.Decision{
		NewStatus:   domain.ApplicationStatusApproved,
		Notes:       "complete file",
		FinalAmount: &final,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedAt)
	require.NotNil(t, approved.FinalAmount)
	assert.True(t, approved.FinalAmount.Equal(final))
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, adm.UserID, *approved.ReviewedBy)

	studentNotifs, err := f.notifs.ListStudent(ctx, stu.UserID, false, 10)
	require.NoError(t, err)
	require.Len(t, studentNotifs, 2)
	assert.Equal(t, domain.StudentNotifAppApproved, studentNotifs[0].Category)
	assert.True(t, studentNotifs[0].Important)
	assert.Equal(t, domain.StudentNotifAppUnderReview, studentNotifs[1].Category)
	assert.False(t, studentNotifs[1].Important)
}

func TestSubmit_TwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := student()
	app := f.mustCreate(t, stu)

	_, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, stu, app.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	adminNotifs, err := f.notifs.ListAdmin(ctx, false, 10)
	require.NoError(t, err)
	assert.Len(t, adminNotifs, 1, "failed submit must not notify")
}

func TestResubmit_KeepsOriginalSubmittedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()
	app := f.mustCreate(t, stu)

	first, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)
	firstSubmittedAt := *first.SubmittedAt

	_, err = f.svc.Decide(ctx, adm, app.ID, application.Decision{
		NewStatus: domain.ApplicationStatusNeedsInfo,
		Notes:     "missing transcript",
	})
	require.NoError(t, err)

	in := application.UpdateInput(validInput())
	in.Description = "Top decile of the cohort, transcript attached"
	_, err = f.svc.Update(ctx, stu, app.ID, in)
	require.NoError(t, err)

	second, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusSubmitted, second.Status)
	require.NotNil(t, second.SubmittedAt)
	assert.Equal(t, firstSubmittedAt, *second.SubmittedAt, "submitted_at is stamped once")
}

func TestDecide_SameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()
	app := f.mustCreate(t, stu)

	_, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, adm, app.ID, application.Decision{NewStatus: domain.ApplicationStatusUnderReview})
	require.NoError(t, err)

	before, err := f.notifs.ListStudent(ctx, stu.UserID, false, 10)
	require.NoError(t, err)

	again, err := f.svc.Decide(ctx, adm, app.ID, application.Decision{NewStatus: domain.ApplicationStatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusUnderReview, again.Status)

	after, err := f.notifs.ListStudent(ctx, stu.UserID, false, 10)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "a no-op decision must not notify")
}

func TestDecide_IllegalTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()
	app := f.mustCreate(t, stu)

	_, err := f.svc.Decide(ctx, adm, app.ID, application.Decision{NewStatus: domain.ApplicationStatusApproved})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestDecide_TerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm := student(), admin()
	app := f.mustCreate(t, stu)

	_, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, adm, app.ID, application.Decision{NewStatus: domain.ApplicationStatusRejected})
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, adm, app.ID, application.Decision{NewStatus: domain.ApplicationStatusApproved})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestUpdate_RejectedOnceSubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := student()
	app := f.mustCreate(t, stu)

	_, err := f.svc.Submit(ctx, stu, app.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, stu, app.ID, application.UpdateInput(validInput()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestAuthz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu, adm, other := student(), admin(), student()
	app := f.mustCreate(t, stu)

	t.Run("admin cannot create", func(t *testing.T) {
		_, err := f.svc.Create(ctx, adm, validInput())
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("student cannot decide", func(t *testing.T) {
		_, err := f.svc.Decide(ctx, stu, app.ID, application.Decision{NewStatus: domain.ApplicationStatusApproved})
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("other student cannot read", func(t *testing.T) {
		_, err := f.svc.Get(ctx, other, app.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	t.Run("other student cannot submit", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, other, app.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("admin can read any", func(t *testing.T) {
		got, err := f.svc.Get(ctx, adm, app.ID)
		require.NoError(t, err)
		assert.Equal(t, app.ID, got.ID)
	})

	t.Run("student cannot list all", func(t *testing.T) {
		_, err := f.svc.ListAll(ctx, stu)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := student()

	cases := []struct {
		name   string
		mutate func(*application.CreateInput)
	}{
		{"missing title", func(in *application.CreateInput) { in.Title = "" }},
		{"bad category", func(in *application.CreateInput) { in.Category = "lottery" }},
		{"zero amount", func(in *application.CreateInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *application.CreateInput) { in.Amount = decimal.NewFromInt(-50) }},
		{"over ceiling", func(in *application.CreateInput) { in.Amount = decimal.NewFromInt(100_001) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.svc.Create(ctx, stu, in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestDelete_DraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := student()

	draft := f.mustCreate(t, stu)
	require.NoError(t, f.svc.Delete(ctx, stu, draft.ID))
	_, err := f.svc.Get(ctx, stu, draft.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	kept := f.mustCreate(t, stu)
	_, err = f.svc.Submit(ctx, stu, kept.ID)
	require.NoError(t, err)
	err = f.svc.Delete(ctx, stu, kept.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestSubmit_ConcurrentCallersProduceOneNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stu := student()
	app := f.mustCreate(t, stu)

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(ctx, stu, app.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		}
	}
	assert.Equal(t, 1, successes, "exactly one submit wins")

	adminNotifs, err := f.notifs.ListAdmin(ctx, false, callers)
	require.NoError(t, err)
	assert.Len(t, adminNotifs, 1, "exactly one notification per transition")
}
