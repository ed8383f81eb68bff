package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbourses/internal/eligibility"
	"campusbourses/internal/eligibility/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewInMemory(), slog.Default())
}

func student() domain.Principal {
	return domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleStudent}
}

func admin() domain.Principal {
	return domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleAdmin}
}

func validRule() eligibility.RuleInput {
	return eligibility.RuleInput{
		Kind:        domain.RuleKindAcademic,
		Name:        "Minimum GPA",
		Description: "Minimum grade point average for merit awards",
		Criteria:    map[string]string{"min_gpa": "14.0", "scale": "20"},
		Active:      true,
	}
}

func TestCreateAndVersioning(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	adm := admin()

	rule, err := svc.Create(ctx, adm, validRule())
	require.NoError(t, err)
	assert.Equal(t, 1, rule.Version)
	assert.Equal(t, "14.0", rule.Criteria["min_gpa"])
	assert.Equal(t, adm.UserID, rule.CreatedBy)

	in := validRule()
	in.Criteria["min_gpa"] = "13.0"
	updated, err := svc.Update(ctx, admin(), rule.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "13.0", updated.Criteria["min_gpa"])
	assert.Equal(t, adm.UserID, updated.CreatedBy, "updates keep the original author")
}

func TestStudentsSeeActiveRulesOnly(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	adm, stu := admin(), student()

	active, err := svc.Create(ctx, adm, validRule())
	require.NoError(t, err)

	inactive := validRule()
	inactive.Name = "Retired household income cap"
	inactive.Active = false
	retired, err := svc.Create(ctx, adm, inactive)
	require.NoError(t, err)

	forStudent, err := svc.List(ctx, stu)
	require.NoError(t, err)
	require.Len(t, forStudent, 1)
	assert.Equal(t, active.ID, forStudent[0].ID)

	forAdmin, err := svc.List(ctx, adm)
	require.NoError(t, err)
	assert.Len(t, forAdmin, 2)

	_, err = svc.Get(ctx, stu, retired.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	got, err := svc.Get(ctx, adm, retired.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestOnlyAdminsManageRules(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	adm, stu := admin(), student()

	rule, err := svc.Create(ctx, adm, validRule())
	require.NoError(t, err)

	_, err = svc.Create(ctx, stu, validRule())
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	_, err = svc.Update(ctx, stu, rule.ID, validRule())
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	err = svc.Delete(ctx, stu, rule.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func TestValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	adm := admin()

	in := validRule()
	in.Name = ""
	_, err := svc.Create(ctx, adm, in)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	in = validRule()
	in.Kind = "astrological"
	_, err = svc.Create(ctx, adm, in)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	adm := admin()

	rule, err := svc.Create(ctx, adm, validRule())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, adm, rule.ID))
	err = svc.Delete(ctx, adm, rule.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
