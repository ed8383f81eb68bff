package authz

import (
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// Operation names a capability a principal may or may not hold. Role checks
// happen once here, at the boundary, so the state machines themselves stay
// role-agnostic and testable without a fake session.
type Operation string

const (
	OpApplicationCreate Operation = "application.create"
	OpApplicationSubmit Operation = "application.submit"
	OpApplicationUpdate Operation = "application.update"
	OpApplicationDecide Operation = "application.decide"
	OpApplicationDelete Operation = "application.delete"
	OpApplicationList   Operation = "application.list_all"

	OpDocumentUpload Operation = "document.upload"
	OpDocumentVerify Operation = "document.verify"
	OpDocumentReject Operation = "document.reject"
	OpDocumentList   Operation = "document.list_all"

	OpRuleManage Operation = "rule.manage"
	OpRuleView   Operation = "rule.view"

	OpAccountList   Operation = "account.list"
	OpAccountDelete Operation = "account.delete"

	OpAdminFeedView Operation = "notification.admin_feed"
)

// capabilities is the single source of truth for role-gated operations.
var capabilities = map[Operation]map[domain.Role]bool{
	OpApplicationCreate: {domain.RoleStudent: true},
	OpApplicationSubmit: {domain.RoleStudent: true},
	OpApplicationUpdate: {domain.RoleStudent: true, domain.RoleAdmin: true},
	OpApplicationDecide: {domain.RoleAdmin: true},
	OpApplicationDelete: {domain.RoleStudent: true, domain.RoleAdmin: true},
	OpApplicationList:   {domain.RoleAdmin: true},

	OpDocumentUpload: {domain.RoleStudent: true},
	OpDocumentVerify: {domain.RoleAdmin: true},
	OpDocumentReject: {domain.RoleAdmin: true},
	OpDocumentList:   {domain.RoleAdmin: true},

	OpRuleManage: {domain.RoleAdmin: true},
	OpRuleView:   {domain.RoleStudent: true, domain.RoleAdmin: true},

	OpAccountList:   {domain.RoleAdmin: true},
	OpAccountDelete: {domain.RoleAdmin: true},

	OpAdminFeedView: {domain.RoleAdmin: true},
}

// Authorize checks whether the principal's role grants the operation.
func Authorize(p domain.Principal, op Operation) error {
	if capabilities[op][p.Role] {
		return nil
	}
	return dErrors.Newf(dErrors.CodePermissionDenied, "role %s may not perform %s", p.Role, op)
}

// RequireOwner enforces that the principal is the owner of a record.
func RequireOwner(p domain.Principal, owner domain.UserID) error {
	if p.UserID == owner {
		return nil
	}
	return dErrors.New(dErrors.CodePermissionDenied, "not the owner of this record")
}

// RequireOwnerOrAdmin allows the owner and any admin through.
func RequireOwnerOrAdmin(p domain.Principal, owner domain.UserID) error {
	if p.IsAdmin() || p.UserID == owner {
		return nil
	}
	return dErrors.New(dErrors.CodePermissionDenied, "not the owner of this record")
}
