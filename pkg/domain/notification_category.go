package domain

import dErrors "campusbourses/pkg/domain-errors"

// StudentNotificationCategory classifies messages addressed to one student.
type StudentNotificationCategory string

const (
	StudentNotifDocumentVerified  StudentNotificationCategory = "document_verified"
	StudentNotifDocumentRejected  StudentNotificationCategory = "document_rejected"
	StudentNotifAppApproved       StudentNotificationCategory = "application_approved"
	StudentNotifAppRejected       StudentNotificationCategory = "application_rejected"
	StudentNotifAppUnderReview    StudentNotificationCategory = "application_under_review"
	StudentNotifInfoRequest       StudentNotificationCategory = "info_request"
	StudentNotifSystemAlert       StudentNotificationCategory = "system_alert"
	StudentNotifDeadlineReminder  StudentNotificationCategory = "deadline_reminder"
)

var validStudentNotificationCategories = map[StudentNotificationCategory]bool{
	StudentNotifDocumentVerified: true,
	StudentNotifDocumentRejected: true,
	StudentNotifAppApproved:      true,
	StudentNotifAppRejected:      true,
	StudentNotifAppUnderReview:   true,
	StudentNotifInfoRequest:      true,
	StudentNotifSystemAlert:      true,
	StudentNotifDeadlineReminder: true,
}

func ParseStudentNotificationCategory(s string) (StudentNotificationCategory, error) {
	c := StudentNotificationCategory(s)
	if !validStudentNotificationCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid student notification category")
	}
	return c, nil
}

func (c StudentNotificationCategory) IsValid() bool  { return validStudentNotificationCategories[c] }
func (c StudentNotificationCategory) String() string { return string(c) }

// StudentCategoryForDecision maps a reviewed application status onto the
// notification category that mirrors it.
func StudentCategoryForDecision(status ApplicationStatus) (StudentNotificationCategory, bool) {
	switch status {
	case ApplicationStatusApproved:
		return StudentNotifAppApproved, true
	case ApplicationStatusRejected:
		return StudentNotifAppRejected, true
	case ApplicationStatusUnderReview:
		return StudentNotifAppUnderReview, true
	case ApplicationStatusNeedsInfo:
		return StudentNotifInfoRequest, true
	default:
		return "", false
	}
}

// AdminNotificationCategory classifies messages addressed to the admin pool.
type AdminNotificationCategory string

const (
	AdminNotifDocumentUpload       AdminNotificationCategory = "document_upload"
	AdminNotifApplicationSubmitted AdminNotificationCategory = "application_submitted"
	AdminNotifUserRegistered       AdminNotificationCategory = "user_registered"
	AdminNotifSystemAlert          AdminNotificationCategory = "system_alert"
)

var validAdminNotificationCategories = map[AdminNotificationCategory]bool{
	AdminNotifDocumentUpload:       true,
	AdminNotifApplicationSubmitted: true,
	AdminNotifUserRegistered:       true,
	AdminNotifSystemAlert:          true,
}

func ParseAdminNotificationCategory(s string) (AdminNotificationCategory, error) {
	c := AdminNotificationCategory(s)
	if !validAdminNotificationCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid admin notification category")
	}
	return c, nil
}

func (c AdminNotificationCategory) IsValid() bool  { return validAdminNotificationCategories[c] }
func (c AdminNotificationCategory) String() string { return string(c) }
