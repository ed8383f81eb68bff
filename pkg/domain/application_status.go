package domain

import dErrors "campusbourses/pkg/domain-errors"

// ApplicationStatus is the workflow state of a scholarship application.
// Invariant: the value must be one of the supported statuses; illegal values
// are rejected at the type boundary, not by runtime string comparison.
type ApplicationStatus string

const (
	ApplicationStatusDraft       ApplicationStatus = "draft"
	ApplicationStatusSubmitted   ApplicationStatus = "submitted"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusNeedsInfo   ApplicationStatus = "needs_info"
)

var validApplicationStatuses = map[ApplicationStatus]bool{
	ApplicationStatusDraft:       true,
	ApplicationStatusSubmitted:   true,
	ApplicationStatusUnderReview: true,
	ApplicationStatusApproved:    true,
	ApplicationStatusRejected:    true,
	ApplicationStatusNeedsInfo:   true,
}

// applicationTransitions is the single source of truth for legal status moves.
// draft → submitted → under_review → {approved | rejected}, with needs_info
// reachable from submitted/under_review and returning to submitted.
var applicationTransitions = map[ApplicationStatus]map[ApplicationStatus]bool{
	ApplicationStatusDraft: {
		ApplicationStatusSubmitted: true,
	},
	ApplicationStatusSubmitted: {
		ApplicationStatusUnderReview: true,
		ApplicationStatusApproved:    true,
		ApplicationStatusRejected:    true,
		ApplicationStatusNeedsInfo:   true,
	},
	ApplicationStatusUnderReview: {
		ApplicationStatusApproved:  true,
		ApplicationStatusRejected:  true,
		ApplicationStatusNeedsInfo: true,
	},
	ApplicationStatusNeedsInfo: {
		ApplicationStatusSubmitted: true,
	},
}

// ParseApplicationStatus constructs a status from external input.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	if !validApplicationStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid application status")
	}
	return st, nil
}

func (s ApplicationStatus) IsValid() bool  { return validApplicationStatuses[s] }
func (s ApplicationStatus) String() string { return string(s) }

// CanBeEdited reports whether a student may still change the application.
func (s ApplicationStatus) CanBeEdited() bool {
	return s == ApplicationStatusDraft || s == ApplicationStatusNeedsInfo
}

// CanBeSubmitted reports whether submit is a legal move from this state.
func (s ApplicationStatus) CanBeSubmitted() bool {
	return s == ApplicationStatusDraft || s == ApplicationStatusNeedsInfo
}

// IsTerminal reports whether no further transitions are possible.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// IsDecision reports whether the status represents a final decision.
func (s ApplicationStatus) IsDecision() bool { return s.IsTerminal() }

// CanTransitionTo reports whether moving to target is legal. A same-state
// transition is always allowed and treated as a no-op by callers.
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	if s == target {
		return true
	}
	return applicationTransitions[s][target]
}
