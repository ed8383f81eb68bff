package domain

import (
	"github.com/google/uuid"

	dErrors "campusbourses/pkg/domain-errors"
)

// Typed IDs keep entity references from being mixed up at compile time.
// Construct from external input via the Parse helpers; direct casting bypasses
// validation.

type UserID uuid.UUID

func NewUserID() UserID            { return UserID(uuid.New()) }
func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) UUID() uuid.UUID  { return uuid.UUID(id) }

func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid user ID")
	}
	return UserID(u), nil
}

type ApplicationID uuid.UUID

func NewApplicationID() ApplicationID    { return ApplicationID(uuid.New()) }
func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) UUID() uuid.UUID { return uuid.UUID(id) }

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ApplicationID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid application ID")
	}
	return ApplicationID(u), nil
}

type DocumentID uuid.UUID

func NewDocumentID() DocumentID       { return DocumentID(uuid.New()) }
func (id DocumentID) String() string  { return uuid.UUID(id).String() }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) UUID() uuid.UUID { return uuid.UUID(id) }

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid document ID")
	}
	return DocumentID(u), nil
}

type NotificationID uuid.UUID

func NewNotificationID() NotificationID   { return NotificationID(uuid.New()) }
func (id NotificationID) String() string  { return uuid.UUID(id).String() }
func (id NotificationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) UUID() uuid.UUID { return uuid.UUID(id) }

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NotificationID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid notification ID")
	}
	return NotificationID(u), nil
}

type RuleID uuid.UUID

func NewRuleID() RuleID           { return RuleID(uuid.New()) }
func (id RuleID) String() string  { return uuid.UUID(id).String() }
func (id RuleID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) UUID() uuid.UUID { return uuid.UUID(id) }

func ParseRuleID(s string) (RuleID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RuleID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid rule ID")
	}
	return RuleID(u), nil
}
