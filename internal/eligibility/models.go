package eligibility

import (
	"time"

	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// Rule is one entry in the eligibility catalogue. Criteria is an opaque
// key/value blob; the engine stores and serves it but never evaluates it.
type Rule struct {
	ID          domain.RuleID
	Kind        domain.RuleKind
	Name        string
	Description string
	Criteria    map[string]string

	Active  bool
	Version int

	// CreatedBy is a non-owning author reference; updates keep the original
	// author.
	CreatedBy domain.UserID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RuleInput carries admin-provided fields for a new or updated rule.
type RuleInput struct {
	Kind        domain.RuleKind
	Name        string
	Description string
	Criteria    map[string]string
	Active      bool
}

func (in RuleInput) Validate() error {
	if !in.Kind.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid rule kind")
	}
	if in.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if len(in.Name) > 200 {
		return dErrors.New(dErrors.CodeInvalidInput, "name must be at most 200 characters")
	}
	return nil
}
