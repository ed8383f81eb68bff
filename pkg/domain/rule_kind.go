package domain

import dErrors "campusbourses/pkg/domain-errors"

// RuleKind classifies an eligibility rule.
type RuleKind string

const (
	RuleKindAcademic       RuleKind = "academic"
	RuleKindFinancial      RuleKind = "financial"
	RuleKindAdministrative RuleKind = "administrative"
)

var validRuleKinds = map[RuleKind]bool{
	RuleKindAcademic:       true,
	RuleKindFinancial:      true,
	RuleKindAdministrative: true,
}

// ParseRuleKind constructs a RuleKind from external input.
func ParseRuleKind(s string) (RuleKind, error) {
	k := RuleKind(s)
	if !validRuleKinds[k] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid rule kind")
	}
	return k, nil
}

func (k RuleKind) IsValid() bool  { return validRuleKinds[k] }
func (k RuleKind) String() string { return string(k) }
