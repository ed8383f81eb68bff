package domain

import dErrors "campusbourses/pkg/domain-errors"

// ScholarshipCategory is the kind of award an application asks for.
type ScholarshipCategory string

const (
	ScholarshipMerit         ScholarshipCategory = "merit"
	ScholarshipSocial        ScholarshipCategory = "social"
	ScholarshipExcellence    ScholarshipCategory = "excellence"
	ScholarshipSport         ScholarshipCategory = "sport"
	ScholarshipInternational ScholarshipCategory = "international"
	ScholarshipResearch      ScholarshipCategory = "research"
)

var validScholarshipCategories = map[ScholarshipCategory]bool{
	ScholarshipMerit:         true,
	ScholarshipSocial:        true,
	ScholarshipExcellence:    true,
	ScholarshipSport:         true,
	ScholarshipInternational: true,
	ScholarshipResearch:      true,
}

// ParseScholarshipCategory constructs a category from external input.
func ParseScholarshipCategory(s string) (ScholarshipCategory, error) {
	c := ScholarshipCategory(s)
	if !validScholarshipCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid scholarship category")
	}
	return c, nil
}

func (c ScholarshipCategory) IsValid() bool  { return validScholarshipCategories[c] }
func (c ScholarshipCategory) String() string { return string(c) }
