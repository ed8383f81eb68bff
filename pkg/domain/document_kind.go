package domain

import dErrors "campusbourses/pkg/domain-errors"

// DocumentKind classifies an uploaded supporting document.
type DocumentKind string

const (
	DocumentKindIdentity  DocumentKind = "identity"
	DocumentKindAcademic  DocumentKind = "academic"
	DocumentKindFinancial DocumentKind = "financial"
	DocumentKindResidence DocumentKind = "residence"
	DocumentKindOther     DocumentKind = "other"
)

var validDocumentKinds = map[DocumentKind]bool{
	DocumentKindIdentity:  true,
	DocumentKindAcademic:  true,
	DocumentKindFinancial: true,
	DocumentKindResidence: true,
	DocumentKindOther:     true,
}

var documentKindLabels = map[DocumentKind]string{
	DocumentKindIdentity:  "identity document",
	DocumentKindAcademic:  "academic transcript",
	DocumentKindFinancial: "bank statement",
	DocumentKindResidence: "proof of residence",
	DocumentKindOther:     "other document",
}

// ParseDocumentKind constructs a DocumentKind from external input.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	if !validDocumentKinds[k] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid document kind")
	}
	return k, nil
}

func (k DocumentKind) IsValid() bool  { return validDocumentKinds[k] }
func (k DocumentKind) String() string { return string(k) }

// Label is the human-readable form used in notification messages.
func (k DocumentKind) Label() string {
	if l, ok := documentKindLabels[k]; ok {
		return l
	}
	return string(k)
}
