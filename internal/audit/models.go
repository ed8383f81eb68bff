package audit

import "time"

// Action names the transition that produced an audit event.
type Action string

const (
	ActionApplicationCreated   Action = "application_created"
	ActionApplicationSubmitted Action = "application_submitted"
	ActionApplicationDecided   Action = "application_decided"
	ActionApplicationDeleted   Action = "application_deleted"
	ActionDocumentUploaded     Action = "document_uploaded"
	ActionDocumentVerified     Action = "document_verified"
	ActionDocumentRejected     Action = "document_rejected"
	ActionDocumentDeleted      Action = "document_deleted"
	ActionUserRegistered       Action = "user_registered"
	ActionUserDeleted          Action = "user_deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    Action
	ActorID   string
	EntityID  string
	Detail    string
	RequestID string
	Timestamp time.Time
}
