package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campusbourses/internal/authz"
	"campusbourses/internal/notification"
	"campusbourses/internal/transport/http/shared"
	"campusbourses/pkg/domain"
)

// NotificationService is the read side of the notification sink used by the
// transport layer.
type NotificationService interface {
	StudentFeed(ctx context.Context, studentID domain.UserID) (*notification.StudentFeed, error)
	AdminFeed(ctx context.Context) (*notification.AdminFeed, error)
	MarkStudentRead(ctx context.Context, studentID domain.UserID, id domain.NotificationID) (*notification.StudentNotification, error)
	MarkAllStudentRead(ctx context.Context, studentID domain.UserID) (int, error)
	MarkAdminRead(ctx context.Context, id domain.NotificationID) (*notification.AdminNotification, error)
	Delete(ctx context.Context, studentID domain.UserID, id domain.NotificationID) error
	DeleteAll(ctx context.Context, studentID domain.UserID) (int, error)
}

type studentNotificationResponse struct {
	ID                 string     `json:"id"`
	Category           string     `json:"category"`
	Title              string     `json:"title"`
	Message            string     `json:"message"`
	RelatedDocument    *string    `json:"related_document,omitempty"`
	RelatedApplication *string    `json:"related_application,omitempty"`
	DocumentKind       string     `json:"document_kind,omitempty"`
	DocumentFilename   string     `json:"document_filename,omitempty"`
	Read               bool       `json:"read"`
	Important          bool       `json:"important"`
	CreatedAt          time.Time  `json:"created_at"`
	ReadAt             *time.Time `json:"read_at,omitempty"`
}

func toStudentNotificationResponse(n *notification.StudentNotification) studentNotificationResponse {
	resp := studentNotificationResponse{
		ID:               n.ID.String(),
		Category:         n.Category.String(),
		Title:            n.Title,
		Message:          n.Message,
		DocumentKind:     n.DocumentKind.String(),
		DocumentFilename: n.DocumentFilename,
		Read:             n.Read,
		Important:        n.Important,
		CreatedAt:        n.CreatedAt,
		ReadAt:           n.ReadAt,
	}
	if n.RelatedDocument != nil {
		s := n.RelatedDocument.String()
		resp.RelatedDocument = &s
	}
	if n.RelatedApplication != nil {
		s := n.RelatedApplication.String()
		resp.RelatedApplication = &s
	}
	return resp
}

type adminNotificationResponse struct {
	ID              string     `json:"id"`
	Category        string     `json:"category"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	RelatedDocument *string    `json:"related_document,omitempty"`
	RelatedUser     *string    `json:"related_user,omitempty"`
	Read            bool       `json:"read"`
	CreatedAt       time.Time  `json:"created_at"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
}

func toAdminNotificationResponse(n *notification.AdminNotification) adminNotificationResponse {
	resp := adminNotificationResponse{
		ID:        n.ID.String(),
		Category:  n.Category.String(),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
	if n.RelatedDocument != nil {
		s := n.RelatedDocument.String()
		resp.RelatedDocument = &s
	}
	if n.RelatedUser != nil {
		s := n.RelatedUser.String()
		resp.RelatedUser = &s
	}
	return resp
}

type studentFeedResponse struct {
	Unread         []studentNotificationResponse `json:"unread"`
	Recent         []studentNotificationResponse `json:"recent"`
	UnreadCount    int                           `json:"unread_count"`
	ImportantCount int                           `json:"important_count"`
}

type adminFeedResponse struct {
	Unread      []adminNotificationResponse `json:"unread"`
	Recent      []adminNotificationResponse `json:"recent"`
	UnreadCount int                         `json:"unread_count"`
}

func (h *Handler) handleStudentFeed(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	feed, err := h.notifications.StudentFeed(r.Context(), p.UserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resp := studentFeedResponse{
		Unread:         make([]studentNotificationResponse, 0, len(feed.Unread)),
		Recent:         make([]studentNotificationResponse, 0, len(feed.Recent)),
		UnreadCount:    feed.UnreadCount,
		ImportantCount: feed.ImportantCount,
	}
	for _, n := range feed.Unread {
		resp.Unread = append(resp.Unread, toStudentNotificationResponse(n))
	}
	for _, n := range feed.Recent {
		resp.Recent = append(resp.Recent, toStudentNotificationResponse(n))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminFeed(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := authz.Authorize(p, authz.OpAdminFeedView); err != nil {
		shared.WriteError(w, err)
		return
	}
	feed, err := h.notifications.AdminFeed(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resp := adminFeedResponse{
		Unread:      make([]adminNotificationResponse, 0, len(feed.Unread)),
		Recent:      make([]adminNotificationResponse, 0, len(feed.Recent)),
		UnreadCount: feed.UnreadCount,
	}
	for _, n := range feed.Unread {
		resp.Unread = append(resp.Unread, toAdminNotificationResponse(n))
	}
	for _, n := range feed.Recent {
		resp.Recent = append(resp.Recent, toAdminNotificationResponse(n))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if p.IsAdmin() {
		n, err := h.notifications.MarkAdminRead(r.Context(), id)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toAdminNotificationResponse(n))
		return
	}
	n, err := h.notifications.MarkStudentRead(r.Context(), p.UserID, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toStudentNotificationResponse(n))
}

func (h *Handler) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	count, err := h.notifications.MarkAllStudentRead(r.Context(), p.UserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"marked_read": count})
}

func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.notifications.Delete(r.Context(), p.UserID, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteAllNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	count, err := h.notifications.DeleteAll(r.Context(), p.UserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"deleted": count})
}
