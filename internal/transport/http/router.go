// Package httptransport is the thin HTTP layer: it decodes requests,
// delegates to domain services, and encodes responses. No business logic
// lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusbourses/internal/auth/revocation"
	"campusbourses/internal/platform/metrics"
	"campusbourses/internal/platform/middleware"
)

// Handler holds every service the routes delegate to.
type Handler struct {
	logger        *slog.Logger
	applications  ApplicationService
	documents     DocumentService
	notifications NotificationService
	rules         EligibilityService
	accounts      AccountService
	revocations   revocation.List
	tokenTTL      time.Duration
}

// Config wires the handler. Revocations may be nil, which disables logout.
type Config struct {
	Logger        *slog.Logger
	Applications  ApplicationService
	Documents     DocumentService
	Notifications NotificationService
	Rules         EligibilityService
	Accounts      AccountService
	Revocations   revocation.List
	TokenTTL      time.Duration
}

func NewHandler(cfg Config) *Handler {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Handler{
		logger:        cfg.Logger,
		applications:  cfg.Applications,
		documents:     cfg.Documents,
		notifications: cfg.Notifications,
		rules:         cfg.Rules,
		accounts:      cfg.Accounts,
		revocations:   cfg.Revocations,
		tokenTTL:      ttl,
	}
}

// NewRouter builds the full route tree with the standard middleware chain.
func NewRouter(
	h *Handler,
	validator middleware.JWTValidator,
	checker middleware.RevocationChecker,
	m *metrics.Metrics,
	requestTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, checker, h.logger))

		r.Post("/auth/logout", h.handleLogout)

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", h.handleCreateApplication)
			r.Get("/", h.handleListMyApplications)
			r.Get("/all", h.handleListAllApplications)
			r.Get("/{id}", h.handleGetApplication)
			r.Put("/{id}", h.handleUpdateApplication)
			r.Post("/{id}/submit", h.handleSubmitApplication)
			r.Post("/{id}/decision", h.handleDecideApplication)
			r.Delete("/{id}", h.handleDeleteApplication)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", h.handleUploadDocument)
			r.Get("/", h.handleListMyDocuments)
			r.Get("/all", h.handleListAllDocuments)
			r.Get("/{id}", h.handleGetDocument)
			r.Post("/{id}/verify", h.handleVerifyDocument)
			r.Post("/{id}/reject", h.handleRejectDocument)
			r.Delete("/{id}", h.handleDeleteDocument)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.handleStudentFeed)
			r.Get("/admin", h.handleAdminFeed)
			r.Post("/{id}/read", h.handleMarkNotificationRead)
			r.Post("/read-all", h.handleMarkAllNotificationsRead)
			r.Delete("/{id}", h.handleDeleteNotification)
			r.Delete("/", h.handleDeleteAllNotifications)
		})

		r.Route("/eligibility-rules", func(r chi.Router) {
			r.Get("/", h.handleListRules)
			r.Post("/", h.handleCreateRule)
			r.Get("/{id}", h.handleGetRule)
			r.Put("/{id}", h.handleUpdateRule)
			r.Delete("/{id}", h.handleDeleteRule)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.handleListUsers)
			r.Get("/{id}", h.handleGetUser)
			r.Delete("/{id}", h.handleDeleteUser)
		})
	})

	return r
}
