package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"campusbourses/internal/application"
	"campusbourses/internal/platform/middleware"
	"campusbourses/internal/transport/http/shared"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// ApplicationService is the application state machine surface used by the
// transport layer.
type ApplicationService interface {
	Create(ctx context.Context, p domain.Principal, in application.CreateInput) (*application.Application, error)
	Get(ctx context.Context, p domain.Principal, id domain.ApplicationID) (*application.Application, error)
	ListMine(ctx context.Context, p domain.Principal) ([]*application.Application, error)
	ListAll(ctx context.Context, p domain.Principal) ([]*application.Application, error)
	Update(ctx context.Context, p domain.Principal, id domain.ApplicationID, in application.UpdateInput) (*application.Application, error)
	Submit(ctx context.Context, p domain.Principal, id domain.ApplicationID) (*application.Application, error)
	Decide(ctx context.Context, p domain.Principal, id domain.ApplicationID, d application.Decision) (*application.Application, error)
	Delete(ctx context.Context, p domain.Principal, id domain.ApplicationID) error
}

type applicationRequest struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount_requested"`
}

func (req applicationRequest) toCreateInput() (application.CreateInput, error) {
	category, err := domain.ParseScholarshipCategory(req.Category)
	if err != nil {
		return application.CreateInput{}, err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return application.CreateInput{}, dErrors.New(dErrors.CodeInvalidInput, "invalid amount")
	}
	return application.CreateInput{
		Category:    category,
		Title:       req.Title,
		Description: req.Description,
		Amount:      amount,
	}, nil
}

type decisionRequest struct {
	Status      string  `json:"status"`
	Notes       string  `json:"notes"`
	FinalAmount *string `json:"final_amount"`
}

type applicationResponse struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	Category        string     `json:"category"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	AmountRequested string     `json:"amount_requested"`
	Status          string     `json:"status"`
	DecisionNotes   string     `json:"decision_notes,omitempty"`
	FinalAmount     *string    `json:"final_amount,omitempty"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	CanBeEdited     bool       `json:"can_be_edited"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toApplicationResponse(app *application.Application) applicationResponse {
	resp := applicationResponse{
		ID:              app.ID.String(),
		StudentID:       app.StudentID.String(),
		Category:        app.Category.String(),
		Title:           app.Title,
		Description:     app.Description,
		AmountRequested: app.AmountRequested.String(),
		Status:          app.Status.String(),
		DecisionNotes:   app.DecisionNotes,
		SubmittedAt:     app.SubmittedAt,
		ReviewedAt:      app.ReviewedAt,
		DecidedAt:       app.DecidedAt,
		CanBeEdited:     app.CanBeEdited(),
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
	if app.FinalAmount != nil {
		s := app.FinalAmount.String()
		resp.FinalAmount = &s
	}
	if app.ReviewedBy != nil {
		s := app.ReviewedBy.String()
		resp.ReviewedBy = &s
	}
	return resp
}

func toApplicationResponses(apps []*application.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	return out
}

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req applicationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	in, err := req.toCreateInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	app, err := h.applications.Create(r.Context(), p, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	app, err := h.applications.Get(r.Context(), p, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	apps, err := h.applications.ListMine(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponses(apps))
}

func (h *Handler) handleListAllApplications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	apps, err := h.applications.ListAll(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponses(apps))
}

func (h *Handler) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req applicationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	in, err := req.toCreateInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	app, err := h.applications.Update(r.Context(), p, id, application.UpdateInput(in))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	app, err := h.applications.Submit(r.Context(), p, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleDecideApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req decisionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	status, err := domain.ParseApplicationStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	d := application.Decision{NewStatus: status, Notes: req.Notes}
	if req.FinalAmount != nil {
		amount, err := decimal.NewFromString(*req.FinalAmount)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid final amount"))
			return
		}
		d.FinalAmount = &amount
	}
	app, err := h.applications.Decide(r.Context(), p, id, d)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.applications.Delete(r.Context(), p, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// principal pulls the authenticated principal out of the context. RequireAuth
// guarantees it is there; a miss means the route is wired without auth.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.Principal{}, false
	}
	return p, true
}
