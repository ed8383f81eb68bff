package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campusbourses/internal/eligibility"
	"campusbourses/internal/transport/http/shared"
	"campusbourses/pkg/domain"
)

// EligibilityService is the rule catalogue surface used by the transport
// layer.
type EligibilityService interface {
	Create(ctx context.Context, p domain.Principal, in eligibility.RuleInput) (*eligibility.Rule, error)
	Get(ctx context.Context, p domain.Principal, id domain.RuleID) (*eligibility.Rule, error)
	List(ctx context.Context, p domain.Principal) ([]*eligibility.Rule, error)
	Update(ctx context.Context, p domain.Principal, id domain.RuleID, in eligibility.RuleInput) (*eligibility.Rule, error)
	Delete(ctx context.Context, p domain.Principal, id domain.RuleID) error
}

type ruleRequest struct {
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Criteria    map[string]string `json:"criteria"`
	Active      bool              `json:"active"`
}

func (req ruleRequest) toInput() (eligibility.RuleInput, error) {
	kind, err := domain.ParseRuleKind(req.Kind)
	if err != nil {
		return eligibility.RuleInput{}, err
	}
	return eligibility.RuleInput{
		Kind:        kind,
		Name:        req.Name,
		Description: req.Description,
		Criteria:    req.Criteria,
		Active:      req.Active,
	}, nil
}

type ruleResponse struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Criteria    map[string]string `json:"criteria"`
	Active      bool              `json:"active"`
	Version     int               `json:"version"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toRuleResponse(rule *eligibility.Rule) ruleResponse {
	return ruleResponse{
		ID:          rule.ID.String(),
		Kind:        rule.Kind.String(),
		Name:        rule.Name,
		Description: rule.Description,
		Criteria:    rule.Criteria,
		Active:      rule.Active,
		Version:     rule.Version,
		CreatedBy:   rule.CreatedBy.String(),
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req ruleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rule, err := h.rules.Create(r.Context(), p, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseRuleID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rule, err := h.rules.Get(r.Context(), p, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	rules, err := h.rules.List(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseRuleID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req ruleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rule, err := h.rules.Update(r.Context(), p, id, in)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseRuleID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.rules.Delete(r.Context(), p, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
