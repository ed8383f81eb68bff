package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campusbourses/internal/authz"
	"campusbourses/internal/eligibility"
	"campusbourses/internal/eligibility/store"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/sentinel"
)

// Service manages the eligibility catalogue. The catalogue is passive: rules
// are stored and served, never evaluated against applications.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Create adds a rule at version 1.
func (s *Service) Create(ctx context.Context, p domain.Principal, in eligibility.RuleInput) (*eligibility.Rule, error) {
	if err := authz.Authorize(p, authz.OpRuleManage); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	rule := &eligibility.Rule{
		ID:          domain.NewRuleID(),
		Kind:        in.Kind,
		Name:        in.Name,
		Description: in.Description,
		Criteria:    in.Criteria,
		Active:      in.Active,
		Version:     1,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, rule); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to create rule")
	}
	s.logger.InfoContext(ctx, "eligibility rule created",
		"rule_id", rule.ID.String(), "kind", rule.Kind.String())
	return rule, nil
}

// Get returns one rule. Students only see active rules.
func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.RuleID) (*eligibility.Rule, error) {
	if err := authz.Authorize(p, authz.OpRuleView); err != nil {
		return nil, err
	}
	rule, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err)
	}
	if !rule.Active && !p.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	return rule, nil
}

// List returns the catalogue: active rules for students, everything for
// admins.
func (s *Service) List(ctx context.Context, p domain.Principal) ([]*eligibility.Rule, error) {
	if err := authz.Authorize(p, authz.OpRuleView); err != nil {
		return nil, err
	}
	rules, err := s.store.List(ctx, !p.IsAdmin())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list rules")
	}
	return rules, nil
}

// Update replaces the rule content and bumps its version.
func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.RuleID, in eligibility.RuleInput) (*eligibility.Rule, error) {
	if err := authz.Authorize(p, authz.OpRuleManage); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rule, err := s.store.Update(ctx, id, in, time.Now())
	if err != nil {
		return nil, s.translate(err)
	}
	s.logger.InfoContext(ctx, "eligibility rule updated",
		"rule_id", id.String(), "version", rule.Version)
	return rule, nil
}

// Delete removes a rule from the catalogue.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.RuleID) error {
	if err := authz.Authorize(p, authz.OpRuleManage); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.translate(err)
	}
	return nil
}

func (s *Service) translate(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	return dErrors.Wrap(err, dErrors.CodeStorage, "rule storage failure")
}
