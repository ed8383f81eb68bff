package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusbourses/internal/eligibility"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
)

// InMemory keeps rules in process memory.
type InMemory struct {
	mu    sync.RWMutex
	rules map[domain.RuleID]*eligibility.Rule
}

func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[domain.RuleID]*eligibility.Rule)}
}

func (s *InMemory) Create(_ context.Context, rule *eligibility.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[rule.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := copyRule(rule)
	s.rules[rule.ID] = cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.RuleID) (*eligibility.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRule(rule), nil
}

func (s *InMemory) List(_ context.Context, activeOnly bool) ([]*eligibility.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*eligibility.Rule
	for _, rule := range s.rules {
		if activeOnly && !rule.Active {
			continue
		}
		out = append(out, copyRule(rule))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, id domain.RuleID, in eligibility.RuleInput, at time.Time) (*eligibility.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rule.Kind = in.Kind
	rule.Name = in.Name
	rule.Description = in.Description
	rule.Criteria = copyCriteria(in.Criteria)
	rule.Active = in.Active
	rule.Version++
	rule.UpdatedAt = at
	return copyRule(rule), nil
}

func (s *InMemory) Delete(_ context.Context, id domain.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func copyRule(r *eligibility.Rule) *eligibility.Rule {
	cp := *r
	cp.Criteria = copyCriteria(r.Criteria)
	return &cp
}

func copyCriteria(criteria map[string]string) map[string]string {
	if criteria == nil {
		return nil
	}
	cp := make(map[string]string, len(criteria))
	for k, v := range criteria {
		cp[k] = v
	}
	return cp
}
