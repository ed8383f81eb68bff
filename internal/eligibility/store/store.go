package store

import (
	"context"
	"time"

	"campusbourses/internal/eligibility"
	"campusbourses/pkg/domain"
)

// Store is the rule catalogue persistence contract. Update bumps the version
// at the storage layer so concurrent editors never produce the same version
// twice.
type Store interface {
	Create(ctx context.Context, rule *eligibility.Rule) error
	FindByID(ctx context.Context, id domain.RuleID) (*eligibility.Rule, error)
	List(ctx context.Context, activeOnly bool) ([]*eligibility.Rule, error)
	Update(ctx context.Context, id domain.RuleID, in eligibility.RuleInput, at time.Time) (*eligibility.Rule, error)
	Delete(ctx context.Context, id domain.RuleID) error
}
