package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusbourses/internal/application"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
)

// InMemory keeps applications in process memory. The transition methods apply
// the same conditional guards the postgres store expresses in SQL, under one
// lock, so the once-only invariants hold here too.
type InMemory struct {
	mu   sync.RWMutex
	apps map[domain.ApplicationID]*application.Application
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[domain.ApplicationID]*application.Application)}
}

func (s *InMemory) Create(_ context.Context, app *application.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ApplicationID) (*application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (s *InMemory) ListByStudent(_ context.Context, studentID domain.UserID) ([]*application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*application.Application
	for _, app := range s.apps {
		if app.StudentID == studentID {
			cp := *app
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*application.Application, 0, len(s.apps))
	for _, app := range s.apps {
		cp := *app
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) Update(_ context.Context, id domain.ApplicationID, in application.UpdateInput, at time.Time) (*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !app.Status.CanBeEdited() {
		return nil, sentinel.ErrInvalidState
	}
	app.Category = in.Category
	app.Title = in.Title
	app.Description = in.Description
	app.AmountRequested = in.Amount
	app.UpdatedAt = at
	cp := *app
	return &cp, nil
}

func (s *InMemory) MarkSubmitted(_ context.Context, id domain.ApplicationID, studentID domain.UserID, at time.Time) (*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok || app.StudentID != studentID {
		return nil, sentinel.ErrNotFound
	}
	if !app.Status.CanBeSubmitted() {
		return nil, sentinel.ErrInvalidState
	}
	app.Status = domain.ApplicationStatusSubmitted
	if app.SubmittedAt == nil {
		t := at
		app.SubmittedAt = &t
	}
	app.UpdatedAt = at
	cp := *app
	return &cp, nil
}

func (s *InMemory) ApplyDecision(_ context.Context, id domain.ApplicationID, reviewer domain.UserID, d application.Decision, at time.Time) (*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if app.Status == d.NewStatus {
		// Same-state transition: a no-op that re-stamps nothing.
		cp := *app
		return &cp, nil
	}
	if !app.Status.CanTransitionTo(d.NewStatus) {
		return nil, sentinel.ErrInvalidState
	}

	app.Status = d.NewStatus
	app.DecisionNotes = d.Notes
	if d.FinalAmount != nil {
		amount := *d.FinalAmount
		app.FinalAmount = &amount
	}
	rev := reviewer
	app.ReviewedBy = &rev
	if app.ReviewedAt == nil {
		t := at
		app.ReviewedAt = &t
	}
	if d.NewStatus.IsDecision() && app.DecidedAt == nil {
		t := at
		app.DecidedAt = &t
	}
	app.UpdatedAt = at
	cp := *app
	return &cp, nil
}

func (s *InMemory) DeleteDraft(_ context.Context, id domain.ApplicationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.Status != domain.ApplicationStatusDraft {
		return sentinel.ErrInvalidState
	}
	delete(s.apps, id)
	return nil
}

func (s *InMemory) DeleteByStudent(_ context.Context, studentID domain.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, app := range s.apps {
		if app.StudentID == studentID {
			delete(s.apps, id)
			count++
		}
	}
	return count, nil
}

func sortNewestFirst(apps []*application.Application) {
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
}
