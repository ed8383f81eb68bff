package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusbourses/internal/document"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
)

// InMemory keeps documents in process memory, applying the same conditional
// verification guard the postgres store expresses in SQL.
type InMemory struct {
	mu   sync.RWMutex
	docs map[domain.DocumentID]*document.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[domain.DocumentID]*document.Document)}
}

func (s *InMemory) Create(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.DocumentID) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *InMemory) ListByStudent(_ context.Context, studentID domain.UserID) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*document.Document
	for _, doc := range s.docs {
		if doc.StudentID == studentID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListAll(_ context.Context, unverifiedOnly bool) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*document.Document
	for _, doc := range s.docs {
		if unverifiedOnly && doc.Verified {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) MarkVerified(_ context.Context, id domain.DocumentID, verifier domain.UserID, at time.Time) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if doc.Verified {
		return nil, sentinel.ErrInvalidState
	}
	doc.Verified = true
	v := verifier
	doc.VerifiedBy = &v
	t := at
	doc.VerifiedAt = &t
	cp := *doc
	return &cp, nil
}

func (s *InMemory) Delete(_ context.Context, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *InMemory) DeleteByStudent(_ context.Context, studentID domain.UserID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var handles []string
	for id, doc := range s.docs {
		if doc.StudentID == studentID {
			handles = append(handles, doc.BlobHandle)
			delete(s.docs, id)
		}
	}
	return handles, nil
}

func sortNewestFirst(docs []*document.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.After(docs[j].UploadedAt) })
}
