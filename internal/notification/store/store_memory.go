package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusbourses/internal/notification"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
)

// InMemory keeps notifications in process memory. Suitable for tests and
// local development; the postgres store is the durable implementation.
type InMemory struct {
	mu       sync.RWMutex
	students map[domain.NotificationID]*notification.StudentNotification
	admins   map[domain.NotificationID]*notification.AdminNotification
}

func NewInMemory() *InMemory {
	return &InMemory{
		students: make(map[domain.NotificationID]*notification.StudentNotification),
		admins:   make(map[domain.NotificationID]*notification.AdminNotification),
	}
}

func (s *InMemory) AppendStudent(_ context.Context, n *notification.StudentNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.students[n.ID] = &cp
	return nil
}

func (s *InMemory) AppendAdmin(_ context.Context, n *notification.AdminNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.admins[n.ID] = &cp
	return nil
}

func (s *InMemory) ListStudent(_ context.Context, studentID domain.UserID, onlyUnread bool, limit int) ([]*notification.StudentNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*notification.StudentNotification
	for _, n := range s.students {
		if n.StudentID != studentID {
			continue
		}
		if onlyUnread && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sortStudentNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) CountStudentUnread(_ context.Context, studentID domain.UserID) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, important int
	for _, n := range s.students {
		if n.StudentID != studentID || n.Read {
			continue
		}
		total++
		if n.Important {
			important++
		}
	}
	return total, important, nil
}

func (s *InMemory) MarkStudentRead(_ context.Context, id domain.NotificationID, studentID domain.UserID, readAt time.Time) (*notification.StudentNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.students[id]
	if !ok || n.StudentID != studentID {
		return nil, sentinel.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		t := readAt
		n.ReadAt = &t
	}
	cp := *n
	return &cp, nil
}

func (s *InMemory) MarkAllStudentRead(_ context.Context, studentID domain.UserID, readAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.students {
		if n.StudentID != studentID || n.Read {
			continue
		}
		n.Read = true
		t := readAt
		n.ReadAt = &t
		count++
	}
	return count, nil
}

func (s *InMemory) DeleteStudent(_ context.Context, id domain.NotificationID, studentID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.students[id]
	if !ok || n.StudentID != studentID {
		return sentinel.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

func (s *InMemory) DeleteAllStudent(_ context.Context, studentID domain.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, n := range s.students {
		if n.StudentID == studentID {
			delete(s.students, id)
			count++
		}
	}
	return count, nil
}

func (s *InMemory) ListAdmin(_ context.Context, onlyUnread bool, limit int) ([]*notification.AdminNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*notification.AdminNotification
	for _, n := range s.admins {
		if onlyUnread && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) CountAdminUnread(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.admins {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) MarkAdminRead(_ context.Context, id domain.NotificationID, readAt time.Time) (*notification.AdminNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.admins[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		t := readAt
		n.ReadAt = &t
	}
	cp := *n
	return &cp, nil
}

func sortStudentNewestFirst(ns []*notification.StudentNotification) {
	sort.Slice(ns, func(i, j int) bool { return ns[i].CreatedAt.After(ns[j].CreatedAt) })
}
