package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/guestpost/guestpost/backend/go-services/internal/submission"
)

// MemoryRepo is an in-memory store used for tests and the "memory" driver.
// Ids are sequential decimal strings starting at 1.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int
	store  map[string]submission.Submission
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]submission.Submission), now: time.Now}
}

func (m *MemoryRepo) Create(ctx context.Context, s *submission.Submission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = strconv.Itoa(m.nextID)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	s.CreatedAt = submission.CreationTime(s.CreatedAt)
	m.store[s.ID] = *s
	return s.ID, nil
}

// Put stores s under its own id, replacing any existing record. Intended for
// seeding records that did not come through the public form.
func (m *MemoryRepo) Put(s submission.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = submission.CreationTime(s.CreatedAt)
	m.store[s.ID] = s
	if n, err := strconv.Atoi(s.ID); err == nil && n > m.nextID {
		m.nextID = n
	}
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*submission.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, submission.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryRepo) ListPending(ctx context.Context, limit int) ([]*submission.Submission, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*submission.Submission{}
	for _, s := range m.store {
		if s.Status == submission.StatusPending && s.IsGuest() {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			a, _ := strconv.Atoi(out[i].ID)
			b, _ := strconv.Atoi(out[j].ID)
			return a > b
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := int64(len(out))
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MemoryRepo) UpdateStatus(ctx context.Context, id string, status submission.Status) error {
	return m.update(id, func(s *submission.Submission) { s.Status = status })
}

func (m *MemoryRepo) Trash(ctx context.Context, id string) error {
	return m.update(id, func(s *submission.Submission) {
		if s.Status == submission.StatusTrashed {
			return
		}
		s.PreviousStatus = s.Status
		s.Status = submission.StatusTrashed
		s.TrashedAt = m.now().UTC()
	})
}

func (m *MemoryRepo) AttachFeaturedImage(ctx context.Context, id, ref string) error {
	return m.update(id, func(s *submission.Submission) { s.FeaturedImageRef = ref })
}

func (m *MemoryRepo) update(id string, fn func(*submission.Submission)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return submission.ErrNotFound
	}
	fn(&s)
	m.store[id] = s
	return nil
}
