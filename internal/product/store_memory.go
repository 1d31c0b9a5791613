package product

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore keeps products in process memory. Search is ASCII
// case-insensitive, matching SQLite's default LIKE.
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []Product
	now    func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{now: time.Now}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context, search string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(search)
	out := make([]Product, 0, len(s.rows))
	for _, p := range s.rows {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemStore) Insert(ctx context.Context, name string, price float64) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p := Product{
		ID:        s.nextID,
		Name:      name,
		Price:     price,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}
	s.rows = append(s.rows, p)
	return p, nil
}
