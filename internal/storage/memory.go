package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"dataviews/internal/domain"
)

// MemoryStore is an in-process domain.RecordClient. Every call waits for the
// configured latency first, which makes it a stand-in for a remote backend in
// demos and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.Record // newest first
	latency time.Duration
	now     func() time.Time
}

var _ domain.RecordClient = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. Seed records are copied and kept
// in the given order.
func NewMemoryStore(latency time.Duration, seed ...domain.Record) *MemoryStore {
	return &MemoryStore{
		records: domain.CloneRecords(seed),
		latency: latency,
		now:     time.Now,
	}
}

// wait sleeps for the simulated latency or until ctx is done.
func (s *MemoryStore) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *MemoryStore) ListRecords(ctx context.Context) ([]domain.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneRecords(s.records), nil
}

func (s *MemoryStore) CreateRecord(ctx context.Context, fields domain.Fields) (*domain.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotPersisted, err)
	}
	if fields == nil {
		fields = domain.Fields{}
	}
	r := domain.Record{
		ID:        uuid.New().String(),
		Fields:    fields.Clone(),
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.records = slices.Insert(s.records, 0, r)
	s.mu.Unlock()

	out := r.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateRecord(ctx context.Context, id string, fields domain.Fields) (*domain.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotPersisted, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.records, func(r domain.Record) bool { return r.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	s.records[i].Fields = domain.Merge(s.records[i].Fields, fields)
	out := s.records[i].Clone()
	return &out, nil
}

func (s *MemoryStore) DeleteRecord(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = slices.DeleteFunc(s.records, func(r domain.Record) bool { return r.ID == id })
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
