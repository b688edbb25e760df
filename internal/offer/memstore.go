package offer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and for running the service
// without PostgreSQL. Records are deep-copied on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record), now: time.Now}
}

func (m *MemoryStore) List(_ context.Context, userID string, status Status) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range m.records {
		if r.UserID != userID || (status != "" && r.Status != status) {
			continue
		}
		c, err := copyRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) ListOpen(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range m.records {
		if IsTerminal(r.Status) {
			continue
		}
		c, err := copyRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, userID, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	return copyRecord(r)
}

func (m *MemoryStore) Create(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[r.ID]; exists {
		return fmt.Errorf("createOffer: duplicate id %s", r.ID)
	}
	now := m.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.History == nil {
		r.History = []HistoryEntry{}
	}
	c, err := copyRecord(r)
	if err != nil {
		return err
	}
	m.records[r.ID] = c
	return nil
}

func (m *MemoryStore) Update(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[r.ID]
	if !ok || cur.UserID != r.UserID {
		return ErrNotFound
	}
	c, err := copyRecord(r)
	if err != nil {
		return err
	}
	// Status and history are not user-editable. The evaluation is only ever
	// cleared here.
	c.Status, c.History, c.CreatedAt = cur.Status, cur.History, cur.CreatedAt
	if r.Evaluation != nil {
		c.Evaluation = cur.Evaluation
	}
	c.UpdatedAt = m.now().UTC()
	r.UpdatedAt = c.UpdatedAt
	m.records[r.ID] = c
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, userID, id string, entry HistoryEntry) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	if r.Status != entry.From {
		return nil, ErrConflict
	}
	r.Status = entry.To
	r.History = append(r.History, entry)
	r.UpdatedAt = m.now().UTC()
	return copyRecord(r)
}

func (m *MemoryStore) SaveEvaluation(_ context.Context, id string, e *Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	var c Evaluation
	if err := roundTrip(e, &c); err != nil {
		return err
	}
	r.Evaluation = &c
	r.UpdatedAt = m.now().UTC()
	return nil
}

// copyRecord goes through JSON, the same path a record takes through
// PostgreSQL, so callers see identical shapes from both stores.
func copyRecord(r *Record) (*Record, error) {
	var c Record
	if err := roundTrip(r, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func roundTrip(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("copy record: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("copy record: %w", err)
	}
	return nil
}
