package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Polqt/hieraengine/internal/herrors"
)

type compositeKey struct {
	levelID    string
	expandedID string
	keyID      string
}

// MemoryLevelDataStore is an in-process map-backed LevelDataStore, used by
// engine and admin unit tests so ordering/validation logic can be exercised
// without a live MongoDB. It enforces the same composite-key uniqueness
// and priority ordering as the Mongo-backed adapter; unlike that adapter's
// unique index on id, it does not check that surrogate IDs are unique.
type MemoryLevelDataStore struct {
	mu   sync.Mutex
	rows map[compositeKey]LevelData
}

// NewMemoryLevelDataStore returns an empty in-memory store.
func NewMemoryLevelDataStore() *MemoryLevelDataStore {
	return &MemoryLevelDataStore{rows: make(map[compositeKey]LevelData)}
}

func (s *MemoryLevelDataStore) Create(_ context.Context, ld LevelData) (LevelData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey{ld.LevelID, ld.ExpandedID, ld.KeyID}
	if _, exists := s.rows[key]; exists {
		return LevelData{}, herrors.Newf(herrors.Duplicate,
			"level data (%s,%s,%s) already exists", ld.LevelID, ld.ExpandedID, ld.KeyID)
	}
	if ld.ID == "" {
		ld.ID = uuid.NewString()
	}
	if ld.CreatedAt.IsZero() {
		ld.CreatedAt = time.Now()
	}
	ld.Facts = cloneFacts(ld.Facts)
	s.rows[key] = ld
	return ld, nil
}

func (s *MemoryLevelDataStore) Get(_ context.Context, levelID, expandedID, keyID string) (LevelData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[compositeKey{levelID, expandedID, keyID}]
	if !ok {
		return LevelData{}, herrors.Newf(herrors.NotFound, "level data (%s,%s,%s) not found", levelID, expandedID, keyID)
	}
	return row, nil
}

func (s *MemoryLevelDataStore) Update(_ context.Context, levelID, expandedID, keyID string, data any) (LevelData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey{levelID, expandedID, keyID}
	row, ok := s.rows[key]
	if !ok {
		return LevelData{}, herrors.Newf(herrors.NotFound, "level data (%s,%s,%s) not found", levelID, expandedID, keyID)
	}
	row.Data = data
	s.rows[key] = row
	return row, nil
}

func (s *MemoryLevelDataStore) Delete(_ context.Context, levelID, expandedID, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey{levelID, expandedID, keyID}
	if _, ok := s.rows[key]; !ok {
		return herrors.Newf(herrors.NotFound, "level data (%s,%s,%s) not found", levelID, expandedID, keyID)
	}
	delete(s.rows, key)
	return nil
}

func (s *MemoryLevelDataStore) SearchByKey(_ context.Context, keyID string, expandedIDs []string) ([]LevelData, error) {
	wanted := make(map[string]bool, len(expandedIDs))
	for _, id := range expandedIDs {
		wanted[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LevelData
	for _, row := range s.rows {
		if row.KeyID == keyID && wanted[row.ExpandedID] {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (s *MemoryLevelDataStore) AllForKey(_ context.Context, keyID string) ([]LevelData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LevelData
	for _, row := range s.rows {
		if row.KeyID == keyID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (s *MemoryLevelDataStore) UpdatePriorityByLevel(_ context.Context, levelID string, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, row := range s.rows {
		if row.LevelID == levelID {
			row.Priority = priority
			s.rows[key] = row
		}
	}
	return nil
}

func (s *MemoryLevelDataStore) DeleteAllForLevel(_ context.Context, levelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, row := range s.rows {
		if row.LevelID == levelID {
			delete(s.rows, key)
		}
	}
	return nil
}

func (s *MemoryLevelDataStore) DeleteAllForKey(_ context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, row := range s.rows {
		if row.KeyID == keyID {
			delete(s.rows, key)
		}
	}
	return nil
}

func cloneFacts(facts map[string]string) map[string]string {
	out := make(map[string]string, len(facts))
	for k, v := range facts {
		out[k] = v
	}
	return out
}
