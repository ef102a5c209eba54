// Package storage is the JSON key-value store the planner persists its records in.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Record keys.
const (
	KeyTasks          = "plannr_tasks"
	KeyUser           = "user"
	KeyLastStreakDate = "plannr_last_streak_date"
	KeyVersion        = "plannr_storage_version"
	KeyBotChat        = "plannr_bot_chat"
)

// CurrentVersion is the layout version of the stored records.
const CurrentVersion = "1.0"

// DefaultQuota matches the 5 MB most browsers grant local storage.
const DefaultQuota int64 = 5 * 1024 * 1024

// ErrQuotaExceeded is returned when a write would grow the store past its quota.
var ErrQuotaExceeded = errors.New("storage limit reached")

// Backend is the raw byte store under Store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	PutAll(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Size(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// Usage describes how much of the quota is in use.
type Usage struct {
	UsedKB     int64
	TotalKB    int64
	Percentage int
}

// Store serialises values as JSON into a Backend and enforces a size quota.
type Store struct {
	backend Backend
	quota   int64
	mu      sync.Mutex
}

// New wraps backend. A non-positive quota selects DefaultQuota.
func New(backend Backend, quota int64) *Store {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &Store{backend: backend, quota: quota}
}

// Init records the storage version, noting upgrades from older layouts.
func (s *Store) Init(ctx context.Context) error {
	version := Load(ctx, s, KeyVersion, "")
	switch version {
	case CurrentVersion:
		return nil
	case "":
	default:
		log.Printf("[info] storage version updated from %s to %s", version, CurrentVersion)
	}
	return s.Save(ctx, KeyVersion, CurrentVersion)
}

// Load reads key into a T. Absent, unreadable and corrupt records all yield def.
func Load[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		log.Printf("[warn] retrieve %s from storage: %v", key, err)
		return def
	}
	if !ok || len(raw) == 0 {
		return def
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Printf("[warn] decode %s from storage: %v", key, err)
		return def
	}
	return value
}

// Has reports whether a record exists for key.
func (s *Store) Has(ctx context.Context, key string) bool {
	raw, ok, err := s.backend.Get(ctx, key)
	return err == nil && ok && len(raw) > 0
}

// Save serialises value under key. Writes past the quota fail with ErrQuotaExceeded.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	return s.SaveAll(ctx, map[string]any{key: value})
}

// SaveAll serialises and writes every entry atomically.
func (s *Store) SaveAll(ctx context.Context, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		encoded[key] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkQuota(ctx, encoded); err != nil {
		return err
	}

	if len(encoded) == 1 {
		for key, raw := range encoded {
			return s.backend.Put(ctx, key, raw)
		}
	}
	return s.backend.PutAll(ctx, encoded)
}

func (s *Store) checkQuota(ctx context.Context, encoded map[string][]byte) error {
	used, err := s.backend.Size(ctx)
	if err != nil {
		return err
	}
	next := used
	for key, raw := range encoded {
		old, ok, err := s.backend.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			next -= int64(len(key) + len(old))
		}
		next += int64(len(key) + len(raw))
	}
	if next > s.quota {
		log.Printf("[warn] storage limit reached: %d of %d bytes", next, s.quota)
		return fmt.Errorf("save %d record(s): %w", len(encoded), ErrQuotaExceeded)
	}
	return nil
}

// Remove deletes key. Missing keys are ignored.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(ctx, key)
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Clear(ctx)
}

// Usage reports quota consumption, rounded to whole kilobytes.
func (s *Store) Usage(ctx context.Context) (Usage, error) {
	used, err := s.backend.Size(ctx)
	if err != nil {
		return Usage{}, err
	}
	usage := Usage{
		UsedKB:  (used + 512) / 1024,
		TotalKB: s.quota / 1024,
	}
	if usage.TotalKB > 0 {
		usage.Percentage = int(min(100, (usage.UsedKB*100+usage.TotalKB/2)/usage.TotalKB))
	}
	return usage, nil
}
