// Package memory provides the in-process ProfileStore.
package memory

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/domain/repository"
	"github.com/turtacn/sentinel/pkg/constants"
)

// ProfileStore is a sharded map of client profiles with per-key locking.
//
// Lock order is always shard -> entry. Writers release the shard lock before
// taking the entry lock, so a writer never holds an entry while waiting on a shard.
type ProfileStore struct {
	shards []*profileShard
	size   atomic.Int64
}

// profileShard guards the key -> entry map for a slice of the key space.
type profileShard struct {
	mu      sync.RWMutex
	entries map[models.ProfileKey]*profileEntry
}

// profileEntry wraps a profile with its own lock.
// removed is set under mu when the entry leaves the map; a writer that sees it
// retries the lookup instead of mutating a detached profile.
type profileEntry struct {
	mu      sync.Mutex
	profile *models.ClientProfile
	removed bool
}

// NewProfileStore creates a store with the given shard count.
// A non-positive count uses constants.DefaultProfileShards.
func NewProfileStore(shardCount int) *ProfileStore {
	if shardCount <= 0 {
		shardCount = constants.DefaultProfileShards
	}
	shards := make([]*profileShard, shardCount)
	for i := range shards {
		shards[i] = &profileShard{entries: make(map[models.ProfileKey]*profileEntry)}
	}
	return &ProfileStore{shards: shards}
}

func (s *ProfileStore) shardFor(key models.ProfileKey) *profileShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.TenantID))
	_, _ = h.Write([]byte(constants.ProfileKeySeparator))
	_, _ = h.Write([]byte(key.ClientID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// acquire gets an existing entry or inserts a new one.
func (s *ProfileStore) acquire(key models.ProfileKey, now time.Time) (*profileEntry, bool) {
	shard := s.shardFor(key)

	// Try read lock first for performance
	shard.mu.RLock()
	if entry, exists := shard.entries[key]; exists {
		shard.mu.RUnlock()
		return entry, false
	}
	shard.mu.RUnlock()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists := shard.entries[key]; exists {
		return entry, false
	}

	entry := &profileEntry{profile: models.NewClientProfile(key, now)}
	shard.entries[key] = entry
	s.size.Add(1)
	return entry, true
}

// lookup returns the entry for key without creating it.
func (s *ProfileStore) lookup(key models.ProfileKey) (*profileEntry, bool) {
	shard := s.shardFor(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	entry, ok := shard.entries[key]
	return entry, ok
}

// Upsert gets or creates the profile for key and mutates it under the entry lock.
func (s *ProfileStore) Upsert(key models.ProfileKey, now time.Time, fn repository.MutateFunc) bool {
	for {
		entry, created := s.acquire(key, now)
		entry.mu.Lock()
		if entry.removed {
			entry.mu.Unlock()
			continue
		}
		if fn != nil {
			fn(entry.profile, created)
		}
		entry.mu.Unlock()
		return created
	}
}

// GetOrCreate returns a snapshot of the profile, creating it if absent.
func (s *ProfileStore) GetOrCreate(key models.ProfileKey, now time.Time) (*models.ClientProfile, bool) {
	var snapshot *models.ClientProfile
	created := s.Upsert(key, now, func(p *models.ClientProfile, _ bool) {
		snapshot = p.Clone()
	})
	return snapshot, created
}

// Update mutates an existing profile. It returns false when key is absent.
func (s *ProfileStore) Update(key models.ProfileKey, fn func(p *models.ClientProfile)) bool {
	entry, ok := s.lookup(key)
	if !ok {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return false
	}
	fn(entry.profile)
	return true
}

// Get returns a snapshot of the profile for key.
func (s *ProfileStore) Get(key models.ProfileKey) (*models.ClientProfile, bool) {
	entry, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return nil, false
	}
	return entry.profile.Clone(), true
}

// Contains reports whether key is present.
func (s *ProfileStore) Contains(key models.ProfileKey) bool {
	_, ok := s.lookup(key)
	return ok
}

// Remove deletes key from the store.
func (s *ProfileStore) Remove(key models.ProfileKey) bool {
	shard := s.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[key]
	if !ok {
		return false
	}
	entry.mu.Lock()
	entry.removed = true
	entry.mu.Unlock()
	delete(shard.entries, key)
	s.size.Add(-1)
	return true
}

// Size returns the number of profiles in the store.
func (s *ProfileStore) Size() int {
	return int(s.size.Load())
}

// EvictStale removes idle, non-compromised profiles. Cost is O(n).
func (s *ProfileStore) EvictStale(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	removed := 0

	for _, shard := range s.shards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			entry.mu.Lock()
			if !entry.profile.IsCompromised && entry.profile.LastSeen.Before(cutoff) {
				entry.removed = true
				delete(shard.entries, key)
				removed++
			}
			entry.mu.Unlock()
		}
		shard.mu.Unlock()
	}

	s.size.Add(int64(-removed))
	return removed
}

// ClearAll removes every profile from the store.
func (s *ProfileStore) ClearAll() int {
	removed := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		for _, entry := range shard.entries {
			entry.mu.Lock()
			entry.removed = true
			entry.mu.Unlock()
		}
		removed += len(shard.entries)
		shard.entries = make(map[models.ProfileKey]*profileEntry)
		shard.mu.Unlock()
	}
	s.size.Add(int64(-removed))
	return removed
}

// Snapshot returns copies of the profiles accepted by filter.
func (s *ProfileStore) Snapshot(filter func(p *models.ClientProfile) bool) []*models.ClientProfile {
	out := make([]*models.ClientProfile, 0, s.Size())
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, entry := range shard.entries {
			entry.mu.Lock()
			if !entry.removed && (filter == nil || filter(entry.profile)) {
				out = append(out, entry.profile.Clone())
			}
			entry.mu.Unlock()
		}
		shard.mu.RUnlock()
	}
	return out
}

var _ repository.ProfileStore = (*ProfileStore)(nil)
