package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/sentinel/internal/domain/models"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func key(tenant, client string) models.ProfileKey {
	return models.ProfileKey{TenantID: tenant, ClientID: client}
}

func TestProfileStore_GetOrCreate(t *testing.T) {
	store := NewProfileStore(4)

	p, created := store.GetOrCreate(key("t1", "c1"), baseTime)
	require.NotNil(t, p)
	assert.True(t, created)
	assert.Equal(t, "t1", p.TenantID)
	assert.Equal(t, "c1", p.ClientID)
	assert.Equal(t, baseTime, p.FirstSeen)

	_, created = store.GetOrCreate(key("t1", "c1"), baseTime.Add(time.Minute))
	assert.False(t, created)
	assert.Equal(t, 1, store.Size())
}

func TestProfileStore_ConcurrentCreateSameKey(t *testing.T) {
	store := NewProfileStore(8)
	const workers = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, created := store.GetOrCreate(key("tenant", "client"), baseTime); created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Equal(t, 1, store.Size())
}

func TestProfileStore_UpsertIsAtomicPerKey(t *testing.T) {
	store := NewProfileStore(8)
	const workers = 50
	const perWorker = 40

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				store.Upsert(key("t", "c"), baseTime, func(p *models.ClientProfile, _ bool) {
					p.Touch(baseTime, 0.5)
				})
			}
		}()
	}
	wg.Wait()

	p, ok := store.Get(key("t", "c"))
	require.True(t, ok)
	assert.Equal(t, uint64(workers*perWorker), p.TotalEvents)
	assert.InDelta(t, 0.5, p.AverageConfidence, 1e-9)
}

func TestProfileStore_TenantsAreSeparateKeys(t *testing.T) {
	store := NewProfileStore(4)

	store.Upsert(key("t1", "shared"), baseTime, func(p *models.ClientProfile, _ bool) {
		p.RiskScore = 0.9
	})
	store.Upsert(key("t2", "shared"), baseTime, nil)

	p1, _ := store.Get(key("t1", "shared"))
	p2, _ := store.Get(key("t2", "shared"))
	assert.Equal(t, 0.9, p1.RiskScore)
	assert.Equal(t, 0.0, p2.RiskScore)
	assert.Equal(t, 2, store.Size())
}

func TestProfileStore_GetReturnsSnapshot(t *testing.T) {
	store := NewProfileStore(1)
	store.Upsert(key("t", "c"), baseTime, func(p *models.ClientProfile, _ bool) {
		p.MarkCompromised(baseTime)
	})

	snap, ok := store.Get(key("t", "c"))
	require.True(t, ok)
	snap.RiskScore = 0
	snap.IsCompromised = false
	*snap.CompromisedAt = time.Time{}

	again, _ := store.Get(key("t", "c"))
	assert.True(t, again.IsCompromised)
	assert.Equal(t, 1.0, again.RiskScore)
	assert.Equal(t, baseTime, *again.CompromisedAt)
}

func TestProfileStore_UpdateAndRemove(t *testing.T) {
	store := NewProfileStore(2)

	assert.False(t, store.Update(key("t", "missing"), func(p *models.ClientProfile) {}))
	assert.False(t, store.Remove(key("t", "missing")), "removing an absent key is a no-op")

	store.Upsert(key("t", "c"), baseTime, nil)
	assert.True(t, store.Update(key("t", "c"), func(p *models.ClientProfile) { p.RiskScore = 0.3 }))
	assert.True(t, store.Contains(key("t", "c")))

	assert.True(t, store.Remove(key("t", "c")))
	assert.False(t, store.Remove(key("t", "c")))
	assert.False(t, store.Contains(key("t", "c")))
	assert.Equal(t, 0, store.Size())
}

func TestProfileStore_EvictStale(t *testing.T) {
	store := NewProfileStore(4)
	window := time.Hour

	store.Upsert(key("t", "stale"), baseTime, nil)
	store.Upsert(key("t", "stale-compromised"), baseTime, func(p *models.ClientProfile, _ bool) {
		p.MarkCompromised(baseTime)
	})
	store.Upsert(key("t", "fresh"), baseTime.Add(90*time.Minute), nil)

	removed := store.EvictStale(baseTime.Add(2*time.Hour), window)

	assert.Equal(t, 1, removed)
	assert.False(t, store.Contains(key("t", "stale")))
	assert.True(t, store.Contains(key("t", "stale-compromised")), "compromised profiles survive eviction")
	assert.True(t, store.Contains(key("t", "fresh")))
	assert.Equal(t, 2, store.Size())
}

func TestProfileStore_ClearAll(t *testing.T) {
	store := NewProfileStore(4)
	for i := 0; i < 10; i++ {
		store.Upsert(key("t", fmt.Sprintf("c%d", i)), baseTime, nil)
	}
	store.Upsert(key("t", "bad"), baseTime, func(p *models.ClientProfile, _ bool) {
		p.MarkCompromised(baseTime)
	})

	assert.Equal(t, 11, store.ClearAll())
	assert.Equal(t, 0, store.Size())
	assert.Empty(t, store.Snapshot(nil))
}

func TestProfileStore_SnapshotFilter(t *testing.T) {
	store := NewProfileStore(4)
	store.Upsert(key("t1", "a"), baseTime, nil)
	store.Upsert(key("t1", "b"), baseTime, nil)
	store.Upsert(key("t2", "a"), baseTime, nil)

	t1 := store.Snapshot(func(p *models.ClientProfile) bool { return p.TenantID == "t1" })
	assert.Len(t, t1, 2)
	for _, p := range t1 {
		assert.Equal(t, "t1", p.TenantID)
	}
	assert.Len(t, store.Snapshot(nil), 3)
}

func TestProfileStore_EvictionRacesWithWriters(t *testing.T) {
	store := NewProfileStore(8)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				store.Upsert(key("t", fmt.Sprintf("w%d-%d", w, i%32)), baseTime, func(p *models.ClientProfile, _ bool) {
					p.Touch(baseTime, 1)
				})
			}
		}(w)
	}

	for i := 0; i < 50; i++ {
		store.EvictStale(baseTime.Add(time.Hour), time.Minute)
		store.ClearAll()
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, store.Size(), len(store.Snapshot(nil)))
	for _, p := range store.Snapshot(nil) {
		assert.GreaterOrEqual(t, p.TotalEvents, uint64(1))
	}
}
