package repository

import (
	"time"

	"github.com/turtacn/sentinel/internal/domain/models"
)

// MutateFunc mutates a profile while the store holds exclusive access to its key.
// created is true when the profile was inserted by this call.
type MutateFunc func(p *models.ClientProfile, created bool)

// ProfileStore owns every ClientProfile. Profiles never leave the store by pointer;
// readers get clones and writers mutate inside a MutateFunc.
// Operations on different keys do not block each other.
type ProfileStore interface {
	// Upsert gets or creates the profile for key and runs fn under exclusive
	// per-key access. At most one profile is ever created per key.
	Upsert(key models.ProfileKey, now time.Time, fn MutateFunc) (created bool)

	// GetOrCreate returns a snapshot of the profile for key, creating it if absent.
	GetOrCreate(key models.ProfileKey, now time.Time) (*models.ClientProfile, bool)

	// Update runs fn on an existing profile. It returns false if key is absent.
	Update(key models.ProfileKey, fn func(p *models.ClientProfile)) bool

	// Get returns a snapshot of the profile for key.
	Get(key models.ProfileKey) (*models.ClientProfile, bool)

	// Contains reports whether key is present.
	Contains(key models.ProfileKey) bool

	// Remove deletes key. Removing an absent key is not an error; the result
	// reports whether an entry was removed.
	Remove(key models.ProfileKey) bool

	// Size returns the current entry count.
	Size() int

	// EvictStale removes every non-compromised profile whose LastSeen is
	// older than now-window and returns how many were removed.
	EvictStale(now time.Time, window time.Duration) int

	// ClearAll removes every profile, compromised or not.
	ClearAll() int

	// Snapshot returns copies of every profile accepted by filter (nil accepts all).
	Snapshot(filter func(p *models.ClientProfile) bool) []*models.ClientProfile
}
