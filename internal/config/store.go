package config

import "sync"

// Store holds the live terrain settings. Every edit is clamped and bumps
// the version so consumers can tell when to rebuild.
type Store struct {
	mu      sync.RWMutex
	terrain Terrain
	version uint64
}

// NewStore returns a store seeded with t.
func NewStore(t Terrain) *Store {
	t.Clamp()
	return &Store{terrain: t.clone()}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Terrain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terrain.clone()
}

// Version returns the edit counter.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Update applies fn to the settings, clamps the result and returns the new version.
func (s *Store) Update(fn func(*Terrain)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.terrain.clone()
	fn(&t)
	t.Clamp()
	s.terrain = t
	s.version++
	return s.version
}

// GetSeed returns the noise seed
func (s *Store) GetSeed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terrain.Seed
}

// SetSeed sets the noise seed
func (s *Store) SetSeed(seed int64) {
	s.Update(func(t *Terrain) { t.Seed = seed })
}

// GetLevelOfDetail returns the mesh level of detail
func (s *Store) GetLevelOfDetail() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terrain.LevelOfDetail
}

// SetLevelOfDetail sets the mesh level of detail, clamped to the supported range
func (s *Store) SetLevelOfDetail(lod int) {
	s.Update(func(t *Terrain) { t.LevelOfDetail = lod })
}

// GetUseFalloff returns whether the island mask is applied
func (s *Store) GetUseFalloff() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terrain.UseFalloff
}

// SetUseFalloff toggles the island mask
func (s *Store) SetUseFalloff(enabled bool) {
	s.Update(func(t *Terrain) { t.UseFalloff = enabled })
}
