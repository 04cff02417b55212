// Package markers holds the in-memory species to map-marker cache.
package markers

import (
	"sort"
	"strings"
	"sync"

	"github.com/marinedrive/phyto-backend/internal/models"
)

// Normalize canonicalizes a species name for lookups
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Genus returns the normalized first token of a scientific name
func Genus(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Store maps normalized species names to marker lists
type Store struct {
	mu      sync.RWMutex
	entries map[string][]models.Marker
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{entries: make(map[string][]models.Marker)}
}

// Set replaces the markers of a species
func (s *Store) Set(species string, markers []models.Marker) {
	cp := make([]models.Marker, len(markers))
	copy(cp, markers)

	s.mu.Lock()
	s.entries[Normalize(species)] = cp
	s.mu.Unlock()
}

// Add appends markers to a species without de-duplication
func (s *Store) Add(species string, markers []models.Marker) {
	key := Normalize(species)

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.entries[key]
	merged := make([]models.Marker, 0, len(prev)+len(markers))
	merged = append(merged, prev...)
	merged = append(merged, markers...)
	s.entries[key] = merged
}

// Get returns a copy of the markers of a species, empty when unknown
func (s *Store) Get(species string) []models.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prev := s.entries[Normalize(species)]
	out := make([]models.Marker, len(prev))
	copy(out, prev)
	return out
}

// Species lists the cached species keys in sorted order
func (s *Store) Species() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string][]models.Marker)
	s.mu.Unlock()
}
