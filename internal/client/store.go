package client

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Filter is the client-side view filter. A nil MinPrice means 0 and a nil MaxPrice means unbounded.
type Filter struct {
	Search   string
	Category string
	MinPrice *int
	MaxPrice *int
}

// Store holds the last synced listings and the favourite ids. Favourites are kept
// across syncs even when the listing is no longer in the feed.
type Store struct {
	mu        sync.RWMutex
	listings  []Listing
	favorites map[uint]struct{}
}

func NewStore() *Store {
	return &Store{favorites: make(map[uint]struct{})}
}

// Sync replaces the cached listings with a server snapshot.
func (s *Store) Sync(listings []Listing) {
	cp := make([]Listing, len(listings))
	copy(cp, listings)

	s.mu.Lock()
	s.listings = cp
	s.mu.Unlock()
}

func (s *Store) Listings() []Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// ToggleFavorite flips the favourite flag and reports the new state.
func (s *Store) ToggleFavorite(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[id]; ok {
		delete(s.favorites, id)
		return false
	}
	s.favorites[id] = struct{}{}
	return true
}

func (s *Store) IsFavorite(id uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[id]
	return ok
}

// Favorites returns the favourite listings present in the current snapshot, in feed order.
func (s *Store) Favorites() []Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listing, 0, len(s.favorites))
	for _, l := range s.listings {
		if _, ok := s.favorites[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// ApplyFilters narrows the snapshot the same way the feed endpoint does.
func (s *Store) ApplyFilters(f Filter) []Listing {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)
	minPrice := 0
	if f.MinPrice != nil {
		minPrice = *f.MinPrice
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Title), search) &&
			!strings.Contains(strings.ToLower(l.Description), search) {
			continue
		}
		if category != "" && l.Category != category {
			continue
		}
		if l.Price < minPrice {
			continue
		}
		if f.MaxPrice != nil && l.Price > *f.MaxPrice {
			continue
		}
		out = append(out, l)
	}
	return out
}

type favoritesFile struct {
	Favorites []uint `json:"favorites"`
}

func (s *Store) SaveFavorites(w io.Writer) error {
	s.mu.RLock()
	ids := make([]uint, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := json.NewEncoder(w).Encode(favoritesFile{Favorites: ids}); err != nil {
		return fmt.Errorf("encode favorites failed: %w", err)
	}
	return nil
}

// LoadFavorites replaces the favourite set with the saved one.
func (s *Store) LoadFavorites(r io.Reader) error {
	var file favoritesFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return fmt.Errorf("decode favorites failed: %w", err)
	}

	favorites := make(map[uint]struct{}, len(file.Favorites))
	for _, id := range file.Favorites {
		favorites[id] = struct{}{}
	}
	s.mu.Lock()
	s.favorites = favorites
	s.mu.Unlock()
	return nil
}
