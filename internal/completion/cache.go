// Package completion provides tab completion for restaurant, recipe and
// event IDs. It keeps a small file cache in the data directory so shell
// completions work offline and never wait on the API.
package completion

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/mzansiplatess/plates-cli/internal/statefile"
)

// Kind names a completable collection.
type Kind string

const (
	KindRestaurants Kind = "restaurants"
	KindRecipes     Kind = "recipes"
	KindEvents      Kind = "events"
)

// Kinds lists every cached collection in display order.
var Kinds = []Kind{KindRestaurants, KindRecipes, KindEvents}

// Entry is one completion candidate.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Cache is the on-disk completion document.
type Cache struct {
	Version   int                `json:"version"`
	Entries   map[Kind][]Entry   `json:"entries"`
	UpdatedAt map[Kind]time.Time `json:"updated_at"`
}

const (
	// CacheVersion is the current cache schema version.
	CacheVersion = 1

	// DefaultMaxAge is how long cached IDs count as fresh.
	DefaultMaxAge = 24 * time.Hour

	// CacheFileName is the cache file inside the data directory.
	CacheFileName = "completion.json"

	// maxEntries caps each collection so merges from searches cannot grow
	// the file without bound.
	maxEntries = 500
)

func newCache() Cache {
	return Cache{
		Version:   CacheVersion,
		Entries:   map[Kind][]Entry{},
		UpdatedAt: map[Kind]time.Time{},
	}
}

// Store reads and writes the completion cache.
type Store struct {
	file *statefile.File
	now  func() time.Time
}

// NewStore returns a store for the cache in dir.
func NewStore(dir string) *Store {
	return &Store{
		file: statefile.New(filepath.Join(dir, CacheFileName), statefile.JSON),
		now:  time.Now,
	}
}

// Path returns the cache file path.
func (s *Store) Path() string { return s.file.Path() }

// Load returns the cache. A missing file is an empty cache; a corrupt one
// is reported alongside an empty cache.
func (s *Store) Load() (Cache, error) {
	c, _, err := statefile.Load(s.file, newCache)
	normalize(&c)
	return c, err
}

// Replace sets the entries of kind, as after a full refresh.
func (s *Store) Replace(kind Kind, entries []Entry) error {
	_, err := statefile.Update(s.file, newCache, func(c *Cache) error {
		normalize(c)
		c.Entries[kind] = truncate(dedupe(entries))
		c.UpdatedAt[kind] = s.now()
		return nil
	})
	return err
}

// Merge adds or renames entries of kind, keeping the others. Filtered
// listings use this so a narrow search does not evict earlier IDs.
// The refresh time is left alone.
func (s *Store) Merge(kind Kind, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := statefile.Update(s.file, newCache, func(c *Cache) error {
		normalize(c)
		merged := append(slices.Clone(entries), c.Entries[kind]...)
		c.Entries[kind] = truncate(dedupe(merged))
		return nil
	})
	return err
}

// Entries returns the cached entries of kind, or nil if the cache cannot
// be read.
func (s *Store) Entries(kind Kind) []Entry {
	c, err := s.Load()
	if err != nil {
		return nil
	}
	return c.Entries[kind]
}

// IsStale reports whether kind was never refreshed or was refreshed more
// than maxAge ago.
func (s *Store) IsStale(kind Kind, maxAge time.Duration) bool {
	c, err := s.Load()
	if err != nil {
		return true
	}
	at, ok := c.UpdatedAt[kind]
	return !ok || s.now().Sub(at) > maxAge
}

// Clear removes the cache file.
func (s *Store) Clear() error {
	return s.file.Remove()
}

func normalize(c *Cache) {
	if c.Entries == nil {
		c.Entries = map[Kind][]Entry{}
	}
	if c.UpdatedAt == nil {
		c.UpdatedAt = map[Kind]time.Time{}
	}
	c.Version = CacheVersion
}

// dedupe keeps the first entry for each ID and drops blank IDs.
func dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func truncate(entries []Entry) []Entry {
	if len(entries) > maxEntries {
		return entries[:maxEntries]
	}
	return entries
}
