// Package assets resolves shader and texture files over a search path of
// file systems and caches their contents.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("asset not found")

type source struct {
	name string
	fsys fs.FS
}

// Manager loads files from a list of sources.
// Sources are searched in reverse order (last added = highest priority).
type Manager struct {
	sources []source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{cache: NewCache()}
}

// AddFS adds a file system under a descriptive name.
func (m *Manager) AddFS(name string, fsys fs.FS) {
	m.mu.Lock()
	m.sources = append(m.sources, source{name: name, fsys: fsys})
	m.mu.Unlock()
}

// AddDir adds a directory on disk.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset dir %s: not a directory", dir)
	}
	m.AddFS(dir, os.DirFS(dir))
	return nil
}

// Sources returns the source names in search order.
func (m *Manager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sources))
	for i := len(m.sources) - 1; i >= 0; i-- {
		names = append(names, m.sources[i].name)
	}
	return names
}

// Load returns the contents of name from the first source that has it.
func (m *Manager) Load(name string) ([]byte, error) {
	name = normalize(name)
	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(m.sources[i].fsys, name)
		if err == nil {
			m.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s from %s: %w", name, m.sources[i].name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Exists reports whether any source holds name.
func (m *Manager) Exists(name string) bool {
	name = normalize(name)
	if _, ok := m.cache.Peek(name); ok {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.sources) - 1; i >= 0; i-- {
		if _, err := fs.Stat(m.sources[i].fsys, name); err == nil {
			return true
		}
	}
	return false
}

// Invalidate drops cached contents of the given names, or of everything when
// called without arguments.
func (m *Manager) Invalidate(names ...string) {
	if len(names) == 0 {
		m.cache.Clear()
		return
	}
	for _, n := range names {
		m.cache.Delete(normalize(n))
	}
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache { return m.cache }

// Close drops every source and the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	m.sources = nil
	m.mu.Unlock()
	m.cache.Clear()
}

// normalize turns OS or backslash paths into fs.FS form.
func normalize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean(strings.TrimPrefix(name, "/"))
	return name
}

// Cache is an in-memory cache of file contents.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

// Get retrieves an entry and counts the hit or miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Peek retrieves an entry without touching the statistics.
func (c *Cache) Peek(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	return data, ok
}

// Set stores an entry.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear empties the cache and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
