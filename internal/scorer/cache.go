package scorer

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type modelFile struct {
	Default string            `json:"default"`
	Models  map[string]*Model `json:"models"`
}

// Cache loads the model file lazily and keeps the parsed models in
// memory. Safe for concurrent use; Reload swaps the whole set at once.
type Cache struct {
	path string

	mu     sync.RWMutex
	loaded bool
	def    string
	models map[string]*Model
}

// NewCache creates a cache over the given model file path. The file is
// not read until the first lookup.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Loaded reports whether the model file has been read successfully.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Load reads and parses the model file if it has not been read yet.
func (c *Cache) Load() error {
	c.mu.RLock()
	ok := c.loaded
	c.mu.RUnlock()
	if ok {
		return nil
	}
	return c.Reload()
}

// Reload re-reads the model file, replacing all cached models.
func (c *Cache) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("scorer: read model file: %w", err)
	}
	var mf modelFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return fmt.Errorf("scorer: parse model file: %w", err)
	}
	if len(mf.Models) == 0 {
		return fmt.Errorf("scorer: model file %s has no models", c.path)
	}
	if mf.Default == "" || mf.Models[mf.Default] == nil {
		return fmt.Errorf("scorer: model file %s has no valid default model", c.path)
	}
	for name, m := range mf.Models {
		if m.Name == "" {
			m.Name = name
		}
		if len(m.Weights) == 0 {
			return fmt.Errorf("scorer: model %s has no weights", name)
		}
	}

	c.mu.Lock()
	c.def = mf.Default
	c.models = mf.Models
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Close drops the cached models. A later lookup reloads the file.
func (c *Cache) Close() {
	c.mu.Lock()
	c.loaded = false
	c.def = ""
	c.models = nil
	c.mu.Unlock()
}

// Model returns the named model, or the default when name is empty.
func (c *Cache) Model(name string) (*Model, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name == "" {
		name = c.def
	}
	m, ok := c.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m, nil
}

// Names lists the available model names, default first.
func (c *Cache) Names() ([]string, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []string{c.def}
	for name := range c.models {
		if name != c.def {
			out = append(out, name)
		}
	}
	return out, nil
}
