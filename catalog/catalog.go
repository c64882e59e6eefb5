// Package catalog holds the static drug reference data: the five drug
// categories, their entries in display order, and each entry's dosing rules.
// A Catalog is built once at start-up and never modified afterwards.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Catalog is the read-only drug reference table.
type Catalog struct {
	version string
	entries map[Category][]Entry
	byName  map[string]Entry
}

// document mirrors the YAML layout of a catalog file.
type document struct {
	Version    string             `yaml:"version"`
	Categories map[string][]Entry `yaml:"categories"`
}

// New builds a catalog from already decoded entries. Categories missing from
// the map are simply empty.
func New(entries map[Category][]Entry) *Catalog {
	c := &Catalog{
		entries: make(map[Category][]Entry, len(categoryOrder)),
		byName:  make(map[string]Entry),
	}
	for _, category := range categoryOrder {
		list := entries[category]
		copied := make([]Entry, len(list))
		for i := range list {
			copied[i] = list[i].clone()
			// first listing wins when a drug appears in two categories
			key := normalizeName(list[i].Name)
			if _, exists := c.byName[key]; !exists {
				c.byName[key] = copied[i]
			}
		}
		c.entries[category] = copied
	}
	return c
}

// Load decodes a YAML catalog. Unknown fields and unknown categories are
// rejected so typos in the data file fail loudly.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	entries := make(map[Category][]Entry, len(doc.Categories))
	for key, list := range doc.Categories {
		category := Category(key)
		if !category.Valid() {
			return nil, fmt.Errorf("unknown category %q in catalog", key)
		}
		entries[category] = list
	}

	c := New(entries)
	c.version = doc.Version
	return c, nil
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Load(bytes.NewReader(embeddedCatalog))
})

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// EntriesFor returns the entries of a category in display order. An unknown
// category yields an empty slice.
func (c *Catalog) EntriesFor(category Category) []Entry {
	if c == nil {
		return []Entry{}
	}
	list := c.entries[category]
	out := make([]Entry, len(list))
	for i := range list {
		out[i] = list[i].clone()
	}
	return out
}

// Find looks a drug up by name, ignoring case and accents.
func (c *Catalog) Find(name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.byName[normalizeName(name)]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// CategoryOf returns the category the named drug is listed under.
func (c *Catalog) CategoryOf(name string) (Category, bool) {
	if c == nil {
		return "", false
	}
	key := normalizeName(name)
	for _, category := range categoryOrder {
		for _, e := range c.entries[category] {
			if normalizeName(e.Name) == key {
				return category, true
			}
		}
	}
	return "", false
}

// Counts returns the number of entries per category.
func (c *Catalog) Counts() map[Category]int {
	counts := make(map[Category]int, len(categoryOrder))
	for _, category := range categoryOrder {
		if c != nil {
			counts[category] = len(c.entries[category])
		} else {
			counts[category] = 0
		}
	}
	return counts
}

// Len returns the total number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, list := range c.entries {
		total += len(list)
	}
	return total
}

// Version is the version string declared by the catalog file.
func (c *Catalog) Version() string {
	if c == nil {
		return ""
	}
	return c.version
}
