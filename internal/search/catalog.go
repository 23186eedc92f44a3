package search

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed topics.toml
var defaultCatalog []byte

// Category groups related topics.
type Category struct {
	Name   string   `toml:"name"`
	Topics []string `toml:"topics"`
}

// Catalog is the static list of searchable topics.
type Catalog struct {
	Categories []Category `toml:"category"`
}

// Topic is one catalog entry with every category it belongs to.
type Topic struct {
	Name       string
	Categories []string
}

// DefaultCatalog parses the built-in topic list.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing topic catalog: %w", err)
	}
	return &c, nil
}

// Topics returns every distinct topic sorted by name. Topics listed under
// several categories are merged.
func (c *Catalog) Topics() []Topic {
	byName := make(map[string]*Topic)
	var order []string
	for _, cat := range c.Categories {
		for _, name := range cat.Topics {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			t, ok := byName[name]
			if !ok {
				t = &Topic{Name: name}
				byName[name] = t
				order = append(order, name)
			}
			t.Categories = append(t.Categories, cat.Name)
		}
	}
	sort.Strings(order)

	out := make([]Topic, len(order))
	for i, name := range order {
		out[i] = *byName[name]
	}
	return out
}

// Names returns the sorted topic names.
func (c *Catalog) Names() []string {
	topics := c.Topics()
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Name
	}
	return out
}
