package menu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is an ordered, id-indexed set of menu items.
type Catalog struct {
	items []Item
	byID  map[string]int
}

type catalogFile struct {
	Items []Record `yaml:"items"`
}

// NewCatalog builds a catalog. A later item with a duplicate id replaces the earlier one.
func NewCatalog(items ...Item) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(items))}
	for _, it := range items {
		if i, ok := c.byID[it.ID]; ok {
			c.items[i] = it
			continue
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// LoadCatalog reads a YAML menu file of the form `items: [...]`.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal menu: %w", err)
	}
	items := make([]Item, 0, len(f.Items))
	for i, r := range f.Items {
		it, err := Normalize(r)
		if err != nil {
			return nil, fmt.Errorf("menu item %d: %w", i, err)
		}
		items = append(items, it)
	}
	return NewCatalog(items...), nil
}

func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// All returns every item in file order.
func (c *Catalog) All() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Available returns the orderable items in file order.
func (c *Catalog) Available() []Item {
	var out []Item
	for _, it := range c.items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) Len() int { return len(c.items) }
