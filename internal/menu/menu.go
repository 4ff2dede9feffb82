package menu

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is the canonical menu item consumed by the cart.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Available   bool            `json:"available"`
}

// Record is a menu item as served by the menu API. Older API versions
// identify items with itemId, newer ones with id.
type Record struct {
	ItemID      string  `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Available   *bool   `json:"available,omitempty" yaml:"available,omitempty"`
}

var ErrMissingID = errors.New("menu record has neither itemId nor id")

// Normalize converts a Record to an Item. itemId wins over id when both are
// set; a missing available flag means the item is orderable.
func Normalize(r Record) (Item, error) {
	id := r.ItemID
	if id == "" {
		id = r.ID
	}
	if id == "" {
		return Item{}, fmt.Errorf("normalize %q: %w", r.Name, ErrMissingID)
	}
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return Item{
		ID:          id,
		Name:        r.Name,
		Price:       decimal.NewFromFloat(r.Price),
		Category:    r.Category,
		Description: r.Description,
		Available:   available,
	}, nil
}
