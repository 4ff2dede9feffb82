package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"ordercart/internal/menu"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// MenuRef is the copy of a menu item taken when it was added. Later menu
// price changes do not reach lines already in the cart.
type MenuRef struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
}

// LineItem is one row of the cart.
type LineItem struct {
	ID              string          `json:"id"`
	MenuItem        MenuRef         `json:"menuItemRef"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
	SpecialRequests string          `json:"specialRequests,omitempty"`
	AddedAt         time.Time       `json:"addedAt"`
}

func refOf(it menu.Item) MenuRef {
	return MenuRef{
		ID:          it.ID,
		Name:        it.Name,
		Price:       it.Price,
		Category:    it.Category,
		Description: it.Description,
	}
}

func lineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

func clampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// mergeKey identifies lines that addItem folds together. Notes compare
// exactly; an absent note and an empty one are the same string here.
type mergeKey struct {
	menuItemID string
	note       string
}

func keyOf(li LineItem) mergeKey {
	return mergeKey{menuItemID: li.MenuItem.ID, note: li.SpecialRequests}
}

// Sanitize prepares persisted lines for use. Rows AddItem could never have
// produced are dropped: no line id, no menu item id, a non-positive unit
// price or quantity, or a repeated line id. Quantities above MaxQuantity are
// clamped and line totals are recomputed from unit price.
func Sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, li := range items {
		if li.ID == "" || li.MenuItem.ID == "" || li.Quantity < MinQuantity || li.UnitPrice.Sign() <= 0 {
			continue
		}
		if _, dup := seen[li.ID]; dup {
			continue
		}
		seen[li.ID] = struct{}{}
		if li.Quantity > MaxQuantity {
			li.Quantity = MaxQuantity
		}
		li.LineTotal = lineTotal(li.UnitPrice, li.Quantity)
		out = append(out, li)
	}
	return out
}
