package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ordercart/internal/menu"
)

const DefaultCartID = "default"

// Snapshot is the persisted form of a cart.
type Snapshot struct {
	Items []LineItem `json:"items"`
	Totals
}

// Persister loads and saves snapshots. Load returns nil, nil when nothing
// has been saved yet.
type Persister interface {
	Load() (*Snapshot, error)
	Save(s Snapshot) error
}

type Op string

const (
	OpAdd    Op = "add"
	OpMerge  Op = "merge"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
)

// Event describes a mutation that has been applied and persisted.
type Event struct {
	CartID     string
	Seq        int64
	Op         Op
	LineID     string
	MenuItemID string
	Quantity   int
	ItemCount  int
	Totals     Totals
	At         time.Time
}

type Notifier interface {
	Notify(e Event) error
}

type NotifierFunc func(e Event) error

func (f NotifierFunc) Notify(e Event) error { return f(e) }

type multiNotifier []Notifier

func (m multiNotifier) Notify(e Event) error {
	for _, n := range m {
		if err := n.Notify(e); err != nil {
			return err
		}
	}
	return nil
}

// Notifiers fans an event out to ns in order, stopping at the first error.
func Notifiers(ns ...Notifier) Notifier { return multiNotifier(ns) }

// Now and NewID are split out for tests.
var (
	Now   = func() time.Time { return time.Now().UTC() }
	NewID = func() string { return uuid.NewString() }
)

type Option func(*Store)

func WithCartID(id string) Option { return func(s *Store) { s.id = id } }

func WithRates(r Rates) Option { return func(s *Store) { s.rates = r } }

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notify = n } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// Store owns the line items of one cart and keeps the derived totals in
// step with them. Every operation holds the store lock for its whole
// duration, persistence included.
type Store struct {
	mu      sync.Mutex
	id      string
	items   []LineItem
	totals  Totals
	rates   Rates
	persist Persister
	notify  Notifier
	log     *zap.Logger
	seq     int64
}

type nopPersister struct{}

func (nopPersister) Load() (*Snapshot, error) { return nil, nil }
func (nopPersister) Save(Snapshot) error      { return nil }

// New opens a store over p and restores whatever p last saved. Persisted
// totals are ignored and recomputed with the store's rates. A nil p keeps
// the cart in memory only.
func New(p Persister, opts ...Option) (*Store, error) {
	if p == nil {
		p = nopPersister{}
	}
	s := &Store{
		id:      DefaultCartID,
		rates:   DefaultRates(),
		persist: p,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("cart", s.id))

	snap, err := p.Load()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		s.items = Sanitize(snap.Items)
		if dropped := len(snap.Items) - len(s.items); dropped > 0 {
			s.log.Warn("dropped invalid persisted lines", zap.Int("dropped", dropped))
		}
	}
	s.totals = Compute(s.items, s.rates)
	s.log.Debug("cart restored", zap.Int("lines", len(s.items)), zap.String("total", s.totals.Total.String()))
	return s, nil
}

func (s *Store) ID() string { return s.id }

// AddItem adds quantity of it with the given note, folding into an existing
// line with the same menu item and note. Items without an id or with a
// non-positive price are ignored. Availability is the caller's concern.
func (s *Store) AddItem(it menu.Item, quantity int, specialRequests string) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" || it.Price.Sign() <= 0 {
		s.log.Debug("ignoring unpriceable menu item", zap.String("menuItem", it.ID), zap.String("price", it.Price.String()))
		return LineItem{}, nil
	}
	quantity = clampQuantity(quantity)

	key := mergeKey{menuItemID: it.ID, note: specialRequests}
	for _, li := range s.items {
		if keyOf(li) == key {
			return s.updateLocked(li.ID, li.Quantity+quantity, specialRequests, OpMerge)
		}
	}

	li := LineItem{
		ID:              NewID(),
		MenuItem:        refOf(it),
		Quantity:        quantity,
		UnitPrice:       it.Price,
		LineTotal:       lineTotal(it.Price, quantity),
		SpecialRequests: specialRequests,
		AddedAt:         Now(),
	}
	s.items = append(s.items, li)
	return li, s.commitLocked(Event{Op: OpAdd, LineID: li.ID, MenuItemID: it.ID, Quantity: li.Quantity})
}

// UpdateItem sets the quantity and note of a line. A quantity of zero or
// less removes the line; the note is always overwritten. Unknown ids are a
// no-op.
func (s *Store) UpdateItem(itemID string, quantity int, specialRequests string) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(itemID, quantity, specialRequests, OpUpdate)
}

func (s *Store) updateLocked(itemID string, quantity int, note string, op Op) (LineItem, error) {
	i := s.indexLocked(itemID)
	if i < 0 {
		s.log.Debug("update of unknown line", zap.String("line", itemID))
		return LineItem{}, nil
	}
	if quantity <= 0 {
		return LineItem{}, s.removeAtLocked(i)
	}
	if quantity > MaxQuantity {
		quantity = MaxQuantity
	}
	li := &s.items[i]
	li.Quantity = quantity
	li.LineTotal = lineTotal(li.UnitPrice, quantity)
	li.SpecialRequests = note
	return *li, s.commitLocked(Event{Op: op, LineID: li.ID, MenuItemID: li.MenuItem.ID, Quantity: quantity})
}

// RemoveItem deletes a line. Unknown ids are a no-op.
func (s *Store) RemoveItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(itemID)
	if i < 0 {
		s.log.Debug("remove of unknown line", zap.String("line", itemID))
		return nil
	}
	return s.removeAtLocked(i)
}

func (s *Store) removeAtLocked(i int) error {
	li := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return s.commitLocked(Event{Op: OpRemove, LineID: li.ID, MenuItemID: li.MenuItem.ID})
}

// ClearCart empties the cart and zeroes its totals.
func (s *Store) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.commitLocked(Event{Op: OpClear})
}

// CalculateTotals recomputes the cached totals from the current lines.
func (s *Store) CalculateTotals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = Compute(s.items, s.rates)
	return s.totals
}

// commitLocked runs after every in-memory mutation: totals first, then the
// save, then the notifier. A failed save leaves the in-memory cart intact.
func (s *Store) commitLocked(e Event) error {
	s.totals = Compute(s.items, s.rates)
	if err := s.persist.Save(s.snapshotLocked()); err != nil {
		s.log.Warn("persist cart failed", zap.String("op", string(e.Op)), zap.Error(err))
		return err
	}
	s.seq++
	e.CartID = s.id
	e.Seq = s.seq
	e.ItemCount = s.itemCountLocked()
	e.Totals = s.totals
	e.At = Now()
	if s.notify == nil {
		return nil
	}
	return s.notify.Notify(e)
}

func (s *Store) indexLocked(itemID string) int {
	for i := range s.items {
		if s.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Items: s.itemsLocked(), Totals: s.totals}
}

func (s *Store) itemsLocked() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) itemCountLocked() int {
	n := 0
	for _, li := range s.items {
		n += li.Quantity
	}
	return n
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ItemCount is the sum of quantities across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCountLocked()
}

func (s *Store) HasItems() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) > 0
}

func (s *Store) ItemByID(itemID string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(itemID); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// ItemByMenuItemID returns the first line for a menu item, whatever its note.
func (s *Store) ItemByMenuItemID(menuItemID string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, li := range s.items {
		if li.MenuItem.ID == menuItemID {
			return li, true
		}
	}
	return LineItem{}, false
}
