// Package merchant is the record-keeping engine of a single record store:
// the item catalog, the reservation ledger, sales tracking and whole-state
// snapshots. All state lives in one Merchant value guarded by one mutex.
package merchant

import (
	"sync"
)

// PricingPolicy decides when SetPrice is accepted.
type PricingPolicy int

const (
	// PriceWhenUnavailable only accepts a price while the item has no
	// available stock (on hand minus reserved is zero). This is the default.
	PriceWhenUnavailable PricingPolicy = iota

	// PriceAnyTime accepts a price regardless of stock.
	PriceAnyTime
)

// Option configures a Merchant.
type Option func(*Merchant)

// WithPricingPolicy sets the SetPrice precondition.
func WithPricingPolicy(p PricingPolicy) Option {
	return func(m *Merchant) {
		m.pricing = p
	}
}

// Merchant holds the catalog, the reservation ledger and the sales counters.
// It is safe for concurrent use; every operation runs under a single lock.
type Merchant struct {
	mu      sync.Mutex
	pricing PricingPolicy
	st      state
}

type state struct {
	items map[string]*Item
	order []string

	reservations map[int]Reservation

	unitsSold         int
	valueSold         int64
	lastReservationID int
}

func newState() state {
	return state{
		items:        make(map[string]*Item),
		reservations: make(map[int]Reservation),
	}
}

// New returns an empty Merchant.
func New(opts ...Option) *Merchant {
	m := &Merchant{st: newState()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset empties the catalog and the ledger and zeroes every counter,
// including the reservation id sequence.
func (m *Merchant) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.st = newState()
}

// StockCount returns the number of units on hand across the catalog,
// reserved units included.
func (m *Merchant) StockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, it := range m.st.items {
		total += it.OnHand
	}
	return total
}

// StockCountOf returns the available (unreserved) units of one item.
func (m *Merchant) StockCountOf(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return 0, err
	}
	return it.Available(), nil
}

// ItemNotes returns the free-text notes of an item ("" when none were given).
func (m *Merchant) ItemNotes(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return "", err
	}
	return it.Notes, nil
}

// DistinctItemCount returns the number of distinct ids in the catalog.
func (m *Merchant) DistinctItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.st.items)
}
