package merchant

import (
	"math"
	"unicode/utf8"
)

// IDLength is the exact length of an item id.
const IDLength = 8

// PriceUnset marks an item that has not been priced yet.
const PriceUnset int64 = -1

// Item is one catalog record. Values returned by Merchant are copies.
type Item struct {
	ID     string
	Artist string
	Title  string
	Notes  string

	OnHand   int
	Reserved int
	Price    int64

	UnitsSold int
	ValueSold int64
}

// Available returns the units that are neither sold nor reserved.
func (i Item) Available() int {
	return i.OnHand - i.Reserved
}

// Priced reports whether a price has been set.
func (i Item) Priced() bool {
	return i.Price != PriceUnset
}

// PriceRef returns the price, or nil when the item is unpriced.
func (i Item) PriceRef() *int64 {
	if !i.Priced() {
		return nil
	}
	p := i.Price
	return &p
}

func (i Item) sameDetails(artist, title, notes string) bool {
	return i.Artist == artist && i.Title == title && i.Notes == notes
}

// ValidID reports whether id has the catalog id format: exactly IDLength
// characters.
func ValidID(id string) bool {
	return utf8.ValidString(id) && utf8.RuneCountInString(id) == IDLength
}

func (s *state) find(id string, required bool) (*Item, error) {
	if !ValidID(id) {
		return nil, ErrInvalidIdentifier
	}
	it, ok := s.items[id]
	if !ok {
		if required {
			return nil, ErrUnknownItem
		}
		return nil, nil
	}
	return it, nil
}

// AddItem adds quantity units of the record id. A new id creates an unpriced
// item; a known id must carry the same artist, title and notes and has its
// stock increased.
func (m *Merchant) AddItem(quantity int, artist, title, notes, id string) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, false)
	if err != nil {
		return err
	}
	if it != nil {
		if !it.sameDetails(artist, title, notes) {
			return ErrItemMismatch
		}
		if quantity > math.MaxInt-it.OnHand {
			return quantityOverflow("on hand %d, adding %d", it.OnHand, quantity)
		}
		it.OnHand += quantity
		return nil
	}

	m.st.items[id] = &Item{
		ID:     id,
		Artist: artist,
		Title:  title,
		Notes:  notes,
		OnHand: quantity,
		Price:  PriceUnset,
	}
	m.st.order = append(m.st.order, id)
	return nil
}

// AddItemWithoutNotes is AddItem with empty notes.
func (m *Merchant) AddItemWithoutNotes(quantity int, artist, title, id string) error {
	return m.AddItem(quantity, artist, title, "", id)
}

// FindByID looks an item up. A malformed id is always an error; a missing item
// is ErrUnknownItem when required, otherwise ok is false.
func (m *Merchant) FindByID(id string, required bool) (item Item, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, required)
	if err != nil || it == nil {
		return Item{}, false, err
	}
	return *it, true, nil
}

// Item returns a copy of the item with the given id.
func (m *Merchant) Item(id string) (Item, error) {
	it, _, err := m.FindByID(id, true)
	return it, err
}

// Items returns copies of all items in insertion order.
func (m *Merchant) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Item, 0, len(m.st.order))
	for _, id := range m.st.order {
		out = append(out, *m.st.items[id])
	}
	return out
}

// SetPrice sets the unit price of an item. Under PriceWhenUnavailable the
// item must have no available stock.
func (m *Merchant) SetPrice(id string, price int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return err
	}
	if m.pricing == PriceWhenUnavailable && it.Available() > 0 {
		return ErrRecordNotInStock
	}
	if price < 0 {
		return ErrNegativePrice
	}

	it.Price = price
	return nil
}
