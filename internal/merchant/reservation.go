package merchant

import (
	"sort"
)

// Reservation is a hold on Quantity units of one item. ItemID is a lookup
// key into the catalog, not ownership.
type Reservation struct {
	ID       int    `json:"reservation_id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Reserve holds quantity units of item id and returns the new reservation id.
// Reservation ids increase monotonically and are never reused.
func (m *Merchant) Reserve(quantity int, id string) (int, error) {
	if id == "" {
		return 0, ErrInvalidIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if avail := it.Available(); quantity > avail {
		return 0, insufficientStock(quantity, avail)
	}
	if !it.Priced() {
		return 0, ErrPriceNotSet
	}

	it.Reserved += quantity
	m.st.lastReservationID++
	r := Reservation{ID: m.st.lastReservationID, ItemID: id, Quantity: quantity}
	m.st.reservations[r.ID] = r
	return r.ID, nil
}

// Reservation returns the reservation with the given id.
func (m *Merchant) Reservation(rid int) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.st.reservations[rid]
	if !ok {
		return Reservation{}, ErrUnknownReservation
	}
	return r, nil
}

// Reservations returns the live reservations ordered by id.
func (m *Merchant) Reservations() []Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.st.sortedReservations()
}

func (s *state) sortedReservations() []Reservation {
	out := make([]Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CancelReservation releases the held units back to available stock.
func (m *Merchant) CancelReservation(rid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, it, err := m.st.reservationItem(rid)
	if err != nil || it == nil {
		return err
	}

	it.Reserved -= r.Quantity
	delete(m.st.reservations, rid)
	return nil
}

// CommitReservation turns a reservation into a sale: the held units leave
// stock for good. Sales totals are not updated on this path; only Sell feeds
// the revenue counters.
func (m *Merchant) CommitReservation(rid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, it, err := m.st.reservationItem(rid)
	if err != nil || it == nil {
		return err
	}

	it.Reserved -= r.Quantity
	it.OnHand -= r.Quantity
	delete(m.st.reservations, rid)
	return nil
}

// reservationItem resolves a reservation and its item. A reservation whose
// item is gone yields a nil item and no error; callers then leave state as is.
func (s *state) reservationItem(rid int) (Reservation, *Item, error) {
	r, ok := s.reservations[rid]
	if !ok {
		return Reservation{}, nil, ErrUnknownReservation
	}
	it, ok := s.items[r.ItemID]
	if !ok {
		return r, nil, nil
	}
	return r, it, nil
}

// ReservedCount returns the reserved units across the catalog.
func (m *Merchant) ReservedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, it := range m.st.items {
		total += it.Reserved
	}
	return total
}

// ReservedValue returns the value of all reserved units at current prices.
// Unpriced items contribute nothing.
func (m *Merchant) ReservedValue() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, it := range m.st.items {
		if it.Priced() {
			total += int64(it.Reserved) * it.Price
		}
	}
	return total
}
