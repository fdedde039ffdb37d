package merchant

import (
	"context"
	"errors"
	"fmt"
)

// SnapshotVersion is the snapshot format written by this package.
const SnapshotVersion = 1

// Snapshot is the complete, self-contained state of a Merchant.
type Snapshot struct {
	Version           int            `json:"version"`
	Items             []SnapshotItem `json:"items"`
	Reservations      []Reservation  `json:"reservations"`
	TotalUnitsSold    int            `json:"total_units_sold"`
	TotalValueSold    int64          `json:"total_value_sold"`
	LastReservationID int            `json:"last_reservation_id"`
}

// SnapshotItem is the persisted form of an Item. UnitPrice is nil for an
// unpriced item.
type SnapshotItem struct {
	ID               string `json:"id"`
	Artist           string `json:"artist"`
	Title            string `json:"title"`
	Notes            string `json:"notes"`
	QuantityOnHand   int    `json:"quantity_on_hand"`
	QuantityReserved int    `json:"quantity_reserved"`
	UnitPrice        *int64 `json:"unit_price"`
	UnitsSold        int    `json:"units_sold"`
	ValueSold        int64  `json:"value_sold"`
}

// SnapshotWriter persists a snapshot as one unit.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap *Snapshot) error
}

// SnapshotReader reads back a snapshot written by a SnapshotWriter.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Snapshot captures the current state. Items keep insertion order and
// reservations are ordered by id.
func (m *Merchant) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &Snapshot{
		Version:           SnapshotVersion,
		Items:             make([]SnapshotItem, 0, len(m.st.order)),
		Reservations:      m.st.sortedReservations(),
		TotalUnitsSold:    m.st.unitsSold,
		TotalValueSold:    m.st.valueSold,
		LastReservationID: m.st.lastReservationID,
	}
	for _, id := range m.st.order {
		it := m.st.items[id]
		snap.Items = append(snap.Items, SnapshotItem{
			ID:               it.ID,
			Artist:           it.Artist,
			Title:            it.Title,
			Notes:            it.Notes,
			QuantityOnHand:   it.OnHand,
			QuantityReserved: it.Reserved,
			UnitPrice:        it.PriceRef(),
			UnitsSold:        it.UnitsSold,
			ValueSold:        it.ValueSold,
		})
	}
	return snap
}

// Restore replaces the whole state with snap. The snapshot is checked against
// every catalog and ledger invariant first; on error nothing changes.
func (m *Merchant) Restore(snap *Snapshot) error {
	st, err := stateFromSnapshot(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.st = st
	return nil
}

// Save writes the current state through w.
func (m *Merchant) Save(ctx context.Context, w SnapshotWriter) error {
	snap := m.Snapshot()
	if err := w.WriteSnapshot(ctx, snap); err != nil {
		return persistenceError("save", err)
	}
	return nil
}

// Load replaces the current state with the snapshot read from r. A read or
// validation failure leaves the current state untouched.
func (m *Merchant) Load(ctx context.Context, r SnapshotReader) error {
	snap, err := r.ReadSnapshot(ctx)
	if err != nil {
		return persistenceError("load", err)
	}
	if err := m.Restore(snap); err != nil {
		return persistenceError("load", err)
	}
	return nil
}

// errMalformedSnapshot is wrapped by every snapshot validation failure.
var errMalformedSnapshot = errors.New("malformed snapshot")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errMalformedSnapshot, fmt.Sprintf(format, args...))
}

func stateFromSnapshot(snap *Snapshot) (state, error) {
	if snap == nil {
		return state{}, malformed("nil snapshot")
	}
	if snap.Version != SnapshotVersion {
		return state{}, malformed("unsupported version %d", snap.Version)
	}
	if snap.TotalUnitsSold < 0 || snap.TotalValueSold < 0 || snap.LastReservationID < 0 {
		return state{}, malformed("negative counters")
	}

	st := newState()
	st.unitsSold = snap.TotalUnitsSold
	st.valueSold = snap.TotalValueSold
	st.lastReservationID = snap.LastReservationID

	for _, si := range snap.Items {
		if !ValidID(si.ID) {
			return state{}, malformed("item id %q", si.ID)
		}
		if _, dup := st.items[si.ID]; dup {
			return state{}, malformed("duplicate item %s", si.ID)
		}
		if si.QuantityReserved < 0 || si.QuantityOnHand < si.QuantityReserved {
			return state{}, malformed("item %s: on hand %d, reserved %d", si.ID, si.QuantityOnHand, si.QuantityReserved)
		}
		if si.UnitsSold < 0 || si.ValueSold < 0 {
			return state{}, malformed("item %s: negative sales", si.ID)
		}
		price := PriceUnset
		if si.UnitPrice != nil {
			if *si.UnitPrice < 0 {
				return state{}, malformed("item %s: negative price", si.ID)
			}
			price = *si.UnitPrice
		}
		st.items[si.ID] = &Item{
			ID:        si.ID,
			Artist:    si.Artist,
			Title:     si.Title,
			Notes:     si.Notes,
			OnHand:    si.QuantityOnHand,
			Reserved:  si.QuantityReserved,
			Price:     price,
			UnitsSold: si.UnitsSold,
			ValueSold: si.ValueSold,
		}
		st.order = append(st.order, si.ID)
	}

	held := make(map[string]int, len(st.items))
	for _, r := range snap.Reservations {
		if r.ID <= 0 || r.ID > st.lastReservationID {
			return state{}, malformed("reservation id %d outside 1..%d", r.ID, st.lastReservationID)
		}
		if _, dup := st.reservations[r.ID]; dup {
			return state{}, malformed("duplicate reservation %d", r.ID)
		}
		if _, ok := st.items[r.ItemID]; !ok {
			return state{}, malformed("reservation %d: unknown item %q", r.ID, r.ItemID)
		}
		if r.Quantity <= 0 {
			return state{}, malformed("reservation %d: quantity %d", r.ID, r.Quantity)
		}
		st.reservations[r.ID] = r
		held[r.ItemID] += r.Quantity
	}
	for id, it := range st.items {
		if held[id] != it.Reserved {
			return state{}, malformed("item %s: reserved %d, reservations hold %d", id, it.Reserved, held[id])
		}
	}

	return st, nil
}
