package merchant

import "math"

// Sale is the outcome of a direct sale.
type Sale struct {
	ItemID   string
	Quantity int
	Value    int64
}

// Sell sells quantity units of item id directly from available stock and
// records the sale in the store-wide and per-item totals. Reserved units are
// never touched.
func (m *Merchant) Sell(quantity int, id string) error {
	_, err := m.SellRecord(quantity, id)
	return err
}

// SellRecord is Sell that also reports the value booked by the sale.
func (m *Merchant) SellRecord(quantity int, id string) (Sale, error) {
	if quantity < 0 {
		return Sale{}, ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return Sale{}, err
	}

	avail := it.Available()
	if avail == 0 {
		return Sale{}, ErrRecordNotInStock
	}
	if avail < quantity {
		return Sale{}, insufficientStock(quantity, avail)
	}
	if !it.Priced() {
		return Sale{}, ErrPriceNotSet
	}

	if quantity > 0 && it.Price > math.MaxInt64/int64(quantity) {
		return Sale{}, quantityOverflow("value of %d at %d", quantity, it.Price)
	}
	value := it.Price * int64(quantity)
	if value > math.MaxInt64-it.ValueSold || value > math.MaxInt64-m.st.valueSold {
		return Sale{}, quantityOverflow("value sold plus %d", value)
	}
	if quantity > math.MaxInt-it.UnitsSold || quantity > math.MaxInt-m.st.unitsSold {
		return Sale{}, quantityOverflow("units sold plus %d", quantity)
	}

	it.OnHand -= quantity
	it.UnitsSold += quantity
	it.ValueSold += value
	m.st.unitsSold += quantity
	m.st.valueSold += value
	return Sale{ItemID: id, Quantity: quantity, Value: value}, nil
}

// UnitsSold returns the store-wide units sold since the last tracking reset.
func (m *Merchant) UnitsSold() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.st.unitsSold
}

// UnitsSoldOf returns the units of one item sold since the last tracking reset.
func (m *Merchant) UnitsSoldOf(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return 0, err
	}
	return it.UnitsSold, nil
}

// ValueSold returns the store-wide sales value since the last tracking reset.
func (m *Merchant) ValueSold() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.st.valueSold
}

// ValueSoldOf returns the sales value of one item since the last tracking reset.
func (m *Merchant) ValueSoldOf(id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, err := m.st.find(id, true)
	if err != nil {
		return 0, err
	}
	return it.ValueSold, nil
}

// ResetSalesTracking zeroes every sold-units and sold-value counter. Stock,
// prices and reservations are unchanged.
func (m *Merchant) ResetSalesTracking() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.st.unitsSold = 0
	m.st.valueSold = 0
	for _, it := range m.st.items {
		it.UnitsSold = 0
		it.ValueSold = 0
	}
}

// Totals is a point-in-time view of the store-wide aggregates.
type Totals struct {
	DistinctItems int   `json:"distinct_items" yaml:"distinct_items"`
	OnHand        int   `json:"on_hand" yaml:"on_hand"`
	Reserved      int   `json:"reserved" yaml:"reserved"`
	ReservedValue int64 `json:"reserved_value" yaml:"reserved_value"`
	UnitsSold     int   `json:"units_sold" yaml:"units_sold"`
	ValueSold     int64 `json:"value_sold" yaml:"value_sold"`
	Reservations  int   `json:"reservations" yaml:"reservations"`
}

// Totals computes all aggregates under one lock, so they are consistent with
// each other.
func (m *Merchant) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Totals{
		DistinctItems: len(m.st.items),
		UnitsSold:     m.st.unitsSold,
		ValueSold:     m.st.valueSold,
		Reservations:  len(m.st.reservations),
	}
	for _, it := range m.st.items {
		t.OnHand += it.OnHand
		t.Reserved += it.Reserved
		if it.Priced() {
			t.ReservedValue += int64(it.Reserved) * it.Price
		}
	}
	return t
}
