// Package merchanttest builds populated merchants for tests in other packages.
package merchanttest

import (
	"testing"

	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/stretchr/testify/require"
)

// Stock adds qty units of a priced record under id. The price is set while
// the record has no stock so it works under either pricing policy.
func Stock(t testing.TB, m *merchant.Merchant, id string, qty int, price int64) {
	t.Helper()
	require.NoError(t, m.AddItemWithoutNotes(0, "Artist "+id, "Title "+id, id))
	require.NoError(t, m.SetPrice(id, price))
	if qty > 0 {
		require.NoError(t, m.AddItemWithoutNotes(qty, "Artist "+id, "Title "+id, id))
	}
}

// Populated returns a merchant with three records, some sales and two live
// reservations (ids 1 and 3; 2 was cancelled).
//
//	AAAA0001  10 in, 2 sold at 100, 4 reserved
//	BBBB0001   3 in at 2500
//	CCCC0001   7 in, unpriced, notes "sealed"
func Populated(t testing.TB) *merchant.Merchant {
	t.Helper()
	m := merchant.New()
	Stock(t, m, "AAAA0001", 10, 100)
	Stock(t, m, "BBBB0001", 3, 2500)
	require.NoError(t, m.AddItem(7, "Unpriced", "Record", "sealed", "CCCC0001"))
	require.NoError(t, m.Sell(2, "AAAA0001"))
	_, err := m.Reserve(1, "AAAA0001")
	require.NoError(t, err)
	rid, err := m.Reserve(2, "BBBB0001")
	require.NoError(t, err)
	_, err = m.Reserve(3, "AAAA0001")
	require.NoError(t, err)
	require.NoError(t, m.CancelReservation(rid))
	return m
}
