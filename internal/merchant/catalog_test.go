package merchant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockPriced adds an item and prices it the only way the default policy
// allows: price first while nothing is available, then stock it.
func stockPriced(t *testing.T, m *Merchant, id string, quantity int, price int64) {
	t.Helper()
	require.NoError(t, m.AddItem(0, "Artist "+id, "Title "+id, "", id))
	require.NoError(t, m.SetPrice(id, price))
	require.NoError(t, m.AddItem(quantity, "Artist "+id, "Title "+id, "", id))
}

func TestAddItemCreatesUnpricedItem(t *testing.T) {
	m := New()

	err := m.AddItem(5, "Nick Drake", "Pink Moon", "first pressing", "PINK0001")
	require.NoError(t, err)

	it, err := m.Item("PINK0001")
	require.NoError(t, err)
	assert.Equal(t, "Nick Drake", it.Artist)
	assert.Equal(t, "Pink Moon", it.Title)
	assert.Equal(t, "first pressing", it.Notes)
	assert.Equal(t, 5, it.OnHand)
	assert.Equal(t, 0, it.Reserved)
	assert.False(t, it.Priced())
	assert.Nil(t, it.PriceRef())
	assert.Equal(t, 1, m.DistinctItemCount())
}

func TestAddItemMergesQuantities(t *testing.T) {
	m := New()

	for _, q := range []int{3, 0, 7, 1} {
		require.NoError(t, m.AddItem(q, "Can", "Tago Mago", "", "TAGO0001"))
	}

	it, err := m.Item("TAGO0001")
	require.NoError(t, err)
	assert.Equal(t, 11, it.OnHand)
	assert.Equal(t, 1, m.DistinctItemCount())
}

func TestAddItemMismatch(t *testing.T) {
	m := New()
	require.NoError(t, m.AddItem(2, "Can", "Tago Mago", "gatefold", "TAGO0001"))

	tests := []struct {
		name                 string
		artist, title, notes string
	}{
		{"artist", "Neu!", "Tago Mago", "gatefold"},
		{"title", "Can", "Ege Bamyasi", "gatefold"},
		{"notes", "Can", "Tago Mago", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.AddItem(4, tt.artist, tt.title, tt.notes, "TAGO0001")
			assert.ErrorIs(t, err, ErrItemMismatch)
		})
	}

	it, err := m.Item("TAGO0001")
	require.NoError(t, err)
	assert.Equal(t, 2, it.OnHand, "mismatched adds must not change stock")
}

func TestAddItemValidation(t *testing.T) {
	m := New()

	assert.ErrorIs(t, m.AddItem(-1, "A", "B", "", "ABCD1234"), ErrInvalidQuantity)
	assert.ErrorIs(t, m.AddItem(1, "A", "B", "", ""), ErrInvalidIdentifier)
	assert.ErrorIs(t, m.AddItem(1, "A", "B", "", "SHORT"), ErrInvalidIdentifier)
	assert.ErrorIs(t, m.AddItem(1, "A", "B", "", "TOOLONG123"), ErrInvalidIdentifier)
	assert.Equal(t, 0, m.DistinctItemCount())
}

func TestAddItemWithoutNotes(t *testing.T) {
	m := New()
	require.NoError(t, m.AddItemWithoutNotes(1, "Low", "Things We Lost", "LOWW0001"))

	notes, err := m.ItemNotes("LOWW0001")
	require.NoError(t, err)
	assert.Equal(t, "", notes)

	// The same record added with explicit empty notes merges.
	require.NoError(t, m.AddItem(2, "Low", "Things We Lost", "", "LOWW0001"))
	total, err := m.StockCountOf("LOWW0001")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestFindByID(t *testing.T) {
	m := New()
	require.NoError(t, m.AddItem(1, "Slint", "Spiderland", "", "SPID0001"))

	it, ok, err := m.FindByID("SPID0001", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Spiderland", it.Title)

	_, ok, err = m.FindByID("MISSING1", false)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = m.FindByID("MISSING1", true)
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, _, err = m.FindByID("bad", false)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.NotErrorIs(t, err, ErrUnknownItem)
}

func TestItemsKeepInsertionOrder(t *testing.T) {
	m := New()
	ids := []string{"ZZZZ0001", "AAAA0001", "MMMM0001"}
	for _, id := range ids {
		require.NoError(t, m.AddItem(1, "a", "t", "", id))
	}
	require.NoError(t, m.AddItem(1, "a", "t", "", "AAAA0001"))

	var got []string
	for _, it := range m.Items() {
		got = append(got, it.ID)
	}
	assert.Equal(t, ids, got)
}

func TestSetPriceLiteralPolicy(t *testing.T) {
	m := New()
	require.NoError(t, m.AddItem(3, "Talk Talk", "Laughing Stock", "", "LAUG0001"))

	// Stock is available, so the default policy refuses the price.
	assert.ErrorIs(t, m.SetPrice("LAUG0001", 1999), ErrRecordNotInStock)

	require.NoError(t, m.AddItem(0, "Talk Talk", "Spirit of Eden", "", "EDEN0001"))
	require.NoError(t, m.SetPrice("EDEN0001", 2199))
	it, err := m.Item("EDEN0001")
	require.NoError(t, err)
	assert.Equal(t, int64(2199), it.Price)

	assert.ErrorIs(t, m.SetPrice("EDEN0001", -1), ErrNegativePrice)
	assert.ErrorIs(t, m.SetPrice("NOTHERE1", 10), ErrUnknownItem)
	assert.ErrorIs(t, m.SetPrice("x", 10), ErrInvalidIdentifier)
}

func TestSetPriceWhenFullyReserved(t *testing.T) {
	m := New()
	stockPriced(t, m, "HELD0001", 2, 500)

	_, err := m.Reserve(2, "HELD0001")
	require.NoError(t, err)

	// Nothing available any more, so a reprice is accepted.
	require.NoError(t, m.SetPrice("HELD0001", 650))
	assert.Equal(t, int64(1300), m.ReservedValue())
}

func TestSetPriceAnyTimePolicy(t *testing.T) {
	m := New(WithPricingPolicy(PriceAnyTime))
	require.NoError(t, m.AddItem(3, "Talk Talk", "Laughing Stock", "", "LAUG0001"))

	require.NoError(t, m.SetPrice("LAUG0001", 1999))
	require.NoError(t, m.SetPrice("LAUG0001", 0))
	assert.ErrorIs(t, m.SetPrice("LAUG0001", -5), ErrNegativePrice)

	it, err := m.Item("LAUG0001")
	require.NoError(t, err)
	assert.True(t, it.Priced())
	assert.Equal(t, int64(0), it.Price)
}

func TestStockQueries(t *testing.T) {
	m := New()
	stockPriced(t, m, "AAAA0001", 10, 100)
	stockPriced(t, m, "BBBB0001", 4, 250)

	_, err := m.Reserve(3, "AAAA0001")
	require.NoError(t, err)

	assert.Equal(t, 14, m.StockCount())
	assert.Equal(t, 3, m.ReservedCount())

	avail, err := m.StockCountOf("AAAA0001")
	require.NoError(t, err)
	assert.Equal(t, 7, avail)

	_, err = m.StockCountOf("CCCC0001")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestAddItemRejectsStockOverflow(t *testing.T) {
	m := New()
	require.NoError(t, m.AddItem(math.MaxInt, "X", "Y", "", "AAAA1111"))

	err := m.AddItem(1, "X", "Y", "", "AAAA1111")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	it, err := m.Item("AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, it.OnHand)
	require.NoError(t, m.Restore(m.Snapshot()))
}

func TestValidIDCountsCharacters(t *testing.T) {
	assert.True(t, ValidID("AAAA0001"))
	assert.True(t, ValidID("BJÖRK001"))
	assert.True(t, ValidID("ÅÄÖÜ0001"))
	assert.False(t, ValidID("BJÖRK0001"))
	assert.False(t, ValidID("BJÖRK01"))
	assert.False(t, ValidID("AAAA\xff01"))

	m := New()
	require.NoError(t, m.AddItem(1, "Björk", "Debut", "", "BJÖRK001"))
	_, err := m.Item("BJÖRK001")
	assert.NoError(t, err)
}
