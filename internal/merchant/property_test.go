package merchant

import (
	"context"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

var propertyIDs = []string{"AAAA0001", "BBBB0001", "CCCC0001", "bad-id"}

// checkInvariants fails t when the engine state breaks a catalog or ledger
// invariant.
func checkInvariants(t *rapid.T, m *Merchant) {
	held := map[string]int{}
	seen := map[int]bool{}
	for _, r := range m.Reservations() {
		if seen[r.ID] {
			t.Fatalf("duplicate reservation id %d", r.ID)
		}
		seen[r.ID] = true
		if r.Quantity <= 0 {
			t.Fatalf("reservation %d holds %d units", r.ID, r.Quantity)
		}
		if _, err := m.Item(r.ItemID); err != nil {
			t.Fatalf("reservation %d refers to missing item %s", r.ID, r.ItemID)
		}
		held[r.ItemID] += r.Quantity
	}
	for _, it := range m.Items() {
		if it.Reserved != held[it.ID] {
			t.Fatalf("item %s: reserved %d, reservations hold %d", it.ID, it.Reserved, held[it.ID])
		}
		if it.Reserved < 0 || it.OnHand < it.Reserved {
			t.Fatalf("item %s: on hand %d, reserved %d", it.ID, it.OnHand, it.Reserved)
		}
	}
}

func TestInvariantsHoldUnderRandomOperations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		policy := rapid.SampledFrom([]PricingPolicy{PriceWhenUnavailable, PriceAnyTime}).Draw(t, "policy")
		m := New(WithPricingPolicy(policy))

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(propertyIDs).Draw(t, "id")
			qty := rapid.IntRange(-2, 8).Draw(t, "qty")
			rid := rapid.IntRange(0, 12).Draw(t, "rid")

			before := m.Snapshot()
			var err error
			switch rapid.IntRange(0, 7).Draw(t, "op") {
			case 0:
				err = m.AddItem(qty, "artist", "title", "", id)
			case 1:
				err = m.AddItem(qty, "other", "title", "", id)
			case 2:
				err = m.SetPrice(id, int64(qty)*100)
			case 3:
				_, err = m.Reserve(qty, id)
			case 4:
				err = m.Sell(qty, id)
			case 5:
				err = m.CancelReservation(rid)
			case 6:
				err = m.CommitReservation(rid)
			case 7:
				m.ResetSalesTracking()
			}
			if err != nil && !reflect.DeepEqual(before, m.Snapshot()) {
				t.Fatalf("failed operation mutated state: %v", err)
			}
			checkInvariants(t, m)
		}
	})
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := New(WithPricingPolicy(PriceAnyTime))
		n := rapid.IntRange(0, 20).Draw(t, "n")
		for i := 0; i < n; i++ {
			id := rapid.SampledFrom(propertyIDs[:3]).Draw(t, "id")
			_ = m.AddItem(rapid.IntRange(0, 5).Draw(t, "qty"), "a", "t", "", id)
			_ = m.SetPrice(id, rapid.Int64Range(0, 5000).Draw(t, "price"))
			_, _ = m.Reserve(rapid.IntRange(1, 3).Draw(t, "hold"), id)
			_ = m.Sell(rapid.IntRange(0, 2).Draw(t, "sell"), id)
		}

		store := &memStore{}
		if err := m.Save(context.Background(), store); err != nil {
			t.Fatalf("save: %v", err)
		}
		loaded := New()
		if err := loaded.Load(context.Background(), store); err != nil {
			t.Fatalf("load: %v", err)
		}
		if got, want := loaded.Totals(), m.Totals(); got != want {
			t.Fatalf("totals differ: got %+v, want %+v", got, want)
		}
		checkInvariants(t, loaded)
	})
}
