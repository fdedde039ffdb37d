package cli

import (
	"fmt"
	"strings"

	"github.com/bookstore/recordstore/internal/merchant"
)

type itemView struct {
	ID        string `json:"id" yaml:"id"`
	Artist    string `json:"artist" yaml:"artist"`
	Title     string `json:"title" yaml:"title"`
	Notes     string `json:"notes" yaml:"notes"`
	OnHand    int    `json:"quantity_on_hand" yaml:"quantity_on_hand"`
	Reserved  int    `json:"quantity_reserved" yaml:"quantity_reserved"`
	Available int    `json:"available" yaml:"available"`
	UnitPrice *int64 `json:"unit_price" yaml:"unit_price"`
	UnitsSold int    `json:"units_sold" yaml:"units_sold"`
	ValueSold int64  `json:"value_sold" yaml:"value_sold"`
}

func newItemView(it merchant.Item) itemView {
	return itemView{
		ID:        it.ID,
		Artist:    it.Artist,
		Title:     it.Title,
		Notes:     it.Notes,
		OnHand:    it.OnHand,
		Reserved:  it.Reserved,
		Available: it.Available(),
		UnitPrice: it.PriceRef(),
		UnitsSold: it.UnitsSold,
		ValueSold: it.ValueSold,
	}
}

func (v itemView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s - %s\n", v.ID, v.Artist, v.Title)
	if v.Notes != "" {
		fmt.Fprintf(&b, "  notes:     %s\n", v.Notes)
	}
	fmt.Fprintf(&b, "  price:     %s\n", FormatPrice(v.UnitPrice))
	fmt.Fprintf(&b, "  stock:     %d on hand, %d reserved, %d available\n", v.OnHand, v.Reserved, v.Available)
	fmt.Fprintf(&b, "  sold:      %d for %s", v.UnitsSold, FormatPence(v.ValueSold))
	return b.String()
}

type itemListView []itemView

func (l itemListView) Text() string {
	if len(l) == 0 {
		return "No records in stock."
	}
	lines := make([]string, 0, len(l))
	for _, v := range l {
		lines = append(lines, fmt.Sprintf("%-8s  %4d/%-4d  %10s  %s - %s",
			v.ID, v.Available, v.OnHand, FormatPrice(v.UnitPrice), v.Artist, v.Title))
	}
	return strings.Join(lines, "\n")
}

type reservationView struct {
	ID       int    `json:"reservation_id" yaml:"reservation_id"`
	ItemID   string `json:"item_id" yaml:"item_id"`
	Quantity int    `json:"quantity" yaml:"quantity"`
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
}

func newReservationView(r merchant.Reservation, status string) reservationView {
	return reservationView{ID: r.ID, ItemID: r.ItemID, Quantity: r.Quantity, Status: status}
}

func (v reservationView) Text() string {
	s := fmt.Sprintf("Reservation %d: %d x %s", v.ID, v.Quantity, v.ItemID)
	if v.Status != "" {
		s += " (" + v.Status + ")"
	}
	return s
}

type reportView struct {
	merchant.Totals `yaml:",inline"`
	Reservations    []reservationView `json:"live_reservations" yaml:"live_reservations"`
}

func (v reportView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Distinct records:  %d\n", v.DistinctItems)
	fmt.Fprintf(&b, "Units on hand:     %d\n", v.OnHand)
	fmt.Fprintf(&b, "Units reserved:    %d (%s)\n", v.Reserved, FormatPence(v.ReservedValue))
	fmt.Fprintf(&b, "Units sold:        %d\n", v.UnitsSold)
	fmt.Fprintf(&b, "Revenue:           %s\n", FormatPence(v.ValueSold))
	fmt.Fprintf(&b, "Live reservations: %d", v.Totals.Reservations)
	for _, r := range v.Reservations {
		fmt.Fprintf(&b, "\n  %s", r.Text())
	}
	return b.String()
}

type messageView struct {
	Message string `json:"message" yaml:"message"`
}

func (v messageView) Text() string {
	return v.Message
}
