package cli

import (
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command.
func NewReportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarise stock, reservations and sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, false, func(m *merchant.Merchant) (any, error) {
				live := m.Reservations()
				view := reportView{
					Totals:       m.Totals(),
					Reservations: make([]reservationView, 0, len(live)),
				}
				for _, r := range live {
					view.Reservations = append(view.Reservations, newReservationView(r, ""))
				}
				return view, nil
			})
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Empty the store: records, reservations and sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				m.Reset()
				return messageView{Message: "Store reset."}, nil
			})
		},
	}
}

// NewResetSalesCommand creates the reset-sales command.
func NewResetSalesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-sales",
		Short: "Zero the sales counters, keeping stock and reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				m.ResetSalesTracking()
				return messageView{Message: "Sales tracking reset."}, nil
			})
		},
	}
}
