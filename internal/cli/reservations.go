package cli

import (
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/spf13/cobra"
)

// NewReserveCommand creates the reserve command.
func NewReserveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <id> <quantity>",
		Short: "Hold copies of a priced record for a customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := opts.intArg(cmd, "quantity", args[1])
			if err != nil {
				return err
			}
			id := args[0]
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				rid, err := m.Reserve(qty, id)
				if err != nil {
					return nil, err
				}
				return newReservationView(merchant.Reservation{ID: rid, ItemID: id, Quantity: qty}, "created"), nil
			})
		},
	}
}

// NewReservationCommand creates the reservation command.
func NewReservationCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reservation <reservation-id>",
		Short: "Show a live reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rid, err := opts.intArg(cmd, "reservation id", args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, false, func(m *merchant.Merchant) (any, error) {
				res, err := m.Reservation(rid)
				if err != nil {
					return nil, err
				}
				return newReservationView(res, ""), nil
			})
		},
	}
}

// NewCancelCommand creates the cancel command.
func NewCancelCommand(opts *RootOptions) *cobra.Command {
	return newSettleCommand(opts, "cancel", "Cancel a reservation, returning its copies to stock", "cancelled",
		func(m *merchant.Merchant, rid int) error { return m.CancelReservation(rid) })
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(opts *RootOptions) *cobra.Command {
	return newSettleCommand(opts, "commit", "Hand over reserved copies to the customer", "committed",
		func(m *merchant.Merchant, rid int) error { return m.CommitReservation(rid) })
}

func newSettleCommand(opts *RootOptions, use, short, status string, settle func(m *merchant.Merchant, rid int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <reservation-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rid, err := opts.intArg(cmd, "reservation id", args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				res, err := m.Reservation(rid)
				if err != nil {
					return nil, err
				}
				if err := settle(m, rid); err != nil {
					return nil, err
				}
				return newReservationView(res, status), nil
			})
		},
	}
}
