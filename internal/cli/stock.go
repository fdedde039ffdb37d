package cli

import (
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/spf13/cobra"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Artist string
	Title  string
	Notes  string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <id> <quantity>",
		Short: "Add copies of a record to stock",
		Long: `Add copies of a record to stock.

A new id creates an unpriced record. Adding to an existing id requires the
same artist, title and notes it was first added with.

Example:
  recordstore add PINK0001 5 --artist "Nick Drake" --title "Pink Moon"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := opts.intArg(cmd, "quantity", args[1])
			if err != nil {
				return err
			}
			id := args[0]
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				if err := m.AddItem(qty, opts.Artist, opts.Title, opts.Notes, id); err != nil {
					return nil, err
				}
				it, err := m.Item(id)
				if err != nil {
					return nil, err
				}
				return newItemView(it), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Artist, "artist", "", "record artist")
	cmd.Flags().StringVar(&opts.Title, "title", "", "record title")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form notes, part of the record's identity")

	return cmd
}

// NewPriceCommand creates the price command.
func NewPriceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price <id> <pounds>",
		Short: "Set the unit price of a record",
		Long: `Set the unit price of a record, in pounds.

With the default literal pricing policy a record can only be priced while
none of it is available for sale.

Example:
  recordstore price PINK0001 12.50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pence, err := ParsePounds(args[1])
			if err != nil {
				return opts.argError(cmd, "price", args[1], err)
			}
			id := args[0]
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				if err := m.SetPrice(id, pence); err != nil {
					return nil, err
				}
				it, err := m.Item(id)
				if err != nil {
					return nil, err
				}
				return newItemView(it), nil
			})
		},
	}
}

// NewSellCommand creates the sell command.
func NewSellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <id> <quantity>",
		Short: "Sell copies of a record from available stock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := opts.intArg(cmd, "quantity", args[1])
			if err != nil {
				return err
			}
			id := args[0]
			return opts.run(cmd, true, func(m *merchant.Merchant) (any, error) {
				if err := m.Sell(qty, id); err != nil {
					return nil, err
				}
				it, err := m.Item(id)
				if err != nil {
					return nil, err
				}
				return newItemView(it), nil
			})
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one record, or list every record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, false, func(m *merchant.Merchant) (any, error) {
				if len(args) == 1 {
					it, err := m.Item(args[0])
					if err != nil {
						return nil, err
					}
					return newItemView(it), nil
				}

				items := m.Items()
				list := make(itemListView, 0, len(items))
				for _, it := range items {
					list = append(list, newItemView(it))
				}
				return list, nil
			})
		},
	}
}
