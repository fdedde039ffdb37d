// Package cli implements the recordstore command line tool. Each invocation
// loads the store from its snapshot target, applies one operation and saves
// the result when the operation changed anything.
package cli

import (
	"fmt"
	"slices"

	"github.com/bookstore/recordstore/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	Store   string // snapshot target: .json, .db/.sqlite/.sqlite3 or postgres:// URL
	Pricing string // "literal" | "any-time"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// ValidPricing defines the allowed pricing policies.
var ValidPricing = []string{config.PricingLiteral, config.PricingAnyTime}

// NewRootCommand creates the root command for the recordstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordstore",
		Short: "Stock, price, reserve and sell records",
		Long: `Manage the stock of an independent record shop.

The store is read from --store before every command and written back
after any command that changes it. A missing file starts an empty store.

Prices are given in pounds (12.50) and stored in pence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidPricing, opts.Pricing) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid pricing policy %q: must be one of %v", opts.Pricing, ValidPricing))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVarP(&opts.Store, "store", "s", "recordstore.json", "snapshot target (file path or postgres:// URL)")
	cmd.PersistentFlags().StringVar(&opts.Pricing, "pricing", config.PricingLiteral, "pricing policy (literal|any-time)")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewPriceCommand(opts))
	cmd.AddCommand(NewSellCommand(opts))
	cmd.AddCommand(NewReserveCommand(opts))
	cmd.AddCommand(NewReservationCommand(opts))
	cmd.AddCommand(NewCancelCommand(opts))
	cmd.AddCommand(NewCommitCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewResetSalesCommand(opts))

	return cmd
}
