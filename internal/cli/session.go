package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bookstore/recordstore/internal/config"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/bookstore/recordstore/internal/snapshot"
	"github.com/bookstore/recordstore/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// operation runs against a loaded merchant and returns the value to print.
type operation func(m *merchant.Merchant) (any, error)

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) policy() merchant.PricingPolicy {
	if o.Pricing == config.PricingAnyTime {
		return merchant.PriceAnyTime
	}
	return merchant.PriceWhenUnavailable
}

// run loads the store, applies op, saves when mutates is set and op
// succeeded, and prints the outcome.
func (o *RootOptions) run(cmd *cobra.Command, mutates bool, op operation) error {
	out := o.formatter(cmd)
	log := logger.NewConsoleLogger(o.Verbose)
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := snapshot.Open(o.Store, log)
	if err != nil {
		_ = out.Error("store_unavailable", err.Error())
		return WrapExitError(ExitCommandError, "cannot open store", err)
	}
	defer store.Close()

	m := merchant.New(merchant.WithPricingPolicy(o.policy()))
	switch err := m.Load(ctx, store); {
	case err == nil:
		out.VerboseLog("Loaded %d records from %s", m.DistinctItemCount(), o.Store)
	case errors.Is(err, snapshot.ErrNotFound):
		out.VerboseLog("No snapshot at %s, starting empty", o.Store)
	default:
		_ = out.Error(merchant.Code(err), err.Error())
		return WrapExitError(ExitCommandError, "cannot load store", err)
	}

	result, err := op(m)
	if err != nil {
		_ = out.Error(merchant.Code(err), err.Error())
		return WrapExitError(ExitFailure, "operation refused", err)
	}

	if mutates {
		if err := m.Save(ctx, store); err != nil {
			_ = out.Error(merchant.Code(err), err.Error())
			return WrapExitError(ExitCommandError, "cannot save store", err)
		}
		log.Debug("Store saved", zap.String("target", o.Store), zap.Int("items", m.DistinctItemCount()))
	}

	return out.Success(result)
}

// argError reports a malformed positional argument.
func (o *RootOptions) argError(cmd *cobra.Command, name, value string, err error) error {
	msg := fmt.Sprintf("invalid %s %q", name, value)
	_ = o.formatter(cmd).Error("invalid_argument", msg)
	return WrapExitError(ExitCommandError, msg, err)
}

func (o *RootOptions) intArg(cmd *cobra.Command, name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, o.argError(cmd, name, value, err)
	}
	return n, nil
}
