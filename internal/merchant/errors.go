package merchant

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Merchant operations. Details are attached with
// %w wrapping, so callers should match with errors.Is.
var (
	// ErrInvalidIdentifier is returned for empty or malformed item ids.
	ErrInvalidIdentifier = errors.New("merchant: invalid identifier")

	// ErrUnknownItem is returned when a well-formed id is not in the catalog.
	// It also matches ErrInvalidIdentifier.
	ErrUnknownItem = fmt.Errorf("%w: unknown item", ErrInvalidIdentifier)

	// ErrItemMismatch is returned when an add names an existing id with
	// different descriptive fields.
	ErrItemMismatch = errors.New("merchant: item details do not match existing record")

	// ErrInvalidQuantity is returned for negative quantities on add, sell and
	// reserve, for empty reservations, and for quantities whose stock or sale
	// totals cannot be represented.
	ErrInvalidQuantity = errors.New("merchant: invalid quantity")

	ErrNegativePrice     = errors.New("merchant: negative price")
	ErrRecordNotInStock  = errors.New("merchant: record not in stock")
	ErrInsufficientStock = errors.New("merchant: insufficient stock")
	ErrPriceNotSet       = errors.New("merchant: price not set")

	// ErrUnknownReservation is returned for reservation ids not in the ledger.
	ErrUnknownReservation = errors.New("merchant: unknown reservation")

	// ErrPersistence wraps every save/load failure.
	ErrPersistence = errors.New("merchant: persistence failure")
)

func insufficientStock(requested, available int) error {
	return fmt.Errorf("%w: requested=%d, available=%d", ErrInsufficientStock, requested, available)
}

func quantityOverflow(format string, args ...any) error {
	return fmt.Errorf("%w: %s would overflow", ErrInvalidQuantity, fmt.Sprintf(format, args...))
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// IsStockError reports whether err is caused by a lack of sellable stock.
func IsStockError(err error) bool {
	return errors.Is(err, ErrRecordNotInStock) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound reports whether err refers to an item or reservation that does
// not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrUnknownReservation)
}

// Code returns a stable snake_case name for the sentinel behind err, for use
// in API and CLI error bodies. Unrecognised errors are "internal".
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, ErrItemMismatch):
		return "item_mismatch"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrNegativePrice):
		return "negative_price"
	case errors.Is(err, ErrRecordNotInStock):
		return "record_not_in_stock"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrPriceNotSet):
		return "price_not_set"
	case errors.Is(err, ErrUnknownReservation):
		return "unknown_reservation"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "internal"
}
