package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrPersistenceCorruption = errors.New("stored data is corrupted")
	ErrComposerUnavailable   = errors.New("message composer unavailable")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type InsufficientStockError struct {
	LocationID string
	ItemID     string
	Requested  float64
	Available  float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s at %s: requested %g, have %g",
		e.ItemID, e.LocationID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type ChannelDeliveryError struct {
	Channel   Channel
	Recipient string
	Err       error
}

func (e *ChannelDeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s to %s: %v", e.Channel, e.Recipient, e.Err)
}

func (e *ChannelDeliveryError) Unwrap() error { return e.Err }
