package domain

import (
	"context"
	"time"
)

// OrderFilter narrows order lookups. Zero values are ignored. ExcludeStatus
// negates a status ("everything but opened"), matching the store contract's
// status-negation filter.
type OrderFilter struct {
	OrderID       string
	OfferID       string
	UserID        string
	Nonce         string
	Status        OrderStatus
	ExcludeStatus OrderStatus
	Origin        OrderOrigin
	WalletAddress string
	ExpiredBefore time.Time
	CreatedBefore time.Time
	CreatedAfter  time.Time
}

// OrderRepository is the persistence contract for order records. The store
// performs no locking of its own; creation-time serialization is the caller's
// responsibility (see Locker).
type OrderRepository interface {
	// GetOne returns the single order matching the filter, or (nil, nil)
	// when no order matches.
	GetOne(ctx context.Context, filter OrderFilter) (*Order, error)

	// GetOpenOrder returns the opened order for (offerID, userID), or (nil, nil).
	GetOpenOrder(ctx context.Context, offerID, userID string) (*Order, error)

	// GetAll lists orders matching the filter, newest first.
	GetAll(ctx context.Context, filter OrderFilter, limit int) ([]*Order, error)

	// CountByOffer and CountByOfferAndUser count orders held against an
	// offer's cap. Failed orders release capacity and are not counted.
	CountByOffer(ctx context.Context, offerID string) (int64, error)
	CountByOfferAndUser(ctx context.Context, offerID, userID string) (int64, error)

	// Save upserts the order and its contexts.
	Save(ctx context.Context, order *Order) error

	// Remove deletes the order, guarded on it still being opened. An order
	// that already left the opened status is not touched and an error is
	// returned.
	Remove(ctx context.Context, order *Order) error

	// UpdateStatusIf transitions the order from one status to another as a
	// single conditional write and reports whether the row transitioned.
	// orderErr is persisted alongside a transition to failed, value alongside
	// a transition to completed; a persisted value clears any earlier error.
	UpdateStatusIf(ctx context.Context, orderID string, from, to OrderStatus, orderErr *OrderError, value *OrderValue, statusDate time.Time) (bool, error)

	// UpdateAmount rewrites only the order's amount, leaving its status
	// untouched whatever it has moved to in the meantime.
	UpdateAmount(ctx context.Context, orderID string, amount int64) error
}
