package domain

import (
	"time"
)

type OrderStatus string

const (
	StatusOpened    OrderStatus = "opened"
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusFailed    OrderStatus = "failed"
)

type OrderOrigin string

const (
	OriginMarketplace OrderOrigin = "marketplace"
	OriginExternal    OrderOrigin = "external"
)

// OrderKind discriminates the order shapes sharing the lifecycle state machine.
type OrderKind string

const (
	KindMarketplace      OrderKind = "marketplace"
	KindExternal         OrderKind = "external"
	KindOutgoingTransfer OrderKind = "outgoing_transfer"
	KindIncomingTransfer OrderKind = "incoming_transfer"
)

type OfferType string

const (
	OfferTypeEarn  OfferType = "earn"
	OfferTypeSpend OfferType = "spend"
)

// DefaultNonce is recorded when the caller supplied no deduplication token.
const DefaultNonce = "default"

// BlockchainData is the settlement-layer addressing of an order. Immutable after creation.
type BlockchainData struct {
	SenderAddress    string `json:"sender_address"`
	RecipientAddress string `json:"recipient_address"`
	Memo             string `json:"memo,omitempty"`
}

type OrderMeta struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Content      string `json:"content,omitempty"`
	CallToAction string `json:"call_to_action,omitempty"`
}

// OrderContext binds one participating user to a role on an order.
// A single-party order has exactly one context, a peer-to-peer order two
// contexts with complementary roles.
type OrderContext struct {
	UserID        string
	AppID         string
	Type          OfferType
	WalletAddress string
	Meta          OrderMeta
}

// OrderValue is the settlement outcome payload, present once an order completed.
type OrderValue struct {
	Type          string `json:"type"`
	TransactionID string `json:"transaction_id"`
}

// OrderError is persisted on failed orders and surfaced through the closed-order view.
type OrderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Order struct {
	ID      string
	OfferID string
	Nonce   string
	Amount  int64
	Status  OrderStatus
	Origin  OrderOrigin
	Kind    OrderKind

	BlockchainData BlockchainData
	Contexts       []OrderContext

	// ExpirationDate is authoritative only while the order is opened; for
	// incoming transfers it bounds the pending correlation window.
	ExpirationDate    *time.Time
	CreatedDate       time.Time
	CurrentStatusDate time.Time

	Error *OrderError
	Value *OrderValue
}

// ContextForUser returns the context bound to userID, or nil if the user
// does not participate in the order.
func (o *Order) ContextForUser(userID string) *OrderContext {
	for i := range o.Contexts {
		if o.Contexts[i].UserID == userID {
			return &o.Contexts[i]
		}
	}
	return nil
}

// ContextForWallet resolves the context by wallet address, used when the
// viewer participates as a counterparty rather than by user id.
func (o *Order) ContextForWallet(walletAddress string) *OrderContext {
	for i := range o.Contexts {
		if o.Contexts[i].WalletAddress == walletAddress {
			return &o.Contexts[i]
		}
	}
	return nil
}

func (o *Order) IsExpired() bool {
	return o.ExpirationDate != nil && o.ExpirationDate.Before(time.Now())
}

func (o *Order) IsMarketplace() bool {
	return o.Kind == KindMarketplace
}

func (o *Order) IsP2P() bool {
	return len(o.Contexts) == 2
}

// FlowType reports the transfer direction of the order: "earn", "spend" or
// "p2p" for two-party orders.
func (o *Order) FlowType() string {
	if o.IsP2P() {
		return "p2p"
	}
	if len(o.Contexts) == 1 && o.Contexts[0].Type == OfferTypeEarn {
		return string(OfferTypeEarn)
	}
	return string(OfferTypeSpend)
}

// IsEarn reports whether submission settles by paying the user, i.e. the
// order is a one-sided earn. P2P orders settle through the sender's spend path.
func (o *Order) IsEarn() bool {
	return o.FlowType() == string(OfferTypeEarn)
}

// SetStatus moves the order to the given status and advances CurrentStatusDate.
func (o *Order) SetStatus(status OrderStatus) {
	o.Status = status
	o.CurrentStatusDate = time.Now()
}
