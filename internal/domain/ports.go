package domain

import "context"

// Locker is a named mutual-exclusion primitive usable across processes.
// The lock is held for the duration of fn and released on every exit path.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// SettlementBackend performs the actual value transfer and watches addresses
// for expected incoming transactions.
type SettlementBackend interface {
	PayTo(ctx context.Context, recipientAddress, appID string, amount int64, orderID, blockchainVersion string) error
	SubmitTransaction(ctx context.Context, recipientAddress, senderAddress, appID string, amount int64, orderID, payload string) error
	RegisterWatch(ctx context.Context, address, orderID, appID string) error
}

type Offer struct {
	ID        string
	Type      OfferType
	Amount    int64
	OrderMeta OrderMeta
}

// Cap bounds how many orders may be held against an offer. Zero means unbounded.
type Cap struct {
	Total   int64
	PerUser int64
}

// AppOffer is an offer as configured for one application, including the
// application-side wallet and cap.
type AppOffer struct {
	Offer         Offer
	AppID         string
	WalletAddress string
	Cap           Cap
}

type WalletAddresses struct {
	Sender    string
	Recipient string
}

type Application struct {
	ID              string
	Name            string
	WalletAddresses WalletAddresses

	// BlockchainVersion, when set in the app config, overrides the
	// per-wallet settlement version lookup.
	BlockchainVersion string
}

// Catalog resolves offers and applications. Implementations are expected to cache.
type Catalog interface {
	GetOffer(ctx context.Context, offerID string) (*Offer, error)
	GetAppOffers(ctx context.Context, appID string, offerType OfferType) ([]*AppOffer, error)
	GetApp(ctx context.Context, appID string) (*Application, error)
}

type User struct {
	ID        string
	AppID     string
	AppUserID string
}

// UserDirectory resolves users by their application-scoped id.
type UserDirectory interface {
	FindUser(ctx context.Context, appID, appUserID string) (*User, error)
}

type Wallet struct {
	Address string
}

// WalletResolver yields the most recently used wallet for a user/device and
// the settlement-backend version a wallet address lives on.
type WalletResolver interface {
	LastUsedWallet(ctx context.Context, userID, deviceID string) (*Wallet, error)
	BlockchainVersion(ctx context.Context, walletAddress string) (string, error)
}

// RateLimiter guards the earn path before an order transitions to pending.
type RateLimiter interface {
	AssertEarnLimit(ctx context.Context, userID, walletAddress string, amount int64) error
}

// TransferIndex correlates a memo-derived transfer order id with the locally
// persisted incoming transfer order.
type TransferIndex interface {
	Put(ctx context.Context, transferOrderID, orderID string) error
	Get(ctx context.Context, transferOrderID string) (string, error)
	Close() error
}

type PayloadKind string

const (
	PayloadPayToUser PayloadKind = "pay_to_user"
	PayloadEarn      PayloadKind = "earn"
	PayloadSpend     PayloadKind = "spend"
)

type PayloadOffer struct {
	ID     string
	Amount int64
}

type PayloadParty struct {
	UserID      string
	Title       string
	Description string
}

// ExternalOrderPayload is the decoded, validated content of an external-order
// signed token, discriminated by Kind.
type ExternalOrderPayload struct {
	Kind      PayloadKind
	Nonce     string
	Offer     PayloadOffer
	Sender    PayloadParty
	Recipient PayloadParty
}

func (p *ExternalOrderPayload) IsPayToUser() bool { return p.Kind == PayloadPayToUser }
func (p *ExternalOrderPayload) IsEarn() bool      { return p.Kind == PayloadEarn }

// TokenValidator decodes and validates an external-order token issued by an
// application, yielding its typed payload.
type TokenValidator interface {
	ValidateExternalOrderToken(ctx context.Context, token string, user *User) (*ExternalOrderPayload, error)
}

// ContentResolver owns the form-driven offer content flow: form submission
// may mutate a marketplace order's amount before it is finalized, and the
// content type feeds the counterparty view's fallback description.
type ContentResolver interface {
	SubmitForm(ctx context.Context, order *Order, form string) error
	ContentTypeOf(ctx context.Context, offerID string) (string, error)
}
