package models

import (
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
)

type OrderModel struct {
	ID      string             `gorm:"primaryKey;type:uuid"`
	OfferID string             `gorm:"index:idx_offer_nonce"`
	Nonce   string             `gorm:"index:idx_offer_nonce"`
	Amount  int64
	Status  domain.OrderStatus `gorm:"index:idx_status_expiration"`
	Origin  domain.OrderOrigin
	Kind    domain.OrderKind

	SenderAddress    string
	RecipientAddress string
	Memo             string

	ExpirationDate    *time.Time `gorm:"index:idx_status_expiration"`
	CreatedDate       time.Time  `gorm:"index:idx_created_date"`
	CurrentStatusDate time.Time

	ErrorCode    int
	ErrorMessage string
	ValueType    string
	ValueTxID    string

	Contexts []OrderContextModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type OrderContextModel struct {
	ID            uint             `gorm:"primaryKey"`
	OrderID       string           `gorm:"type:uuid;uniqueIndex:idx_order_user;index"`
	UserID        string           `gorm:"uniqueIndex:idx_order_user;index:idx_context_user"`
	AppID         string
	Type          domain.OfferType
	WalletAddress string           `gorm:"index:idx_context_wallet"`
	Title         string
	Description   string
	Content       string
	CallToAction  string
}
